package drawer_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/pipeline"
	"github.com/askiada/go-docpipeline/pkg/pipeline/drawer"
	"github.com/askiada/go-docpipeline/pkg/pipeline/measure"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

func TestAddChain(t *testing.T) {
	t.Parallel()

	inv := measure.NewInvocations()
	inv.OnInvocation(model.StepDescriptor{Name: "upper", Ordinal: 0}, "doc1", executor.OutcomeSucceeded, time.Millisecond)
	inv.OnInvocation(model.StepDescriptor{Name: "noisy", Ordinal: 1}, "doc1", executor.OutcomeThresholdExceeded, time.Millisecond)

	drw := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "graph.dot"))
	require.NoError(t, drw.AddStep("process"))
	require.NoError(t, drw.AddChain("process", inv.Snapshot()))

	var buf bytes.Buffer
	require.NoError(t, drw.Write(&buf))
	out := strings.ToLower(buf.String())

	assert.True(t, strings.HasPrefix(out, "strict digraph {"))
	assert.Contains(t, out, `"process" -> "1. upper"`)
	assert.Contains(t, out, `"1. upper" -> "2. noisy"`)
	// no failure is blue, all failures are red
	assert.Contains(t, out, `color="#0000f0"`)
	assert.Contains(t, out, `color="#f00000"`)
	assert.Contains(t, out, "runs: 1, failed: 1, skipped: 0")
}

func TestAddChainSkippedAreNotFailures(t *testing.T) {
	t.Parallel()

	step := model.StepDescriptor{Name: "suffix", Ordinal: 2}
	inv := measure.NewInvocations()
	inv.OnInvocation(step, "doc1", executor.OutcomeSucceeded, time.Millisecond)
	inv.OnInvocation(step, "doc2", executor.OutcomeTimedOut, time.Millisecond)
	inv.OnInvocation(step, "doc3", executor.OutcomeSkipped, 0)
	inv.OnInvocation(step, "doc4", executor.OutcomeSkipped, 0)

	drw := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "graph.dot"))
	require.NoError(t, drw.AddChain("", inv.Snapshot()))

	var buf bytes.Buffer
	require.NoError(t, drw.Write(&buf))
	assert.Contains(t, buf.String(), "runs: 2, failed: 1, skipped: 2")
}

func TestAddStepAndLinkAreIdempotent(t *testing.T) {
	t.Parallel()

	drw := drawer.NewDOTDrawer(filepath.Join(t.TempDir(), "graph.dot"))
	require.NoError(t, drw.AddStep("a"))
	require.NoError(t, drw.AddStep("a"))
	require.NoError(t, drw.AddStep("b"))
	require.NoError(t, drw.AddLink("a", "b"))
	require.NoError(t, drw.AddLink("a", "b"))
	require.Error(t, drw.AddLink("a", "missing"))
	require.Error(t, drw.SetTotalTime("missing", time.Now()))
}

func TestPipelineDrawer(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "graph.dot")
	msr := measure.NewDefaultMeasure()
	inv := measure.NewInvocations()
	inv.OnInvocation(model.StepDescriptor{Name: "upper"}, "doc1", executor.OutcomeSucceeded, time.Millisecond)

	pipe, err := pipeline.New(t.Context(),
		measure.PipelineMeasure(msr),
		drawer.PipelineDrawer(drawer.NewDOTDrawer(path), msr, drawer.WithChain("process", inv)),
	)
	require.NoError(t, err)

	root, err := pipeline.AddRootStep(pipe, "root", func(ctx context.Context, rootChan chan<- int) error {
		for i := range 3 {
			rootChan <- i
		}

		return nil
	})
	require.NoError(t, err)

	process, err := pipeline.AddStepOneToOne(pipe, "process", root, func(_ context.Context, i int) (int, error) {
		return i, nil
	})
	require.NoError(t, err)
	require.NoError(t, pipeline.AddSink(pipe, "sink", process, func(context.Context, int) error { return nil }))
	require.NoError(t, pipe.Run())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)

	for _, edge := range []string{
		`"start" -> "root"`,
		`"root" -> "process"`,
		`"process" -> "sink"`,
		`"sink" -> "end"`,
		`"process" -> "1. upper"`,
	} {
		assert.Contains(t, out, edge)
	}
}
