package driver_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-docpipeline/pkg/driver"
	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// scriptedSubmitter applies a function per step name and records the steps it was asked to run.
type scriptedSubmitter struct {
	mu    sync.Mutex
	calls []string
	steps map[string]func(model.Document) model.Document
}

func (s *scriptedSubmitter) Submit(_ context.Context, step model.StepDescriptor, doc model.Document) model.Document {
	s.mu.Lock()
	s.calls = append(s.calls, step.Name)
	s.mu.Unlock()

	if doc.Failed {
		return doc
	}

	return s.steps[step.Name](doc)
}

type transition struct {
	state driver.State
	step  string
}

type recordingTracer struct {
	mu          sync.Mutex
	transitions []transition
}

func (r *recordingTracer) OnTransition(_ string, state driver.State, stepName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, transition{state: state, step: stepName})
}

func upper(doc model.Document) model.Document {
	return doc.WithContent([]byte(strings.ToUpper(string(doc.Content))))
}

func fail(doc model.Document) model.Document {
	return doc.Fail()
}

func TestProcess(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		steps       []model.StepDescriptor
		input       model.Document
		want        model.Document
		calls       []string
		transitions []transition
	}{
		"empty chain": {
			input: model.Document{Name: "doc1", Content: []byte("hello")},
			want:  model.Document{Name: "doc1", Content: []byte("hello")},
			transitions: []transition{
				{state: driver.StatePending},
				{state: driver.StateTerminal},
			},
		},
		"steps run in ordinal order": {
			steps: []model.StepDescriptor{
				{Name: "suffix", Ordinal: 1},
				{Name: "upper", Ordinal: 0},
			},
			input: model.Document{Name: "doc1", Content: []byte("hello")},
			want:  model.Document{Name: "doc1", Content: []byte("HELLO!")},
			calls: []string{"upper", "suffix"},
			transitions: []transition{
				{state: driver.StatePending},
				{state: driver.StateRunning, step: "upper"},
				{state: driver.StateCompleted, step: "upper"},
				{state: driver.StateRunning, step: "suffix"},
				{state: driver.StateCompleted, step: "suffix"},
				{state: driver.StateTerminal},
			},
		},
		"failure passes through the remaining steps": {
			steps: []model.StepDescriptor{
				{Name: "upper", Ordinal: 0},
				{Name: "fail", Ordinal: 1},
				{Name: "suffix", Ordinal: 2},
			},
			input: model.Document{Name: "doc1", Content: []byte("hello")},
			want:  model.Document{Name: "doc1", Content: []byte("HELLO"), Failed: true},
			calls: []string{"upper", "fail", "suffix"},
			transitions: []transition{
				{state: driver.StatePending},
				{state: driver.StateRunning, step: "upper"},
				{state: driver.StateCompleted, step: "upper"},
				{state: driver.StateRunning, step: "fail"},
				{state: driver.StateFailed, step: "fail"},
				{state: driver.StatePassThrough, step: "suffix"},
				{state: driver.StateTerminal},
			},
		},
		"already failed input": {
			steps: []model.StepDescriptor{{Name: "upper"}},
			input: model.Document{Name: "doc1", Content: []byte("hello"), Failed: true},
			want:  model.Document{Name: "doc1", Content: []byte("hello"), Failed: true},
			calls: []string{"upper"},
			transitions: []transition{
				{state: driver.StatePending},
				{state: driver.StatePassThrough, step: "upper"},
				{state: driver.StateTerminal},
			},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			sub := &scriptedSubmitter{steps: map[string]func(model.Document) model.Document{
				"upper":  upper,
				"fail":   fail,
				"suffix": func(doc model.Document) model.Document { return doc.WithContent(append(doc.Content, '!')) },
			}}
			tracer := &recordingTracer{}
			drv := driver.New(sub, driver.WithTracer(tracer))

			got := drv.Process(t.Context(), tc.steps, tc.input)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.calls, sub.calls)
			assert.Equal(t, tc.transitions, tracer.transitions)
		})
	}
}

func TestProcessIsRestartable(t *testing.T) {
	t.Parallel()

	sub := &scriptedSubmitter{steps: map[string]func(model.Document) model.Document{"upper": upper}}
	drv := driver.New(sub)
	steps := []model.StepDescriptor{{Name: "upper"}}
	input := model.Document{Name: "doc1", Content: []byte("hello")}

	first := drv.Process(t.Context(), steps, input)
	second := drv.Process(t.Context(), steps, input)
	assert.Equal(t, first, second)
	assert.Equal(t, "hello", string(input.Content))
}

func TestOrdered(t *testing.T) {
	t.Parallel()

	steps := []model.StepDescriptor{{Name: "c", Ordinal: 2}, {Name: "a", Ordinal: 0}, {Name: "b", Ordinal: 1}}
	got := driver.Ordered(steps)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Name, got[1].Name, got[2].Name})
	assert.Equal(t, "c", steps[0].Name)
}

func TestSplit(t *testing.T) {
	t.Parallel()

	success, failure := driver.Split([]model.Document{
		{Name: "ok", Content: []byte("a")},
		{Name: "ko", Content: []byte("b"), Failed: true},
		{Name: "ok2", Content: []byte("c")},
	})
	assert.Equal(t, []model.Record{{Name: "ok", Content: []byte("a")}, {Name: "ok2", Content: []byte("c")}}, success)
	assert.Equal(t, []model.Record{{Name: "ko", Content: []byte("b")}}, failure)
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pass_through", driver.StatePassThrough.String())
	assert.Equal(t, "unknown", driver.State(42).String())
}

func writeStep(t *testing.T, name, body string, ordinal, threshold int) model.StepDescriptor {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.Mkdir(dir, 0o755))
	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return model.StepDescriptor{
		Name:               name,
		ExecutablePath:     path,
		ComponentDir:       dir,
		Timeout:            10 * time.Second,
		ErrorLineThreshold: threshold,
		Ordinal:            ordinal,
	}
}

func TestProcessWithSubprocesses(t *testing.T) {
	t.Parallel()

	sch, err := executor.New(executor.WithScratchRoot(t.TempDir()), executor.WithWorkers(2))
	require.NoError(t, err)
	defer sch.Close() //nolint:errcheck

	steps := []model.StepDescriptor{
		writeStep(t, "upper", "tr a-z A-Z", 0, 0),
		writeStep(t, "noisy", "cat\necho warning >&2", 1, 0),
		writeStep(t, "suffix", "cat\necho -n '!'", 2, 0),
	}
	drv := driver.New(sch)

	docs := []model.Document{
		drv.Process(t.Context(), steps, model.Document{Name: "doc1", Content: []byte("hello")}),
		drv.Process(t.Context(), steps[:1], model.Document{Name: "doc2", Content: []byte("world")}),
	}
	assert.Equal(t, model.Document{Name: "doc1", Content: []byte("HELLO"), Failed: true}, docs[0])
	assert.Equal(t, model.Document{Name: "doc2", Content: []byte("WORLD")}, docs[1])

	success, failure := driver.Split(docs)
	assert.Equal(t, []model.Record{{Name: "doc2", Content: []byte("WORLD")}}, success)
	assert.Equal(t, []model.Record{{Name: "doc1", Content: []byte("HELLO")}}, failure)
}

func TestProcessNoisyStepOverThreshold(t *testing.T) {
	t.Parallel()

	sch, err := executor.New(executor.WithScratchRoot(t.TempDir()), executor.WithWorkers(2))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, sch.Close())
	})

	noisy := func(lines int) string {
		return "cat\n" + strings.Repeat("echo diagnostic >&2\n", lines)
	}

	tcs := map[string]struct {
		stderrLines int
		want        model.Document
	}{
		"at threshold": {
			stderrLines: 4,
			want:        model.Document{Name: "doc1", Content: []byte("HELLO")},
		},
		"over threshold": {
			stderrLines: 5,
			want:        model.Document{Name: "doc1", Content: []byte("HELLO"), Failed: true},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			steps := []model.StepDescriptor{
				writeStep(t, "Upper", "tr a-z A-Z", 0, 0),
				writeStep(t, "AlwaysNoisy", noisy(tc.stderrLines), 1, 4),
			}

			got := driver.New(sch).Process(t.Context(), steps, model.Document{Name: "doc1", Content: []byte("hello")})
			assert.Equal(t, tc.want, got)
		})
	}
}
