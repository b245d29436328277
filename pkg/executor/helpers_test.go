package executor_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askiada/go-docpipeline/internal/process"
	"github.com/askiada/go-docpipeline/pkg/executor"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// writeStep creates a component directory holding run.sh and returns the matching descriptor.
func writeStep(t *testing.T, name, body string, threshold int) model.StepDescriptor {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))

	return model.StepDescriptor{
		Name:               name,
		ExecutablePath:     path,
		ComponentDir:       dir,
		Timeout:            10 * time.Second,
		ErrorLineThreshold: threshold,
	}
}

func newScheduler(t *testing.T, opts ...executor.Option) (*executor.Scheduler, string) {
	t.Helper()

	scratch := t.TempDir()
	sch, err := executor.New(append([]executor.Option{executor.WithScratchRoot(scratch)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, sch.Close())
	})

	return sch, scratch
}

type invocation struct {
	step    string
	doc     string
	outcome executor.Outcome
}

type recordingObserver struct {
	mu          sync.Mutex
	invocations []invocation
}

func (o *recordingObserver) OnInvocation(step model.StepDescriptor, docName string, outcome executor.Outcome, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.invocations = append(o.invocations, invocation{step: step.Name, doc: docName, outcome: outcome})
}

// fakeRunner echoes its input and tracks how many invocations overlap.
type fakeRunner struct {
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
	delay    time.Duration
}

func (r *fakeRunner) Run(ctx context.Context, command process.Command) (*model.ExecutionResult, error) {
	r.calls.Add(1)
	current := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)

	for {
		peak := r.peak.Load()
		if current <= peak || r.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.delay):
	}

	return &model.ExecutionResult{Stdout: command.Stdin}, nil
}
