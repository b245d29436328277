package pipeline_test

import (
	"context"
	"sync"
	"time"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

func countTo(total int) func(ctx context.Context, rootChan chan<- int) error {
	return func(ctx context.Context, rootChan chan<- int) error {
		for i := range total {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}

		return nil
	}
}

// recorder is a pipeline option keeping track of the hooks it received.
type recorder struct {
	mu       sync.Mutex
	prepared []string
	outputs  map[string]int
	finished bool
	failNew  bool
}

func newRecorder() *recorder {
	return &recorder{outputs: map[string]int{}}
}

func (r *recorder) New() error {
	if r.failNew {
		return context.DeadlineExceeded
	}

	return nil
}

func (r *recorder) prepare(parent, step *model.StepInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prepared = append(r.prepared, parent.Name+"->"+step.Name)

	return nil
}

func (r *recorder) output(step *model.StepInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outputs[step.Name]++

	return nil
}

func (r *recorder) PrepareStep(parent, step *model.StepInfo) error { return r.prepare(parent, step) }

func (r *recorder) OnStepOutput(_, step *model.StepInfo, _, _ time.Duration) error {
	return r.output(step)
}

func (r *recorder) PrepareSplitter(parent, step *model.StepInfo) error { return r.prepare(parent, step) }

func (r *recorder) OnSplitterOutput(_, step *model.StepInfo, _, _ time.Duration) error {
	return r.output(step)
}

func (r *recorder) PrepareSink(parent, step *model.StepInfo) error { return r.prepare(parent, step) }

func (r *recorder) OnSinkOutput(_, step *model.StepInfo, _, _ time.Duration) error {
	return r.output(step)
}

func (r *recorder) AfterSink(_ *model.StepInfo, _ time.Duration) error { return nil }

func (r *recorder) Finish() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true

	return nil
}

var _ model.PipelineOption = (*recorder)(nil)
