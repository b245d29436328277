// Package batch runs every record of a source through a step chain and routes the terminal documents to a success
// and a failure sink.
//
// The run is a dataflow pipeline:
//
//	read -> process -> [checkpoint] -> split -> success
//	                                         -> failure
//
// The process stage folds documents through the chain on several goroutines. With a checkpoint, every terminal
// document is recorded as soon as it is known, and a resumed run routes the recorded documents straight to their
// sink without running any step.
package batch

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/driver"
	"github.com/askiada/go-docpipeline/pkg/pipeline"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
	"github.com/askiada/go-docpipeline/pkg/records"
)

const (
	ReadStepName       = "read"
	ProcessStepName    = "process"
	CheckpointStepName = "checkpoint"
	SplitStepName      = "split"
	SuccessSinkName    = "success"
	FailureSinkName    = "failure"
)

// Summary counts the documents of a run.
type Summary struct {
	RunID     string
	Total     int64
	Succeeded int64
	Failed    int64
	// Resumed counts the documents taken from the checkpoint.
	Resumed int64
	Elapsed time.Duration
}

type item struct {
	doc     model.Document
	resumed bool
}

type Runner struct {
	driver         *driver.Driver
	steps          []model.StepDescriptor
	workers        int
	logger         *slog.Logger
	checkpointPath string
	resume         bool
	pipelineOpts   []model.PipelineOption
}

type Option func(r *Runner)

// WithWorkers sets how many documents are folded at the same time.
func WithWorkers(workers int) Option {
	return func(r *Runner) {
		r.workers = workers
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithCheckpoint records terminal documents at path. With resume, documents already recorded are not processed
// again.
func WithCheckpoint(path string, resume bool) Option {
	return func(r *Runner) {
		r.checkpointPath = path
		r.resume = resume
	}
}

// WithPipelineOptions passes options, such as measures and drawers, to the dataflow pipeline.
func WithPipelineOptions(opts ...model.PipelineOption) Option {
	return func(r *Runner) {
		r.pipelineOpts = append(r.pipelineOpts, opts...)
	}
}

func New(drv *driver.Driver, steps []model.StepDescriptor, opts ...Option) *Runner {
	run := &Runner{
		driver:  drv,
		steps:   driver.Ordered(steps),
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(run)
	}
	run.workers = max(run.workers, 1)

	return run
}

// Run processes every record of source. Sinks are not closed.
func (r *Runner) Run(ctx context.Context, source records.Source, success, failure records.Sink) (Summary, error) {
	summary := Summary{RunID: uuid.NewString()}
	start := time.Now()
	logger := r.logger.With(slog.String("run_id", summary.RunID))

	ckpt, writer, err := r.openCheckpoint()
	if err != nil {
		return summary, err
	}
	if writer != nil {
		defer func() {
			if closeErr := writer.Close(); closeErr != nil {
				logger.Error("unable to close checkpoint", slog.Any("error", closeErr))
			}
		}()
	}

	var total, succeeded, failed, resumed atomic.Int64

	pipe, err := pipeline.New(ctx, r.pipelineOpts...)
	if err != nil {
		return summary, errors.Wrap(err, "unable to create pipeline")
	}
	// stages start as soon as they are added: an early return must stop them
	defer pipe.Close()

	read, err := pipeline.AddRootStep(pipe, ReadStepName, func(ctx context.Context, out chan<- item) error {
		return source.Each(ctx, func(rec model.Record) error {
			it := item{doc: model.NewDocument(rec)}
			if done, ok := ckpt[rec.Name]; ok {
				it = item{doc: done, resumed: true}
				resumed.Add(1)
			}
			total.Add(1)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- it:
				return nil
			}
		})
	})
	if err != nil {
		return summary, errors.Wrap(err, "unable to add read step")
	}

	last, err := pipeline.AddStepOneToOne(pipe, ProcessStepName, read, func(ctx context.Context, it item) (item, error) {
		if it.resumed {
			return it, nil
		}

		it.doc = r.driver.Process(ctx, r.steps, it.doc)
		// a document failed by cancellation is not terminal
		if ctx.Err() != nil {
			return it, ctx.Err()
		}

		return it, nil
	}, pipeline.StepConcurrency[item](r.workers))
	if err != nil {
		return summary, errors.Wrap(err, "unable to add process step")
	}

	if writer != nil {
		last, err = pipeline.AddStepOneToOne(pipe, CheckpointStepName, last, func(_ context.Context, it item) (item, error) {
			if it.resumed {
				return it, nil
			}

			return it, writer.WriteDocument(it.doc)
		})
		if err != nil {
			return summary, errors.Wrap(err, "unable to add checkpoint step")
		}
	}

	splitter, err := pipeline.AddSplitterFn(pipe, SplitStepName, last, []pipeline.SplitterFn[item]{
		func(it item) (bool, error) { return !it.doc.Failed, nil },
		func(it item) (bool, error) { return it.doc.Failed, nil },
	}, pipeline.SplitterBufferSize[item](r.workers))
	if err != nil {
		return summary, errors.Wrap(err, "unable to add splitter")
	}

	for _, branch := range []struct {
		name  string
		sink  records.Sink
		count *atomic.Int64
	}{
		{name: SuccessSinkName, sink: success, count: &succeeded},
		{name: FailureSinkName, sink: failure, count: &failed},
	} {
		step, _ := splitter.Get()

		err = pipeline.AddSink(pipe, branch.name, step, func(_ context.Context, it item) error {
			branch.count.Add(1)

			return branch.sink.Write(it.doc.Record())
		})
		if err != nil {
			return summary, errors.Wrapf(err, "unable to add %s sink", branch.name)
		}
	}

	err = pipe.Run()

	summary.Total = total.Load()
	summary.Succeeded = succeeded.Load()
	summary.Failed = failed.Load()
	summary.Resumed = resumed.Load()
	summary.Elapsed = time.Since(start)

	logger.Info("run finished",
		slog.Int64("total", summary.Total),
		slog.Int64("succeeded", summary.Succeeded),
		slog.Int64("failed", summary.Failed),
		slog.Int64("resumed", summary.Resumed),
		slog.Duration("elapsed", summary.Elapsed),
	)

	if err != nil {
		return summary, errors.Wrap(err, "run interrupted")
	}

	return summary, nil
}

func (r *Runner) openCheckpoint() (records.Checkpoint, *records.BundleWriter, error) {
	switch {
	case r.checkpointPath == "":
		return nil, nil, nil
	case r.resume:
		return records.ResumeCheckpoint(r.checkpointPath)
	default:
		writer, err := records.CreateCheckpoint(r.checkpointPath)

		return nil, writer, err
	}
}
