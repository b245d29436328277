// Package driver folds a document through an ordered chain of steps.
package driver

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Submitter runs one step over one document. *executor.Scheduler implements it.
type Submitter interface {
	Submit(ctx context.Context, step model.StepDescriptor, doc model.Document) model.Document
}

// Driver holds no per-document state: processing the same document twice starts over from the first step.
type Driver struct {
	submitter Submitter
	tracer    Tracer
	logger    *slog.Logger
}

type Option func(d *Driver)

func WithTracer(tracer Tracer) Option {
	return func(d *Driver) {
		d.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

func New(submitter Submitter, opts ...Option) *Driver {
	drv := &Driver{
		submitter: submitter,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(drv)
	}

	return drv
}

// Ordered returns a copy of steps sorted by ordinal.
func Ordered(steps []model.StepDescriptor) []model.StepDescriptor {
	ordered := slices.Clone(steps)
	slices.SortStableFunc(ordered, func(a, b model.StepDescriptor) int {
		return a.Ordinal - b.Ordinal
	})

	return ordered
}

// Process runs every step over doc in ordinal order and returns the terminal document.
// Once a step fails, the remaining steps see the document as already failed and pass it through untouched.
func (d *Driver) Process(ctx context.Context, steps []model.StepDescriptor, doc model.Document) model.Document {
	start := time.Now()
	d.trace(doc.Name, StatePending, "")

	for _, step := range Ordered(steps) {
		if doc.Failed {
			d.trace(doc.Name, StatePassThrough, step.Name)
			doc = d.submitter.Submit(ctx, step, doc)

			continue
		}

		d.trace(doc.Name, StateRunning, step.Name)
		doc = d.submitter.Submit(ctx, step, doc)

		if doc.Failed {
			d.trace(doc.Name, StateFailed, step.Name)
		} else {
			d.trace(doc.Name, StateCompleted, step.Name)
		}
	}

	d.trace(doc.Name, StateTerminal, "")
	d.logger.Debug("document processed",
		slog.String("document", doc.Name),
		slog.Bool("failed", doc.Failed),
		slog.Duration("elapsed", time.Since(start)),
	)

	return doc
}

func (d *Driver) trace(docName string, state State, stepName string) {
	if d.tracer != nil {
		d.tracer.OnTransition(docName, state, stepName)
	}
}

// Split partitions terminal documents into the records for the success and failure sinks.
func Split(docs []model.Document) (success, failure []model.Record) {
	for _, doc := range docs {
		if doc.Failed {
			failure = append(failure, doc.Record())
		} else {
			success = append(success, doc.Record())
		}
	}

	return success, failure
}
