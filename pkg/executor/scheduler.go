package executor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/askiada/go-docpipeline/internal/process"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

type job struct {
	ctx  context.Context //nolint:containedctx // carried from Submit to the worker
	step model.StepDescriptor
	doc  model.Document
	done chan model.Document
}

// Scheduler owns the worker pool shared by every step and document of a run.
type Scheduler struct {
	workers     int
	scratchRoot string
	logger      *slog.Logger
	observer    Observer
	runner      Runner

	ctx       context.Context //nolint:containedctx // pool lifetime
	cancel    context.CancelFunc
	jobs      chan *job
	grp       *errgroup.Group
	closeOnce sync.Once
}

// New starts the worker pool. Close must be called to release it.
func New(opts ...Option) (*Scheduler, error) {
	sch := &Scheduler{
		workers:     runtime.NumCPU(),
		scratchRoot: os.TempDir(),
		logger:      slog.New(slog.DiscardHandler),
		runner:      process.New(),
	}
	for _, opt := range opts {
		opt(sch)
	}

	if sch.workers < 1 {
		return nil, errors.Wrapf(ErrInvalidWorkers, "got %d", sch.workers)
	}

	err := os.MkdirAll(sch.scratchRoot, 0o755)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create scratch root %s", sch.scratchRoot)
	}

	sch.ctx, sch.cancel = context.WithCancel(context.Background())
	sch.jobs = make(chan *job)
	sch.grp = new(errgroup.Group)

	for range sch.workers {
		sch.grp.Go(sch.work)
	}

	return sch, nil
}

// Workers returns the size of the pool.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Close cancels the invocations in flight and waits for the workers to stop. It is safe to call more than once.
func (s *Scheduler) Close() error {
	s.closeOnce.Do(s.cancel)

	return s.grp.Wait() //nolint:wrapcheck
}

func (s *Scheduler) work() error {
	for {
		select {
		case <-s.ctx.Done():
			return nil
		case j := <-s.jobs:
			j.done <- s.execute(j.ctx, j.step, j.doc)
		}
	}
}

// Submit runs step over doc on the pool and blocks until the resulting document is known.
// A document that has already failed is returned unchanged without starting a process.
func (s *Scheduler) Submit(ctx context.Context, step model.StepDescriptor, doc model.Document) model.Document {
	if doc.Failed {
		s.notify(step, doc.Name, OutcomeSkipped, 0)

		return doc
	}

	j := &job{ctx: ctx, step: step, doc: doc, done: make(chan model.Document, 1)}

	select {
	case <-ctx.Done():
		return s.reject(step, doc, errors.Wrap(ctx.Err(), "waiting for a worker"))
	case <-s.ctx.Done():
		return s.reject(step, doc, ErrSchedulerClosed)
	case s.jobs <- j:
	}

	return <-j.done
}

func (s *Scheduler) reject(step model.StepDescriptor, doc model.Document, err error) model.Document {
	s.notify(step, doc.Name, OutcomeCanceled, 0)
	s.logger.Error("step not run",
		slog.String("step", step.Name),
		slog.String("document", doc.Name),
		slog.Duration("elapsed", 0),
		slog.Any("error", err),
	)

	return doc.Fail()
}

func (s *Scheduler) execute(ctx context.Context, step model.StepDescriptor, doc model.Document) model.Document {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	start := time.Now()
	res, err := s.invoke(ctx, step, doc)
	elapsed := time.Since(start)

	outcome := OutcomeSucceeded
	if err != nil {
		outcome = outcomeOf(err)
	}
	s.notify(step, doc.Name, outcome, elapsed)

	logger := s.logger.With(
		slog.String("step", step.Name),
		slog.String("document", doc.Name),
		slog.Duration("elapsed", elapsed),
	)

	switch outcome {
	case OutcomeSucceeded:
		logger.Debug("step succeeded", slog.Int("exit_code", res.ExitCode))

		return doc.WithContent(res.Stdout)
	case OutcomeThresholdExceeded:
		logger.Error("step failed",
			slog.Any("error", err),
			slog.Int("exit_code", res.ExitCode),
			slog.String("stderr", tail(res.Stderr)),
		)

		return doc.WithContent(res.Stdout).Fail()
	default:
		logger.Error("step failed", slog.String("outcome", outcome.String()), slog.Any("error", err))

		return doc.Fail()
	}
}

// invoke runs `[interpreter] executable <componentDir>/ <scratchDir>/ [docFile]` from the component directory.
func (s *Scheduler) invoke(ctx context.Context, step model.StepDescriptor, doc model.Document) (*model.ExecutionResult, error) {
	// step names may hold separators, the scratch directory stays a direct child of the root
	scratchDir := filepath.Join(s.scratchRoot, filepath.Base(step.Name)+"-"+uuid.NewString())

	err := os.Mkdir(scratchDir, 0o700)
	if err != nil {
		return nil, errors.Wrapf(ErrIO, "create scratch directory: %v", err)
	}
	defer os.RemoveAll(scratchDir) //nolint:errcheck

	componentDir := step.ComponentDir
	if componentDir == "" {
		componentDir = filepath.Dir(step.ExecutablePath)
	}

	if step.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	res, err := s.runner.Run(ctx, process.Command{
		Path:         step.ExecutablePath,
		Interpreter:  step.Interpreter,
		Args:         []string{withSlash(componentDir), withSlash(scratchDir)},
		Dir:          componentDir,
		Stdin:        doc.Content,
		DocumentFile: step.Input == model.InputFile,
		ScratchDir:   scratchDir,
		GracePeriod:  step.GracePeriod,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	lines := countLines(res.Stderr)
	if lines > step.ErrorLineThreshold {
		return res, errors.Wrapf(ErrDiagnosticThresholdExceeded, "%d stderr lines, %d allowed", lines, step.ErrorLineThreshold)
	}

	return res, nil
}

func (s *Scheduler) notify(step model.StepDescriptor, docName string, outcome Outcome, elapsed time.Duration) {
	if s.observer != nil {
		s.observer.OnInvocation(step, docName, outcome, elapsed)
	}
}

func withSlash(dir string) string {
	if strings.HasSuffix(dir, string(filepath.Separator)) {
		return dir
	}

	return dir + string(filepath.Separator)
}
