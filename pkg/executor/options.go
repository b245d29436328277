package executor

import (
	"context"
	"log/slog"

	"github.com/askiada/go-docpipeline/internal/process"
	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Runner starts a command and waits for it. *process.Supervisor is the default.
type Runner interface {
	Run(ctx context.Context, command process.Command) (*model.ExecutionResult, error)
}

type Option func(s *Scheduler)

// WithWorkers bounds the number of steps running at the same time.
func WithWorkers(workers int) Option {
	return func(s *Scheduler) {
		s.workers = workers
	}
}

// WithScratchRoot sets the directory under which every invocation gets its private scratch directory.
func WithScratchRoot(dir string) Option {
	return func(s *Scheduler) {
		s.scratchRoot = dir
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

func WithObserver(observer Observer) Option {
	return func(s *Scheduler) {
		s.observer = observer
	}
}

func WithSupervisor(runner Runner) Option {
	return func(s *Scheduler) {
		s.runner = runner
	}
}
