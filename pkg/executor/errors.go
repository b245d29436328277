package executor

import (
	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/internal/process"
)

var (
	ErrProcessLaunch  = process.ErrProcessLaunch
	ErrProcessTimeout = process.ErrProcessTimeout
	ErrIO             = process.ErrIO
	// ErrDiagnosticThresholdExceeded is reported when stderr holds more lines than the step tolerates.
	ErrDiagnosticThresholdExceeded = errors.New("diagnostic threshold exceeded")
	ErrSchedulerClosed             = errors.New("scheduler closed")
	ErrInvalidWorkers              = errors.New("workers must be greater than 0")
)
