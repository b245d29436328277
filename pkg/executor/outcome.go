package executor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/go-docpipeline/pkg/pipeline/model"
)

// Outcome classifies one Submit call.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	// OutcomeSkipped means the document had already failed and no process was started.
	OutcomeSkipped
	OutcomeTimedOut
	OutcomeThresholdExceeded
	OutcomeLaunchFailed
	OutcomeIOFailed
	OutcomeCanceled
)

var outcomeNames = map[Outcome]string{
	OutcomeSucceeded:         "succeeded",
	OutcomeSkipped:           "skipped",
	OutcomeTimedOut:          "timed_out",
	OutcomeThresholdExceeded: "threshold_exceeded",
	OutcomeLaunchFailed:      "launch_failed",
	OutcomeIOFailed:          "io_failed",
	OutcomeCanceled:          "canceled",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}

	return "unknown"
}

// Failed tells whether the outcome marks the document as failed. Skipped documents were already failed.
func (o Outcome) Failed() bool {
	return o != OutcomeSucceeded
}

// Observer is notified after every Submit. Implementations must be safe for concurrent use.
type Observer interface {
	OnInvocation(step model.StepDescriptor, docName string, outcome Outcome, elapsed time.Duration)
}

func outcomeOf(err error) Outcome {
	switch {
	case errors.Is(err, ErrProcessTimeout):
		return OutcomeTimedOut
	case errors.Is(err, ErrProcessLaunch):
		return OutcomeLaunchFailed
	case errors.Is(err, context.Canceled), errors.Is(err, ErrSchedulerClosed):
		return OutcomeCanceled
	case errors.Is(err, ErrDiagnosticThresholdExceeded):
		return OutcomeThresholdExceeded
	default:
		return OutcomeIOFailed
	}
}
