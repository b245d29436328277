package process

import "github.com/pkg/errors"

var (
	// ErrProcessLaunch is returned when the executable cannot be started.
	ErrProcessLaunch = errors.New("process launch failed")
	// ErrProcessTimeout is returned when the deadline elapsed before the child exited.
	ErrProcessTimeout = errors.New("process timed out")
	// ErrIO is returned when a stream copy or the scratch document file fails.
	ErrIO = errors.New("process i/o failed")
)
