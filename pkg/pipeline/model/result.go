package model

import "time"

// ExecutionResult is what a single child process produced.
type ExecutionResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Duration time.Duration
}

// DurationMs returns the wall-clock duration in milliseconds.
func (r *ExecutionResult) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
