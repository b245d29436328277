package model

import "time"

// InputMode tells how a document is handed to a step.
type InputMode int

const (
	// InputStdin streams the document on the child's standard input.
	InputStdin InputMode = iota
	// InputFile writes the document to a file in the scratch directory and passes its path as the last argument.
	// The document is still offered on standard input.
	InputFile
)

func (m InputMode) String() string {
	switch m {
	case InputStdin:
		return "stdin"
	case InputFile:
		return "file"
	default:
		return "unknown"
	}
}

// StepDescriptor is the immutable configuration of one step of a chain.
type StepDescriptor struct {
	Name           string
	Kind           string
	ExecutablePath string
	// Interpreter runs ExecutablePath when set, e.g. /bin/bash for scripts without an executable bit.
	Interpreter  string
	ComponentDir string
	Timeout      time.Duration
	// GracePeriod between SIGTERM and SIGKILL on timeout. Zero kills immediately.
	GracePeriod        time.Duration
	ErrorLineThreshold int
	Ordinal            int
	Input              InputMode
}
