package driver

// State is the position of a document in its chain.
//
//	Pending -> Running(i) -> Completed(i) -> Running(i+1) ... -> Terminal
//	                      -> Failed(i) -> PassThrough(i+1) ... -> Terminal
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StatePassThrough
	StateTerminal
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StatePassThrough:
		return "pass_through"
	case StateTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Tracer receives every state transition. stepName is empty for Pending and Terminal.
type Tracer interface {
	OnTransition(docName string, state State, stepName string)
}
