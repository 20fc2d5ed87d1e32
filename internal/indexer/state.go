package indexer

// State describes the orchestrator lifecycle.
type State int32

const (
	StateStarting State = iota
	StateConnecting
	StatePartiallyActive
	StateFullyActive
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateConnecting:
		return "connecting"
	case StatePartiallyActive:
		return "partially_active"
	case StateFullyActive:
		return "fully_active"
	case StateShuttingDown:
		return "shutting_down"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
