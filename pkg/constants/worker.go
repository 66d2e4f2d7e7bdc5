package constants

// Liveness is the heartbeat-based classification of the worker
type Liveness string

const (
	LivenessAbsent Liveness = "ABSENT" // No record, or record unreadable
	LivenessStale  Liveness = "STALE"  // Record present, heartbeat older than threshold
	LivenessAlive  Liveness = "ALIVE"  // Record present, heartbeat within threshold
)

func (l Liveness) String() string {
	return string(l)
}

// SupervisorState lifecycle state of the supervised worker
type SupervisorState string

const (
	StateStopped      SupervisorState = "stopped"
	StateStarting     SupervisorState = "starting"
	StateRunning      SupervisorState = "running"
	StateUnresponsive SupervisorState = "unresponsive"
	StateStopping     SupervisorState = "stopping"
)

func (s SupervisorState) String() string {
	return string(s)
}

// StateFromLiveness maps an observed liveness onto the resting lifecycle state
func StateFromLiveness(l Liveness) SupervisorState {
	switch l {
	case LivenessAlive:
		return StateRunning
	case LivenessStale:
		return StateUnresponsive
	default:
		return StateStopped
	}
}
