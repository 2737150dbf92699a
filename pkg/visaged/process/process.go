package process

type Event int

const (
	LOOP_RECOVERING_EVT Event = 0x51
	LOOP_RECOVERED_EVT  Event = 0x52
	LOOP_STOPPED_EVT    Event = 0x53
)

// State describes where the capture loop currently is in its
// lifecycle. It only ever moves Idle -> Running, Running <-> Recovering
// and back to Idle on shutdown or a fatal fault.
type State int

const (
	Idle State = iota
	Running
	Recovering
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Recovering:
		return "recovering"
	default:
		return "idle"
	}
}

type Process interface {
	Setup() Process
	Start()
	Stop()
	Wait()
}

// StateReporter is satisfied by processes which run a lifecycle state
// machine and expose where they currently are in it.
type StateReporter interface {
	State() State
}
