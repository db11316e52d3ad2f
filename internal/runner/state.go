package runner

import "fmt"

// State is a step in a device run:
//
//	Idle -> Connecting -> Running(task)... -> Closing -> Done
//
// Failed is reachable from every non-terminal state.
type State int

const (
	Idle State = iota
	Connecting
	Running
	Closing
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Connecting:
		return "connecting"
	case Running:
		return "running"
	case Closing:
		return "closing"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

func (s State) Terminal() bool { return s == Done || s == Failed }

var transitions = map[State][]State{
	Idle:       {Connecting},
	Connecting: {Running, Closing},
	Running:    {Running, Closing},
	Closing:    {Done},
}

func canTransition(from, to State) bool {
	if to == Failed {
		return !from.Terminal()
	}
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
