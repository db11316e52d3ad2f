package runner

import (
	"time"

	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/tasks"
)

// Transition is emitted on every state change. Task is set while Running.
type Transition struct {
	Host string
	From State
	To   State
	Task tasks.ID
}

// Observer is notified about a device run as it progresses. Calls for one
// device come from that device's goroutine; implementations shared between
// devices must be safe for concurrent use.
type Observer interface {
	Transition(t Transition)
	TaskFinished(host string, task tasks.ID, elapsed time.Duration, err error)
	DeviceFinished(res report.RunResult, elapsed time.Duration)
}

type observers []Observer

func (o observers) Transition(t Transition) {
	for _, ob := range o {
		ob.Transition(t)
	}
}

func (o observers) TaskFinished(host string, task tasks.ID, elapsed time.Duration, err error) {
	for _, ob := range o {
		ob.TaskFinished(host, task, elapsed, err)
	}
}

func (o observers) DeviceFinished(res report.RunResult, elapsed time.Duration) {
	for _, ob := range o {
		ob.DeviceFinished(res, elapsed)
	}
}
