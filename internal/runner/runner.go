// Package runner drives the lifecycle of a single device: connect, run the
// selected tasks in order, close, and produce exactly one RunResult.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/andrej220/netaudit/pkg/executor"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
)

var errNilSession = errors.New("dialer returned no session")

type Runner struct {
	dialer    executor.Dialer
	observers observers
}

type Option func(*Runner)

func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

func New(dialer executor.Dialer, opts ...Option) *Runner {
	r := &Runner{dialer: dialer}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// machine tracks the state of one device run.
type machine struct {
	host      string
	state     State
	observers observers
}

func (m *machine) to(next State, task tasks.ID) {
	if !canTransition(m.state, next) {
		panic(fmt.Sprintf("runner: invalid transition %s -> %s", m.state, next))
	}
	prev := m.state
	m.state = next
	m.observers.Transition(Transition{Host: m.host, From: prev, To: next, Task: task})
}

// fail moves to Failed unless the run already ended.
func (m *machine) fail() {
	if m.state.Terminal() {
		return
	}
	prev := m.state
	m.state = Failed
	m.observers.Transition(Transition{Host: m.host, From: prev, To: Failed})
}

// Run executes selected against dev. A connection failure yields a Failure
// and no task runs. Once connected, a failing task is recorded and the
// remaining tasks still run. The session is closed exactly once on every
// path after a successful Open.
func (r *Runner) Run(ctx context.Context, dev dm.Device, selected []tasks.Task) (res report.RunResult) {
	start := time.Now()
	m := &machine{host: dev.Hostname, state: Idle, observers: r.observers}
	logger := lg.FromContext(ctx).With(lg.String("host", dev.Hostname))
	ctx = lg.Attach(ctx, logger)

	defer func() {
		if p := recover(); p != nil {
			logger.Error("device run panicked", lg.Any("panic", p))
			m.fail()
			res = report.Failure(dev.Hostname, fmt.Errorf("device run panicked: %v", p))
		}
		r.observers.DeviceFinished(res, time.Since(start))
	}()

	logger.Info("connecting")
	m.to(Connecting, "")
	sess, err := r.dialer.Open(ctx, dev)
	if err == nil && sess == nil {
		err = errNilSession
	}
	if err != nil {
		var connErr *executor.ConnectionError
		if !errors.As(err, &connErr) {
			err = &executor.ConnectionError{Host: dev.Hostname, Err: err}
		}
		logger.Error("connection failed", lg.Err(err))
		m.fail()
		return report.Failure(dev.Hostname, err)
	}

	closed := false
	closeSession := func() {
		if !closed {
			closed = true
			sess.Close()
		}
	}
	defer closeSession()

	rep := report.New(dev.Hostname)
	var taskErrs []report.TaskFailure
	for _, t := range selected {
		m.to(Running, t.ID())
		taskStart := time.Now()
		err := runTask(ctx, t, sess, rep)
		elapsed := time.Since(taskStart)
		r.observers.TaskFinished(dev.Hostname, t.ID(), elapsed, err)
		if err != nil {
			logger.Warn("task failed", lg.String("task", string(t.ID())), lg.Err(err))
			taskErrs = append(taskErrs, report.TaskFailure{Task: string(t.ID()), Err: err})
			continue
		}
		logger.Debug("task finished", lg.String("task", string(t.ID())), lg.Duration("elapsed", elapsed))
	}

	m.to(Closing, "")
	closeSession()
	m.to(Done, "")
	logger.Info("device finished", lg.Int("tasks", len(selected)), lg.Int("failed_tasks", len(taskErrs)))
	return report.Success(rep, taskErrs)
}

// runTask converts a task's error or panic into a *tasks.TaskError.
func runTask(ctx context.Context, t tasks.Task, sess executor.Session, rep *report.Report) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &tasks.TaskError{Task: t.ID(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	if err := t.Run(ctx, sess, rep); err != nil {
		return &tasks.TaskError{Task: t.ID(), Err: err}
	}
	return nil
}
