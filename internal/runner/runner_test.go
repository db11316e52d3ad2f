package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/andrej220/netaudit/pkg/executor"
	"github.com/andrej220/netaudit/pkg/executor/executortest"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu          sync.Mutex
	transitions []Transition
	finished    []tasks.ID
	devices     []report.RunResult
}

func (r *recorder) Transition(t Transition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, t)
}

func (r *recorder) TaskFinished(_ string, task tasks.ID, _ time.Duration, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, task)
}

func (r *recorder) DeviceFinished(res report.RunResult, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices = append(r.devices, res)
}

func (r *recorder) states() []State {
	out := []State{}
	for _, t := range r.transitions {
		out = append(out, t.To)
	}
	return out
}

func ciscoSession() *executortest.Session {
	return &executortest.Session{Host: "r1", Outputs: map[string]string{
		"show version":              "System image file is \"flash:ios-npe.bin\"\ncisco 2960\n",
		"show cdp neighbors detail": "Device ID: a\nDevice ID: b\n",
		"ping 10.11.12.13":          "!!!!!",
		"show ntp status":           "Clock is synchronized",
	}}
}

func resolve(t *testing.T, selection ...string) []tasks.Task {
	t.Helper()
	selected, err := tasks.DefaultRegistry(tasks.Options{BackupDir: t.TempDir()}).Resolve(selection)
	require.NoError(t, err)
	return selected
}

func testCtx() context.Context {
	return lg.Attach(context.Background(), lg.Discard)
}

var r1 = dm.Device{Hostname: "r1", ConnInfo: map[string]string{"host": "192.0.2.1"}}

func TestRunSuccess(t *testing.T) {
	sess := ciscoSession()
	dialer := &executortest.Dialer{Sessions: map[string]*executortest.Session{"r1": sess}}
	rec := &recorder{}

	res := New(dialer, WithObserver(rec)).Run(testCtx(), r1, resolve(t, "ntp", "software", "cdp"))

	require.True(t, res.OK())
	assert.Empty(t, res.TaskErrors)
	assert.Equal(t, "r1", res.Hostname)
	assert.Equal(t, "r1|ios-npe.bin|2960|NPE|CDP is ON, 2 peers|Clock in sync", res.Report.Line())
	assert.Equal(t, 1, sess.Closes())

	assert.Equal(t, []State{Connecting, Running, Running, Running, Closing, Done}, rec.states())
	assert.Equal(t, []tasks.ID{tasks.Software, tasks.CDP, tasks.NTP}, rec.finished)
	require.Len(t, rec.devices, 1)
}

func TestRunConnectionFailure(t *testing.T) {
	dialer := &executortest.Dialer{Errors: map[string]error{"r1": errors.New("no route to host")}}
	rec := &recorder{}

	res := New(dialer, WithObserver(rec)).Run(testCtx(), r1, resolve(t, "all"))

	require.False(t, res.OK())
	assert.Nil(t, res.Report)
	var connErr *executor.ConnectionError
	require.True(t, errors.As(res.Err, &connErr))
	assert.Equal(t, "r1", connErr.Host)
	assert.Equal(t, []State{Connecting, Failed}, rec.states())
	assert.Empty(t, rec.finished)
}

type plainErrDialer struct{}

func (plainErrDialer) Open(context.Context, dm.Device) (executor.Session, error) {
	return nil, errors.New("boom")
}

func TestRunWrapsUntypedDialError(t *testing.T) {
	res := New(plainErrDialer{}).Run(testCtx(), r1, nil)

	var connErr *executor.ConnectionError
	require.True(t, errors.As(res.Err, &connErr))
	assert.EqualError(t, connErr.Err, "boom")
}

type nilSessionDialer struct{}

func (nilSessionDialer) Open(context.Context, dm.Device) (executor.Session, error) {
	return nil, nil
}

func TestRunTreatsMissingSessionAsConnectionFailure(t *testing.T) {
	rec := &recorder{}

	res := New(nilSessionDialer{}, WithObserver(rec)).Run(testCtx(), r1, resolve(t, "cdp"))

	require.False(t, res.OK())
	var connErr *executor.ConnectionError
	require.True(t, errors.As(res.Err, &connErr))
	assert.Equal(t, "r1", connErr.Host)
	assert.ErrorIs(t, res.Err, errNilSession)
	assert.Equal(t, []State{Connecting, Failed}, rec.states())
	assert.Empty(t, rec.finished)
}

func TestRunIsolatesTaskFailures(t *testing.T) {
	sess := ciscoSession()
	sess.Outputs["show version"] = "no image here"
	sess.Errors = map[string]error{"show cdp neighbors detail": errors.New("channel closed")}
	dialer := &executortest.Dialer{Sessions: map[string]*executortest.Session{"r1": sess}}

	res := New(dialer).Run(testCtx(), r1, resolve(t, "all"))

	require.True(t, res.OK())
	assert.True(t, res.Degraded())
	assert.Equal(t, 1, sess.Closes())

	// software and cdp failed; backup and ntp still ran
	assert.Equal(t, "r1|Clock in sync", res.Report.Line())
	require.Len(t, res.TaskErrors, 2)
	assert.Equal(t, "software", res.TaskErrors[0].Task)
	assert.Equal(t, "cdp", res.TaskErrors[1].Task)

	var parseErr *tasks.VersionParseError
	assert.True(t, errors.As(res.TaskErrors[0].Err, &parseErr))
	var taskErr *tasks.TaskError
	require.True(t, errors.As(res.TaskErrors[1].Err, &taskErr))
	assert.Equal(t, tasks.CDP, taskErr.Task)

	assert.Equal(t, []string{
		"show running-config",
		"show version",
		"show cdp neighbors detail",
		"ping 10.11.12.13",
		"show ntp status",
	}, sess.Commands())
}

func TestRunRecoversTaskPanic(t *testing.T) {
	sess := ciscoSession()
	sess.PanicOn = "show cdp neighbors detail"
	dialer := &executortest.Dialer{Sessions: map[string]*executortest.Session{"r1": sess}}

	res := New(dialer).Run(testCtx(), r1, resolve(t, "cdp", "ntp"))

	require.True(t, res.OK())
	require.Len(t, res.TaskErrors, 1)
	assert.Equal(t, "cdp", res.TaskErrors[0].Task)
	assert.Equal(t, "r1|Clock in sync", res.Report.Line())
	assert.Equal(t, 1, sess.Closes())
}

type panicDialer struct{}

func (panicDialer) Open(context.Context, dm.Device) (executor.Session, error) {
	panic("dialer exploded")
}

func TestRunRecoversDevicePanic(t *testing.T) {
	rec := &recorder{}
	res := New(panicDialer{}, WithObserver(rec)).Run(testCtx(), r1, nil)

	require.False(t, res.OK())
	assert.Contains(t, res.Err.Error(), "dialer exploded")
	assert.Equal(t, []State{Connecting, Failed}, rec.states())
	require.Len(t, rec.devices, 1)
	assert.False(t, rec.devices[0].OK())
}

func TestRunWithoutTasks(t *testing.T) {
	sess := ciscoSession()
	dialer := &executortest.Dialer{Sessions: map[string]*executortest.Session{"r1": sess}}
	rec := &recorder{}

	res := New(dialer, WithObserver(rec)).Run(testCtx(), r1, nil)

	require.True(t, res.OK())
	assert.Equal(t, "r1", res.Report.Line())
	assert.Equal(t, []State{Connecting, Closing, Done}, rec.states())
	assert.Equal(t, 1, sess.Closes())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, canTransition(Idle, Connecting))
	assert.True(t, canTransition(Running, Failed))
	assert.False(t, canTransition(Idle, Running))
	assert.False(t, canTransition(Done, Failed))
	assert.False(t, canTransition(Failed, Connecting))
	assert.Equal(t, "closing", Closing.String())
}
