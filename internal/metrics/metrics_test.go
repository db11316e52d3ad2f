package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/runner"
	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceResults(t *testing.T) {
	m := New()
	boom := errors.New("boom")

	m.DeviceFinished(report.Success(report.New("r1"), nil), time.Second)
	m.DeviceFinished(report.Success(report.New("r2"), []report.TaskFailure{{Task: "ntp", Err: boom}}), time.Second)
	m.DeviceFinished(report.Failure("r3", boom), time.Second)
	m.DeviceFinished(report.Failure("r4", boom), time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.devices.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.devices.WithLabelValues(ResultDegraded)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.devices.WithLabelValues(ResultFailure)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.deviceDuration))
}

func TestTaskResults(t *testing.T) {
	m := New()

	m.TaskFinished("r1", tasks.Backup, 10*time.Millisecond, nil)
	m.TaskFinished("r2", tasks.Backup, 10*time.Millisecond, nil)
	m.TaskFinished("r2", tasks.NTP, 10*time.Millisecond, errors.New("timeout"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tasks.WithLabelValues("backup", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tasks.WithLabelValues("ntp", ResultFailure)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.taskDuration))
}

func TestTransitions(t *testing.T) {
	m := New()
	m.Transition(runner.Transition{Host: "r1", From: runner.Idle, To: runner.Connecting})
	m.Transition(runner.Transition{Host: "r1", From: runner.Connecting, To: runner.Failed})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateChanges.WithLabelValues(runner.Connecting.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stateChanges.WithLabelValues(runner.Failed.String())))
}

func TestWriteFile(t *testing.T) {
	m := New()
	m.DeviceFinished(report.Failure("r1", errors.New("refused")), time.Second)

	path := filepath.Join(t.TempDir(), "netaudit.prom")
	require.NoError(t, m.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `netaudit_devices_total{result="failure"} 1`)
}
