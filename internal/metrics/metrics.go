// Package metrics records device and task outcomes of a run as Prometheus
// collectors and writes them in the node_exporter textfile format.
package metrics

import (
	"time"

	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/runner"
	"github.com/andrej220/netaudit/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netaudit"

// Label values for the result label.
const (
	ResultSuccess  = "success"
	ResultDegraded = "degraded"
	ResultFailure  = "failure"
)

// Metrics implements runner.Observer.
type Metrics struct {
	registry       *prometheus.Registry
	devices        *prometheus.CounterVec
	deviceDuration prometheus.Histogram
	tasks          *prometheus.CounterVec
	taskDuration   *prometheus.HistogramVec
	stateChanges   *prometheus.CounterVec
}

var _ runner.Observer = (*Metrics)(nil)

// New registers the run collectors on a private registry, so several runs
// in one process never collide on the default registerer.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		devices: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "devices_total",
			Help:      "Devices processed, by result.",
		}, []string{"result"}),
		deviceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_duration_seconds",
			Help:      "Time from connect to close for one device.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_total",
			Help:      "Task executions, by task and result.",
		}, []string{"task", "result"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of one task on one device.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"task"}),
		stateChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Device state machine transitions, by target state.",
		}, []string{"state"}),
	}
	m.registry.MustRegister(m.devices, m.deviceDuration, m.tasks, m.taskDuration, m.stateChanges)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Transition(t runner.Transition) {
	m.stateChanges.WithLabelValues(t.To.String()).Inc()
}

func (m *Metrics) TaskFinished(_ string, task tasks.ID, elapsed time.Duration, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	m.tasks.WithLabelValues(string(task), result).Inc()
	m.taskDuration.WithLabelValues(string(task)).Observe(elapsed.Seconds())
}

func (m *Metrics) DeviceFinished(res report.RunResult, elapsed time.Duration) {
	m.devices.WithLabelValues(resultLabel(res)).Inc()
	m.deviceDuration.Observe(elapsed.Seconds())
}

// WriteFile writes the current values to path atomically.
func (m *Metrics) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func resultLabel(res report.RunResult) string {
	switch {
	case !res.OK():
		return ResultFailure
	case res.Degraded():
		return ResultDegraded
	default:
		return ResultSuccess
	}
}
