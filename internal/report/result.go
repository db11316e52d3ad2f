package report

import (
	"time"

	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/google/uuid"
)

// TaskFailure records a task that did not produce its field.
type TaskFailure struct {
	Task string
	Err  error
}

// RunResult is either a Success carrying a Report or a Failure carrying
// the device error. It is built once per device and not modified after.
type RunResult struct {
	Hostname   string
	Report     *Report
	Err        error
	TaskErrors []TaskFailure
}

func Success(r *Report, taskErrors []TaskFailure) RunResult {
	return RunResult{Hostname: r.Hostname(), Report: r, TaskErrors: taskErrors}
}

func Failure(hostname string, err error) RunResult {
	return RunResult{Hostname: hostname, Err: err}
}

func (r RunResult) OK() bool { return r.Err == nil && r.Report != nil }

// Degraded reports a successful run in which at least one task failed.
func (r RunResult) Degraded() bool { return r.OK() && len(r.TaskErrors) > 0 }

// Record converts the result into the sink document for a run.
func (r RunResult) Record(runID uuid.UUID, at time.Time) dm.RunRecord {
	rec := dm.RunRecord{
		RunID:     runID,
		Hostname:  r.Hostname,
		Timestamp: at,
	}
	if !r.OK() {
		rec.Status = dm.StatusFailure
		if r.Err != nil {
			rec.Error = r.Err.Error()
		}
		return rec
	}
	rec.Status = dm.StatusSuccess
	rec.Line = r.Report.Line()
	rec.Report = r.Report.Model()
	if len(r.TaskErrors) > 0 {
		rec.TaskErrors = make(map[string]string, len(r.TaskErrors))
		for _, te := range r.TaskErrors {
			rec.TaskErrors[te.Task] = te.Err.Error()
		}
	}
	return rec
}
