// Package fleet runs a task selection across every device of an inventory.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/internal/runner"
	"github.com/andrej220/netaudit/internal/tasks"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/andrej220/netaudit/pkg/workerpool"
)

var errIncomplete = errors.New("device run did not complete")

// DuplicateHostError is returned when two devices share a hostname.
type DuplicateHostError struct {
	Hostname string
}

func (e *DuplicateHostError) Error() string {
	return fmt.Sprintf("duplicate hostname %q in inventory", e.Hostname)
}

// Orchestrator fans a DeviceRunner out over the fleet. Each device runs in
// its own goroutine with its own session and report; nothing mutable is
// shared between devices.
type Orchestrator struct {
	registry *tasks.Registry
	runner   *runner.Runner
	workers  int
}

// New returns an Orchestrator. workers limits concurrently running devices;
// workers <= 0 runs every device at once.
func New(registry *tasks.Registry, r *runner.Runner, workers int) *Orchestrator {
	return &Orchestrator{registry: registry, runner: r, workers: workers}
}

// Run resolves selection once, runs every device and returns one result per
// device in input order. It fails only before any device is contacted: on an
// unknown task or a duplicate hostname. Device and task failures are
// reported in the results.
func (o *Orchestrator) Run(ctx context.Context, devices []dm.Device, selection []string) ([]report.RunResult, error) {
	selected, err := o.registry.Resolve(selection)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(devices))
	for _, dev := range devices {
		if seen[dev.Hostname] {
			return nil, &DuplicateHostError{Hostname: dev.Hostname}
		}
		seen[dev.Hostname] = true
	}

	logger := lg.FromContext(ctx)
	if len(devices) == 0 {
		logger.Info("No devices in inventory")
		return []report.RunResult{}, nil
	}
	taskIDs := make([]string, 0, len(selected))
	for _, t := range selected {
		taskIDs = append(taskIDs, string(t.ID()))
	}
	logger.Info("fleet run started", lg.Int("devices", len(devices)), lg.Strings("tasks", taskIDs), lg.Int("workers", o.workers))
	start := time.Now()

	// Each job writes only its own index.
	results := make([]report.RunResult, len(devices))
	done := make([]bool, len(devices))
	pool := workerpool.NewPool[int](o.workers)
	for i := range devices {
		pool.Submit(workerpool.Job[int]{
			Payload: i,
			Ctx:     ctx,
			Fn: func(jobCtx context.Context, idx int) error {
				results[idx] = o.runner.Run(jobCtx, devices[idx], selected)
				done[idx] = true
				return nil
			},
		})
	}
	if err := pool.Wait(); err != nil {
		logger.Error("device worker failed", lg.Err(err))
	}

	for i := range results {
		if !done[i] {
			results[i] = report.Failure(devices[i].Hostname, errIncomplete)
		}
	}

	s := Summarize(results)
	logger.Info("fleet run finished",
		lg.Int("succeeded", s.Succeeded),
		lg.Int("degraded", s.Degraded),
		lg.Int("failed", s.Failed),
		lg.Duration("elapsed", time.Since(start)))
	return results, nil
}

// Summary counts results by outcome. Degraded devices are also counted in
// Succeeded.
type Summary struct {
	Total     int
	Succeeded int
	Degraded  int
	Failed    int
}

func Summarize(results []report.RunResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case !r.OK():
			s.Failed++
		case r.Degraded():
			s.Succeeded++
			s.Degraded++
		default:
			s.Succeeded++
		}
	}
	return s
}

// Clean reports whether every device and every task succeeded.
func (s Summary) Clean() bool {
	return s.Failed == 0 && s.Degraded == 0
}
