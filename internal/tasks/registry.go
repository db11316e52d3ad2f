// Package tasks defines the checks run against a device and the registry
// that resolves an operator's selection into canonical execution order.
package tasks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrej220/netaudit/internal/persistence"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/pkg/executor"
)

type ID string

const (
	Backup   ID = "backup"
	Software ID = "software"
	CDP      ID = "cdp"
	NTP      ID = "ntp"

	// All selects every registered task.
	All ID = "all"
)

const DefaultNTPServer = "10.11.12.13"

// Task is one unit of work against an open device session. Tasks write
// their result into the device's report and never touch another device's.
type Task interface {
	ID() ID
	Description() string
	Run(ctx context.Context, sess executor.Session, rep *report.Report) error
}

// Registry keeps tasks in canonical order: the order they were registered.
type Registry struct {
	order []ID
	tasks map[ID]Task
}

func NewRegistry(tasks ...Task) (*Registry, error) {
	r := &Registry{tasks: make(map[ID]Task, len(tasks))}
	for _, t := range tasks {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(t Task) error {
	id := t.ID()
	if id == "" || id == All {
		return fmt.Errorf("invalid task id %q", id)
	}
	if _, exists := r.tasks[id]; exists {
		return fmt.Errorf("task %s already registered", id)
	}
	r.order = append(r.order, id)
	r.tasks[id] = t
	return nil
}

func (r *Registry) IDs() []ID {
	return append([]ID(nil), r.order...)
}

func (r *Registry) Get(id ID) (Task, bool) {
	t, ok := r.tasks[id]
	return t, ok
}

// Resolve turns a selection into tasks in canonical order, independent of
// the order the selection lists them. "all" expands to every task
// registered at the time of the call. Any unregistered name fails the
// whole selection.
func (r *Registry) Resolve(selection []string) ([]Task, error) {
	wanted := make(map[ID]bool, len(selection))
	all := false
	for _, raw := range selection {
		id := ID(strings.ToLower(strings.TrimSpace(raw)))
		if id == "" {
			continue
		}
		if id == All {
			all = true
			continue
		}
		if _, ok := r.tasks[id]; !ok {
			return nil, &UnknownTaskError{ID: raw}
		}
		wanted[id] = true
	}

	out := make([]Task, 0, len(r.order))
	for _, id := range r.order {
		if all || wanted[id] {
			out = append(out, r.tasks[id])
		}
	}
	return out, nil
}

// Options configure the default task set.
type Options struct {
	BackupDir string
	NTPServer string
	Now       func() time.Time
}

// DefaultRegistry registers backup, software, cdp and ntp in that order.
func DefaultRegistry(opts Options) *Registry {
	if opts.NTPServer == "" {
		opts.NTPServer = DefaultNTPServer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	r, err := NewRegistry(
		&BackupTask{Store: persistence.NewBackupStore(opts.BackupDir), Now: opts.Now},
		&SoftwareTask{},
		&CDPTask{},
		&NTPTask{Server: opts.NTPServer},
	)
	if err != nil {
		panic(err)
	}
	return r
}
