package sink

import (
	"context"
	"fmt"
	"io"
	"sort"

	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/fatih/color"
)

// Console prints one line per successful device to Out and reports device
// and task failures on Err.
type Console struct {
	Out io.Writer
	Err io.Writer

	failure *color.Color
	warning *color.Color
}

func NewConsole(out, errOut io.Writer) *Console {
	return &Console{
		Out:     out,
		Err:     errOut,
		failure: color.New(color.FgRed),
		warning: color.New(color.FgYellow),
	}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Publish(_ context.Context, records []dm.RunRecord) error {
	for _, rec := range records {
		if rec.Status != dm.StatusSuccess {
			if _, err := c.failure.Fprintf(c.Err, "%s: %s\n", rec.Hostname, rec.Error); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(c.Out, rec.Line); err != nil {
			return err
		}
		tasks := make([]string, 0, len(rec.TaskErrors))
		for task := range rec.TaskErrors {
			tasks = append(tasks, task)
		}
		sort.Strings(tasks)
		for _, task := range tasks {
			if _, err := c.warning.Fprintf(c.Err, "%s: %s: %s\n", rec.Hostname, task, rec.TaskErrors[task]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Console) Close() error { return nil }
