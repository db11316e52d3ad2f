package tasks

import (
	"context"

	"github.com/andrej220/netaudit/internal/parse"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/pkg/executor"
)

const (
	showCDPNeighbors = "show cdp neighbors detail"
	FieldCDP         = "cdp"
)

// CDPTask reports whether CDP runs and how many neighbors it sees.
type CDPTask struct{}

func (t *CDPTask) ID() ID { return CDP }

func (t *CDPTask) Description() string {
	return "Report CDP state and neighbor count"
}

func (t *CDPTask) Run(ctx context.Context, sess executor.Session, rep *report.Report) error {
	out, err := sess.Exec(ctx, showCDPNeighbors)
	if err != nil {
		return err
	}
	rep.Set(FieldCDP, parse.CDPSummary(out))
	return nil
}
