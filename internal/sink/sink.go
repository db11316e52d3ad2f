// Package sink ships the per-device records of a run to their destinations.
package sink

import (
	"context"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/report"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
	"github.com/google/uuid"
)

// Sink receives the records of one run, in input order.
type Sink interface {
	Name() string
	Publish(ctx context.Context, records []dm.RunRecord) error
	Close() error
}

// Records converts results into sink records stamped with the run ID.
func Records(runID uuid.UUID, at time.Time, results []report.RunResult) []dm.RunRecord {
	records := make([]dm.RunRecord, 0, len(results))
	for _, res := range results {
		records = append(records, res.Record(runID, at))
	}
	return records
}

// Dispatch publishes records to every sink and closes it. A failing sink is
// logged and does not affect the others.
func Dispatch(ctx context.Context, records []dm.RunRecord, sinks ...Sink) int {
	logger := lg.FromContext(ctx)
	failed := 0
	for _, s := range sinks {
		if err := s.Publish(ctx, records); err != nil {
			failed++
			logger.Error("publishing results failed", lg.String("sink", s.Name()), lg.Err(err))
		}
		if err := s.Close(); err != nil {
			logger.Warn("closing sink", lg.String("sink", s.Name()), lg.Err(err))
		}
	}
	return failed
}
