package tasks

import (
	"context"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/parse"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/pkg/executor"
)

const (
	showNTPStatus = "show ntp status"
	FieldNTP      = "ntp"
)

// NTPTask points the device at Server when the server answers pings, then
// reports clock synchronisation. An unreachable server or a rejected
// configuration is logged and the status check still runs.
type NTPTask struct {
	Server string
}

func (t *NTPTask) ID() ID { return NTP }

func (t *NTPTask) Description() string {
	return "Configure the NTP server if reachable and report clock sync"
}

func (t *NTPTask) Run(ctx context.Context, sess executor.Session, rep *report.Report) error {
	logger := lg.FromContext(ctx).With(lg.String("ntp_server", t.Server))

	ping, err := sess.Exec(ctx, "ping "+t.Server)
	switch {
	case err != nil:
		logger.Warn("NTP server reachability check failed", lg.Err(err))
	case parse.PingSucceeded(ping):
		if err := sess.PushConfig(ctx, []string{"ntp server " + t.Server}); err != nil {
			logger.Warn("NTP server not configured", lg.Err(err))
		}
	default:
		logger.Warn("NTP server is unreachable from device")
	}

	status, err := sess.Exec(ctx, showNTPStatus)
	if err != nil {
		return err
	}
	rep.Set(FieldNTP, parse.NTPStatus(status))
	return nil
}
