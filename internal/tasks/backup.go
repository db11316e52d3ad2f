package tasks

import (
	"context"
	"time"

	"github.com/andrej220/netaudit/internal/lg"
	"github.com/andrej220/netaudit/internal/persistence"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/pkg/executor"
)

const showRunningConfig = "show running-config"

// BackupTask saves the running configuration to <dir>/<hostname>_<DD-MM-YYYY>.
// It adds nothing to the report.
type BackupTask struct {
	Store *persistence.BackupStore
	Now   func() time.Time
}

func (t *BackupTask) ID() ID { return Backup }

func (t *BackupTask) Description() string {
	return "Save the running configuration to the backup directory"
}

func (t *BackupTask) Run(ctx context.Context, sess executor.Session, rep *report.Report) error {
	config, err := sess.Exec(ctx, showRunningConfig)
	if err != nil {
		return err
	}

	path, err := t.Store.Save(rep.Hostname(), t.Now(), config)
	if err != nil {
		return &BackupWriteError{Path: path, Err: err}
	}
	lg.FromContext(ctx).Info("configuration saved", lg.String("path", path), lg.Int("bytes", len(config)))
	return nil
}
