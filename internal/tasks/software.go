package tasks

import (
	"context"

	"github.com/andrej220/netaudit/internal/parse"
	"github.com/andrej220/netaudit/internal/report"
	"github.com/andrej220/netaudit/pkg/executor"
)

const (
	showVersion = "show version"

	FieldFacts    = "facts"
	FactImage     = "image"
	FactModel     = "model"
	FactImageType = "image_type"
)

// SoftwareTask reports the running image, hardware model and image type.
type SoftwareTask struct{}

func (t *SoftwareTask) ID() ID { return Software }

func (t *SoftwareTask) Description() string {
	return "Report system image, model and image type (PE/NPE)"
}

func (t *SoftwareTask) Run(ctx context.Context, sess executor.Session, rep *report.Report) error {
	out, err := sess.Exec(ctx, showVersion)
	if err != nil {
		return err
	}

	facts, err := parse.Version(out)
	if err != nil {
		return &VersionParseError{Host: rep.Hostname(), Err: err}
	}
	rep.SetGroup(FieldFacts, report.NewGroup().
		Set(FactImage, facts.Image).
		Set(FactModel, facts.Model).
		Set(FactImageType, facts.ImageType))
	return nil
}
