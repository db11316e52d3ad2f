package sink

import (
	"context"

	"github.com/andrej220/netaudit/internal/persistence"
	dm "github.com/andrej220/netaudit/pkg/shared-models"
)

// File writes all records of the run as one JSON array.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Name() string { return "file" }

func (f *File) Publish(_ context.Context, records []dm.RunRecord) error {
	return persistence.WriteJSON(records, f.Path)
}

func (f *File) Close() error { return nil }
