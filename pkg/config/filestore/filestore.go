package filestore

import (
	"bytes"
	"fmt"
	"os"

	"github.com/andrej220/netaudit/pkg/config/configstore"
	"gopkg.in/yaml.v3"
)

var _ configstore.Loader = (*FileStore)(nil)

// FileStore reads a YAML document from Path. Unknown keys are rejected.
type FileStore struct {
	Path string
}

func New(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load(out any) error {
	if out == nil {
		return fmt.Errorf("Load: output parameter must not be nil")
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("Load: failed to read file %s: %w", f.Path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("Load: %s: %w", f.Path, configstore.ErrEmpty)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("Load: failed to parse YAML in %s: %w", f.Path, err)
	}

	return nil
}
