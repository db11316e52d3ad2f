package persistence

import (
	"path/filepath"
	"time"
)

// BackupDateLayout renders dates as DD-MM-YYYY.
const BackupDateLayout = "02-01-2006"

// BackupPath returns <dir>/<hostname>_<DD-MM-YYYY>.
func BackupPath(dir, hostname string, day time.Time) string {
	return filepath.Join(dir, hostname+"_"+day.Format(BackupDateLayout))
}

// BackupStore writes device configuration backups under Dir.
type BackupStore struct {
	Dir    string
	Writer Writer
}

func NewBackupStore(dir string) *BackupStore {
	return &BackupStore{Dir: dir, Writer: FileWriter{Overwrite: true}}
}

// Save writes config to the backup file for hostname on day and returns its
// path. The directory is created if absent.
func (s *BackupStore) Save(hostname string, day time.Time, config string) (string, error) {
	path := BackupPath(s.Dir, hostname, day)
	if err := EnsureDir(s.Dir); err != nil {
		return path, err
	}
	return path, s.Writer.Write(path, []byte(config))
}
