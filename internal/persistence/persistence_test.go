package persistence_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/andrej220/netaudit/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	indent     = "    "
	prefix     = ""
	sampleJSON = "{\n    \"key\": \"value\"\n}"
)

type MockSerializer struct {
	Bytes []byte
	Err   error
}

func (s MockSerializer) Marshal(data any) ([]byte, error) {
	return s.Bytes, s.Err
}

type MockWriter struct {
	Data map[string][]byte
	Err  error
}

func (w *MockWriter) Write(filename string, data []byte) error {
	if w.Data == nil {
		w.Data = make(map[string][]byte)
	}
	w.Data[filename] = data
	return w.Err
}

func TestWriteJSONToFile(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		serializer  persistence.Serializer
		writer      persistence.Writer
		expectedErr bool
	}{
		{
			name:       "valid input",
			filename:   filepath.Join(t.TempDir(), "output.json"),
			serializer: MockSerializer{Bytes: []byte(sampleJSON)},
			writer:     &MockWriter{},
		},
		{
			name:        "empty filename",
			filename:    "",
			serializer:  MockSerializer{Bytes: []byte(sampleJSON)},
			writer:      &MockWriter{},
			expectedErr: true,
		},
		{
			name:        "serializer error",
			filename:    "test.json",
			serializer:  MockSerializer{Err: fmt.Errorf("serialization failed")},
			writer:      &MockWriter{},
			expectedErr: true,
		},
		{
			name:        "writer error",
			filename:    "test.json",
			serializer:  MockSerializer{Bytes: []byte(sampleJSON)},
			writer:      &MockWriter{Err: fmt.Errorf("write failed")},
			expectedErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := persistence.WriteJSONToFile(map[string]string{"key": "value"}, tt.filename, tt.serializer, tt.writer)
			if tt.expectedErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if writer, ok := tt.writer.(*MockWriter); ok {
				assert.Equal(t, sampleJSON, string(writer.Data[tt.filename]))
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "output.json")

	require.NoError(t, persistence.WriteJSON(map[string]string{"key": "value"}, filename))

	got, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, sampleJSON, string(got))
}

func TestFileWriterNoOverwrite(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(filename, []byte("old"), 0o644))

	err := persistence.FileWriter{Overwrite: false}.Write(filename, []byte("new"))
	assert.ErrorIs(t, err, os.ErrExist)

	require.NoError(t, persistence.FileWriter{Overwrite: true}.Write(filename, []byte("new")))
	got, _ := os.ReadFile(filename)
	assert.Equal(t, "new", string(got))
}

func TestBackupPath(t *testing.T) {
	day := time.Date(2024, time.March, 7, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, filepath.Join("/backups", "r1_07-03-2024"), persistence.BackupPath("/backups", "r1", day))
}

func TestBackupStoreConcurrentDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet", "there")
	store := persistence.NewBackupStore(dir)
	day := time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC)

	const devices = 16
	errs := make([]error, devices)
	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Save(fmt.Sprintf("r%d", i), day, fmt.Sprintf("hostname r%d\n", i))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "device %d", i)
		got, err := os.ReadFile(persistence.BackupPath(dir, fmt.Sprintf("r%d", i), day))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("hostname r%d\n", i), string(got))
	}
}

func TestEnsureDirRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Error(t, persistence.EnsureDir(file))
	assert.NoError(t, persistence.EnsureDir(filepath.Dir(file)))
}
