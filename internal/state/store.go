package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nagsync/nagsync/internal/fsops"
)

// LastRunFile is the file name of the persisted run record.
const LastRunFile = "last-run.json"

// Store persists run records.
type Store interface {
	// LoadLastRun returns the most recent record.
	// Returns os.ErrNotExist if nothing has been recorded yet.
	LoadLastRun() (*RunRecord, error)

	// SaveRun replaces the most recent record atomically.
	SaveRun(record *RunRecord) error
}

// FileStore implements Store using a JSON file on disk.
type FileStore struct {
	fs  fsops.FS
	dir string
}

// NewFileStore creates a FileStore rooted at dir.
func NewFileStore(fs fsops.FS, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, LastRunFile)
}

// LoadLastRun loads the most recent run record.
func (s *FileStore) LoadLastRun() (*RunRecord, error) {
	data, err := s.fs.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, os.ErrNotExist
		}
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}

	var record RunRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run record: %w", err)
	}

	return &record, nil
}

// SaveRun saves the run record atomically.
func (s *FileStore) SaveRun(record *RunRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}

	if err := s.fs.AtomicWrite(s.path(), data, 0644); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}

	return nil
}
