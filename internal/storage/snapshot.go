package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// SnapshotStore persists a single JSON document to disk. It backs the
// in-memory service implementations when the server runs without MongoDB,
// so restarts keep rate-limit windows and local accounts.
type SnapshotStore struct {
	mu       sync.RWMutex
	filePath string
}

func NewSnapshotStore(dataDir, filename string) (*SnapshotStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &SnapshotStore{
		filePath: filepath.Join(dataDir, filename),
	}, nil
}

// Load decodes the snapshot into out. A missing file is not an error: the
// store simply has nothing yet.
func (s *SnapshotStore) Load(out interface{}) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(out)
}

// Save writes the snapshot through a temp file and renames it into place, so
// a crash mid-write never leaves a truncated snapshot behind.
func (s *SnapshotStore) Save(data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(file).Encode(data); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}
