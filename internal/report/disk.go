package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// DiskStore writes each Record as a JSON file under a directory that is
// created on first use.
type DiskStore struct {
	mu    sync.Mutex
	dir   string
	ready bool
}

// NewDiskStore creates a DiskStore rooted at dir. An empty dir selects a
// fresh temporary directory.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Dir returns the storage directory, or "" before a temporary one has
// been created.
func (s *DiskStore) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// Save implements Store.
func (s *DiskStore) Save(rec *Record) error {
	path, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling run %s: %w", rec.ID, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run %s: %w", rec.ID, err)
	}
	return nil
}

// Load implements Store.
func (s *DiskStore) Load(runID string) (*Record, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading run %s: %w", runID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", runID, err)
	}
	return &rec, nil
}

// path validates runID and returns its file path. Only UUIDs are
// accepted so IDs can never escape the directory.
func (s *DiskStore) path(runID string) (string, error) {
	if _, err := uuid.Parse(runID); err != nil {
		return "", fmt.Errorf("%w: invalid run ID %q", ErrNotFound, runID)
	}
	dir, err := s.ensureDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, runID+".json"), nil
}

func (s *DiskStore) ensureDir() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return s.dir, nil
	}
	if s.dir == "" {
		dir, err := os.MkdirTemp("", "noderun-runs-*")
		if err != nil {
			return "", fmt.Errorf("creating run directory: %w", err)
		}
		s.dir = dir
	} else if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}
	s.ready = true
	return s.dir, nil
}
