// Package storage persists the most recent drift report next to the
// workgraph so it can be inspected after a run.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/c360studio/yagnidrift/drift"
)

const (
	// DefaultStateDir is the state directory created inside the workgraph.
	DefaultStateDir = ".yagnidrift"
	// SnapshotFile holds the last report.
	SnapshotFile = "last.json"
)

// Store reads and writes the last-report snapshot under one workgraph.
type Store struct {
	dir string
}

// NewStore returns a store rooted at <wgDir>/<stateDir>. An empty stateDir
// selects DefaultStateDir.
func NewStore(wgDir, stateDir string) *Store {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}
	return &Store{dir: filepath.Join(wgDir, stateDir)}
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, SnapshotFile)
}

// Save replaces the snapshot with r.
func (s *Store) Save(r drift.Report) error {
	data, err := drift.MarshalReport(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := WriteFileAtomic(s.Path(), data, 0644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// Load returns the last saved report.
func (s *Store) Load() (*drift.Report, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var r drift.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &r, nil
}

// WriteFileAtomic writes data to path via temp file + rename so readers
// never observe a partial snapshot.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	ok := false
	defer func() {
		_ = tmp.Close()
		if !ok {
			_ = os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	ok = true
	return nil
}
