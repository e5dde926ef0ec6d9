package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JamilPr1/Haraj/models"
)

// FileStore keeps the snapshot in a single JSON file. Writes go to a
// temporary file in the same directory followed by an atomic rename, so a
// concurrent reader always sees either the prior or the new complete
// snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a store writing to path. The parent directory is
// created on first Snapshot.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Snapshot(ctx context.Context, snap models.Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %v", models.ErrPersistenceWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".listings-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", models.ErrPersistenceWrite, err)
	}
	tmpName := tmp.Name()

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: encode snapshot: %v", models.ErrPersistenceWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: sync snapshot: %v", models.ErrPersistenceWrite, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close snapshot: %v", models.ErrPersistenceWrite, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace snapshot: %v", models.ErrPersistenceWrite, err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context) (models.Snapshot, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Snapshot{Listings: []models.Listing{}}, nil
		}
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if snap.Listings == nil {
		snap.Listings = []models.Listing{}
	}
	return snap, nil
}

func (s *FileStore) Close() error { return nil }
