// Package storage persists the durable listing snapshot. Two backends
// implement the same contract: a local JSON file written with atomic replace,
// and PostgreSQL for hosts with an ephemeral filesystem.
package storage

import (
	"context"
	"fmt"

	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/models"
)

// Store is the snapshot/load contract shared by all backends.
//
// Snapshot must be atomic with respect to partial writes: a crash mid-write
// leaves the previously stored snapshot readable. Load on an empty or absent
// store returns an empty snapshot, not an error.
type Store interface {
	Snapshot(ctx context.Context, snap models.Snapshot) error
	Load(ctx context.Context) (models.Snapshot, error)
	Close() error
}

// Open selects and opens the backend named by cfg.StoreBackend.
func Open(cfg config.Config) (Store, error) {
	switch cfg.StoreBackend {
	case "", "file":
		return NewFileStore(cfg.SnapshotPath()), nil
	case "postgres":
		return NewPostgresStore(cfg)
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
