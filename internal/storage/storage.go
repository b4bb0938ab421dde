// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"
	"time"

	"catalog_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Snapshot is the stored catalog table together with its provenance.
type Snapshot struct {
	Items      []model.Item
	Categories []string
	Source     string
	ImportedAt time.Time
}

// Storage is the interface for all persistence operations. Only catalog data
// is stored; captured contact values never reach it.
type Storage interface {
	ReplaceCatalog(ctx context.Context, source string, items []model.Item, categories []string) error
	LoadCatalog(ctx context.Context) (*Snapshot, error)
	GetItem(ctx context.Context, id string) (*model.Item, error)
	CountItems(ctx context.Context) (int, error)

	Close() error
}
