// Package store persists client-local check-in collections under named keys.
// Every Save replaces the whole collection stored under the key.
package store

import (
	"context"
	"fmt"

	"moodsync/internal/models"
)

const (
	// KeyPending holds check-ins not yet confirmed by the server
	KeyPending = "pending_checkins"
	// KeyHistory holds every captured check-in for display
	KeyHistory = "checkin_history"
)

// Store loads and saves JSON-encoded check-in collections.
// Loading a key that was never saved yields an empty collection.
type Store interface {
	Load(ctx context.Context, key string) ([]models.CheckIn, error)
	Save(ctx context.Context, key string, entries []models.CheckIn) error
	Close() error
}

// Open returns the store for the given driver: "file" treats path as a
// directory, "sqlite" as a database file.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "file":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
