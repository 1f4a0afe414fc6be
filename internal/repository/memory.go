package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"moodsync/internal/models"
)

// MemoryRepository keeps check-ins in process memory. It backs the
// "memory" database driver used for local runs without PostgreSQL.
type MemoryRepository struct {
	mu       sync.RWMutex
	checkIns []*models.CheckIn
	ids      map[string]struct{}
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{ids: make(map[string]struct{})}
}

// Create stores a copy of the check-in
func (r *MemoryRepository) Create(_ context.Context, c *models.CheckIn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[c.ID]; exists {
		return fmt.Errorf("failed to create check-in: duplicate id %s", c.ID)
	}

	stored := *c
	r.checkIns = append(r.checkIns, &stored)
	r.ids[c.ID] = struct{}{}
	return nil
}

// List returns copies of all check-ins, newest first
func (r *MemoryRepository) List(_ context.Context) ([]*models.CheckIn, error) {
	r.mu.RLock()
	result := make([]*models.CheckIn, 0, len(r.checkIns))
	for _, c := range r.checkIns {
		cp := *c
		result = append(result, &cp)
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(_ context.Context) error {
	return nil
}
