// Package queue is the client-local durable queue of check-ins waiting for
// the server, plus the history mirror shown to the user.
//
// Each operation rewrites the whole persisted collection. All operations on
// one Queue are serialized, so a drain racing an enqueue cannot lose either
// side's snapshot.
package queue

import (
	"context"
	"fmt"
	"sync"

	"moodsync/internal/client/store"
	"moodsync/internal/models"
)

// SendFunc delivers one check-in; a nil error confirms it was stored
type SendFunc func(ctx context.Context, entry models.CheckIn) error

// DrainResult counts the outcome of one drain
type DrainResult struct {
	Sent     int
	Retained int
}

// Queue guards the pending and history collections of a store
type Queue struct {
	mu    sync.Mutex
	store store.Store
}

// New creates a queue over the given store
func New(s store.Store) *Queue {
	return &Queue{store: s}
}

// Enqueue appends the entry to the pending collection
func (q *Queue) Enqueue(ctx context.Context, entry models.CheckIn) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.store.Load(ctx, store.KeyPending)
	if err != nil {
		return fmt.Errorf("failed to load queue: %w", err)
	}
	pending = append(pending, entry)
	if err := q.store.Save(ctx, store.KeyPending, pending); err != nil {
		return fmt.Errorf("failed to persist queue: %w", err)
	}
	return nil
}

// Drain sends every pending entry in order and keeps only the failures,
// in their original order. An empty queue is neither sent nor rewritten.
func (q *Queue) Drain(ctx context.Context, send SendFunc) (DrainResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending, err := q.store.Load(ctx, store.KeyPending)
	if err != nil {
		return DrainResult{}, fmt.Errorf("failed to load queue: %w", err)
	}
	if len(pending) == 0 {
		return DrainResult{}, nil
	}

	retained := make([]models.CheckIn, 0, len(pending))
	for _, entry := range pending {
		if err := send(ctx, entry); err != nil {
			retained = append(retained, entry)
		}
	}

	// The server already confirmed the sent entries, so the rewrite must
	// happen even if ctx was cancelled mid-drain.
	result := DrainResult{Sent: len(pending) - len(retained), Retained: len(retained)}
	if err := q.store.Save(context.WithoutCancel(ctx), store.KeyPending, retained); err != nil {
		return result, fmt.Errorf("failed to persist queue: %w", err)
	}
	return result, nil
}

// Pending returns a snapshot of the entries waiting for the server
func (q *Queue) Pending(ctx context.Context) ([]models.CheckIn, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.store.Load(ctx, store.KeyPending)
}

// Mirror appends the entry to the history collection
func (q *Queue) Mirror(ctx context.Context, entry models.CheckIn) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	history, err := q.store.Load(ctx, store.KeyHistory)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	history = append(history, entry)
	if err := q.store.Save(ctx, store.KeyHistory, history); err != nil {
		return fmt.Errorf("failed to persist history: %w", err)
	}
	return nil
}

// History returns every captured entry, oldest first
func (q *Queue) History(ctx context.Context) ([]models.CheckIn, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.store.Load(ctx, store.KeyHistory)
}
