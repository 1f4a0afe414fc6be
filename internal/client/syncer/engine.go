// Package syncer delivers queued check-ins to the server.
//
// Delivery is at-least-once: a check-in the server stored but whose response
// was lost stays queued and is sent again on the next drain.
package syncer

import (
	"context"
	"fmt"
	"time"

	"moodsync/internal/client/queue"
	"moodsync/internal/models"

	"github.com/rs/zerolog"
)

// API is the server operation the engine needs
type API interface {
	Create(ctx context.Context, entry models.CheckIn) (*models.CheckIn, error)
}

// SaveResult reports what SaveCheckIn did
type SaveResult struct {
	// Queued is true once the entry is durably in the local queue
	Queued bool
	Drain  queue.DrainResult
}

// Engine captures check-ins locally and flushes them to the server
type Engine struct {
	queue          *queue.Queue
	api            API
	requestTimeout time.Duration
	logger         zerolog.Logger
}

// NewEngine creates a sync engine. A zero requestTimeout leaves each
// request bounded only by the caller's context.
func NewEngine(q *queue.Queue, api API, requestTimeout time.Duration, logger zerolog.Logger) *Engine {
	return &Engine{
		queue:          q,
		api:            api,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// SaveCheckIn queues the entry, mirrors it into history and drains the queue.
// Only a failure to queue the entry locally is returned; delivery problems
// leave the entry queued for the next drain.
func (e *Engine) SaveCheckIn(ctx context.Context, entry models.CheckIn) (SaveResult, error) {
	if err := e.queue.Enqueue(ctx, entry); err != nil {
		return SaveResult{}, fmt.Errorf("failed to queue check-in: %w", err)
	}
	result := SaveResult{Queued: true}

	if err := e.queue.Mirror(ctx, entry); err != nil {
		e.logger.Error().Err(err).Str("emotion", entry.Emotion).Msg("Failed to mirror check-in into history")
	}

	result.Drain = e.Drain(ctx)
	return result, nil
}

// Drain sends every queued check-in once and keeps the ones that failed
func (e *Engine) Drain(ctx context.Context) queue.DrainResult {
	result, err := e.queue.Drain(ctx, e.send)
	if err != nil {
		e.logger.Error().Err(err).Msg("Failed to drain check-in queue")
		return result
	}

	if result.Sent > 0 || result.Retained > 0 {
		e.logger.Info().
			Int("sent", result.Sent).
			Int("retained", result.Retained).
			Msg("Check-in queue drained")
	}
	return result
}

func (e *Engine) send(ctx context.Context, entry models.CheckIn) error {
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}

	stored, err := e.api.Create(ctx, entry)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("emotion", entry.Emotion).
			Time("timestamp", entry.Timestamp).
			Msg("Check-in kept for retry")
		return err
	}

	e.logger.Debug().Str("checkin_id", stored.ID).Msg("Check-in synced")
	return nil
}

// Pending returns the check-ins still waiting for the server
func (e *Engine) Pending(ctx context.Context) ([]models.CheckIn, error) {
	return e.queue.Pending(ctx)
}

// History returns every captured check-in regardless of sync state
func (e *Engine) History(ctx context.Context) ([]models.CheckIn, error) {
	return e.queue.History(ctx)
}
