package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"moodsync/internal/client/store"
	"moodsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore is an in-memory store that records writes and, like the
// SQLite store, refuses to write with a cancelled context
type countingStore struct {
	mu    sync.Mutex
	data  map[string][]models.CheckIn
	saves int
}

func newCountingStore() *countingStore {
	return &countingStore{data: make(map[string][]models.CheckIn)}
}

func (s *countingStore) Load(_ context.Context, key string) ([]models.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CheckIn{}, s.data[key]...), nil
}

func (s *countingStore) Save(ctx context.Context, key string, entries []models.CheckIn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	s.data[key] = append([]models.CheckIn{}, entries...)
	return nil
}

func (s *countingStore) Close() error { return nil }

func entry(emotion string) models.CheckIn {
	return models.CheckIn{Emotion: emotion, Emoji: "🙂", Intensity: 5}
}

func emotions(entries []models.CheckIn) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Emotion)
	}
	return out
}

func TestEnqueue_KeepsPreviousEntries(t *testing.T) {
	q := New(newCountingStore())
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, entry("A")))
	require.NoError(t, q.Enqueue(ctx, entry("B")))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, emotions(pending))
}

func TestDrain_EmptyQueueDoesNothing(t *testing.T) {
	s := newCountingStore()
	q := New(s)

	calls := 0
	res, err := q.Drain(context.Background(), func(context.Context, models.CheckIn) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, DrainResult{}, res)
	assert.Zero(t, calls)
	assert.Zero(t, s.saves)
}

func TestDrain_RetainsOnlyFailuresInOrder(t *testing.T) {
	q := New(newCountingStore())
	ctx := context.Background()
	for _, e := range []string{"A", "B", "C", "D"} {
		require.NoError(t, q.Enqueue(ctx, entry(e)))
	}

	var sent []string
	res, err := q.Drain(ctx, func(_ context.Context, e models.CheckIn) error {
		sent = append(sent, e.Emotion)
		if e.Emotion == "A" || e.Emotion == "C" {
			return errors.New("offline")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, sent, "a failure must not stop later entries")
	assert.Equal(t, DrainResult{Sent: 2, Retained: 2}, res)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, emotions(pending))
}

func TestDrain_IsIdempotentWithoutChanges(t *testing.T) {
	q := New(newCountingStore())
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, entry("A")))
	require.NoError(t, q.Enqueue(ctx, entry("B")))

	failAll := func(context.Context, models.CheckIn) error { return errors.New("down") }

	_, err := q.Drain(ctx, failAll)
	require.NoError(t, err)
	first, _ := q.Pending(ctx)

	_, err = q.Drain(ctx, failAll)
	require.NoError(t, err)
	second, _ := q.Pending(ctx)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"A", "B"}, emotions(second))
}

func TestMirrorAndHistory(t *testing.T) {
	q := New(newCountingStore())
	ctx := context.Background()

	require.NoError(t, q.Mirror(ctx, entry("A")))
	require.NoError(t, q.Mirror(ctx, entry("B")))

	history, err := q.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, emotions(history))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestQueue_ConcurrentEnqueueAndDrainLoseNothing(t *testing.T) {
	q := New(newCountingStore())
	ctx := context.Background()

	var (
		mu        sync.Mutex
		delivered int
		wg        sync.WaitGroup
	)
	send := func(context.Context, models.CheckIn) error {
		mu.Lock()
		delivered++
		mu.Unlock()
		return nil
	}

	const n = 50
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, q.Enqueue(ctx, entry("x")))
		}()
		go func() {
			defer wg.Done()
			_, err := q.Drain(ctx, send)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	_, err := q.Drain(ctx, send)
	require.NoError(t, err)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, n, delivered, "every entry delivered exactly once")
}

func TestQueue_WorksOverFileStore(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	q := New(s)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, entry("A")))
	res, err := q.Drain(ctx, func(context.Context, models.CheckIn) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDrain_PersistsConfirmedEntriesAfterCancel(t *testing.T) {
	s := newCountingStore()
	q := New(s)
	require.NoError(t, q.Enqueue(context.Background(), entry("A")))
	require.NoError(t, q.Enqueue(context.Background(), entry("B")))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	res, err := q.Drain(ctx, func(ctx context.Context, e models.CheckIn) error {
		if e.Emotion == "A" {
			cancel() // interrupted right after the server confirmed A
			return nil
		}
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Sent: 1, Retained: 1}, res)

	pending, err := q.Pending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, emotions(pending))
}
