package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"moodsync/internal/client/queue"
	"moodsync/internal/client/store"
	"moodsync/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI stores what it accepts and fails for chosen emotions
type fakeAPI struct {
	mu     sync.Mutex
	fail   map[string]bool
	calls  int
	stored []models.CheckIn
}

func (f *fakeAPI) Create(_ context.Context, entry models.CheckIn) (*models.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[entry.Emotion] {
		return nil, errors.New("connection refused")
	}
	entry.ID = "id-" + entry.Emotion
	f.stored = append(f.stored, entry)
	return &entry, nil
}

type blockingAPI struct{}

func (blockingAPI) Create(ctx context.Context, _ models.CheckIn) (*models.CheckIn, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func newEngine(t *testing.T, api API) *Engine {
	t.Helper()
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return NewEngine(queue.New(s), api, time.Second, zerolog.Nop())
}

func checkIn(emotion string) models.CheckIn {
	return models.CheckIn{
		Emotion:   emotion,
		Emoji:     "🙂",
		Intensity: 5,
		Timestamp: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func names(entries []models.CheckIn) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Emotion)
	}
	return out
}

func TestSaveCheckIn_ReachableServerEmptiesQueue(t *testing.T) {
	api := &fakeAPI{}
	e := newEngine(t, api)
	ctx := context.Background()

	res, err := e.SaveCheckIn(ctx, checkIn("Happy"))
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Equal(t, queue.DrainResult{Sent: 1}, res.Drain)

	pending, err := e.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, []string{"Happy"}, names(api.stored))
}

func TestSaveCheckIn_UnreachableServerKeepsEntry(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"Sad": true, "Tired": true}}
	e := newEngine(t, api)
	ctx := context.Background()

	_, err := e.SaveCheckIn(ctx, checkIn("Sad"))
	require.NoError(t, err, "delivery failures never surface")
	res, err := e.SaveCheckIn(ctx, checkIn("Tired"))
	require.NoError(t, err)
	assert.True(t, res.Queued)
	assert.Equal(t, queue.DrainResult{Retained: 2}, res.Drain)

	pending, err := e.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sad", "Tired"}, names(pending))
}

func TestSaveCheckIn_HistoryHasEachEntryOnce(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"Angry": true}}
	e := newEngine(t, api)
	ctx := context.Background()

	for _, name := range []string{"Happy", "Angry", "Calm"} {
		_, err := e.SaveCheckIn(ctx, checkIn(name))
		require.NoError(t, err)
	}

	history, err := e.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Happy", "Angry", "Calm"}, names(history))

	// Angry was retried on each later save but is mirrored only once
	assert.Equal(t, 4, api.calls)
}

func TestDrain_FailedThenSucceeded(t *testing.T) {
	api := &fakeAPI{fail: map[string]bool{"A": true}}
	e := newEngine(t, api)
	ctx := context.Background()

	_, err := e.SaveCheckIn(ctx, checkIn("A"))
	require.NoError(t, err)
	_, err = e.SaveCheckIn(ctx, checkIn("B"))
	require.NoError(t, err)

	pending, err := e.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, names(pending))
	assert.Equal(t, []string{"B"}, names(api.stored))

	// server comes back
	api.mu.Lock()
	api.fail = nil
	api.mu.Unlock()

	res := e.Drain(ctx)
	assert.Equal(t, queue.DrainResult{Sent: 1}, res)
	pending, _ = e.Pending(ctx)
	assert.Empty(t, pending)
}

func TestDrain_EmptyQueueMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	e := newEngine(t, api)

	assert.Equal(t, queue.DrainResult{}, e.Drain(context.Background()))
	assert.Zero(t, api.calls)
}

func TestDrain_HungRequestTimesOut(t *testing.T) {
	s, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	e := NewEngine(queue.New(s), blockingAPI{}, 20*time.Millisecond, zerolog.Nop())
	ctx := context.Background()

	done := make(chan SaveResult, 1)
	go func() {
		res, err := e.SaveCheckIn(ctx, checkIn("Stuck"))
		assert.NoError(t, err)
		done <- res
	}()

	select {
	case res := <-done:
		assert.Equal(t, queue.DrainResult{Retained: 1}, res.Drain)
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not time out")
	}
}
