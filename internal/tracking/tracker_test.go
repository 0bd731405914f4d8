package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	block  chan struct{}
}

func (m *memoryRecorder) RecordUsage(ctx context.Context, ev Event) error {
	if m.block != nil {
		select {
		case <-m.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *memoryRecorder) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

func TestTrackerRecordsEvents(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{}
	tr := NewTracker(rec, Options{Workers: 2, QueueSize: 10, Timeout: time.Second})
	tr.Start()

	for i := 0; i < 5; i++ {
		assert.True(t, tr.Track(Event{ComponentID: "abc", Page: "/home"}))
	}

	require.NoError(t, tr.Stop(context.Background()))
	assert.Equal(t, 5, rec.count())

	recorded, failed, dropped := tr.Stats()
	assert.Equal(t, int64(5), recorded)
	assert.Zero(t, failed)
	assert.Zero(t, dropped)
}

func TestTrackerDropsWhenFull(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{}
	tr := NewTracker(rec, Options{Workers: 1, QueueSize: 2})

	// not started: the queue fills and further events are dropped
	assert.NoError(t, tr.TrackErr(Event{ComponentID: "a"}))
	assert.NoError(t, tr.TrackErr(Event{ComponentID: "b"}))
	assert.ErrorIs(t, tr.TrackErr(Event{ComponentID: "c"}), ErrQueueFull)

	_, _, dropped := tr.Stats()
	assert.Equal(t, int64(1), dropped)
	assert.Equal(t, 2, tr.Pending())
}

func TestTrackNeverBlocks(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{block: make(chan struct{})}
	tr := NewTracker(rec, Options{Workers: 1, QueueSize: 1, Timeout: time.Minute})
	tr.Start()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			tr.Track(Event{ComponentID: "abc"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Track blocked on a stalled recorder")
	}

	close(rec.block)
	require.NoError(t, tr.Stop(context.Background()))
}

func TestTrackerFailuresAreContained(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{err: errors.New("db down")}
	tr := NewTracker(rec, Options{Workers: 1, QueueSize: 4})
	tr.Start()

	assert.True(t, tr.Track(Event{ComponentID: "abc"}))
	require.NoError(t, tr.Stop(context.Background()))

	recorded, failed, _ := tr.Stats()
	assert.Zero(t, recorded)
	assert.Equal(t, int64(1), failed)
}

func TestTrackerRecoversRecorderPanic(t *testing.T) {
	logger.InitializeForTest()
	tr := NewTracker(RecorderFunc(func(context.Context, Event) error {
		panic("boom")
	}), Options{Workers: 1, QueueSize: 4})
	tr.Start()

	tr.Track(Event{ComponentID: "abc"})
	require.NoError(t, tr.Stop(context.Background()))

	_, failed, _ := tr.Stats()
	assert.Equal(t, int64(1), failed)
}

func TestTrackerUsesDetachedTimeout(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{block: make(chan struct{})}
	tr := NewTracker(rec, Options{Workers: 1, QueueSize: 1, Timeout: 20 * time.Millisecond})
	tr.Start()

	tr.Track(Event{ComponentID: "abc"})
	require.NoError(t, tr.Stop(context.Background()))

	_, failed, _ := tr.Stats()
	assert.Equal(t, int64(1), failed, "stalled write is abandoned after the per-event timeout")
}

func TestStopGivesUpWhenContextExpires(t *testing.T) {
	logger.InitializeForTest()
	rec := &memoryRecorder{block: make(chan struct{})}
	tr := NewTracker(rec, Options{Workers: 1, QueueSize: 4, Timeout: time.Minute})
	tr.Start()
	tr.Track(Event{ComponentID: "abc"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, tr.Stop(ctx), context.DeadlineExceeded)

	close(rec.block)
}

func TestTrackAfterStop(t *testing.T) {
	logger.InitializeForTest()
	tr := NewTracker(&memoryRecorder{}, Options{})
	tr.Start()
	require.NoError(t, tr.Stop(context.Background()))
	require.NoError(t, tr.Stop(context.Background()))

	assert.ErrorIs(t, tr.TrackErr(Event{ComponentID: "abc"}), ErrStopped)
}

func TestSessionDedupe(t *testing.T) {
	var s Session

	assert.True(t, s.ShouldTrack("abc", "/home"))
	assert.False(t, s.ShouldTrack("abc", "/home"))
	assert.True(t, s.ShouldTrack("abc", "/search"))
	assert.True(t, s.ShouldTrack("def", "/search"))
	assert.True(t, s.ShouldTrack("abc", "/search"))
}
