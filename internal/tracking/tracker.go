// Package tracking records component usage in the background.
//
// Track never blocks and never fails the caller: events go onto a bounded
// queue and are persisted by a small worker pool on a context detached from
// the originating request. A full queue drops the event; a failed write is
// logged and counted. Neither is retried.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/metrics"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrQueueFull is reported by TrackErr when the event was dropped
var ErrQueueFull = errors.New("usage queue is full")

// ErrStopped is reported by TrackErr after Stop
var ErrStopped = errors.New("usage tracker stopped")

// Event is one rendered-and-displayed occurrence of a component
type Event struct {
	ComponentID string
	UserID      *string
	Page        string
	Context     map[string]any
	// LoadTimeMs and RenderTimeMs are wall-clock milliseconds
	LoadTimeMs   float64
	RenderTimeMs float64
	UserAgent   string
	IPAddress   string
	RequestID   string

	// Trace links the background write to the request that rendered the component
	Trace trace.SpanContext
}

// Recorder persists one event
type Recorder interface {
	RecordUsage(ctx context.Context, ev Event) error
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(ctx context.Context, ev Event) error

func (f RecorderFunc) RecordUsage(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Options tunes the worker pool
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// Tracker is a bounded queue drained by a fixed set of workers
type Tracker struct {
	events   chan Event
	recorder Recorder
	workers  int
	timeout  time.Duration

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup

	recorded atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64

	metrics *metrics.ComponentMetrics
}

// NewTracker creates a tracker; call Start to launch the workers
func NewTracker(recorder Recorder, opts Options) *Tracker {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 1000
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}

	return &Tracker{
		events:   make(chan Event, opts.QueueSize),
		recorder: recorder,
		workers:  opts.Workers,
		timeout:  opts.Timeout,
		metrics:  metrics.Get().Components,
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.closed {
		return
	}
	t.started = true

	logger.Log.Info("Starting usage tracker",
		zap.Int("workers", t.workers),
		zap.Int("queue_size", cap(t.events)),
	)
	for i := 0; i < t.workers; i++ {
		t.wg.Add(1)
		go t.worker(i)
	}
}

// Track enqueues ev without blocking and reports whether it was accepted
func (t *Tracker) Track(ev Event) bool {
	return t.TrackErr(ev) == nil
}

// TrackErr is Track with the reason an event was not accepted
func (t *Tracker) TrackErr(ev Event) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		t.drop(ev, "stopped")
		return ErrStopped
	}

	select {
	case t.events <- ev:
		t.metrics.UsageQueueDepth.Set(float64(len(t.events)))
		return nil
	default:
		t.drop(ev, "queue full")
		return ErrQueueFull
	}
}

// Stop stops accepting events and waits for queued ones to be recorded,
// giving up when ctx expires.
func (t *Tracker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.events)
	started := t.started
	t.mu.Unlock()

	if !started {
		return nil
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("Usage tracker drained",
			zap.Int64("recorded", t.recorded.Load()),
			zap.Int64("failed", t.failed.Load()),
			zap.Int64("dropped", t.dropped.Load()),
		)
		return nil
	case <-ctx.Done():
		logger.Log.Warn("Usage tracker stopped before queue drained",
			zap.Int("pending", t.Pending()),
		)
		return ctx.Err()
	}
}

// Stats returns recorded, failed and dropped event counts
func (t *Tracker) Stats() (recorded, failed, dropped int64) {
	return t.recorded.Load(), t.failed.Load(), t.dropped.Load()
}

// Pending is the number of queued events
func (t *Tracker) Pending() int {
	return len(t.events)
}

func (t *Tracker) worker(workerID int) {
	defer t.wg.Done()
	for ev := range t.events {
		t.metrics.UsageQueueDepth.Set(float64(len(t.events)))
		t.record(workerID, ev)
	}
}

// record persists one event on a detached context; failures stop here
func (t *Tracker) record(workerID int, ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	start := time.Now()
	err := t.safeRecord(ctx, ev)
	t.metrics.UsageRecordTime.Observe(time.Since(start).Seconds())

	if err != nil {
		t.failed.Add(1)
		t.metrics.RecordUsage("failed")
		logger.Log.Warn("Failed to record component usage",
			zap.Int("worker_id", workerID),
			logger.WithComponentID(ev.ComponentID),
			logger.WithRequestID(ev.RequestID),
			zap.String("page", ev.Page),
			zap.Error(err),
		)
		return
	}

	t.recorded.Add(1)
	t.metrics.RecordUsage("recorded")
}

func (t *Tracker) safeRecord(ctx context.Context, ev Event) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recorder panicked: %v", rec)
		}
	}()
	return t.recorder.RecordUsage(ctx, ev)
}

func (t *Tracker) drop(ev Event, reason string) {
	t.dropped.Add(1)
	t.metrics.RecordUsage("dropped")
	logger.Log.Debug("Dropped component usage event",
		logger.WithComponentID(ev.ComponentID),
		zap.String("reason", reason),
	)
}
