package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"docqa/internal/contextutil"
)

const (
	defaultWorkers = 4
	recordTimeout  = 5 * time.Second
)

// Dispatcher records events on a worker pool so callers never wait on a sink.
type Dispatcher struct {
	sink Sink
	pool *ants.Pool
}

// NewDispatcher creates a dispatcher with the given number of workers.
// The pool is non-blocking: when every worker is busy the event is dropped.
func NewDispatcher(sink Sink, workers int) (*Dispatcher, error) {
	if workers < 1 {
		workers = defaultWorkers
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit pool: %w", err)
	}
	return &Dispatcher{sink: sink, pool: pool}, nil
}

// Emit queues e for recording. Failures are logged and never returned.
func (d *Dispatcher) Emit(ctx context.Context, e Event) {
	logger := contextutil.LoggerFromContext(ctx)
	// The request context ends with the response; sinks get their own deadline.
	base := context.WithoutCancel(ctx)

	err := d.pool.Submit(func() {
		rctx, cancel := context.WithTimeout(base, recordTimeout)
		defer cancel()
		if err := d.sink.Record(rctx, e); err != nil {
			logger.WarnContext(rctx, "failed to record audit event",
				"error", err,
				"action", e.Action,
				"event_id", e.ID,
			)
		}
	})
	if err != nil {
		logger.WarnContext(ctx, "audit event dropped", "error", err, "action", e.Action, "event_id", e.ID)
	}
}

// Close waits up to timeout for queued events and releases the workers.
func (d *Dispatcher) Close(timeout time.Duration) error {
	if err := d.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("failed to drain audit pool: %w", err)
	}
	return nil
}

// LogSink writes events to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Record implements Sink.
func (s LogSink) Record(ctx context.Context, e Event) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "audit",
		"event_id", e.ID,
		"action", e.Action,
		"user_id", e.UserID,
		"session_id", e.SessionID,
		"resource_id", e.ResourceID,
		"ip", e.IPAddress,
		"details", e.Details,
	)
	return nil
}
