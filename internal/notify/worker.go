package notify

import (
	"context"
	"log/slog"
)

// AsyncSink decouples senders from delivery latency: Send enqueues and
// returns immediately; the Worker drains the queue against the real sink.
// A full queue drops the notification with a warning; deliveries are
// best-effort by contract.
type AsyncSink struct {
	inbox  chan Notification
	logger *slog.Logger
}

func NewAsyncSink(buffer int, logger *slog.Logger) *AsyncSink {
	if buffer <= 0 {
		buffer = 256
	}
	return &AsyncSink{
		inbox:  make(chan Notification, buffer),
		logger: logger,
	}
}

func (s *AsyncSink) Send(ctx context.Context, n Notification) error {
	select {
	case s.inbox <- n:
		return nil
	default:
		s.logger.WarnContext(ctx, "notification queue full, dropping",
			"kind", string(n.Kind),
			"user_id", n.UserID,
		)
		return nil
	}
}

// Worker consumes queued notifications and forwards them to a delivery sink.
type Worker struct {
	sink   Sink
	inbox  <-chan Notification
	logger *slog.Logger
}

func NewWorker(sink Sink, async *AsyncSink, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: async.inbox, logger: logger}
}

// Run delivers until the context is cancelled. Delivery errors are logged
// and the loop continues; the worker never takes the process down.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-w.inbox:
			if err := w.sink.Send(ctx, n); err != nil {
				w.logger.WarnContext(ctx, "notification delivery failed",
					"kind", string(n.Kind),
					"user_id", n.UserID,
					"error", err,
				)
			}
		}
	}
}
