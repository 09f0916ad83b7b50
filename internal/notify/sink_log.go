package notify

import (
	"context"
	"log/slog"
	"sync"

	id "heirloom/pkg/domain"
)

// LogSink writes notifications to the structured log. Used when Kafka is not
// configured (local development, small deployments).
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notification",
		"kind", string(n.Kind),
		"user_id", n.UserID,
		"payload", n.Payload,
	)
	return nil
}

// MemorySink records notifications for assertions in tests.
type MemorySink struct {
	mu   sync.Mutex
	sent []Notification
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Send(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (s *MemorySink) Sent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification{}, s.sent...)
}

// SentTo filters deliveries by recipient and kind.
func (s *MemorySink) SentTo(userID id.UserID, kind Kind) []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.sent {
		if n.Kind == kind && n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
