package notify

import (
	"context"
	"log/slog"
	"time"

	id "heirloom/pkg/domain"
)

// Dispatch sends a notification and swallows delivery failures, logging them
// instead. Services call this after their transaction commits; a nil sink is
// a no-op so tests and minimal deployments need no stub.
func Dispatch(ctx context.Context, logger *slog.Logger, sink Sink, userID id.UserID, kind Kind, payload map[string]any) {
	if sink == nil {
		return
	}
	n := Notification{
		UserID:    userID,
		Kind:      kind,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := sink.Send(ctx, n); err != nil && logger != nil {
		logger.WarnContext(ctx, "notification delivery failed",
			"kind", string(kind),
			"user_id", userID,
			"error", err,
		)
	}
}
