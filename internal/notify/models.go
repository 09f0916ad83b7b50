// Package notify delivers best-effort notifications to family members.
// Delivery failure is logged and dropped, never propagated: a notification
// must not roll back a state transition that already committed.
package notify

import (
	"context"
	"time"

	id "heirloom/pkg/domain"
)

// Kind names a notification event.
type Kind string

const (
	KindVerificationRequested Kind = "deceased_verification.requested"
	KindVoteRecorded          Kind = "deceased_verification.vote_recorded"
	KindVerificationApproved  Kind = "deceased_verification.approved"
	KindVerificationDenied    Kind = "deceased_verification.denied"
	KindUnlockRequested       Kind = "record_unlock.requested"
	KindUnlockApproved        Kind = "record_unlock.approved"
	KindUnlockRejected        Kind = "record_unlock.rejected"
	KindAutoUnlocked          Kind = "record_unlock.auto_unlocked"
	KindManualUnlocked        Kind = "record_unlock.manual"
)

// Notification is a single event addressed to one user. Payload keys are
// event-specific (record id, request count, device label).
type Notification struct {
	UserID    id.UserID      `json:"user_id"`
	Kind      Kind           `json:"kind"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Sink delivers notifications. Implementations must be safe for concurrent use.
//
//go:generate mockgen -destination=../../mocks/notify/sink_mock.go -package=notifymocks heirloom/internal/notify Sink
type Sink interface {
	Send(ctx context.Context, n Notification) error
}
