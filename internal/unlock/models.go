// Package unlock escalates access to locked records of deceased members.
// Each (record, requester) pair owns at most one request row; repeat requests
// bump a counter under a cooldown until the row auto-promotes or an admin
// resolves it.
package unlock

import (
	"time"

	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// RequestStatus is the unlock request state. Every state except pending is
// terminal.
type RequestStatus string

const (
	StatusPending      RequestStatus = "pending"
	StatusApproved     RequestStatus = "approved"
	StatusRejected     RequestStatus = "rejected"
	StatusAutoUnlocked RequestStatus = "auto_unlocked"
)

// UnlockRequest tracks one requester's petition for one record.
type UnlockRequest struct {
	ID              id.RequestID
	RecordID        id.RecordID
	RequesterUserID id.UserID
	RequestCount    int
	LastRequestedAt time.Time
	Status          RequestStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsResolved reports whether the request reached a terminal state.
func (r *UnlockRequest) IsResolved() bool {
	return r.Status != StatusPending
}

// CooldownRemaining returns how long until the requester may repeat the
// request, or zero when the cooldown has elapsed.
func (r *UnlockRequest) CooldownRemaining(now time.Time, cooldown time.Duration) time.Duration {
	eligible := r.LastRequestedAt.Add(cooldown)
	if !now.Before(eligible) {
		return 0
	}
	return eligible.Sub(now)
}

// ApplyRepeat counts one more request. Callers check the cooldown first.
func (r *UnlockRequest) ApplyRepeat(now time.Time) {
	r.RequestCount++
	r.LastRequestedAt = now
	r.UpdatedAt = now
}

// Resolve moves the request into a terminal state. Only pending requests
// resolve; anything else is a conflict.
func (r *UnlockRequest) Resolve(status RequestStatus, now time.Time) error {
	if r.IsResolved() {
		return dErrors.Newf(dErrors.CodeAlreadyResolved, "unlock request is already %s", r.Status)
	}
	if status == StatusPending {
		return dErrors.New(dErrors.CodeInvariantViolation, "cannot resolve a request to pending")
	}
	r.Status = status
	r.UpdatedAt = now
	return nil
}
