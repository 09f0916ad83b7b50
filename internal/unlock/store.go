package unlock

import (
	"context"

	id "heirloom/pkg/domain"
)

// RequestStore is pure I/O over unlock request rows. Cooldown arithmetic and
// the promotion threshold belong to the Engine.
type RequestStore interface {
	FindByID(ctx context.Context, requestID id.RequestID) (*UnlockRequest, error)
	// FindByIDForUpdate locks the request row for the current transaction.
	FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*UnlockRequest, error)
	// FindForRequesterForUpdate returns the (record, requester) row locked for
	// the current transaction, or sentinel.ErrNotFound when none exists yet.
	FindForRequesterForUpdate(ctx context.Context, recordID id.RecordID, requesterID id.UserID) (*UnlockRequest, error)
	// Create inserts a fresh request row; sentinel.ErrConflict when the
	// (record, requester) pair already has one.
	Create(ctx context.Context, req *UnlockRequest) error
	Update(ctx context.Context, req *UnlockRequest) error
	// ListByRecord returns all requests against a record, oldest first.
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockRequest, error)
}
