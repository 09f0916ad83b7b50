package grant

import (
	"context"

	id "heirloom/pkg/domain"
)

// GrantStore is the append-only grant ledger. Create must be idempotent per
// (record, user): a second insert for the same pair succeeds without writing
// and reports created=false so callers can tell a fresh grant from a repeat.
type GrantStore interface {
	Create(ctx context.Context, g *UnlockAccessGrant) (created bool, err error)
	HasAccess(ctx context.Context, recordID id.RecordID, userID id.UserID) (bool, error)
	ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockAccessGrant, error)
}
