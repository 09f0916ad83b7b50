package deceased

import (
	"context"

	"github.com/google/uuid"

	id "heirloom/pkg/domain"
)

// VoteStore is pure I/O over ballots. Batch semantics (who is eligible,
// when a batch resolves) belong to the Service.
type VoteStore interface {
	// CreateBatch inserts all ballots of a new batch.
	CreateBatch(ctx context.Context, votes []*Vote) error
	// HasOpenBallots reports whether any pending ballot exists for the member.
	HasOpenBallots(ctx context.Context, memberID id.MemberID) (bool, error)
	// FindPendingVote returns the member's pending ballot for the voter, or
	// sentinel.ErrNotFound when the voter is not eligible.
	FindPendingVote(ctx context.Context, memberID id.MemberID, voterID id.UserID) (*Vote, error)
	// Update writes a ballot's status and decision time.
	Update(ctx context.Context, vote *Vote) error
	// ListBatch returns every ballot of one batch.
	ListBatch(ctx context.Context, batchID uuid.UUID) ([]*Vote, error)
	// SupersedePending voids the batch's remaining pending ballots after a
	// resolution, so stale ballots never block re-initiation.
	SupersedePending(ctx context.Context, batchID uuid.UUID) error
}
