//go:build integration

package deceased_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"heirloom/internal/deceased"
	"heirloom/internal/family"
	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *deceased.PostgresStore
	members  *family.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = deceased.NewPostgres(s.postgres.Pool)
	s.members = family.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) seedMember(ctx context.Context) id.MemberID {
	member := &family.Member{
		ID:          id.NewMemberID(),
		FamilyID:    id.NewFamilyID(),
		DisplayName: "grandpa joe",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	s.Require().NoError(s.members.Create(ctx, member))
	return member.ID
}

func newBatch(memberID id.MemberID, requestedBy id.UserID, voters ...id.UserID) []*deceased.Vote {
	batchID := uuid.New()
	now := time.Now()
	votes := make([]*deceased.Vote, 0, len(voters))
	for _, voter := range voters {
		votes = append(votes, &deceased.Vote{
			ID:          uuid.New(),
			MemberID:    memberID,
			BatchID:     batchID,
			VoterUserID: voter,
			RequestedBy: requestedBy,
			Status:      deceased.VoteStatusPending,
			CreatedAt:   now,
		})
	}
	return votes
}

func (s *PostgresStoreSuite) TestPendingBallotUniqueness() {
	ctx := context.Background()
	memberID := s.seedMember(ctx)
	requester := id.NewUserID()
	voter := id.NewUserID()

	first := newBatch(memberID, requester, voter, id.NewUserID())
	s.Require().NoError(s.store.CreateBatch(ctx, first))

	open, err := s.store.HasOpenBallots(ctx, memberID)
	s.Require().NoError(err)
	s.True(open)

	// A second batch reuses a voter with a pending ballot; the partial
	// unique index rejects it.
	err = s.store.CreateBatch(ctx, newBatch(memberID, requester, voter))
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestVoteLifecycle() {
	ctx := context.Background()
	memberID := s.seedMember(ctx)
	voterA := id.NewUserID()
	voterB := id.NewUserID()

	batch := newBatch(memberID, id.NewUserID(), voterA, voterB)
	s.Require().NoError(s.store.CreateBatch(ctx, batch))

	pending, err := s.store.FindPendingVote(ctx, memberID, voterA)
	s.Require().NoError(err)
	s.Equal(voterA, pending.VoterUserID)
	s.Equal(deceased.VoteStatusPending, pending.Status)

	decidedAt := time.Now().UTC().Truncate(time.Microsecond)
	pending.Status = deceased.VoteStatusApproved
	pending.DecidedAt = &decidedAt
	s.Require().NoError(s.store.Update(ctx, pending))

	// The decided ballot is no longer pending for its voter.
	_, err = s.store.FindPendingVote(ctx, memberID, voterA)
	s.ErrorIs(err, sentinel.ErrNotFound)

	listed, err := s.store.ListBatch(ctx, batch[0].BatchID)
	s.Require().NoError(err)
	s.Require().Len(listed, 2)
	s.Equal(deceased.OutcomeOpen, deceased.EvaluateConsensus(listed))
}

func (s *PostgresStoreSuite) TestSupersedeUnblocksNewBatch() {
	ctx := context.Background()
	memberID := s.seedMember(ctx)
	voter := id.NewUserID()

	batch := newBatch(memberID, id.NewUserID(), voter, id.NewUserID())
	s.Require().NoError(s.store.CreateBatch(ctx, batch))
	s.Require().NoError(s.store.SupersedePending(ctx, batch[0].BatchID))

	open, err := s.store.HasOpenBallots(ctx, memberID)
	s.Require().NoError(err)
	s.False(open)

	// With the old ballots superseded the same voter may receive a new one.
	s.NoError(s.store.CreateBatch(ctx, newBatch(memberID, id.NewUserID(), voter)))
}
