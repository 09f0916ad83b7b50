package deceased

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/family"
	"heirloom/internal/notify"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
)

type CoordinatorSuite struct {
	suite.Suite

	members *family.InMemoryStore
	votes   *InMemoryVoteStore
	sink    *notify.MemorySink
	service *Service

	familyID id.FamilyID
	memberID id.MemberID
	owner    id.UserID
	adminB   id.UserID
	adminC   id.UserID
	viewer   id.UserID
}

func (s *CoordinatorSuite) SetupTest() {
	s.members = family.NewInMemoryStore()
	s.votes = NewInMemoryVoteStore()
	s.sink = notify.NewMemorySink()

	s.familyID = id.NewFamilyID()
	s.memberID = id.NewMemberID()
	s.owner = id.NewUserID()
	s.adminB = id.NewUserID()
	s.adminC = id.NewUserID()
	s.viewer = id.NewUserID()

	ctx := context.Background()
	s.Require().NoError(s.members.Create(ctx, &family.Member{
		ID:          s.memberID,
		FamilyID:    s.familyID,
		DisplayName: "Grandpa Joe",
	}))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.owner, family.RoleOwner))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.adminB, family.RoleAdmin))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.adminC, family.RoleAdmin))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.viewer, family.RoleViewer))

	service, err := New(s.members, s.votes, family.NewAuthorizer(s.members), tx.NewMemoryRunner(),
		WithNotifier(s.sink))
	s.Require().NoError(err)
	s.service = service
}

// SetupSubTest gives every s.Run block a fresh world so one scenario's batch
// never blocks the next.
func (s *CoordinatorSuite) SetupSubTest() {
	s.SetupTest()
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *CoordinatorSuite) TestStartVerification() {
	s.Run("creates one pending ballot per admin excluding the requester", func() {
		batch, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)
		s.Len(batch.Voters, 2)
		s.NotContains(batch.Voters, s.owner)

		member, err := s.members.FindByID(context.Background(), s.memberID)
		s.Require().NoError(err)
		s.True(member.IsDeceasedPending)
		s.False(member.IsDeceased)

		s.Len(s.sink.SentTo(s.adminB, notify.KindVerificationRequested), 1)
		s.Len(s.sink.SentTo(s.adminC, notify.KindVerificationRequested), 1)
	})

	s.Run("rejects a second start while a batch is open", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)

		_, err = s.service.StartVerification(s.ctx(), s.memberID, s.adminB)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyPending))
	})

	s.Run("rejects non-administrators", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.viewer)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("rejects a deceased member", func() {
		member, err := s.members.FindByID(context.Background(), s.memberID)
		s.Require().NoError(err)
		member.IsDeceased = true
		s.Require().NoError(s.members.Update(context.Background(), member))

		_, err = s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects when the requester is the only administrator", func() {
		loneFamily := id.NewFamilyID()
		loneMember := id.NewMemberID()
		ctx := context.Background()
		s.Require().NoError(s.members.Create(ctx, &family.Member{ID: loneMember, FamilyID: loneFamily}))
		s.Require().NoError(s.members.AssignRole(ctx, loneFamily, s.owner, family.RoleOwner))

		_, err := s.service.StartVerification(s.ctx(), loneMember, s.owner)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))

		open, err := s.votes.HasOpenBallots(ctx, loneMember)
		s.Require().NoError(err)
		s.False(open)
	})

	s.Run("unknown member is not found", func() {
		_, err := s.service.StartVerification(s.ctx(), id.NewMemberID(), s.owner)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CoordinatorSuite) TestCastVote() {
	s.Run("unanimous approval marks the member deceased", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)

		outcome, err := s.service.CastVote(s.ctx(), s.memberID, s.adminB, DecisionApprove)
		s.Require().NoError(err)
		s.Equal(OutcomeOpen, outcome)

		outcome, err = s.service.CastVote(s.ctx(), s.memberID, s.adminC, DecisionApprove)
		s.Require().NoError(err)
		s.Equal(OutcomeDeceased, outcome)

		member, err := s.members.FindByID(context.Background(), s.memberID)
		s.Require().NoError(err)
		s.True(member.IsDeceased)
		s.False(member.IsDeceasedPending)

		s.Len(s.sink.SentTo(s.owner, notify.KindVerificationApproved), 1)
	})

	s.Run("a single denial closes the batch as not deceased", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)

		_, err = s.service.CastVote(s.ctx(), s.memberID, s.adminB, DecisionApprove)
		s.Require().NoError(err)

		outcome, err := s.service.CastVote(s.ctx(), s.memberID, s.adminC, DecisionDeny)
		s.Require().NoError(err)
		s.Equal(OutcomeNotDeceased, outcome)

		member, err := s.members.FindByID(context.Background(), s.memberID)
		s.Require().NoError(err)
		s.False(member.IsDeceased)
		s.False(member.IsDeceasedPending)

		s.Len(s.sink.SentTo(s.owner, notify.KindVerificationDenied), 1)
	})

	s.Run("a voter without a pending ballot is not eligible", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)

		_, err = s.service.CastVote(s.ctx(), s.memberID, s.viewer, DecisionApprove)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("a voter cannot vote twice", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)

		_, err = s.service.CastVote(s.ctx(), s.memberID, s.adminB, DecisionApprove)
		s.Require().NoError(err)

		_, err = s.service.CastVote(s.ctx(), s.memberID, s.adminB, DecisionApprove)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("verification can be re-initiated after a denial", func() {
		_, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)
		_, err = s.service.CastVote(s.ctx(), s.memberID, s.adminB, DecisionDeny)
		s.Require().NoError(err)

		batch, err := s.service.StartVerification(s.ctx(), s.memberID, s.owner)
		s.Require().NoError(err)
		s.Len(batch.Voters, 2)
	})
}
