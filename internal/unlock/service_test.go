package unlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/family"
	"heirloom/internal/grant"
	"heirloom/internal/notify"
	"heirloom/internal/records"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
)

type EngineSuite struct {
	suite.Suite

	members  *family.InMemoryStore
	records  *records.InMemoryStore
	requests *InMemoryStore
	grants   *grant.InMemoryStore
	grantSvc *grant.Service
	sink     *notify.MemorySink
	engine   *Engine

	familyID  id.FamilyID
	memberID  id.MemberID
	recordID  id.RecordID
	creator   id.UserID
	requester id.UserID
	otherAdm  id.UserID

	day0 time.Time
}

func (s *EngineSuite) SetupTest() {
	s.members = family.NewInMemoryStore()
	s.records = records.NewInMemoryStore()
	s.requests = NewInMemory()
	s.grants = grant.NewInMemory()
	s.sink = notify.NewMemorySink()

	s.familyID = id.NewFamilyID()
	s.memberID = id.NewMemberID()
	s.recordID = id.NewRecordID()
	s.creator = id.NewUserID()
	s.requester = id.NewUserID()
	s.otherAdm = id.NewUserID()
	s.day0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	ctx := context.Background()
	s.Require().NoError(s.members.Create(ctx, &family.Member{
		ID:         s.memberID,
		FamilyID:   s.familyID,
		IsDeceased: true,
	}))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.creator, family.RoleOwner))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.requester, family.RoleAdmin))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.otherAdm, family.RoleAdmin))

	memberID := s.memberID
	ciphertext := []byte("sealed")
	s.Require().NoError(s.records.Create(ctx, &records.SecureRecord{
		ID:         s.recordID,
		FamilyID:   s.familyID,
		MemberID:   &memberID,
		CreatedBy:  s.creator,
		Type:       records.TypeAsset,
		Title:      "Safe deposit box",
		IsHidden:   true,
		Ciphertext: ciphertext,
	}))

	authz := family.NewAuthorizer(s.members)
	runner := tx.NewMemoryRunner()
	grantSvc, err := grant.New(s.grants, s.records, s.members, authz, runner)
	s.Require().NoError(err)
	s.grantSvc = grantSvc

	engine, err := New(s.requests, s.records, s.members, authz, grantSvc, runner,
		WithNotifier(s.sink))
	s.Require().NoError(err)
	s.engine = engine
}

// SetupSubTest gives every s.Run block a fresh world so timeline scenarios
// never leak requests into each other.
func (s *EngineSuite) SetupSubTest() {
	s.SetupTest()
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) at(day int) context.Context {
	return requestcontext.WithTime(context.Background(), s.day0.AddDate(0, 0, day))
}

func (s *EngineSuite) TestEscalationTimeline() {
	s.Run("day 0 creates a pending request with count 1", func() {
		req, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)
		s.Equal(StatusPending, req.Status)
		s.Equal(1, req.RequestCount)
		s.Len(s.sink.SentTo(s.otherAdm, notify.KindUnlockRequested), 1)
		s.Empty(s.sink.SentTo(s.requester, notify.KindUnlockRequested))
	})

	s.Run("day 1 is inside the cooldown and changes nothing", func() {
		_, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		_, err = s.engine.RequestUnlock(s.at(1), s.recordID, s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeCooldownActive))

		stored, err := s.requests.FindForRequesterForUpdate(context.Background(), s.recordID, s.requester)
		s.Require().NoError(err)
		s.Equal(1, stored.RequestCount)
		s.Equal(s.day0, stored.LastRequestedAt)
	})

	s.Run("day 2 bumps the count to 2", func() {
		_, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		req, err := s.engine.RequestUnlock(s.at(2), s.recordID, s.requester)
		s.Require().NoError(err)
		s.Equal(StatusPending, req.Status)
		s.Equal(2, req.RequestCount)
	})

	s.Run("day 4 reaches the threshold and auto-unlocks with exactly one grant", func() {
		_, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)
		_, err = s.engine.RequestUnlock(s.at(2), s.recordID, s.requester)
		s.Require().NoError(err)

		req, err := s.engine.RequestUnlock(s.at(4), s.recordID, s.requester)
		s.Require().NoError(err)
		s.Equal(StatusAutoUnlocked, req.Status)
		s.Equal(3, req.RequestCount)

		grants, err := s.grants.ListByRecord(context.Background(), s.recordID)
		s.Require().NoError(err)
		s.Require().Len(grants, 1)
		s.Equal(grant.UnlockViaRequestAuto, grants[0].Via)
		s.Equal(s.requester, grants[0].UserID)
		s.Require().NotNil(grants[0].RequestID)
		s.Equal(req.ID, *grants[0].RequestID)

		s.Len(s.sink.SentTo(s.requester, notify.KindAutoUnlocked), 1)
	})

	s.Run("a resolved request never reopens or changes its count", func() {
		_, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)
		_, err = s.engine.RequestUnlock(s.at(2), s.recordID, s.requester)
		s.Require().NoError(err)
		_, err = s.engine.RequestUnlock(s.at(4), s.recordID, s.requester)
		s.Require().NoError(err)

		_, err = s.engine.RequestUnlock(s.at(30), s.recordID, s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyResolved))

		stored, err := s.requests.FindForRequesterForUpdate(context.Background(), s.recordID, s.requester)
		s.Require().NoError(err)
		s.Equal(3, stored.RequestCount)
		s.Equal(StatusAutoUnlocked, stored.Status)
	})
}

func (s *EngineSuite) TestRequestPreconditions() {
	s.Run("rejects non-administrators", func() {
		stranger := id.NewUserID()
		_, err := s.engine.RequestUnlock(s.at(0), s.recordID, stranger)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("rejects a record that is not locked", func() {
		open := id.NewRecordID()
		plaintext := "in the clear"
		s.Require().NoError(s.records.Create(context.Background(), &records.SecureRecord{
			ID:        open,
			FamilyID:  s.familyID,
			CreatedBy: s.creator,
			Type:      records.TypeAsset,
			Plaintext: &plaintext,
		}))

		_, err := s.engine.RequestUnlock(s.at(0), open, s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("rejects when the effective owner is alive", func() {
		member, err := s.members.FindByID(context.Background(), s.memberID)
		s.Require().NoError(err)
		member.IsDeceased = false
		s.Require().NoError(s.members.Update(context.Background(), member))

		_, err = s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("rejects a record with no effective owner", func() {
		orphan := id.NewRecordID()
		s.Require().NoError(s.records.Create(context.Background(), &records.SecureRecord{
			ID:         orphan,
			FamilyID:   s.familyID,
			CreatedBy:  id.NewUserID(),
			Type:       records.TypeInvestment,
			IsHidden:   true,
			Ciphertext: []byte("sealed"),
		}))

		_, err := s.engine.RequestUnlock(s.at(0), orphan, s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("unknown record is not found", func() {
		_, err := s.engine.RequestUnlock(s.at(0), id.NewRecordID(), s.requester)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngineSuite) TestApproveAndReject() {
	s.Run("approval resolves the request and grants access", func() {
		req, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		resolved, err := s.engine.ApproveRequest(s.at(1), req.ID, s.otherAdm)
		s.Require().NoError(err)
		s.Equal(StatusApproved, resolved.Status)

		grants, err := s.grants.ListByRecord(context.Background(), s.recordID)
		s.Require().NoError(err)
		s.Require().Len(grants, 1)
		s.Equal(grant.UnlockViaRequestApproved, grants[0].Via)

		s.Len(s.sink.SentTo(s.requester, notify.KindUnlockApproved), 1)
	})

	s.Run("rejection resolves the request without a grant", func() {
		req, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		resolved, err := s.engine.RejectRequest(s.at(1), req.ID, s.otherAdm)
		s.Require().NoError(err)
		s.Equal(StatusRejected, resolved.Status)

		grants, err := s.grants.ListByRecord(context.Background(), s.recordID)
		s.Require().NoError(err)
		s.Empty(grants)

		s.Len(s.sink.SentTo(s.requester, notify.KindUnlockRejected), 1)
	})

	s.Run("resolving twice conflicts", func() {
		req, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		_, err = s.engine.ApproveRequest(s.at(1), req.ID, s.otherAdm)
		s.Require().NoError(err)

		_, err = s.engine.RejectRequest(s.at(1), req.ID, s.otherAdm)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyResolved))
	})

	s.Run("only administrators resolve requests", func() {
		req, err := s.engine.RequestUnlock(s.at(0), s.recordID, s.requester)
		s.Require().NoError(err)

		_, err = s.engine.ApproveRequest(s.at(1), req.ID, id.NewUserID())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})
}
