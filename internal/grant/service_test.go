package grant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/family"
	"heirloom/internal/notify"
	"heirloom/internal/records"
	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
	"heirloom/pkg/platform/tx"
	"heirloom/pkg/requestcontext"
	"heirloom/pkg/secrets"
)

type GrantServiceSuite struct {
	suite.Suite

	members *family.InMemoryStore
	records *records.InMemoryStore
	grants  *InMemoryStore
	sink    *notify.MemorySink
	service *Service

	familyID id.FamilyID
	memberID id.MemberID
	recordID id.RecordID
	owner    id.UserID
	admin    id.UserID
	viewer   id.UserID
}

func (s *GrantServiceSuite) SetupTest() {
	s.members = family.NewInMemoryStore()
	s.records = records.NewInMemoryStore()
	s.grants = NewInMemory()
	s.sink = notify.NewMemorySink()

	s.familyID = id.NewFamilyID()
	s.memberID = id.NewMemberID()
	s.recordID = id.NewRecordID()
	s.owner = id.NewUserID()
	s.admin = id.NewUserID()
	s.viewer = id.NewUserID()

	ctx := context.Background()
	ownerID := s.owner
	s.Require().NoError(s.members.Create(ctx, &family.Member{
		ID:       s.memberID,
		FamilyID: s.familyID,
		UserID:   &ownerID,
	}))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.owner, family.RoleOwner))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.admin, family.RoleAdmin))
	s.Require().NoError(s.members.AssignRole(ctx, s.familyID, s.viewer, family.RoleViewer))

	pinHash, err := secrets.Hash("4077")
	s.Require().NoError(err)
	memberID := s.memberID
	s.Require().NoError(s.records.Create(ctx, &records.SecureRecord{
		ID:         s.recordID,
		FamilyID:   s.familyID,
		MemberID:   &memberID,
		CreatedBy:  s.owner,
		Type:       records.TypeAsset,
		PINHash:    &pinHash,
		Ciphertext: []byte("sealed"),
	}))

	service, err := New(s.grants, s.records, s.members, family.NewAuthorizer(s.members), tx.NewMemoryRunner(),
		WithNotifier(s.sink))
	s.Require().NoError(err)
	s.service = service
}

func (s *GrantServiceSuite) SetupSubTest() {
	s.SetupTest()
}

func TestGrantServiceSuite(t *testing.T) {
	suite.Run(t, new(GrantServiceSuite))
}

func (s *GrantServiceSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC))
}

func (s *GrantServiceSuite) TestGrantIdempotence() {
	s.Run("a second grant for the same pair is a no-op", func() {
		user := id.NewUserID()
		requestID := id.NewRequestID()
		s.Require().NoError(s.service.Grant(s.ctx(), s.recordID, user, UnlockViaRequestApproved, &requestID))
		s.Require().NoError(s.service.Grant(s.ctx(), s.recordID, user, UnlockViaManual, nil))

		grants, err := s.service.ListByRecord(s.ctx(), s.recordID)
		s.Require().NoError(err)
		s.Require().Len(grants, 1)
		s.Equal(UnlockViaRequestApproved, grants[0].Via)
	})

	s.Run("the store reports whether a row was written", func() {
		user := id.NewUserID()
		g := &UnlockAccessGrant{
			ID:       id.NewGrantID(),
			RecordID: s.recordID,
			UserID:   user,
			Via:      UnlockViaManual,
		}
		created, err := s.grants.Create(context.Background(), g)
		s.Require().NoError(err)
		s.True(created)

		// The repeat insert is dropped; created counters must not move.
		created, err = s.grants.Create(context.Background(), g)
		s.Require().NoError(err)
		s.False(created)
	})

	s.Run("grants answer HasAccess", func() {
		user := id.NewUserID()
		ok, err := s.service.HasAccess(s.ctx(), s.recordID, user)
		s.Require().NoError(err)
		s.False(ok)

		s.Require().NoError(s.service.Grant(s.ctx(), s.recordID, user, UnlockViaRequestAuto, nil))

		ok, err = s.service.HasAccess(s.ctx(), s.recordID, user)
		s.Require().NoError(err)
		s.True(ok)
	})
}

func (s *GrantServiceSuite) TestManualUnlock() {
	s.Run("the owner with the correct PIN gets a manual grant", func() {
		s.Require().NoError(s.service.ManualUnlock(s.ctx(), s.recordID, s.owner, "4077"))

		grants, err := s.service.ListByRecord(s.ctx(), s.recordID)
		s.Require().NoError(err)
		s.Require().Len(grants, 1)
		s.Equal(UnlockViaManual, grants[0].Via)
		s.Equal(s.owner, grants[0].UserID)
	})

	s.Run("an admin with the correct PIN gets a manual grant", func() {
		s.Require().NoError(s.service.ManualUnlock(s.ctx(), s.recordID, s.admin, "4077"))

		ok, err := s.service.HasAccess(s.ctx(), s.recordID, s.admin)
		s.Require().NoError(err)
		s.True(ok)

		// The creator hears about someone else opening their record.
		heard := s.sink.SentTo(s.owner, notify.KindManualUnlocked)
		s.Require().Len(heard, 1)
		s.Equal(s.admin.String(), heard[0].Payload["unlocked_by"])
	})

	s.Run("a wrong PIN is rejected without a grant", func() {
		err := s.service.ManualUnlock(s.ctx(), s.recordID, s.owner, "0000")
		s.Require().Error(err)
		// Indistinguishable from the role rejection below.
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))

		grants, err := s.service.ListByRecord(s.ctx(), s.recordID)
		s.Require().NoError(err)
		s.Empty(grants)
	})

	s.Run("a viewer may not even attempt the PIN", func() {
		err := s.service.ManualUnlock(s.ctx(), s.recordID, s.viewer, "4077")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
	})

	s.Run("a record without a PIN cannot be manually unlocked", func() {
		bare := id.NewRecordID()
		s.Require().NoError(s.records.Create(context.Background(), &records.SecureRecord{
			ID:        bare,
			FamilyID:  s.familyID,
			CreatedBy: s.owner,
			Type:      records.TypeInvestment,
		}))

		err := s.service.ManualUnlock(s.ctx(), bare, s.owner, "4077")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown record is not found", func() {
		err := s.service.ManualUnlock(s.ctx(), id.NewRecordID(), s.owner, "4077")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
