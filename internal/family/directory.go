package family

import (
	"context"

	id "heirloom/pkg/domain"
)

// RoleDirectory resolves a user's role within a family. The main application
// owns role assignment; this service only reads.
//
//go:generate mockgen -destination=../../mocks/family/directory_mock.go -package=familymocks heirloom/internal/family RoleDirectory
type RoleDirectory interface {
	// RoleOf returns the user's role, or RoleNone (with nil error) when the
	// user has no standing in the family.
	RoleOf(ctx context.Context, userID id.UserID, familyID id.FamilyID) (Role, error)
	// Administrators lists the user IDs holding OWNER or ADMIN in the family.
	Administrators(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error)
}

// MemberStore is pure I/O over family member rows. Flag transitions are
// decided by the deceased coordinator through the Member domain methods.
type MemberStore interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*Member, error)
	// FindByIDForUpdate locks the member row for the current transaction so
	// concurrent consensus evaluations serialize per member.
	FindByIDForUpdate(ctx context.Context, memberID id.MemberID) (*Member, error)
	// FindByUser returns the member row linked to the user within a family,
	// used for fallback ownership resolution.
	FindByUser(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*Member, error)
	Update(ctx context.Context, member *Member) error
}
