package family

import (
	"time"

	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// Role is a user's standing within a family. OWNER and ADMIN administer the
// household; only they vote on deceased verification or request unlocks.
type Role string

const (
	RoleOwner  Role = "OWNER"
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
	// RoleNone means the user has no standing in the family.
	RoleNone Role = ""
)

// ParseRole validates a stored role string.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return r, nil
	}
	return RoleNone, dErrors.Newf(dErrors.CodeInvalidInput, "unknown family role %q", s)
}

// IsAdministrator reports whether the role carries administrative standing.
func (r Role) IsAdministrator() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Member is a family member row. A member may exist without a linked account
// (children, elderly relatives); UserID is nil in that case.
//
// Invariants:
//   - IsDeceased and IsDeceasedPending are never both true
//   - IsDeceased is one-way: no transition defined out of it
type Member struct {
	ID                id.MemberID
	FamilyID          id.FamilyID
	UserID            *id.UserID
	DisplayName       string
	IsDeceased        bool
	IsDeceasedPending bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CanOpenVerification checks whether a new verification batch may be opened.
func (m *Member) CanOpenVerification() error {
	if m.IsDeceased {
		return dErrors.New(dErrors.CodeValidation, "member is already marked deceased")
	}
	if m.IsDeceasedPending {
		return dErrors.New(dErrors.CodeAlreadyPending, "a deceased verification is already in progress")
	}
	return nil
}

// ApplyVerificationOpened flips the member into the pending state.
func (m *Member) ApplyVerificationOpened(now time.Time) {
	m.IsDeceasedPending = true
	m.UpdatedAt = now
}

// ApplyDeceased resolves the batch as unanimous: the member is deceased.
func (m *Member) ApplyDeceased(now time.Time) {
	m.IsDeceased = true
	m.IsDeceasedPending = false
	m.UpdatedAt = now
}

// ApplyNotDeceased resolves the batch after a denial: flags return to rest.
func (m *Member) ApplyNotDeceased(now time.Time) {
	m.IsDeceasedPending = false
	m.UpdatedAt = now
}

// LinkedTo reports whether the member's account is the given user.
func (m *Member) LinkedTo(userID id.UserID) bool {
	return m.UserID != nil && *m.UserID == userID
}
