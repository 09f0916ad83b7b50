package family

import (
	"context"

	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// Action names an operation guarded by family roles.
type Action string

const (
	ActionStartVerification Action = "deceased_verification.start"
	ActionVoteDeceased      Action = "deceased_verification.vote"
	ActionRequestUnlock     Action = "record.request_unlock"
	ActionApproveUnlock     Action = "record.approve_unlock"
	ActionManualUnlock      Action = "record.manual_unlock"
	ActionViewRecord        Action = "record.view"
)

// Authorizer is the single place role checks happen. Services ask it instead
// of querying the directory directly so policy stays in one file.
type Authorizer struct {
	directory RoleDirectory
}

func NewAuthorizer(directory RoleDirectory) *Authorizer {
	return &Authorizer{directory: directory}
}

// Authorize returns nil when the user may perform the action within the
// family, or a coded error naming the failed precondition.
func (a *Authorizer) Authorize(ctx context.Context, userID id.UserID, action Action, familyID id.FamilyID) error {
	role, err := a.directory.RoleOf(ctx, userID, familyID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve family role")
	}

	switch action {
	case ActionStartVerification, ActionVoteDeceased, ActionRequestUnlock, ActionApproveUnlock, ActionManualUnlock:
		if !role.IsAdministrator() {
			return dErrors.Newf(dErrors.CodeNotEligible, "action %s requires an OWNER or ADMIN role", action)
		}
		return nil
	case ActionViewRecord:
		if role == RoleNone {
			return dErrors.New(dErrors.CodeForbidden, "user does not belong to this family")
		}
		return nil
	default:
		return dErrors.Newf(dErrors.CodeInvariantViolation, "unknown action %s", action)
	}
}

// Role exposes the raw role for callers that need more than allow/deny.
func (a *Authorizer) Role(ctx context.Context, userID id.UserID, familyID id.FamilyID) (Role, error) {
	return a.directory.RoleOf(ctx, userID, familyID)
}

// Administrators lists the users holding OWNER or ADMIN in the family.
func (a *Authorizer) Administrators(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	return a.directory.Administrators(ctx, familyID)
}
