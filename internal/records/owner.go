package records

import (
	"context"
	"errors"

	"heirloom/internal/family"
	"heirloom/pkg/platform/sentinel"
)

// EffectiveOwner resolves the family member responsible for a record.
//
// Resolution order:
//  1. the record's explicitly linked family member, if present;
//  2. otherwise the creator's own member row, provided the creator belongs
//     to the record's family;
//  3. otherwise no effective owner exists (nil, nil) and deceased-gated
//     unlocking is disallowed for the record.
func EffectiveOwner(ctx context.Context, members family.MemberStore, record *SecureRecord) (*family.Member, error) {
	if record.MemberID != nil {
		owner, err := members.FindByID(ctx, *record.MemberID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil
		}
		return owner, err
	}

	owner, err := members.FindByUser(ctx, record.FamilyID, record.CreatedBy)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return owner, err
}
