// Package domain holds typed identifiers shared across bounded contexts.
//
// Each ID is a distinct UUID-backed type so the compiler rejects mixing a
// requester's user ID with a record ID. Parse functions enforce the
// invariant that IDs are valid, non-empty, non-nil UUIDs at trust
// boundaries; internal code constructs IDs directly from uuid values.
package domain

import (
	"github.com/google/uuid"

	dErrors "heirloom/pkg/domain-errors"
)

type (
	// UserID identifies an account holder.
	UserID uuid.UUID
	// FamilyID identifies a household.
	FamilyID uuid.UUID
	// MemberID identifies a family member row (a person, possibly without an account).
	MemberID uuid.UUID
	// RecordID identifies a secure record (asset or investment).
	RecordID uuid.UUID
	// RequestID identifies an unlock request.
	RequestID uuid.UUID
	// GrantID identifies an access grant.
	GrantID uuid.UUID
)

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id FamilyID) String() string  { return uuid.UUID(id).String() }
func (id MemberID) String() string  { return uuid.UUID(id).String() }
func (id RecordID) String() string  { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }
func (id GrantID) String() string   { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool    { return uuid.UUID(id) == uuid.Nil }
func (id FamilyID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID and friends mint fresh identifiers.
func NewUserID() UserID       { return UserID(uuid.New()) }
func NewFamilyID() FamilyID   { return FamilyID(uuid.New()) }
func NewMemberID() MemberID   { return MemberID(uuid.New()) }
func NewRecordID() RecordID   { return RecordID(uuid.New()) }
func NewRequestID() RequestID { return RequestID(uuid.New()) }
func NewGrantID() GrantID     { return GrantID(uuid.New()) }

func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be empty", kind)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", kind)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", kind)
	}
	return parsed, nil
}

func ParseUserID(raw string) (UserID, error) {
	parsed, err := parseUUID(raw, "user id")
	return UserID(parsed), err
}

func ParseFamilyID(raw string) (FamilyID, error) {
	parsed, err := parseUUID(raw, "family id")
	return FamilyID(parsed), err
}

func ParseMemberID(raw string) (MemberID, error) {
	parsed, err := parseUUID(raw, "member id")
	return MemberID(parsed), err
}

func ParseRecordID(raw string) (RecordID, error) {
	parsed, err := parseUUID(raw, "record id")
	return RecordID(parsed), err
}

func ParseRequestID(raw string) (RequestID, error) {
	parsed, err := parseUUID(raw, "request id")
	return RequestID(parsed), err
}
