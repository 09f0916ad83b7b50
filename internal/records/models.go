package records

import (
	"time"

	id "heirloom/pkg/domain"
	dErrors "heirloom/pkg/domain-errors"
)

// RecordType distinguishes the kinds of high-value records the vault guards.
type RecordType string

const (
	TypeAsset      RecordType = "asset"
	TypeInvestment RecordType = "investment"
)

func (t RecordType) IsValid() bool {
	return t == TypeAsset || t == TypeInvestment
}

// SecureRecord is a protected record (physical asset or financial holding).
// The payload is either plaintext or ciphertext, never both; LockPayload
// moves it one way, UnlockPayload only projects a transient view back.
type SecureRecord struct {
	ID         id.RecordID
	FamilyID   id.FamilyID
	MemberID   *id.MemberID
	CreatedBy  id.UserID
	Type       RecordType
	Title      string
	IsHidden   bool
	PINHash    *string
	Plaintext  *string
	Ciphertext []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasPIN reports whether a PIN has been set on the record.
func (r *SecureRecord) HasPIN() bool {
	return r.PINHash != nil && *r.PINHash != ""
}

// HasPlaintext reports whether the payload is currently unencrypted.
func (r *SecureRecord) HasPlaintext() bool {
	return r.Plaintext != nil && *r.Plaintext != ""
}

// HasCiphertext reports whether the payload is currently encrypted.
func (r *SecureRecord) HasCiphertext() bool {
	return len(r.Ciphertext) > 0
}

// CheckPayloadInvariant rejects a record carrying both payload forms.
func (r *SecureRecord) CheckPayloadInvariant() error {
	if r.HasPlaintext() && r.HasCiphertext() {
		return dErrors.New(dErrors.CodeInvariantViolation, "record carries both plaintext and ciphertext")
	}
	return nil
}
