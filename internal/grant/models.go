// Package grant holds the append-only record of who may read a secure
// record's payload and through which door they came in.
package grant

import (
	"time"

	id "heirloom/pkg/domain"
)

// UnlockVia names the mechanism that produced a grant.
type UnlockVia string

const (
	// UnlockViaManual is a PIN entered by the record owner or a family admin.
	UnlockViaManual UnlockVia = "manual"
	// UnlockViaRequestApproved is an unlock request approved by an admin.
	UnlockViaRequestApproved UnlockVia = "request_approved"
	// UnlockViaRequestAuto is the automatic promotion after repeated requests.
	UnlockViaRequestAuto UnlockVia = "request_auto"
)

// UnlockAccessGrant gives one user payload access to one record. Grants are
// never updated or deleted; a duplicate grant attempt is a no-op. RequestID
// links back to the unlock request when the grant came from one.
type UnlockAccessGrant struct {
	ID         id.GrantID
	RecordID   id.RecordID
	UserID     id.UserID
	UnlockedAt time.Time
	Via        UnlockVia
	RequestID  *id.RequestID
}
