package records

import (
	"context"

	id "heirloom/pkg/domain"
)

// Store is pure I/O over secure records. The vault and the unlock engine
// decide transitions; stores only read and write rows.
type Store interface {
	FindByID(ctx context.Context, recordID id.RecordID) (*SecureRecord, error)
	// FindByIDForUpdate locks the record row for the current transaction so
	// concurrent payload or PIN mutations serialize per record.
	FindByIDForUpdate(ctx context.Context, recordID id.RecordID) (*SecureRecord, error)
	Update(ctx context.Context, record *SecureRecord) error
}
