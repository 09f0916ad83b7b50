package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.pool
}

const recordColumns = `id, family_id, family_member_id, created_by, record_type, title, is_hidden, pin_hash, plaintext, ciphertext, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*SecureRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM secure_records WHERE id = $1`, recordColumns)
	return s.scanRecord(s.q(ctx).QueryRow(ctx, query, uuid.UUID(recordID)))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, recordID id.RecordID) (*SecureRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM secure_records WHERE id = $1 FOR UPDATE`, recordColumns)
	return s.scanRecord(s.q(ctx).QueryRow(ctx, query, uuid.UUID(recordID)))
}

func (s *PostgresStore) Update(ctx context.Context, record *SecureRecord) error {
	query := `
		UPDATE secure_records
		SET is_hidden = $2, pin_hash = $3, plaintext = $4, ciphertext = $5, updated_at = $6
		WHERE id = $1
	`
	tag, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(record.ID),
		record.IsHidden,
		record.PINHash,
		record.Plaintext,
		record.Ciphertext,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update secure record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Create inserts a record row; record authoring belongs to the main
// application, so this is used by integration tests and seeds.
func (s *PostgresStore) Create(ctx context.Context, record *SecureRecord) error {
	query := `
		INSERT INTO secure_records (id, family_id, family_member_id, created_by, record_type, title, is_hidden, pin_hash, plaintext, ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	var memberID *uuid.UUID
	if record.MemberID != nil {
		m := uuid.UUID(*record.MemberID)
		memberID = &m
	}
	_, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.FamilyID),
		memberID,
		uuid.UUID(record.CreatedBy),
		string(record.Type),
		record.Title,
		record.IsHidden,
		record.PINHash,
		record.Plaintext,
		record.Ciphertext,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create secure record: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanRecord(row pgx.Row) (*SecureRecord, error) {
	var r SecureRecord
	var recordID, familyID, createdBy uuid.UUID
	var memberID *uuid.UUID
	var recordType string
	err := row.Scan(&recordID, &familyID, &memberID, &createdBy, &recordType, &r.Title, &r.IsHidden, &r.PINHash, &r.Plaintext, &r.Ciphertext, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan secure record: %w", err)
	}
	r.ID = id.RecordID(recordID)
	r.FamilyID = id.FamilyID(familyID)
	r.CreatedBy = id.UserID(createdBy)
	r.Type = RecordType(recordType)
	if memberID != nil {
		m := id.MemberID(*memberID)
		r.MemberID = &m
	}
	return &r, nil
}
