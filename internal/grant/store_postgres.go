package grant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	id "heirloom/pkg/domain"
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

// Create inserts a grant. ON CONFLICT DO NOTHING makes the ledger idempotent
// per (record, user) even under concurrent unlock paths; the returned flag
// is false when the pair already held a grant.
func (s *PostgresStore) Create(ctx context.Context, g *UnlockAccessGrant) (bool, error) {
	query := `
		INSERT INTO unlock_access_grants (id, record_id, user_id, unlocked_at, unlocked_via, request_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (record_id, user_id) DO NOTHING
	`
	var requestID *uuid.UUID
	if g.RequestID != nil {
		r := uuid.UUID(*g.RequestID)
		requestID = &r
	}
	tag, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(g.ID),
		uuid.UUID(g.RecordID),
		uuid.UUID(g.UserID),
		g.UnlockedAt,
		string(g.Via),
		requestID,
	)
	if err != nil {
		return false, fmt.Errorf("create access grant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) HasAccess(ctx context.Context, recordID id.RecordID, userID id.UserID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM unlock_access_grants WHERE record_id = $1 AND user_id = $2)`
	var exists bool
	err := s.q(ctx).QueryRow(ctx, query, uuid.UUID(recordID), uuid.UUID(userID)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check access grant: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockAccessGrant, error) {
	query := `
		SELECT id, record_id, user_id, unlocked_at, unlocked_via, request_id
		FROM unlock_access_grants
		WHERE record_id = $1
		ORDER BY unlocked_at
	`
	rows, err := s.q(ctx).Query(ctx, query, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list access grants: %w", err)
	}
	defer rows.Close()

	var grants []*UnlockAccessGrant
	for rows.Next() {
		var g UnlockAccessGrant
		var grantID, recID, userID uuid.UUID
		var requestID *uuid.UUID
		var via string
		if err := rows.Scan(&grantID, &recID, &userID, &g.UnlockedAt, &via, &requestID); err != nil {
			return nil, fmt.Errorf("scan access grant: %w", err)
		}
		g.ID = id.GrantID(grantID)
		g.RecordID = id.RecordID(recID)
		g.UserID = id.UserID(userID)
		g.Via = UnlockVia(via)
		if requestID != nil {
			r := id.RequestID(*requestID)
			g.RequestID = &r
		}
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access grants: %w", err)
	}
	return grants, nil
}
