package unlock

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

const requestColumns = `id, record_id, requester_user_id, request_count, last_requested_at, status, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.RequestID) (*UnlockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM unlock_requests WHERE id = $1`, requestColumns)
	return s.scanRequest(s.q(ctx).QueryRow(ctx, query, uuid.UUID(requestID)))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, requestID id.RequestID) (*UnlockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM unlock_requests WHERE id = $1 FOR UPDATE`, requestColumns)
	return s.scanRequest(s.q(ctx).QueryRow(ctx, query, uuid.UUID(requestID)))
}

func (s *PostgresStore) FindForRequesterForUpdate(ctx context.Context, recordID id.RecordID, requesterID id.UserID) (*UnlockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM unlock_requests WHERE record_id = $1 AND requester_user_id = $2 FOR UPDATE`, requestColumns)
	return s.scanRequest(s.q(ctx).QueryRow(ctx, query, uuid.UUID(recordID), uuid.UUID(requesterID)))
}

func (s *PostgresStore) Create(ctx context.Context, req *UnlockRequest) error {
	query := `
		INSERT INTO unlock_requests (id, record_id, requester_user_id, request_count, last_requested_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.RecordID),
		uuid.UUID(req.RequesterUserID),
		req.RequestCount,
		req.LastRequestedAt,
		string(req.Status),
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create unlock request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, req *UnlockRequest) error {
	query := `
		UPDATE unlock_requests
		SET request_count = $2, last_requested_at = $3, status = $4, updated_at = $5
		WHERE id = $1
	`
	tag, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(req.ID),
		req.RequestCount,
		req.LastRequestedAt,
		string(req.Status),
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update unlock request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByRecord(ctx context.Context, recordID id.RecordID) ([]*UnlockRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM unlock_requests WHERE record_id = $1 ORDER BY created_at`, requestColumns)
	rows, err := s.q(ctx).Query(ctx, query, uuid.UUID(recordID))
	if err != nil {
		return nil, fmt.Errorf("list unlock requests: %w", err)
	}
	defer rows.Close()

	var out []*UnlockRequest
	for rows.Next() {
		req, err := s.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unlock requests: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) scanRequest(row pgx.Row) (*UnlockRequest, error) {
	var req UnlockRequest
	var requestID, recordID, requesterID uuid.UUID
	var status string
	err := row.Scan(&requestID, &recordID, &requesterID, &req.RequestCount, &req.LastRequestedAt, &status, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan unlock request: %w", err)
	}
	req.ID = id.RequestID(requestID)
	req.RecordID = id.RecordID(recordID)
	req.RequesterUserID = id.UserID(requesterID)
	req.Status = RequestStatus(status)
	return &req, nil
}
