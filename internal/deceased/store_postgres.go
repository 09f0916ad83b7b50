package deceased

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

func (s *PostgresStore) CreateBatch(ctx context.Context, votes []*Vote) error {
	for _, v := range votes {
		_, err := s.q(ctx).Exec(ctx, `
			INSERT INTO deceased_votes (id, family_member_id, batch_id, voter_user_id, requested_by, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`,
			v.ID,
			uuid.UUID(v.MemberID),
			v.BatchID,
			uuid.UUID(v.VoterUserID),
			uuid.UUID(v.RequestedBy),
			string(v.Status),
			v.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return sentinel.ErrConflict
			}
			return fmt.Errorf("create ballot: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) HasOpenBallots(ctx context.Context, memberID id.MemberID) (bool, error) {
	var exists bool
	err := s.q(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM deceased_votes WHERE family_member_id = $1 AND status = $2)`,
		uuid.UUID(memberID), string(VoteStatusPending),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check open ballots: %w", err)
	}
	return exists, nil
}

const voteColumns = `id, family_member_id, batch_id, voter_user_id, requested_by, status, created_at, decided_at`

func (s *PostgresStore) FindPendingVote(ctx context.Context, memberID id.MemberID, voterID id.UserID) (*Vote, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deceased_votes
		WHERE family_member_id = $1 AND voter_user_id = $2 AND status = $3
		FOR UPDATE
	`, voteColumns)
	return scanVote(s.q(ctx).QueryRow(ctx, query, uuid.UUID(memberID), uuid.UUID(voterID), string(VoteStatusPending)))
}

func (s *PostgresStore) Update(ctx context.Context, vote *Vote) error {
	tag, err := s.q(ctx).Exec(ctx,
		`UPDATE deceased_votes SET status = $2, decided_at = $3 WHERE id = $1`,
		vote.ID, string(vote.Status), vote.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("update ballot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListBatch(ctx context.Context, batchID uuid.UUID) ([]*Vote, error) {
	query := fmt.Sprintf(`SELECT %s FROM deceased_votes WHERE batch_id = $1 ORDER BY created_at, voter_user_id`, voteColumns)
	rows, err := s.q(ctx).Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch: %w", err)
	}
	defer rows.Close()

	var votes []*Vote
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

func (s *PostgresStore) SupersedePending(ctx context.Context, batchID uuid.UUID) error {
	_, err := s.q(ctx).Exec(ctx,
		`UPDATE deceased_votes SET status = $2 WHERE batch_id = $1 AND status = $3`,
		batchID, string(VoteStatusSuperseded), string(VoteStatusPending),
	)
	if err != nil {
		return fmt.Errorf("supersede pending ballots: %w", err)
	}
	return nil
}

func scanVote(row pgx.Row) (*Vote, error) {
	var v Vote
	var memberID, voterID, requestedBy uuid.UUID
	var status string
	err := row.Scan(&v.ID, &memberID, &v.BatchID, &voterID, &requestedBy, &status, &v.CreatedAt, &v.DecidedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ballot: %w", err)
	}
	v.MemberID = id.MemberID(memberID)
	v.VoterUserID = id.UserID(voterID)
	v.RequestedBy = id.UserID(requestedBy)
	v.Status = VoteStatus(status)
	return &v, nil
}
