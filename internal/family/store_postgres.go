package family

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/google/uuid"

	id "heirloom/pkg/domain"
	"heirloom/pkg/platform/sentinel"
	"heirloom/pkg/platform/tx"
)

// PostgresStore persists family members and serves the role directory from
// the family_roles read model. Pure I/O; transitions belong to services.
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

const memberColumns = `id, family_id, user_id, display_name, is_deceased, is_deceased_pending, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, memberID id.MemberID) (*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM family_members WHERE id = $1`, memberColumns)
	return s.scanMember(s.q(ctx).QueryRow(ctx, query, uuid.UUID(memberID)))
}

func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, memberID id.MemberID) (*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM family_members WHERE id = $1 FOR UPDATE`, memberColumns)
	return s.scanMember(s.q(ctx).QueryRow(ctx, query, uuid.UUID(memberID)))
}

func (s *PostgresStore) FindByUser(ctx context.Context, familyID id.FamilyID, userID id.UserID) (*Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM family_members WHERE family_id = $1 AND user_id = $2`, memberColumns)
	return s.scanMember(s.q(ctx).QueryRow(ctx, query, uuid.UUID(familyID), uuid.UUID(userID)))
}

func (s *PostgresStore) Update(ctx context.Context, member *Member) error {
	query := `
		UPDATE family_members
		SET is_deceased = $2, is_deceased_pending = $3, updated_at = $4
		WHERE id = $1
	`
	tag, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(member.ID),
		member.IsDeceased,
		member.IsDeceasedPending,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update family member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Create inserts a member row. Family onboarding lives in the main
// application; this is used by integration tests and seeds.
func (s *PostgresStore) Create(ctx context.Context, member *Member) error {
	query := `
		INSERT INTO family_members (id, family_id, user_id, display_name, is_deceased, is_deceased_pending, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var userID *uuid.UUID
	if member.UserID != nil {
		u := uuid.UUID(*member.UserID)
		userID = &u
	}
	_, err := s.q(ctx).Exec(ctx, query,
		uuid.UUID(member.ID),
		uuid.UUID(member.FamilyID),
		userID,
		member.DisplayName,
		member.IsDeceased,
		member.IsDeceasedPending,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create family member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RoleOf(ctx context.Context, userID id.UserID, familyID id.FamilyID) (Role, error) {
	var raw string
	err := s.q(ctx).QueryRow(ctx,
		`SELECT role FROM family_roles WHERE family_id = $1 AND user_id = $2`,
		uuid.UUID(familyID), uuid.UUID(userID),
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoleNone, nil
	}
	if err != nil {
		return RoleNone, fmt.Errorf("get family role: %w", err)
	}
	return ParseRole(raw)
}

func (s *PostgresStore) Administrators(ctx context.Context, familyID id.FamilyID) ([]id.UserID, error) {
	rows, err := s.q(ctx).Query(ctx,
		`SELECT user_id FROM family_roles WHERE family_id = $1 AND role IN ($2, $3) ORDER BY user_id`,
		uuid.UUID(familyID), string(RoleOwner), string(RoleAdmin),
	)
	if err != nil {
		return nil, fmt.Errorf("list administrators: %w", err)
	}
	defer rows.Close()

	var admins []id.UserID
	for rows.Next() {
		var u uuid.UUID
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan administrator: %w", err)
		}
		admins = append(admins, id.UserID(u))
	}
	return admins, rows.Err()
}

// AssignRole upserts a role row; used by integration tests and seeds.
func (s *PostgresStore) AssignRole(ctx context.Context, familyID id.FamilyID, userID id.UserID, role Role) error {
	_, err := s.q(ctx).Exec(ctx, `
		INSERT INTO family_roles (family_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (family_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`, uuid.UUID(familyID), uuid.UUID(userID), string(role))
	if err != nil {
		return fmt.Errorf("assign family role: %w", err)
	}
	return nil
}

func (s *PostgresStore) scanMember(row pgx.Row) (*Member, error) {
	var m Member
	var memberID, familyID uuid.UUID
	var userID *uuid.UUID
	err := row.Scan(&memberID, &familyID, &userID, &m.DisplayName, &m.IsDeceased, &m.IsDeceasedPending, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan family member: %w", err)
	}
	m.ID = id.MemberID(memberID)
	m.FamilyID = id.FamilyID(familyID)
	if userID != nil {
		u := id.UserID(*userID)
		m.UserID = &u
	}
	return &m, nil
}
