package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/musterd/internal/persistence"
)

// MemberRepository implements persistence.MemberRepository using SQLite.
type MemberRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMemberRepository creates a new SQLite member repository.
func NewMemberRepository(pool *ConnectionPool) *MemberRepository {
	return &MemberRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertMember inserts the member or refreshes its display name and
// timestamps. Admin and active flags are preserved on conflict so a reaction
// from an existing admin never demotes them.
func (r *MemberRepository) UpsertMember(ctx context.Context, member persistence.Member) error {
	if member.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO members (id, display_name, is_admin, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			display_name = excluded.display_name,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		member.ID,
		member.DisplayName,
		member.IsAdmin,
		member.Active,
		member.CreatedAt.UTC().Format(time.RFC3339),
		member.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetMember retrieves a member by ID.
func (r *MemberRepository) GetMember(ctx context.Context, id string) (persistence.Member, error) {
	if id == "" {
		return persistence.Member{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, display_name, is_admin, active, created_at, updated_at
		FROM members
		WHERE id = ?
	`

	return scanMember(r.helper.QueryRow(ctx, query, id))
}

// ListMembers returns all members ordered by creation timestamp then ID.
func (r *MemberRepository) ListMembers(ctx context.Context) ([]persistence.Member, error) {
	query := `
		SELECT id, display_name, is_admin, active, created_at, updated_at
		FROM members
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var members []persistence.Member
	for rows.Next() {
		member, err := scanMemberRows(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return members, nil
}

// SetAdmin updates the admin flag for a member.
func (r *MemberRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	return r.setFlag(ctx, "is_admin", id, isAdmin)
}

// SetActive updates the active flag for a member. Members are never deleted.
func (r *MemberRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.setFlag(ctx, "active", id, active)
}

func (r *MemberRepository) setFlag(ctx context.Context, column, id string, value bool) error {
	query := fmt.Sprintf("UPDATE members SET %s = ?, updated_at = ? WHERE id = ?", column)

	result, err := r.helper.Exec(ctx, query, value, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// CountAdmins returns the number of members holding the admin flag.
func (r *MemberRepository) CountAdmins(ctx context.Context) (int, error) {
	var count int
	err := r.helper.QueryRow(ctx, "SELECT COUNT(*) FROM members WHERE is_admin = 1").Scan(&count)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return count, nil
}

// GrantFirstAdmin promotes the member iff no admin exists. The precondition
// lives in the UPDATE itself, so concurrent or repeated bootstrap attempts
// observe exactly one grant.
func (r *MemberRepository) GrantFirstAdmin(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE members
		SET is_admin = 1, updated_at = ?
		WHERE id = ?
		  AND NOT EXISTS (SELECT 1 FROM members WHERE is_admin = 1)
	`

	result, err := r.helper.Exec(ctx, query, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return false, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row *sql.Row) (persistence.Member, error) {
	member, err := scanMemberFrom(row)
	if err == sql.ErrNoRows {
		return persistence.Member{}, persistence.ErrNotFound
	}
	return member, err
}

func scanMemberRows(rows *sql.Rows) (persistence.Member, error) {
	return scanMemberFrom(rows)
}

func scanMemberFrom(scanner rowScanner) (persistence.Member, error) {
	var member persistence.Member
	var createdAtStr, updatedAtStr string

	err := scanner.Scan(
		&member.ID,
		&member.DisplayName,
		&member.IsAdmin,
		&member.Active,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Member{}, err
	}

	if member.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Member{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if member.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Member{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return member, nil
}
