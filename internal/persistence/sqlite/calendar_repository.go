package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/musterd/internal/persistence"
)

// LeaveRepository implements persistence.LeaveRepository using SQLite.
type LeaveRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewLeaveRepository creates a new SQLite leave repository.
func NewLeaveRepository(pool *ConnectionPool) *LeaveRepository {
	return &LeaveRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// AddLeave stores a new leave period. Overlapping periods coexist.
func (r *LeaveRepository) AddLeave(ctx context.Context, period persistence.LeavePeriod) error {
	if period.ID == "" || period.MemberID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO leave_periods (id, member_id, start_date, end_date, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		period.ID,
		period.MemberID,
		period.StartDate,
		period.EndDate,
		period.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// RemoveLeaveByStart deletes every period for the member starting on the date.
func (r *LeaveRepository) RemoveLeaveByStart(ctx context.Context, memberID, startDate string) (int, error) {
	result, err := r.helper.Exec(ctx,
		"DELETE FROM leave_periods WHERE member_id = ? AND start_date = ?",
		memberID, startDate,
	)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// ListLeaveForMember returns the member's leave periods ordered by start date.
func (r *LeaveRepository) ListLeaveForMember(ctx context.Context, memberID string) ([]persistence.LeavePeriod, error) {
	query := `
		SELECT id, member_id, start_date, end_date, created_at
		FROM leave_periods
		WHERE member_id = ?
		ORDER BY start_date ASC, id ASC
	`
	return r.listLeave(ctx, query, memberID)
}

// ListLeave returns all leave periods ordered by member then start date.
func (r *LeaveRepository) ListLeave(ctx context.Context) ([]persistence.LeavePeriod, error) {
	query := `
		SELECT id, member_id, start_date, end_date, created_at
		FROM leave_periods
		ORDER BY member_id ASC, start_date ASC, id ASC
	`
	return r.listLeave(ctx, query)
}

func (r *LeaveRepository) listLeave(ctx context.Context, query string, args ...any) ([]persistence.LeavePeriod, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var periods []persistence.LeavePeriod
	for rows.Next() {
		var period persistence.LeavePeriod
		var createdAtStr string
		if err := rows.Scan(&period.ID, &period.MemberID, &period.StartDate, &period.EndDate, &createdAtStr); err != nil {
			return nil, err
		}
		if period.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		periods = append(periods, period)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return periods, nil
}

// HolidayRepository implements persistence.HolidayRepository using SQLite.
type HolidayRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHolidayRepository creates a new SQLite holiday repository.
func NewHolidayRepository(pool *ConnectionPool) *HolidayRepository {
	return &HolidayRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertHoliday stores a holiday, replacing the description on conflict.
func (r *HolidayRepository) UpsertHoliday(ctx context.Context, holiday persistence.Holiday) error {
	if holiday.Date == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO holidays (holiday_date, description)
		VALUES (?, ?)
		ON CONFLICT (holiday_date) DO UPDATE SET description = excluded.description
	`

	if _, err := r.helper.Exec(ctx, query, holiday.Date, holiday.Description); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// RemoveHoliday deletes the holiday for the date.
func (r *HolidayRepository) RemoveHoliday(ctx context.Context, date string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM holidays WHERE holiday_date = ?", date)
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

// GetHoliday retrieves the holiday for the date.
func (r *HolidayRepository) GetHoliday(ctx context.Context, date string) (persistence.Holiday, error) {
	var holiday persistence.Holiday
	err := r.helper.QueryRow(ctx,
		"SELECT holiday_date, description FROM holidays WHERE holiday_date = ?", date,
	).Scan(&holiday.Date, &holiday.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Holiday{}, persistence.ErrNotFound
		}
		return persistence.Holiday{}, r.mapper.MapError(err)
	}
	return holiday, nil
}

// ListHolidays returns all holidays ordered by date.
func (r *HolidayRepository) ListHolidays(ctx context.Context) ([]persistence.Holiday, error) {
	rows, err := r.helper.Query(ctx, "SELECT holiday_date, description FROM holidays ORDER BY holiday_date ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var holidays []persistence.Holiday
	for rows.Next() {
		var holiday persistence.Holiday
		if err := rows.Scan(&holiday.Date, &holiday.Description); err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return holidays, nil
}
