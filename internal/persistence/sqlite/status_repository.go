package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/musterd/internal/persistence"
)

// StatusRepository implements persistence.StatusRepository using SQLite.
type StatusRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewStatusRepository creates a new SQLite status repository.
func NewStatusRepository(pool *ConnectionPool) *StatusRepository {
	return &StatusRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertStatus writes the record for (member, date), replacing any earlier
// record for the same day. Last write wins.
func (r *StatusRepository) UpsertStatus(ctx context.Context, record persistence.StatusRecord) error {
	if record.MemberID == "" || record.Date == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO status_records (member_id, record_date, emoji, label, detail, state, recorded_by, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id, record_date) DO UPDATE SET
			emoji = excluded.emoji,
			label = excluded.label,
			detail = excluded.detail,
			state = excluded.state,
			recorded_by = excluded.recorded_by,
			recorded_at = excluded.recorded_at
	`

	_, err := r.helper.Exec(ctx, query,
		record.MemberID,
		record.Date,
		record.Emoji,
		record.Label,
		record.Detail,
		string(record.State),
		record.RecordedBy,
		record.RecordedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetStatus retrieves the record for (member, date).
func (r *StatusRepository) GetStatus(ctx context.Context, memberID, date string) (persistence.StatusRecord, error) {
	query := `
		SELECT member_id, record_date, emoji, label, detail, state, recorded_by, recorded_at
		FROM status_records
		WHERE member_id = ? AND record_date = ?
	`

	record, err := scanStatus(r.helper.QueryRow(ctx, query, memberID, date))
	if err == sql.ErrNoRows {
		return persistence.StatusRecord{}, persistence.ErrNotFound
	}
	return record, err
}

// ListStatusesForDate returns every record for the date ordered by member ID.
func (r *StatusRepository) ListStatusesForDate(ctx context.Context, date string) ([]persistence.StatusRecord, error) {
	query := `
		SELECT member_id, record_date, emoji, label, detail, state, recorded_by, recorded_at
		FROM status_records
		WHERE record_date = ?
		ORDER BY member_id ASC
	`

	rows, err := r.helper.Query(ctx, query, date)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var records []persistence.StatusRecord
	for rows.Next() {
		record, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return records, nil
}

func scanStatus(scanner rowScanner) (persistence.StatusRecord, error) {
	var record persistence.StatusRecord
	var state, recordedAtStr string

	err := scanner.Scan(
		&record.MemberID,
		&record.Date,
		&record.Emoji,
		&record.Label,
		&record.Detail,
		&state,
		&record.RecordedBy,
		&recordedAtStr,
	)
	if err != nil {
		return persistence.StatusRecord{}, err
	}

	record.State = persistence.RecordState(state)
	if record.RecordedAt, err = time.Parse(time.RFC3339, recordedAtStr); err != nil {
		return persistence.StatusRecord{}, fmt.Errorf("failed to parse recorded_at: %w", err)
	}

	return record, nil
}
