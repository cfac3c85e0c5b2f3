package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/musterd/internal/persistence"
)

// ConfigRepository implements persistence.ConfigRepository using SQLite.
type ConfigRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewConfigRepository creates a new SQLite config repository.
func NewConfigRepository(pool *ConnectionPool) *ConfigRepository {
	return &ConfigRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// SetConfig upserts a configuration entry.
func (r *ConfigRepository) SetConfig(ctx context.Context, entry persistence.ConfigEntry) error {
	if entry.Key == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO config (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`

	if _, err := r.helper.Exec(ctx, query, entry.Key, entry.Value); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetConfig retrieves a configuration entry by key.
func (r *ConfigRepository) GetConfig(ctx context.Context, key string) (persistence.ConfigEntry, error) {
	var entry persistence.ConfigEntry
	err := r.helper.QueryRow(ctx, "SELECT key, value FROM config WHERE key = ?", key).Scan(&entry.Key, &entry.Value)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.ConfigEntry{}, persistence.ErrNotFound
		}
		return persistence.ConfigEntry{}, r.mapper.MapError(err)
	}
	return entry, nil
}

// ListConfig returns all configuration entries ordered by key.
func (r *ConfigRepository) ListConfig(ctx context.Context) ([]persistence.ConfigEntry, error) {
	rows, err := r.helper.Query(ctx, "SELECT key, value FROM config ORDER BY key ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.ConfigEntry
	for rows.Next() {
		var entry persistence.ConfigEntry
		if err := rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

// MarkerRepository implements persistence.MarkerRepository using SQLite.
type MarkerRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewMarkerRepository creates a new SQLite fire-marker repository.
func NewMarkerRepository(pool *ConnectionPool) *MarkerRepository {
	return &MarkerRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// SetMarker records the last fired date for an event kind.
func (r *MarkerRepository) SetMarker(ctx context.Context, marker persistence.FireMarker) error {
	if marker.EventKind == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO fire_markers (event_kind, fired_date)
		VALUES (?, ?)
		ON CONFLICT (event_kind) DO UPDATE SET fired_date = excluded.fired_date
	`

	if _, err := r.helper.Exec(ctx, query, marker.EventKind, marker.FiredDate); err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// GetMarker retrieves the marker for an event kind.
func (r *MarkerRepository) GetMarker(ctx context.Context, eventKind string) (persistence.FireMarker, error) {
	var marker persistence.FireMarker
	err := r.helper.QueryRow(ctx,
		"SELECT event_kind, fired_date FROM fire_markers WHERE event_kind = ?", eventKind,
	).Scan(&marker.EventKind, &marker.FiredDate)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.FireMarker{}, persistence.ErrNotFound
		}
		return persistence.FireMarker{}, r.mapper.MapError(err)
	}
	return marker, nil
}
