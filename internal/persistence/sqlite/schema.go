package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS members (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		is_admin     INTEGER NOT NULL DEFAULT 0,
		active       INTEGER NOT NULL DEFAULT 1,
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS status_records (
		member_id   TEXT NOT NULL,
		record_date TEXT NOT NULL,
		emoji       TEXT NOT NULL,
		label       TEXT NOT NULL,
		detail      TEXT NOT NULL DEFAULT '',
		state       TEXT NOT NULL,
		recorded_by TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (member_id, record_date)
	)`,
	`CREATE TABLE IF NOT EXISTS leave_periods (
		id         TEXT PRIMARY KEY,
		member_id  TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		created_at TEXT NOT NULL,
		CHECK (start_date <= end_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_leave_periods_member ON leave_periods (member_id, start_date)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		holiday_date TEXT PRIMARY KEY,
		description  TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS config (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fire_markers (
		event_kind TEXT PRIMARY KEY,
		fired_date TEXT NOT NULL
	)`,
}

// Default scheduling configuration seeded on first migrate.
var configSeeds = [][2]string{
	{"checkin_time", "08:00"},
	{"reminder_time", "10:00"},
	{"summary_time", "11:00"},
	{"timezone", "UTC"},
}

// Migrate creates the schema if absent and seeds the default scheduling
// configuration. Safe to run on every startup.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	return cp.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to apply schema statement: %w", err)
			}
		}
		for _, seed := range configSeeds {
			if _, err := tx.Exec("INSERT OR IGNORE INTO config (key, value) VALUES (?, ?)", seed[0], seed[1]); err != nil {
				return fmt.Errorf("failed to seed config %s: %w", seed[0], err)
			}
		}
		return nil
	})
}
