package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/musterd/internal/persistence"
	"github.com/example/musterd/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool     *sqlite.ConnectionPool
	Members  persistence.MemberRepository
	Statuses persistence.StatusRepository
	Leave    persistence.LeaveRepository
	Holidays persistence.HolidayRepository
	Configs  persistence.ConfigRepository
	Markers  persistence.MarkerRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Cleanup is registered with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "musterd.db")

	pool, err := sqlite.NewConnectionPool("file:" + path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:     pool,
		Members:  sqlite.NewMemberRepository(pool),
		Statuses: sqlite.NewStatusRepository(pool),
		Leave:    sqlite.NewLeaveRepository(pool),
		Holidays: sqlite.NewHolidayRepository(pool),
		Configs:  sqlite.NewConfigRepository(pool),
		Markers:  sqlite.NewMarkerRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
