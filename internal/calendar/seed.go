package calendar

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/example/musterd/internal/dates"
	"github.com/example/musterd/internal/logging"
)

// SeedHolidays imports a YAML file mapping ISO dates to descriptions, for
// example:
//
//	2025-12-25: Christmas
//	2026-01-01: New Year's Day
//
// Entries are upserted, so re-running the import on every startup is safe.
func (c *Calendar) SeedHolidays(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read holiday seed file: %w", err)
	}

	var entries map[string]string
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("failed to parse holiday seed file: %w", err)
	}

	seedDates := make([]string, 0, len(entries))
	for date := range entries {
		if !dates.Valid(date) {
			return fmt.Errorf("holiday seed entry %q: %w", date, dates.ErrInvalidDate)
		}
		seedDates = append(seedDates, date)
	}
	sort.Strings(seedDates)

	for _, date := range seedDates {
		if err := c.AddHoliday(ctx, date, entries[date]); err != nil {
			return fmt.Errorf("failed to seed holiday %s: %w", date, err)
		}
	}

	logging.Service(ctx, c.logger, "calendar", "seed_holidays").Info("holiday seed imported",
		"path", path, "holidays", len(seedDates))
	return nil
}
