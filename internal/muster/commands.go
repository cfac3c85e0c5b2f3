package muster

import (
	"context"
	"fmt"
	"time"

	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
	"github.com/example/musterd/internal/schedule"
)

// SetConfig updates one scheduling configuration key and live-reconfigures
// the scheduler. The candidate configuration is validated as a whole before
// anything is written, so a bad value leaves both the store and the running
// timers untouched.
func (e *Engine) SetConfig(ctx context.Context, actorID, key, value string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	if !schedule.KnownKey(key) {
		return fmt.Errorf("%w: unknown key %q", schedule.ErrInvalidConfiguration, key)
	}

	// Serialize config writes so two admins cannot interleave a stale
	// read-modify-write and apply settings that were never stored.
	e.configMu.Lock()
	defer e.configMu.Unlock()

	entries, err := e.configEntries(ctx)
	if err != nil {
		return err
	}
	entries[key] = value

	settings, err := schedule.ParseSettings(entries)
	if err != nil {
		return err
	}

	if err := e.configs.SetConfig(ctx, persistence.ConfigEntry{Key: key, Value: value}); err != nil {
		return fmt.Errorf("failed to store configuration: %w", err)
	}
	e.scheduler.Apply(settings)

	logging.Service(ctx, e.logger, "muster", "set_config").Info("configuration updated",
		"actor_id", actorID, "key", key, "value", value)
	return nil
}

// ConfigEntries returns the stored scheduling configuration. Admin only.
func (e *Engine) ConfigEntries(ctx context.Context, actorID string) (map[string]string, error) {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return nil, err
	}
	return e.configEntries(ctx)
}

func (e *Engine) configEntries(ctx context.Context) (map[string]string, error) {
	stored, err := e.configs.ListConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list configuration: %w", err)
	}
	entries := make(map[string]string, len(stored))
	for _, entry := range stored {
		entries[entry.Key] = entry.Value
	}
	return entries, nil
}

// AddLeave records a leave period. Members schedule their own leave; adding
// leave for someone else requires admin. An empty end date means a single
// day.
func (e *Engine) AddLeave(ctx context.Context, actorID, targetID, startDate, endDate string) error {
	if targetID == "" {
		targetID = actorID
	}
	if endDate == "" {
		endDate = startDate
	}
	if targetID != actorID {
		if err := e.policy.Require(ctx, actorID); err != nil {
			return err
		}
	}
	if err := e.ensureMember(ctx, targetID, ""); err != nil {
		return err
	}
	return e.calendar.AddLeave(ctx, targetID, startDate, endDate)
}

// RemoveLeave deletes the leave period starting on the given date. Same
// self-or-admin rule as AddLeave.
func (e *Engine) RemoveLeave(ctx context.Context, actorID, targetID, startDate string) error {
	if targetID == "" {
		targetID = actorID
	}
	if targetID != actorID {
		if err := e.policy.Require(ctx, actorID); err != nil {
			return err
		}
	}
	return e.calendar.RemoveLeave(ctx, targetID, startDate)
}

// ListLeave returns every recorded leave period. Admin only.
func (e *Engine) ListLeave(ctx context.Context, actorID string) ([]persistence.LeavePeriod, error) {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return nil, err
	}
	return e.calendar.ListLeave(ctx)
}

// AddHoliday records or updates a group-wide holiday. Admin only.
func (e *Engine) AddHoliday(ctx context.Context, actorID, date, description string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	return e.calendar.AddHoliday(ctx, date, description)
}

// RemoveHoliday deletes a holiday. Admin only.
func (e *Engine) RemoveHoliday(ctx context.Context, actorID, date string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	return e.calendar.RemoveHoliday(ctx, date)
}

// ListHolidays returns the recorded holidays. Open to every member so the
// legend can be rendered without an admin in the loop.
func (e *Engine) ListHolidays(ctx context.Context) ([]persistence.Holiday, error) {
	return e.calendar.ListHolidays(ctx)
}

// GrantAdmin promotes the target member on an admin's behalf.
func (e *Engine) GrantAdmin(ctx context.Context, actorID, targetID string) error {
	return e.policy.GrantAdmin(ctx, actorID, targetID)
}

// Members returns the full roster, inactive members included. Admin only.
func (e *Engine) Members(ctx context.Context, actorID string) ([]persistence.Member, error) {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return nil, err
	}
	members, err := e.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// DeactivateMember removes the member from reminder and summary cycles
// without deleting their history. Admin only.
func (e *Engine) DeactivateMember(ctx context.Context, actorID, targetID string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	if err := e.members.SetActive(ctx, targetID, false); err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}
	logging.Service(ctx, e.logger, "muster", "deactivate_member").Info("member deactivated",
		"actor_id", actorID, "target_id", targetID)
	return nil
}

// ReactivateMember returns a deactivated member to the daily cycles. Admin
// only.
func (e *Engine) ReactivateMember(ctx context.Context, actorID, targetID string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	if err := e.members.SetActive(ctx, targetID, true); err != nil {
		return fmt.Errorf("failed to reactivate member: %w", err)
	}
	return nil
}

// PostCheckinNow runs the check-in cycle for today on demand. It shares the
// fire marker with the scheduled cycle, so a manual trigger after the timer
// already fired is a no-op rather than a duplicate post. Admin only.
func (e *Engine) PostCheckinNow(ctx context.Context, actorID string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	return e.PostCheckin(ctx, e.Today())
}

// PostReminderNow runs the reminder cycle for today on demand. Admin only.
func (e *Engine) PostReminderNow(ctx context.Context, actorID string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	return e.PostReminder(ctx, e.Today())
}

// PostSummaryNow runs the summary cycle for today on demand. Admin only.
func (e *Engine) PostSummaryNow(ctx context.Context, actorID string) error {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return err
	}
	return e.PostSummary(ctx, e.Today())
}

// NextFireTimes reports the next scheduled instant for each event kind in
// the configured zone. Admin only.
func (e *Engine) NextFireTimes(ctx context.Context, actorID string) (map[schedule.EventKind]time.Time, error) {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return nil, err
	}
	now := e.now()
	out := make(map[schedule.EventKind]time.Time, len(schedule.Kinds()))
	for _, kind := range schedule.Kinds() {
		out[kind] = e.scheduler.NextFire(kind, now)
	}
	return out, nil
}
