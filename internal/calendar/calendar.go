package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/musterd/internal/dates"
	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
)

var (
	// ErrInvalidRange is returned when a leave period starts after it ends.
	ErrInvalidRange = errors.New("calendar: leave start date is after end date")
)

// LeaveRepository captures the persistence operations needed for leave periods.
type LeaveRepository interface {
	AddLeave(ctx context.Context, period persistence.LeavePeriod) error
	RemoveLeaveByStart(ctx context.Context, memberID, startDate string) (int, error)
	ListLeaveForMember(ctx context.Context, memberID string) ([]persistence.LeavePeriod, error)
	ListLeave(ctx context.Context) ([]persistence.LeavePeriod, error)
}

// HolidayRepository captures the persistence operations needed for holidays.
type HolidayRepository interface {
	UpsertHoliday(ctx context.Context, holiday persistence.Holiday) error
	RemoveHoliday(ctx context.Context, date string) error
	GetHoliday(ctx context.Context, date string) (persistence.Holiday, error)
	ListHolidays(ctx context.Context) ([]persistence.Holiday, error)
}

// Calendar resolves whether a date is a working day for a member and owns the
// leave and holiday records. One writer at a time per the entity class;
// readers run concurrently.
type Calendar struct {
	mu          sync.RWMutex
	leave       LeaveRepository
	holidays    HolidayRepository
	workweek    map[time.Weekday]bool
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures optional Calendar behavior.
type Option func(*Calendar)

// WithWorkweek overrides the default Monday-to-Friday working week.
func WithWorkweek(days ...time.Weekday) Option {
	return func(c *Calendar) {
		c.workweek = make(map[time.Weekday]bool, len(days))
		for _, day := range days {
			c.workweek[day] = true
		}
	}
}

// WithLogger attaches a base logger to the calendar.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calendar) {
		c.logger = logger
	}
}

// NewCalendar wires dependencies for the calendar service.
func NewCalendar(leave LeaveRepository, holidays HolidayRepository, idGenerator func() string, now func() time.Time, opts ...Option) *Calendar {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}

	c := &Calendar{
		leave:       leave,
		holidays:    holidays,
		idGenerator: idGenerator,
		now:         now,
		workweek: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsWorkingDay reports whether the member is expected to muster on the date:
// a working weekday that is neither a holiday nor inside any of the member's
// leave periods. The weekday check runs first as a fast path.
func (c *Calendar) IsWorkingDay(ctx context.Context, memberID, date string) (bool, error) {
	day, err := dates.Parse(date)
	if err != nil {
		return false, err
	}

	if !c.workweek[day.Weekday()] {
		return false, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := c.holidays.GetHoliday(ctx, date); err == nil {
		return false, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}

	periods, err := c.leave.ListLeaveForMember(ctx, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to list leave: %w", err)
	}
	for _, period := range periods {
		if period.StartDate <= date && date <= period.EndDate {
			return false, nil
		}
	}

	return true, nil
}

// AddLeave records a leave period for the member. Duplicate and overlapping
// periods coexist; the member is on leave when any period covers the date.
func (c *Calendar) AddLeave(ctx context.Context, memberID, startDate, endDate string) error {
	if _, err := dates.Parse(startDate); err != nil {
		return err
	}
	if _, err := dates.Parse(endDate); err != nil {
		return err
	}
	if startDate > endDate {
		return ErrInvalidRange
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	period := persistence.LeavePeriod{
		ID:        c.idGenerator(),
		MemberID:  memberID,
		StartDate: startDate,
		EndDate:   endDate,
		CreatedAt: c.now(),
	}
	if err := c.leave.AddLeave(ctx, period); err != nil {
		return fmt.Errorf("failed to add leave: %w", err)
	}

	logging.Service(ctx, c.logger, "calendar", "add_leave").Info("leave recorded",
		"member_id", memberID, "start", startDate, "end", endDate)
	return nil
}

// RemoveLeave deletes every leave period of the member starting on the date.
func (c *Calendar) RemoveLeave(ctx context.Context, memberID, startDate string) error {
	if _, err := dates.Parse(startDate); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed, err := c.leave.RemoveLeaveByStart(ctx, memberID, startDate)
	if err != nil {
		return fmt.Errorf("failed to remove leave: %w", err)
	}
	if removed == 0 {
		return persistence.ErrNotFound
	}

	logging.Service(ctx, c.logger, "calendar", "remove_leave").Info("leave removed",
		"member_id", memberID, "start", startDate, "periods", removed)
	return nil
}

// AddHoliday records a group-wide holiday, replacing the description when the
// date already exists.
func (c *Calendar) AddHoliday(ctx context.Context, date, description string) error {
	if _, err := dates.Parse(date); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.holidays.UpsertHoliday(ctx, persistence.Holiday{Date: date, Description: description}); err != nil {
		return fmt.Errorf("failed to add holiday: %w", err)
	}

	logging.Service(ctx, c.logger, "calendar", "add_holiday").Info("holiday recorded",
		"date", date, "description", description)
	return nil
}

// RemoveHoliday deletes the holiday for the date.
func (c *Calendar) RemoveHoliday(ctx context.Context, date string) error {
	if _, err := dates.Parse(date); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.holidays.RemoveHoliday(ctx, date); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ErrNotFound
		}
		return fmt.Errorf("failed to remove holiday: %w", err)
	}

	return nil
}

// Holiday returns the holiday record for the date, or persistence.ErrNotFound.
func (c *Calendar) Holiday(ctx context.Context, date string) (persistence.Holiday, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holidays.GetHoliday(ctx, date)
}

// ListHolidays returns all holidays ordered by date.
func (c *Calendar) ListHolidays(ctx context.Context) ([]persistence.Holiday, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.holidays.ListHolidays(ctx)
}

// ListLeave returns all leave periods.
func (c *Calendar) ListLeave(ctx context.Context) ([]persistence.LeavePeriod, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leave.ListLeave(ctx)
}

// OnLeave reports whether any leave period of the member covers the date.
func (c *Calendar) OnLeave(ctx context.Context, memberID, date string) (bool, error) {
	if _, err := dates.Parse(date); err != nil {
		return false, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	periods, err := c.leave.ListLeaveForMember(ctx, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to list leave: %w", err)
	}
	for _, period := range periods {
		if period.StartDate <= date && date <= period.EndDate {
			return true, nil
		}
	}
	return false, nil
}
