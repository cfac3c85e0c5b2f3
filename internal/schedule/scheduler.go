package schedule

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

// EventKind identifies one of the three daily lifecycle events.
type EventKind string

const (
	// EventCheckin posts the morning check-in prompt to the group.
	EventCheckin EventKind = "checkin"
	// EventReminder nudges members who have not responded.
	EventReminder EventKind = "reminder"
	// EventSummary posts the aggregate daily status.
	EventSummary EventKind = "summary"
)

// Kinds returns the event kinds in firing order.
func Kinds() []EventKind {
	return []EventKind{EventCheckin, EventReminder, EventSummary}
}

// FireFunc is invoked when an event is due. The callee enforces
// at-most-once-per-day via the durable fire marker, so a FireFunc invocation
// for an already-handled (kind, date) is a no-op.
type FireFunc func(ctx context.Context, kind EventKind, date string)

// MarkerStore exposes the durable last-fired markers the scheduler consults
// during restart catch-up. Writing markers is the fire handler's job.
type MarkerStore interface {
	GetMarker(ctx context.Context, eventKind string) (persistence.FireMarker, error)
}

// Scheduler fires check-in, reminder, and summary events at configured local
// times. It holds one timer per event kind; Apply cancels and re-arms them so
// a reconfiguration is visible to the very next fire without a restart.
type Scheduler struct {
	markers MarkerStore
	fire    FireFunc
	now     func() time.Time
	logger  *slog.Logger

	mu       sync.Mutex
	settings Settings
	timers   map[EventKind]*time.Timer
	runCtx   context.Context
}

// NewScheduler wires dependencies for the scheduler. The initial settings
// must already be validated by ParseSettings.
func NewScheduler(markers MarkerStore, fire FireFunc, initial Settings, now func() time.Time, logger *slog.Logger) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		markers:  markers,
		fire:     fire,
		now:      now,
		logger:   logger,
		settings: initial,
		timers:   make(map[EventKind]*time.Timer),
	}
}

// Settings returns the current scheduling configuration.
func (s *Scheduler) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Location returns the configured timezone.
func (s *Scheduler) Location() *time.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Location
}

// NextFire computes the next instant the event kind fires, always in the
// future relative to now.
func (s *Scheduler) NextFire(kind EventKind, now time.Time) time.Time {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()
	return nextInstant(settings, kind, now)
}

// Apply swaps in new settings and re-arms every timer. It runs under the
// scheduler lock, so no timer can fire against the old configuration once
// Apply returns and NextFire immediately reflects the new times. Callers
// validate settings with ParseSettings before the config write commits;
// Apply never sees an invalid configuration.
func (s *Scheduler) Apply(settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	if s.runCtx == nil {
		return
	}
	for _, kind := range Kinds() {
		s.armLocked(kind)
	}

	if s.logger != nil {
		s.logger.Info("scheduler reconfigured",
			"checkin", settings.Checkin.String(),
			"reminder", settings.Reminder.String(),
			"summary", settings.Summary.String(),
			"timezone", settings.Timezone)
	}
}

// Run performs restart catch-up, arms the timers, and blocks until the
// context is cancelled. Catch-up fires any event whose scheduled instant has
// already passed today and whose durable marker shows no fire today; this
// survives restarts without double-firing.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	if err := s.catchUp(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	for _, kind := range Kinds() {
		s.armLocked(kind)
	}
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	for kind, timer := range s.timers {
		timer.Stop()
		delete(s.timers, kind)
	}
	s.runCtx = nil
	s.mu.Unlock()

	return nil
}

func (s *Scheduler) catchUp(ctx context.Context) error {
	s.mu.Lock()
	settings := s.settings
	s.mu.Unlock()

	now := s.now()
	local := now.In(settings.Location)
	today := dates.Format(local)

	for _, kind := range Kinds() {
		scheduled := instantOn(local, settings.clockFor(kind), settings.Location)
		if now.Before(scheduled) {
			continue
		}

		marker, err := s.markers.GetMarker(ctx, string(kind))
		if err != nil && !errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("failed to read fire marker for %s: %w", kind, err)
		}
		if marker.FiredDate == today {
			continue
		}

		logging.Service(ctx, s.logger, "scheduler", "catch_up").Info("firing missed event",
			"kind", string(kind), "date", today, "scheduled", scheduled)
		s.fire(ctx, kind, today)
	}

	return nil
}

// armLocked cancels any outstanding timer for the kind and arms a fresh one
// for the next instant. Callers hold s.mu; at most one timer per kind exists.
func (s *Scheduler) armLocked(kind EventKind) {
	if timer, ok := s.timers[kind]; ok {
		timer.Stop()
	}

	now := s.now()
	next := nextInstant(s.settings, kind, now)
	s.timers[kind] = time.AfterFunc(next.Sub(now), func() {
		s.onTimer(kind)
	})

	if s.logger != nil {
		s.logger.Debug("timer armed", "kind", string(kind), "next", next)
	}
}

func (s *Scheduler) onTimer(kind EventKind) {
	s.mu.Lock()
	ctx := s.runCtx
	if ctx == nil || ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	date := dates.Format(s.now().In(s.settings.Location))
	s.armLocked(kind)
	fire := s.fire
	s.mu.Unlock()

	// The fire handler runs outside the scheduler lock so a slow cycle never
	// delays reconfiguration or the other timers.
	fire(ctx, kind, date)
}

// nextInstant resolves the kind's wall clock to the next absolute instant
// strictly after now.
func nextInstant(settings Settings, kind EventKind, now time.Time) time.Time {
	local := now.In(settings.Location)
	clock := settings.clockFor(kind)

	candidate := instantOn(local, clock, settings.Location)
	if !candidate.After(now) {
		candidate = instantOn(local.AddDate(0, 0, 1), clock, settings.Location)
	}
	return candidate
}

// instantOn interprets the wall clock on the given day in the location.
// time.Date normalizes DST-nonexistent and DST-ambiguous local times to one
// deterministic instant, so a transition day neither double-fires nor skips.
func instantOn(day time.Time, clock WallClock, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour, clock.Minute, 0, 0, loc)
}
