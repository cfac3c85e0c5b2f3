package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidConfiguration is returned when a scheduling configuration value
// cannot be parsed. The scheduler keeps its previous valid configuration.
var ErrInvalidConfiguration = errors.New("schedule: invalid configuration")

// Configuration keys understood by the scheduler.
const (
	KeyCheckinTime  = "checkin_time"
	KeyReminderTime = "reminder_time"
	KeySummaryTime  = "summary_time"
	KeyTimezone     = "timezone"
)

// KnownKey reports whether key is part of the scheduling configuration.
func KnownKey(key string) bool {
	switch key {
	case KeyCheckinTime, KeyReminderTime, KeySummaryTime, KeyTimezone:
		return true
	}
	return false
}

// WallClock is a local time of day in the configured zone.
type WallClock struct {
	Hour   int
	Minute int
}

// String renders the wall clock as HH:MM.
func (w WallClock) String() string {
	return fmt.Sprintf("%02d:%02d", w.Hour, w.Minute)
}

// ParseWallClock parses an HH:MM value.
func ParseWallClock(value string) (WallClock, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return WallClock{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidConfiguration, value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return WallClock{}, fmt.Errorf("%w: time %q has an invalid hour", ErrInvalidConfiguration, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return WallClock{}, fmt.Errorf("%w: time %q has an invalid minute", ErrInvalidConfiguration, value)
	}

	return WallClock{Hour: hour, Minute: minute}, nil
}

// Settings is the parsed scheduling configuration: three local firing times
// and the zone they are interpreted in.
type Settings struct {
	Checkin  WallClock
	Reminder WallClock
	Summary  WallClock
	Timezone string
	Location *time.Location
}

// ParseSettings validates and parses the raw configuration entries. Missing
// keys, malformed times, unknown timezone ids, and unknown keys all yield
// ErrInvalidConfiguration; no partial result is returned.
func ParseSettings(entries map[string]string) (Settings, error) {
	var settings Settings
	var err error

	for key := range entries {
		if !KnownKey(key) {
			return Settings{}, fmt.Errorf("%w: unknown key %q", ErrInvalidConfiguration, key)
		}
	}

	required := []string{KeyCheckinTime, KeyReminderTime, KeySummaryTime, KeyTimezone}
	for _, key := range required {
		if _, ok := entries[key]; !ok {
			return Settings{}, fmt.Errorf("%w: missing key %q", ErrInvalidConfiguration, key)
		}
	}

	if settings.Checkin, err = ParseWallClock(entries[KeyCheckinTime]); err != nil {
		return Settings{}, err
	}
	if settings.Reminder, err = ParseWallClock(entries[KeyReminderTime]); err != nil {
		return Settings{}, err
	}
	if settings.Summary, err = ParseWallClock(entries[KeySummaryTime]); err != nil {
		return Settings{}, err
	}

	settings.Timezone = strings.TrimSpace(entries[KeyTimezone])
	settings.Location, err = time.LoadLocation(settings.Timezone)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfiguration, settings.Timezone)
	}

	return settings, nil
}

// clockFor returns the wall clock configured for the event kind.
func (s Settings) clockFor(kind EventKind) WallClock {
	switch kind {
	case EventReminder:
		return s.Reminder
	case EventSummary:
		return s.Summary
	default:
		return s.Checkin
	}
}
