package schedule

import (
	"errors"
	"testing"
)

func validEntries() map[string]string {
	return map[string]string{
		KeyCheckinTime:  "08:00",
		KeyReminderTime: "10:00",
		KeySummaryTime:  "11:00",
		KeyTimezone:     "America/New_York",
	}
}

func TestParseWallClock(t *testing.T) {
	t.Parallel()

	t.Run("accepts HH:MM", func(t *testing.T) {
		t.Parallel()

		clock, err := ParseWallClock("09:30")
		if err != nil {
			t.Fatalf("ParseWallClock failed: %v", err)
		}
		if clock.Hour != 9 || clock.Minute != 30 {
			t.Fatalf("unexpected clock: %+v", clock)
		}
		if clock.String() != "09:30" {
			t.Fatalf("unexpected rendering: %s", clock.String())
		}
	})

	t.Run("rejects malformed values", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "9", "24:00", "09:60", "nine"} {
			if _, err := ParseWallClock(input); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration for %q, got %v", input, err)
			}
		}
	})
}

func TestParseSettings(t *testing.T) {
	t.Parallel()

	t.Run("parses a complete configuration", func(t *testing.T) {
		t.Parallel()

		settings, err := ParseSettings(validEntries())
		if err != nil {
			t.Fatalf("ParseSettings failed: %v", err)
		}
		if settings.Checkin.String() != "08:00" || settings.Reminder.String() != "10:00" || settings.Summary.String() != "11:00" {
			t.Fatalf("unexpected settings: %+v", settings)
		}
		if settings.Location == nil || settings.Timezone != "America/New_York" {
			t.Fatalf("expected the location to be resolved, got %+v", settings)
		}
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		entries := validEntries()
		entries["lunch_time"] = "12:00"
		if _, err := ParseSettings(entries); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("rejects missing keys", func(t *testing.T) {
		t.Parallel()

		entries := validEntries()
		delete(entries, KeySummaryTime)
		if _, err := ParseSettings(entries); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("rejects unknown timezones", func(t *testing.T) {
		t.Parallel()

		entries := validEntries()
		entries[KeyTimezone] = "Mars/Olympus_Mons"
		if _, err := ParseSettings(entries); !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
		}
	})

	t.Run("rejects malformed times without partial results", func(t *testing.T) {
		t.Parallel()

		entries := validEntries()
		entries[KeyReminderTime] = "25:00"
		settings, err := ParseSettings(entries)
		if !errors.Is(err, ErrInvalidConfiguration) {
			t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
		}
		if settings.Location != nil {
			t.Fatal("expected the zero value on failure")
		}
	})
}

func TestKnownKey(t *testing.T) {
	t.Parallel()

	for _, key := range []string{KeyCheckinTime, KeyReminderTime, KeySummaryTime, KeyTimezone} {
		if !KnownKey(key) {
			t.Fatalf("expected %s to be known", key)
		}
	}
	if KnownKey("group_chat_id") {
		t.Fatal("expected group_chat_id to be unknown")
	}
}
