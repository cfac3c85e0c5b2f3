package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/musterd/internal/persistence"
)

type leaveRepositoryStub struct {
	periods []persistence.LeavePeriod
	addErr  error
	listErr error
}

func (s *leaveRepositoryStub) AddLeave(ctx context.Context, period persistence.LeavePeriod) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.periods = append(s.periods, period)
	return nil
}

func (s *leaveRepositoryStub) RemoveLeaveByStart(ctx context.Context, memberID, startDate string) (int, error) {
	remaining := s.periods[:0]
	removed := 0
	for _, period := range s.periods {
		if period.MemberID == memberID && period.StartDate == startDate {
			removed++
			continue
		}
		remaining = append(remaining, period)
	}
	s.periods = remaining
	return removed, nil
}

func (s *leaveRepositoryStub) ListLeaveForMember(ctx context.Context, memberID string) ([]persistence.LeavePeriod, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []persistence.LeavePeriod
	for _, period := range s.periods {
		if period.MemberID == memberID {
			out = append(out, period)
		}
	}
	return out, nil
}

func (s *leaveRepositoryStub) ListLeave(ctx context.Context) ([]persistence.LeavePeriod, error) {
	return append([]persistence.LeavePeriod(nil), s.periods...), nil
}

type holidayRepositoryStub struct {
	holidays map[string]persistence.Holiday
	getErr   error
}

func newHolidayRepositoryStub() *holidayRepositoryStub {
	return &holidayRepositoryStub{holidays: make(map[string]persistence.Holiday)}
}

func (s *holidayRepositoryStub) UpsertHoliday(ctx context.Context, holiday persistence.Holiday) error {
	s.holidays[holiday.Date] = holiday
	return nil
}

func (s *holidayRepositoryStub) RemoveHoliday(ctx context.Context, date string) error {
	if _, ok := s.holidays[date]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.holidays, date)
	return nil
}

func (s *holidayRepositoryStub) GetHoliday(ctx context.Context, date string) (persistence.Holiday, error) {
	if s.getErr != nil {
		return persistence.Holiday{}, s.getErr
	}
	holiday, ok := s.holidays[date]
	if !ok {
		return persistence.Holiday{}, persistence.ErrNotFound
	}
	return holiday, nil
}

func (s *holidayRepositoryStub) ListHolidays(ctx context.Context) ([]persistence.Holiday, error) {
	out := make([]persistence.Holiday, 0, len(s.holidays))
	for _, holiday := range s.holidays {
		out = append(out, holiday)
	}
	return out, nil
}

func newTestCalendar(leave *leaveRepositoryStub, holidays *holidayRepositoryStub, opts ...Option) *Calendar {
	counter := 0
	idGen := func() string {
		counter++
		return "leave-id"
	}
	now := func() time.Time { return time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC) }
	return NewCalendar(leave, holidays, idGen, now, opts...)
}

func TestCalendar_IsWorkingDay(t *testing.T) {
	t.Parallel()

	// 2024-01-02 is a Tuesday, 2024-01-06 a Saturday.
	t.Run("weekday with no holiday or leave is a working day", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-02")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if !working {
			t.Fatal("expected a working day")
		}
	})

	t.Run("weekend is never a working day", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-06")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if working {
			t.Fatal("expected Saturday to be off")
		}
	})

	t.Run("holiday overrides the weekday", func(t *testing.T) {
		t.Parallel()

		holidays := newHolidayRepositoryStub()
		holidays.holidays["2024-01-02"] = persistence.Holiday{Date: "2024-01-02", Description: "Observed"}
		cal := newTestCalendar(&leaveRepositoryStub{}, holidays)

		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-02")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if working {
			t.Fatal("expected holiday to be off")
		}
	})

	t.Run("leave covers the date inclusively", func(t *testing.T) {
		t.Parallel()

		leave := &leaveRepositoryStub{periods: []persistence.LeavePeriod{
			{ID: "l1", MemberID: "member-1", StartDate: "2024-01-02", EndDate: "2024-01-04"},
		}}
		cal := newTestCalendar(leave, newHolidayRepositoryStub())

		for _, date := range []string{"2024-01-02", "2024-01-03", "2024-01-04"} {
			working, err := cal.IsWorkingDay(context.Background(), "member-1", date)
			if err != nil {
				t.Fatalf("IsWorkingDay(%s) failed: %v", date, err)
			}
			if working {
				t.Fatalf("expected %s to be covered by leave", date)
			}
		}

		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-05")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if !working {
			t.Fatal("expected the day after leave to be working")
		}
	})

	t.Run("another member's leave does not apply", func(t *testing.T) {
		t.Parallel()

		leave := &leaveRepositoryStub{periods: []persistence.LeavePeriod{
			{ID: "l1", MemberID: "member-2", StartDate: "2024-01-02", EndDate: "2024-01-02"},
		}}
		cal := newTestCalendar(leave, newHolidayRepositoryStub())

		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-02")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if !working {
			t.Fatal("expected member-1 to be working")
		}
	})

	t.Run("custom workweek replaces the default", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub(),
			WithWorkweek(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday))

		working, err := cal.IsWorkingDay(context.Background(), "member-1", "2024-01-05")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if working {
			t.Fatal("expected Friday to be off under the custom workweek")
		}

		working, err = cal.IsWorkingDay(context.Background(), "member-1", "2024-01-07")
		if err != nil {
			t.Fatalf("IsWorkingDay failed: %v", err)
		}
		if !working {
			t.Fatal("expected Sunday to be working under the custom workweek")
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		if _, err := cal.IsWorkingDay(context.Background(), "member-1", "01/02/2024"); err == nil {
			t.Fatal("expected an error")
		}
	})
}

func TestCalendar_AddLeave(t *testing.T) {
	t.Parallel()

	t.Run("records the period with a generated identifier", func(t *testing.T) {
		t.Parallel()

		leave := &leaveRepositoryStub{}
		cal := newTestCalendar(leave, newHolidayRepositoryStub())

		if err := cal.AddLeave(context.Background(), "member-1", "2024-02-01", "2024-02-05"); err != nil {
			t.Fatalf("AddLeave failed: %v", err)
		}
		if len(leave.periods) != 1 {
			t.Fatalf("expected one period, got %d", len(leave.periods))
		}
		period := leave.periods[0]
		if period.ID == "" || period.MemberID != "member-1" {
			t.Fatalf("unexpected period: %#v", period)
		}
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		err := cal.AddLeave(context.Background(), "member-1", "2024-02-05", "2024-02-01")
		if !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
	})

	t.Run("overlapping periods coexist", func(t *testing.T) {
		t.Parallel()

		leave := &leaveRepositoryStub{}
		cal := newTestCalendar(leave, newHolidayRepositoryStub())

		if err := cal.AddLeave(context.Background(), "member-1", "2024-02-01", "2024-02-05"); err != nil {
			t.Fatalf("AddLeave failed: %v", err)
		}
		if err := cal.AddLeave(context.Background(), "member-1", "2024-02-03", "2024-02-07"); err != nil {
			t.Fatalf("AddLeave failed: %v", err)
		}
		if len(leave.periods) != 2 {
			t.Fatalf("expected both periods to be stored, got %d", len(leave.periods))
		}
	})
}

func TestCalendar_RemoveLeave(t *testing.T) {
	t.Parallel()

	t.Run("removes periods by exact start date", func(t *testing.T) {
		t.Parallel()

		leave := &leaveRepositoryStub{periods: []persistence.LeavePeriod{
			{ID: "l1", MemberID: "member-1", StartDate: "2024-02-01", EndDate: "2024-02-05"},
			{ID: "l2", MemberID: "member-1", StartDate: "2024-03-01", EndDate: "2024-03-01"},
		}}
		cal := newTestCalendar(leave, newHolidayRepositoryStub())

		if err := cal.RemoveLeave(context.Background(), "member-1", "2024-02-01"); err != nil {
			t.Fatalf("RemoveLeave failed: %v", err)
		}
		if len(leave.periods) != 1 || leave.periods[0].ID != "l2" {
			t.Fatalf("unexpected remaining periods: %#v", leave.periods)
		}
	})

	t.Run("reports not found when nothing starts on the date", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		err := cal.RemoveLeave(context.Background(), "member-1", "2024-02-01")
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCalendar_Holidays(t *testing.T) {
	t.Parallel()

	t.Run("add replaces the description for an existing date", func(t *testing.T) {
		t.Parallel()

		holidays := newHolidayRepositoryStub()
		cal := newTestCalendar(&leaveRepositoryStub{}, holidays)

		if err := cal.AddHoliday(context.Background(), "2024-12-25", "Christmas"); err != nil {
			t.Fatalf("AddHoliday failed: %v", err)
		}
		if err := cal.AddHoliday(context.Background(), "2024-12-25", "Christmas Day"); err != nil {
			t.Fatalf("AddHoliday failed: %v", err)
		}

		holiday, err := cal.Holiday(context.Background(), "2024-12-25")
		if err != nil {
			t.Fatalf("Holiday failed: %v", err)
		}
		if holiday.Description != "Christmas Day" {
			t.Fatalf("expected updated description, got %q", holiday.Description)
		}
	})

	t.Run("remove reports not found for unknown dates", func(t *testing.T) {
		t.Parallel()

		cal := newTestCalendar(&leaveRepositoryStub{}, newHolidayRepositoryStub())
		err := cal.RemoveHoliday(context.Background(), "2024-12-25")
		if !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestCalendar_OnLeave(t *testing.T) {
	t.Parallel()

	leave := &leaveRepositoryStub{periods: []persistence.LeavePeriod{
		{ID: "l1", MemberID: "member-1", StartDate: "2024-02-01", EndDate: "2024-02-03"},
	}}
	cal := newTestCalendar(leave, newHolidayRepositoryStub())

	onLeave, err := cal.OnLeave(context.Background(), "member-1", "2024-02-02")
	if err != nil {
		t.Fatalf("OnLeave failed: %v", err)
	}
	if !onLeave {
		t.Fatal("expected the member to be on leave")
	}

	onLeave, err = cal.OnLeave(context.Background(), "member-1", "2024-02-04")
	if err != nil {
		t.Fatalf("OnLeave failed: %v", err)
	}
	if onLeave {
		t.Fatal("expected the member to be back")
	}
}
