package persistence

import "context"

// MemberRepository exposes roster persistence.
type MemberRepository interface {
	UpsertMember(ctx context.Context, member Member) error
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembers(ctx context.Context) ([]Member, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	SetActive(ctx context.Context, id string, active bool) error
	CountAdmins(ctx context.Context) (int, error)
	// GrantFirstAdmin promotes the member iff no admin exists yet. The
	// precondition and the write commit in one statement so a concurrent or
	// repeated bootstrap can never mint a second initial admin. Returns true
	// when the grant happened.
	GrantFirstAdmin(ctx context.Context, id string) (bool, error)
}

// StatusRepository stores the per-member-per-day status ledger rows.
type StatusRepository interface {
	// UpsertStatus writes the record for (MemberID, Date), replacing any
	// earlier record for the same day.
	UpsertStatus(ctx context.Context, record StatusRecord) error
	GetStatus(ctx context.Context, memberID, date string) (StatusRecord, error)
	ListStatusesForDate(ctx context.Context, date string) ([]StatusRecord, error)
}

// LeaveRepository stores personal leave periods.
type LeaveRepository interface {
	AddLeave(ctx context.Context, period LeavePeriod) error
	// RemoveLeaveByStart deletes every period for the member starting on the
	// given date and reports how many rows were removed.
	RemoveLeaveByStart(ctx context.Context, memberID, startDate string) (int, error)
	ListLeaveForMember(ctx context.Context, memberID string) ([]LeavePeriod, error)
	ListLeave(ctx context.Context) ([]LeavePeriod, error)
}

// HolidayRepository stores group-wide holidays keyed by date.
type HolidayRepository interface {
	UpsertHoliday(ctx context.Context, holiday Holiday) error
	RemoveHoliday(ctx context.Context, date string) error
	GetHoliday(ctx context.Context, date string) (Holiday, error)
	ListHolidays(ctx context.Context) ([]Holiday, error)
}

// ConfigRepository stores the singleton scheduling configuration.
type ConfigRepository interface {
	SetConfig(ctx context.Context, entry ConfigEntry) error
	GetConfig(ctx context.Context, key string) (ConfigEntry, error)
	ListConfig(ctx context.Context) ([]ConfigEntry, error)
}

// MarkerRepository stores durable last-fired-date markers per event kind.
type MarkerRepository interface {
	SetMarker(ctx context.Context, marker FireMarker) error
	GetMarker(ctx context.Context, eventKind string) (FireMarker, error)
}
