package persistence

import "time"

// Member represents a person expected to muster each working day.
type Member struct {
	ID          string
	DisplayName string
	IsAdmin     bool
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecordState enumerates the lifecycle states of a daily status record.
type RecordState string

const (
	// StateRecorded marks a complete status for the day.
	StateRecorded RecordState = "recorded"
	// StateAwaitingDetail marks a status whose follow-up detail has not arrived yet.
	StateAwaitingDetail RecordState = "awaiting_detail"
)

// StatusRecord is the authoritative per-member-per-day status row.
// At most one record exists per (MemberID, Date); later writes overwrite.
type StatusRecord struct {
	MemberID   string
	Date       string
	Emoji      string
	Label      string
	Detail     string
	State      RecordState
	RecordedBy string
	RecordedAt time.Time
}

// LeavePeriod represents an inclusive date range during which a member is
// excused from mustering. Overlapping periods for the same member coexist.
type LeavePeriod struct {
	ID        string
	MemberID  string
	StartDate string
	EndDate   string
	CreatedAt time.Time
}

// Holiday represents a group-wide non-working date.
type Holiday struct {
	Date        string
	Description string
}

// ConfigEntry is one key of the singleton scheduling configuration.
type ConfigEntry struct {
	Key   string
	Value string
}

// FireMarker records the last local calendar date on which a scheduled
// event kind fired, making at-most-once-per-day durable across restarts.
type FireMarker struct {
	EventKind string
	FiredDate string
}
