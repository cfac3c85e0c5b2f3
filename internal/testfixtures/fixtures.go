package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/musterd/internal/dates"
	"github.com/example/musterd/internal/persistence"
)

var (
	memberCounter uint64
	leaveCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime. January 2nd 2024
// is a Tuesday, so the default fixture date is a working day.
func ReferenceDate() string {
	return dates.Format(referenceTime)
}

// ---------------------------- Member fixtures ----------------------------

// MemberFixture represents a deterministic roster member record.
type MemberFixture struct {
	ID          string
	DisplayName string
	IsAdmin     bool
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// MemberOption configures the generated member fixture.
type MemberOption func(*MemberFixture)

// NewMemberFixture returns a deterministic member fixture with optional
// overrides.
func NewMemberFixture(opts ...MemberOption) MemberFixture {
	idx := atomic.AddUint64(&memberCounter, 1)
	id := fmt.Sprintf("member-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := MemberFixture{
		ID:          id,
		DisplayName: fmt.Sprintf("Member %03d", idx),
		Active:      true,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithMemberID overrides the generated member ID.
func WithMemberID(id string) MemberOption {
	return func(f *MemberFixture) {
		f.ID = id
	}
}

// WithMemberDisplayName overrides the generated display name.
func WithMemberDisplayName(name string) MemberOption {
	return func(f *MemberFixture) {
		f.DisplayName = name
	}
}

// WithMemberAdmin sets the admin flag on the generated fixture.
func WithMemberAdmin(isAdmin bool) MemberOption {
	return func(f *MemberFixture) {
		f.IsAdmin = isAdmin
	}
}

// WithMemberActive sets the active flag on the generated fixture.
func WithMemberActive(active bool) MemberOption {
	return func(f *MemberFixture) {
		f.Active = active
	}
}

// WithMemberTimestamps sets both created and updated timestamps.
func WithMemberTimestamps(created, updated time.Time) MemberOption {
	return func(f *MemberFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Persistence returns the fixture as a persistence.Member value.
func (f MemberFixture) Persistence() persistence.Member {
	return persistence.Member{
		ID:          f.ID,
		DisplayName: f.DisplayName,
		IsAdmin:     f.IsAdmin,
		Active:      f.Active,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// ------------------------- Status record fixtures ------------------------

// StatusRecordFixture represents a deterministic daily status record.
type StatusRecordFixture struct {
	MemberID   string
	Date       string
	Emoji      string
	Label      string
	Detail     string
	State      persistence.RecordState
	RecordedBy string
	RecordedAt time.Time
}

// StatusRecordOption configures the generated status record fixture.
type StatusRecordOption func(*StatusRecordFixture)

// NewStatusRecordFixture returns a deterministic status record fixture with
// optional overrides. The default is a completed normal check-in on the
// reference date.
func NewStatusRecordFixture(opts ...StatusRecordOption) StatusRecordFixture {
	fixture := StatusRecordFixture{
		MemberID:   "member-001",
		Date:       ReferenceDate(),
		Emoji:      "✅",
		Label:      "In at Normal Time",
		State:      persistence.StateRecorded,
		RecordedBy: "member-001",
		RecordedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithStatusMember sets the member the record belongs to, also as recorder.
func WithStatusMember(memberID string) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.MemberID = memberID
		f.RecordedBy = memberID
	}
}

// WithStatusDate sets the record date.
func WithStatusDate(date string) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.Date = date
	}
}

// WithStatusEmoji sets the emoji and label.
func WithStatusEmoji(emoji, label string) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.Emoji = emoji
		f.Label = label
	}
}

// WithStatusDetail sets the follow-up detail text.
func WithStatusDetail(detail string) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.Detail = detail
	}
}

// WithStatusState sets the record state.
func WithStatusState(state persistence.RecordState) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.State = state
	}
}

// WithStatusRecordedBy sets the recording actor.
func WithStatusRecordedBy(actorID string) StatusRecordOption {
	return func(f *StatusRecordFixture) {
		f.RecordedBy = actorID
	}
}

// Persistence returns the fixture as a persistence.StatusRecord value.
func (f StatusRecordFixture) Persistence() persistence.StatusRecord {
	return persistence.StatusRecord{
		MemberID:   f.MemberID,
		Date:       f.Date,
		Emoji:      f.Emoji,
		Label:      f.Label,
		Detail:     f.Detail,
		State:      f.State,
		RecordedBy: f.RecordedBy,
		RecordedAt: f.RecordedAt,
	}
}

// --------------------------- Leave period fixtures -----------------------

// LeavePeriodFixture represents a deterministic leave period record.
type LeavePeriodFixture struct {
	ID        string
	MemberID  string
	StartDate string
	EndDate   string
	CreatedAt time.Time
}

// LeavePeriodOption configures the generated leave period fixture.
type LeavePeriodOption func(*LeavePeriodFixture)

// NewLeavePeriodFixture returns a deterministic single-day leave period on
// the reference date with optional overrides.
func NewLeavePeriodFixture(opts ...LeavePeriodOption) LeavePeriodFixture {
	idx := atomic.AddUint64(&leaveCounter, 1)
	fixture := LeavePeriodFixture{
		ID:        fmt.Sprintf("leave-%03d", idx),
		MemberID:  "member-001",
		StartDate: ReferenceDate(),
		EndDate:   ReferenceDate(),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithLeaveID overrides the generated leave period ID.
func WithLeaveID(id string) LeavePeriodOption {
	return func(f *LeavePeriodFixture) {
		f.ID = id
	}
}

// WithLeaveMember sets the member the period belongs to.
func WithLeaveMember(memberID string) LeavePeriodOption {
	return func(f *LeavePeriodFixture) {
		f.MemberID = memberID
	}
}

// WithLeaveDates sets the start and end dates.
func WithLeaveDates(start, end string) LeavePeriodOption {
	return func(f *LeavePeriodFixture) {
		f.StartDate = start
		f.EndDate = end
	}
}

// Persistence returns the fixture as a persistence.LeavePeriod value.
func (f LeavePeriodFixture) Persistence() persistence.LeavePeriod {
	return persistence.LeavePeriod{
		ID:        f.ID,
		MemberID:  f.MemberID,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		CreatedAt: f.CreatedAt,
	}
}

// ---------------------------- Holiday fixtures ---------------------------

// HolidayFixture represents a deterministic group holiday record.
type HolidayFixture struct {
	Date        string
	Description string
}

// HolidayOption configures the generated holiday fixture.
type HolidayOption func(*HolidayFixture)

// NewHolidayFixture returns a holiday on the reference date with optional
// overrides.
func NewHolidayFixture(opts ...HolidayOption) HolidayFixture {
	fixture := HolidayFixture{
		Date:        ReferenceDate(),
		Description: "Observed Holiday",
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithHolidayDate sets the holiday date.
func WithHolidayDate(date string) HolidayOption {
	return func(f *HolidayFixture) {
		f.Date = date
	}
}

// WithHolidayDescription sets the holiday description.
func WithHolidayDescription(description string) HolidayOption {
	return func(f *HolidayFixture) {
		f.Description = description
	}
}

// Persistence returns the fixture as a persistence.Holiday value.
func (f HolidayFixture) Persistence() persistence.Holiday {
	return persistence.Holiday{
		Date:        f.Date,
		Description: f.Description,
	}
}
