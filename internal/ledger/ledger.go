package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/musterd/internal/dates"
	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
)

// ErrUnknownStatus is returned when an emoji is outside the vocabulary.
var ErrUnknownStatus = errors.New("ledger: unknown status emoji")

// StatusRepository captures the persistence operations needed by the ledger.
type StatusRepository interface {
	UpsertStatus(ctx context.Context, record persistence.StatusRecord) error
	GetStatus(ctx context.Context, memberID, date string) (persistence.StatusRecord, error)
	ListStatusesForDate(ctx context.Context, date string) ([]persistence.StatusRecord, error)
}

// Ledger owns the per-member-per-day status records and their transition
// rules. It performs no messaging; callers react to the returned state.
type Ledger struct {
	mu       sync.RWMutex
	statuses StatusRepository
	now      func() time.Time
	logger   *slog.Logger
}

// NewLedger wires dependencies for the status ledger.
func NewLedger(statuses StatusRepository, now func() time.Time, logger *slog.Logger) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{statuses: statuses, now: now, logger: logger}
}

// SetStatus validates the emoji and writes the record for (member, date),
// overwriting any earlier record for the same day. When the status requires
// a follow-up and no detail is supplied the record is written in
// StateAwaitingDetail; the caller is responsible for requesting the detail.
func (l *Ledger) SetStatus(ctx context.Context, memberID, date, emoji, detail, actorID string) (persistence.StatusRecord, error) {
	if _, err := dates.Parse(date); err != nil {
		return persistence.StatusRecord{}, err
	}

	status, ok := LookupStatus(emoji)
	if !ok {
		return persistence.StatusRecord{}, ErrUnknownStatus
	}

	detail = strings.TrimSpace(detail)
	state := persistence.StateRecorded
	if status.RequiresFollowUp() && detail == "" {
		state = persistence.StateAwaitingDetail
	}
	if actorID == "" {
		actorID = memberID
	}

	record := persistence.StatusRecord{
		MemberID:   memberID,
		Date:       date,
		Emoji:      emoji,
		Label:      status.Label,
		Detail:     detail,
		State:      state,
		RecordedBy: actorID,
		RecordedAt: l.now(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.statuses.UpsertStatus(ctx, record); err != nil {
		return persistence.StatusRecord{}, fmt.Errorf("failed to write status: %w", err)
	}

	logging.Service(ctx, l.logger, "ledger", "set_status").Info("status recorded",
		"member_id", memberID, "date", date, "label", status.Label,
		"state", string(state), "recorded_by", actorID)
	return record, nil
}

// GetStatus returns the record for (member, date), or persistence.ErrNotFound.
func (l *Ledger) GetStatus(ctx context.Context, memberID, date string) (persistence.StatusRecord, error) {
	if _, err := dates.Parse(date); err != nil {
		return persistence.StatusRecord{}, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.statuses.GetStatus(ctx, memberID, date)
}

// ListUnrecorded returns the subset of the given members with no record for
// the date, preserving input order.
func (l *Ledger) ListUnrecorded(ctx context.Context, memberIDs []string, date string) ([]string, error) {
	if _, err := dates.Parse(date); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	records, err := l.statuses.ListStatusesForDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}

	recorded := make(map[string]struct{}, len(records))
	for _, record := range records {
		recorded[record.MemberID] = struct{}{}
	}

	unrecorded := make([]string, 0)
	for _, id := range memberIDs {
		if _, ok := recorded[id]; !ok {
			unrecorded = append(unrecorded, id)
		}
	}
	return unrecorded, nil
}

// ListForDate returns every record for the date.
func (l *Ledger) ListForDate(ctx context.Context, date string) ([]persistence.StatusRecord, error) {
	if _, err := dates.Parse(date); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.statuses.ListStatusesForDate(ctx, date)
}
