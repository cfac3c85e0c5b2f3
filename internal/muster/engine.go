package muster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/example/musterd/internal/dates"
	"github.com/example/musterd/internal/ledger"
	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
	"github.com/example/musterd/internal/schedule"
)

// StatusLedger captures the ledger operations the engine orchestrates.
type StatusLedger interface {
	SetStatus(ctx context.Context, memberID, date, emoji, detail, actorID string) (persistence.StatusRecord, error)
	GetStatus(ctx context.Context, memberID, date string) (persistence.StatusRecord, error)
	ListUnrecorded(ctx context.Context, memberIDs []string, date string) ([]string, error)
	ListForDate(ctx context.Context, date string) ([]persistence.StatusRecord, error)
}

// WorkCalendar captures the calendar operations the engine orchestrates.
type WorkCalendar interface {
	IsWorkingDay(ctx context.Context, memberID, date string) (bool, error)
	OnLeave(ctx context.Context, memberID, date string) (bool, error)
	Holiday(ctx context.Context, date string) (persistence.Holiday, error)
	AddLeave(ctx context.Context, memberID, startDate, endDate string) error
	RemoveLeave(ctx context.Context, memberID, startDate string) error
	AddHoliday(ctx context.Context, date, description string) error
	RemoveHoliday(ctx context.Context, date string) error
	ListHolidays(ctx context.Context) ([]persistence.Holiday, error)
	ListLeave(ctx context.Context) ([]persistence.LeavePeriod, error)
}

// Authorizer decides whether a requester may perform admin-only operations.
type Authorizer interface {
	IsAdmin(ctx context.Context, memberID string) (bool, error)
	Require(ctx context.Context, memberID string) error
	GrantAdmin(ctx context.Context, actorID, targetID string) error
}

// Rescheduler is the scheduler surface the engine needs: live
// reconfiguration, the configured timezone, and upcoming fire instants.
type Rescheduler interface {
	Apply(settings schedule.Settings)
	Location() *time.Location
	NextFire(kind schedule.EventKind, now time.Time) time.Time
}

// pendingFollowUp tracks the one outstanding detail request a member may
// have. A second qualifying reaction replaces it; they never stack.
type pendingFollowUp struct {
	Date  string
	Emoji string
}

// Engine orchestrates the daily muster lifecycle against the ledger and
// calendar, and exposes the operations the admin command surface invokes.
// All methods are safe for concurrent use from the scheduler's timer loop
// and the inbound-message path.
type Engine struct {
	members   persistence.MemberRepository
	markers   persistence.MarkerRepository
	configs   persistence.ConfigRepository
	ledger    StatusLedger
	calendar  WorkCalendar
	policy    Authorizer
	scheduler Rescheduler
	gateway   Gateway
	now       func() time.Time
	logger    *slog.Logger

	mu           sync.Mutex
	checkinDates map[string]string // gateway message id -> check-in date
	pending      map[string]pendingFollowUp

	configMu sync.Mutex
}

// Params collects the engine's dependencies.
type Params struct {
	Members   persistence.MemberRepository
	Markers   persistence.MarkerRepository
	Configs   persistence.ConfigRepository
	Ledger    StatusLedger
	Calendar  WorkCalendar
	Policy    Authorizer
	Scheduler Rescheduler
	Gateway   Gateway
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewEngine wires dependencies for the muster engine.
func NewEngine(params Params) *Engine {
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		members:      params.Members,
		markers:      params.Markers,
		configs:      params.Configs,
		ledger:       params.Ledger,
		calendar:     params.Calendar,
		policy:       params.Policy,
		scheduler:    params.Scheduler,
		gateway:      params.Gateway,
		now:          now,
		logger:       params.Logger,
		checkinDates: make(map[string]string),
		pending:      make(map[string]pendingFollowUp),
	}
}

// Fire dispatches a scheduler event. It satisfies schedule.FireFunc; errors
// are reported through the logger because the timer loop has no caller to
// surface them to.
func (e *Engine) Fire(ctx context.Context, kind schedule.EventKind, date string) {
	var err error
	switch kind {
	case schedule.EventCheckin:
		err = e.PostCheckin(ctx, date)
	case schedule.EventReminder:
		err = e.PostReminder(ctx, date)
	case schedule.EventSummary:
		err = e.PostSummary(ctx, date)
	default:
		err = fmt.Errorf("unknown event kind %q", kind)
	}
	if err != nil {
		logging.Service(ctx, e.logger, "muster", "fire").Error("scheduled event failed",
			"kind", string(kind), "date", date, "error", err)
	}
}

// Today returns the current calendar date in the configured timezone.
func (e *Engine) Today() string {
	return dates.Format(e.now().In(e.scheduler.Location()))
}

// HandleReaction ingests a reaction to a check-in message. Reactions to
// other messages are ignored. The member is created on first interaction.
func (e *Engine) HandleReaction(ctx context.Context, messageID, memberID, displayName, emoji string) error {
	e.mu.Lock()
	date, ok := e.checkinDates[messageID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	log := logging.Service(ctx, e.logger, "muster", "handle_reaction", "member_id", memberID, "date", date)

	if err := e.ensureMember(ctx, memberID, displayName); err != nil {
		return err
	}

	status, known := ledger.LookupStatus(emoji)
	if !known {
		log.Info("unknown status emoji", "emoji", emoji)
		e.sendDM(ctx, memberID, unknownEmojiMessage(emoji))
		return nil
	}

	record, err := e.ledger.SetStatus(ctx, memberID, date, emoji, "", memberID)
	if err != nil {
		return err
	}

	if record.State == persistence.StateAwaitingDetail {
		// Replace any earlier pending follow-up; a member has at most one.
		e.mu.Lock()
		e.pending[memberID] = pendingFollowUp{Date: date, Emoji: emoji}
		e.mu.Unlock()
		e.sendDM(ctx, memberID, status.Prompt)
		return nil
	}

	e.mu.Lock()
	delete(e.pending, memberID)
	e.mu.Unlock()
	e.sendDM(ctx, memberID, checkinAckMessage(status.Label, date))
	return nil
}

// HandleDirectMessage ingests an inbound DM. When the member has a pending
// follow-up, the text becomes the status detail and the record completes;
// it reports whether the message was consumed so the command router can
// claim unconsumed messages.
func (e *Engine) HandleDirectMessage(ctx context.Context, memberID, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	e.mu.Lock()
	followUp, ok := e.pending[memberID]
	if ok {
		delete(e.pending, memberID)
	}
	e.mu.Unlock()
	if !ok {
		return false, nil
	}

	record, err := e.ledger.SetStatus(ctx, memberID, followUp.Date, followUp.Emoji, text, memberID)
	if err != nil {
		// Keep the follow-up open so the member's next message can retry.
		e.mu.Lock()
		if _, exists := e.pending[memberID]; !exists {
			e.pending[memberID] = followUp
		}
		e.mu.Unlock()
		return true, err
	}

	e.sendDM(ctx, memberID, followUpAckMessage(record.Label, record.Detail))
	return true, nil
}

// Muster records a status for another member on an admin's behalf. The
// actor is preserved in RecordedBy for audit.
func (e *Engine) Muster(ctx context.Context, actorID, targetID, emoji, detail string) (persistence.StatusRecord, error) {
	if err := e.policy.Require(ctx, actorID); err != nil {
		return persistence.StatusRecord{}, err
	}

	if err := e.ensureMember(ctx, targetID, ""); err != nil {
		return persistence.StatusRecord{}, err
	}

	record, err := e.ledger.SetStatus(ctx, targetID, e.Today(), emoji, detail, actorID)
	if err != nil {
		return persistence.StatusRecord{}, err
	}

	if record.State == persistence.StateRecorded {
		e.mu.Lock()
		delete(e.pending, targetID)
		e.mu.Unlock()
	}

	logging.Service(ctx, e.logger, "muster", "proxy_muster").Info("status recorded by proxy",
		"actor_id", actorID, "target_id", targetID, "date", record.Date, "label", record.Label)
	return record, nil
}

// Status resolves a member's record for a date. Members may query
// themselves; querying another member requires admin.
func (e *Engine) Status(ctx context.Context, requesterID, targetID, date string) (persistence.StatusRecord, error) {
	if targetID == "" {
		targetID = requesterID
	}
	if date == "" {
		date = e.Today()
	}
	if targetID != requesterID {
		if err := e.policy.Require(ctx, requesterID); err != nil {
			return persistence.StatusRecord{}, err
		}
	}
	return e.ledger.GetStatus(ctx, targetID, date)
}

// ensureMember upserts the member so a first observed interaction creates
// the roster entry. Admin and active flags survive the upsert. Callers with
// no display name (the proxy and leave paths) never overwrite a stored one;
// the ID stands in only when the member is created here.
func (e *Engine) ensureMember(ctx context.Context, memberID, displayName string) error {
	if displayName == "" {
		_, err := e.members.GetMember(ctx, memberID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, persistence.ErrNotFound) {
			return fmt.Errorf("failed to look up member: %w", err)
		}
		displayName = memberID
	}
	now := e.now()
	member := persistence.Member{
		ID:          memberID,
		DisplayName: displayName,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.members.UpsertMember(ctx, member); err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

// sendDM delivers a direct message, logging failures instead of propagating
// them: sends happen after the data mutation commits and never undo it.
func (e *Engine) sendDM(ctx context.Context, memberID, text string) {
	if err := e.gateway.SendDirectMessage(ctx, memberID, text); err != nil {
		logging.Service(ctx, e.logger, "muster", "send_dm").Error("direct message failed",
			"member_id", memberID, "error", err)
	}
}

// alreadyFired reports whether the event kind has run for the date.
func (e *Engine) alreadyFired(ctx context.Context, kind schedule.EventKind, date string) (bool, error) {
	marker, err := e.markers.GetMarker(ctx, string(kind))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read fire marker: %w", err)
	}
	return marker.FiredDate == date, nil
}

// markFired durably records the fire before any message is sent, making the
// cycle idempotent per (kind, date) across restarts and manual triggers.
func (e *Engine) markFired(ctx context.Context, kind schedule.EventKind, date string) error {
	err := e.markers.SetMarker(ctx, persistence.FireMarker{EventKind: string(kind), FiredDate: date})
	if err != nil {
		return fmt.Errorf("failed to write fire marker: %w", err)
	}
	return nil
}

// activeMembers lists the roster members still expected to muster.
func (e *Engine) activeMembers(ctx context.Context) ([]persistence.Member, error) {
	members, err := e.members.ListMembers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	active := make([]persistence.Member, 0, len(members))
	for _, member := range members {
		if member.Active {
			active = append(active, member)
		}
	}
	return active, nil
}
