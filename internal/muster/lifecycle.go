package muster

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/example/musterd/internal/logging"
	"github.com/example/musterd/internal/persistence"
	"github.com/example/musterd/internal/schedule"
)

// PostCheckin posts the daily check-in prompt to the group. Idempotent per
// date: a repeat invocation the same day is a logged no-op.
func (e *Engine) PostCheckin(ctx context.Context, date string) error {
	log := logging.Service(ctx, e.logger, "muster", "post_checkin", "date", date)

	fired, err := e.alreadyFired(ctx, schedule.EventCheckin, date)
	if err != nil {
		return err
	}
	if fired {
		log.Info("check-in already posted")
		return nil
	}

	members, err := e.activeMembers(ctx)
	if err != nil {
		return err
	}
	anyWorking := false
	for _, member := range members {
		working, err := e.calendar.IsWorkingDay(ctx, member.ID, date)
		if err != nil {
			return fmt.Errorf("member %s: %w", member.ID, err)
		}
		if working {
			anyWorking = true
			break
		}
	}
	// No marker on a skip: the day stays open in case the calendar changes.
	if !anyWorking {
		log.Info("no working members, check-in skipped")
		return nil
	}

	if err := e.markFired(ctx, schedule.EventCheckin, date); err != nil {
		return err
	}

	messageID, err := e.gateway.SendGroupMessage(ctx, checkinMessage(date))
	if err != nil {
		return fmt.Errorf("failed to post check-in: %w", err)
	}

	e.mu.Lock()
	e.checkinDates[messageID] = date
	e.mu.Unlock()

	log.Info("check-in posted", "message_id", messageID)
	return nil
}

// PostReminder sends a direct reminder to every working-day member with no
// status record for the date. Members on leave or holiday are never
// messaged. Per-member failures are aggregated; the cycle always runs to
// completion.
func (e *Engine) PostReminder(ctx context.Context, date string) error {
	log := logging.Service(ctx, e.logger, "muster", "post_reminder", "date", date)

	fired, err := e.alreadyFired(ctx, schedule.EventReminder, date)
	if err != nil {
		return err
	}
	if fired {
		log.Info("reminders already sent")
		return nil
	}
	if err := e.markFired(ctx, schedule.EventReminder, date); err != nil {
		return err
	}

	members, err := e.activeMembers(ctx)
	if err != nil {
		return err
	}

	var result *multierror.Error
	workingIDs := make([]string, 0, len(members))
	for _, member := range members {
		working, err := e.calendar.IsWorkingDay(ctx, member.ID, date)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("member %s: %w", member.ID, err))
			continue
		}
		if working {
			workingIDs = append(workingIDs, member.ID)
		}
	}

	unrecorded, err := e.ledger.ListUnrecorded(ctx, workingIDs, date)
	if err != nil {
		return multierror.Append(result, err).ErrorOrNil()
	}

	for _, memberID := range unrecorded {
		if err := e.gateway.SendDirectMessage(ctx, memberID, reminderMessage); err != nil {
			result = multierror.Append(result, fmt.Errorf("reminder to %s: %w", memberID, err))
		}
	}

	log.Info("reminders sent", "reminded", len(unrecorded), "working", len(workingIDs),
		"failures", len(result.WrappedErrors()))
	return result.ErrorOrNil()
}

// PostSummary composes and posts the aggregate daily status to the group.
// Absent working-day members render as "no response"; absent non-working
// members render with the reason (holiday description, leave, or day off).
func (e *Engine) PostSummary(ctx context.Context, date string) error {
	log := logging.Service(ctx, e.logger, "muster", "post_summary", "date", date)

	fired, err := e.alreadyFired(ctx, schedule.EventSummary, date)
	if err != nil {
		return err
	}
	if fired {
		log.Info("summary already posted")
		return nil
	}
	if err := e.markFired(ctx, schedule.EventSummary, date); err != nil {
		return err
	}

	members, err := e.activeMembers(ctx)
	if err != nil {
		return err
	}

	records, err := e.ledger.ListForDate(ctx, date)
	if err != nil {
		return fmt.Errorf("failed to list statuses: %w", err)
	}
	byMember := make(map[string]persistence.StatusRecord, len(records))
	for _, record := range records {
		byMember[record.MemberID] = record
	}

	var result *multierror.Error
	lines := make([]summaryLine, 0, len(members))
	for _, member := range members {
		line, err := e.summaryLine(ctx, member, date, byMember)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("member %s: %w", member.ID, err))
			continue
		}
		lines = append(lines, line)
	}

	if _, err := e.gateway.SendGroupMessage(ctx, summaryMessage(date, lines)); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to post summary: %w", err))
	}

	log.Info("summary posted", "members", len(lines), "failures", len(result.WrappedErrors()))
	return result.ErrorOrNil()
}

func (e *Engine) summaryLine(ctx context.Context, member persistence.Member, date string, byMember map[string]persistence.StatusRecord) (summaryLine, error) {
	line := summaryLine{Name: member.DisplayName}

	if record, ok := byMember[member.ID]; ok {
		line.Label = record.Label
		line.Detail = record.Detail
		line.AwaitingDetail = record.State == persistence.StateAwaitingDetail
		return line, nil
	}

	working, err := e.calendar.IsWorkingDay(ctx, member.ID, date)
	if err != nil {
		return summaryLine{}, err
	}
	if working {
		line.Label = "No response"
		return line, nil
	}

	if holiday, err := e.calendar.Holiday(ctx, date); err == nil {
		line.Label = "Holiday"
		line.Detail = holiday.Description
		return line, nil
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return summaryLine{}, err
	}

	onLeave, err := e.calendar.OnLeave(ctx, member.ID, date)
	if err != nil {
		return summaryLine{}, err
	}
	if onLeave {
		line.Label = "On leave"
		return line, nil
	}

	line.Label = "Day off"
	return line, nil
}
