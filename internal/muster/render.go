package muster

import (
	"fmt"
	"strings"

	"github.com/example/musterd/internal/ledger"
)

// summaryLine is one member's row in the daily summary.
type summaryLine struct {
	Name           string
	Label          string
	Detail         string
	AwaitingDetail bool
}

const reminderMessage = "Just a friendly reminder to please check in for today. ☀️"

// checkinMessage renders the morning prompt with the full status legend so
// members can react without remembering the vocabulary.
func checkinMessage(date string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Good morning! Please check in for %s by reacting to this message. ☀️\n", date)
	for _, status := range ledger.Vocabulary() {
		fmt.Fprintf(&b, "\n%s (search '%s') - %s", status.Emoji, status.Hint, status.Label)
	}
	return b.String()
}

// summaryMessage renders the aggregate daily status. Rows follow the roster
// order the caller assembled.
func summaryMessage(date string, lines []summaryLine) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Daily Status Summary for %s\n", date)
	if len(lines) == 0 {
		b.WriteString("\nNo one has checked in yet.")
		return b.String()
	}
	for _, line := range lines {
		fmt.Fprintf(&b, "\n• %s: %s", line.Name, line.Label)
		if line.Detail != "" {
			fmt.Fprintf(&b, " (%s)", line.Detail)
		}
		if line.AwaitingDetail {
			b.WriteString(" [details pending]")
		}
	}
	return b.String()
}

func checkinAckMessage(label, date string) string {
	return fmt.Sprintf("Thanks for checking in! I've marked you as '%s' for %s.", label, date)
}

func followUpAckMessage(label, detail string) string {
	return fmt.Sprintf("Got it! Your status has been updated to '%s' with the details: '%s'.", label, detail)
}

func unknownEmojiMessage(emoji string) string {
	var hints []string
	for _, status := range ledger.Vocabulary() {
		hints = append(hints, status.Emoji)
	}
	return fmt.Sprintf("Sorry, %s is not a status I recognize. Please react with one of: %s.",
		emoji, strings.Join(hints, " "))
}
