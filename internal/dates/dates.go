// Package dates normalizes the ISO calendar-date strings used as ledger and
// calendar keys. Dates travel as strings so that (member, date) keys compare
// and sort without timezone arithmetic; instants stay time.Time.
package dates

import (
	"errors"
	"time"
)

// Layout is the canonical calendar-date layout.
const Layout = "2006-01-02"

// ErrInvalidDate is returned when a date string is not a valid ISO date.
var ErrInvalidDate = errors.New("dates: invalid date, expected YYYY-MM-DD")

// Format renders the calendar date of the instant in its own location.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Parse validates and parses an ISO calendar date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Valid reports whether s is a well-formed ISO calendar date.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}
