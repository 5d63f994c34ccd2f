// Package clock handles the wall-clock times of day used for scheduling.
// Times of day travel through the system as zero-padded "HH:MM" strings, the
// same representation stored in the database, so string comparison matches
// chronological order.
package clock

import (
	"errors"
	"fmt"
	"time"
)

const (
	Layout     = "15:04"
	DateLayout = "2006-01-02"
)

var (
	ErrBadClock = errors.New("time of day must be HH:MM")
	ErrBadDate  = errors.New("date must be YYYY-MM-DD")
)

// Parse validates an HH:MM string and normalizes it to zero-padded form.
func Parse(s string) (string, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadClock, s)
	}
	return t.Format(Layout), nil
}

// Combine builds the instant a clinic-local date and time of day refer to.
// The date argument contributes only its year/month/day.
func Combine(date time.Time, hhmm string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(Layout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadClock, hhmm)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// AddMinutes shifts a time of day forward, wrapping past midnight.
func AddMinutes(hhmm string, minutes int) (string, error) {
	t, err := time.Parse(Layout, hhmm)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrBadClock, hhmm)
	}
	return t.Add(time.Duration(minutes) * time.Minute).Format(Layout), nil
}

// ParseDate reads a YYYY-MM-DD string as a calendar date in the clinic's
// location. Parsing in UTC and converting afterwards would shift the day for
// clinics west of UTC, so the date is constructed in loc directly.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, s)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// DateOnly truncates an instant to its clinic-local calendar date.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
