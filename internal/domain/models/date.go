package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

// Date is a calendar day without a time-of-day component. The zero value is
// the empty string. Dates compare correctly as strings.
type Date string

// DateIn returns the calendar date of t as seen in loc.
func DateIn(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	return Date(t.In(loc).Format(DateLayout))
}

// ParseDate validates a YYYY-MM-DD string. Longer timestamps are cut to the day.
func ParseDate(raw string) (Date, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	if _, err := time.Parse(DateLayout, raw); err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, raw)
	}
	return Date(raw), nil
}

// IsZero reports whether d is unset.
func (d Date) IsZero() bool { return d == "" }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d < o }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d > o }

// String implements fmt.Stringer.
func (d Date) String() string { return string(d) }

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout, string(d), loc)
}
