// Package openinghours evaluates OpenStreetMap opening_hours tag values.
//
// Only a practical subset of the opening_hours grammar is supported: weekday
// sets with time ranges, bare time ranges, and "off"/"closed" exclusions for
// weekdays, single dates and date ranges. Anything else is skipped clause by
// clause, and a value that cannot be evaluated at all yields Unknown.
package openinghours

import (
	"strings"
	"time"
)

// NotSpecified is the placeholder used for venues without an opening_hours tag.
const NotSpecified = "Not specified"

// endOfDay is the minute value of the "24:00" sentinel.
const endOfDay = 24 * 60

// State is the result of evaluating opening hours at an instant.
type State int

const (
	// Unknown means the hours are absent or could not be evaluated.
	Unknown State = iota
	// Open means the venue is open at the instant.
	Open
	// Closed means the venue is closed at the instant.
	Closed
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Badge returns the label shown next to a venue.
func (s State) Badge() string {
	switch s {
	case Open:
		return "Open"
	case Closed:
		return "Closed"
	default:
		return "Hours Unknown"
	}
}

// MarshalText encodes the state as its lower-case name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name. Unrecognized names decode as Unknown.
func (s *State) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "open":
		*s = Open
	case "closed":
		*s = Closed
	default:
		*s = Unknown
	}
	return nil
}

// Instant is the reference moment an opening_hours value is evaluated against.
// It is expressed in the venue's local wall-clock time; no timezone conversion
// happens in this package.
type Instant struct {
	Weekday time.Weekday
	// Minute is the minute of the day, 0-1439.
	Minute int
	Month  time.Month
	Day    int
}

// At returns the Instant for t in t's own location.
func At(t time.Time) Instant {
	return Instant{
		Weekday: t.Weekday(),
		Minute:  t.Hour()*60 + t.Minute(),
		Month:   t.Month(),
		Day:     t.Day(),
	}
}

// packedDate returns month*100+day, the form date exclusions are compared in.
func (i Instant) packedDate() int {
	return packDate(i.Month, i.Day)
}

func packDate(month time.Month, day int) int {
	return int(month)*100 + day
}

// DaySet is a set of weekdays, bit n set for time.Weekday(n).
type DaySet uint8

// AllDays contains every day of the week.
const AllDays DaySet = 1<<7 - 1

// Contains reports whether d is in the set.
func (s DaySet) Contains(d time.Weekday) bool {
	if d < time.Sunday || d > time.Saturday {
		return false
	}
	return s&(1<<uint(d)) != 0
}

func (s DaySet) with(d time.Weekday) DaySet {
	return s | 1<<uint(d)
}

// withRange adds from..to inclusive, wrapping past Saturday when from > to.
func (s DaySet) withRange(from, to time.Weekday) DaySet {
	for d := from; ; d = (d + 1) % 7 {
		s = s.with(d)
		if d == to {
			return s
		}
	}
}

// TimeRange is a span of minutes within a day. End is exclusive and may be
// 1440 for "24:00". A range whose End is before its Start runs overnight.
type TimeRange struct {
	Start int
	End   int
}

// Overnight reports whether the range wraps past midnight.
func (r TimeRange) Overnight() bool {
	return r.End < r.Start
}

// Contains reports whether minute falls inside the range.
func (r TimeRange) Contains(minute int) bool {
	if r.Overnight() {
		return minute >= r.Start || minute < r.End
	}
	return minute >= r.Start && minute < r.End
}
