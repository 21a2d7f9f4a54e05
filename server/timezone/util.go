// Package timezone resolves wall-clock times for opening-hours evaluation.
//
// Opening hours are written in the venue's local time, so every instant handed
// to the evaluator is first moved into the venue's (or the server's default)
// location here.
package timezone

import (
	"fmt"
	"strings"
	"time"
)

// UTC is the coordinated universal time timezone
var UTC = time.UTC

// TimezoneUTC is the UTC timezone identifier
const TimezoneUTC = "UTC"

// localLayouts are accepted by ParseLocalTime in addition to RFC 3339.
var localLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Paris").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == TimezoneUTC {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// NowInTimezone returns the current time in the given timezone.
func NowInTimezone(tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	return time.Now().In(tz)
}

// ParseLocalTime parses value as a wall-clock time in tz. RFC 3339 values
// carry their own offset and are converted into tz; the short layouts
// ("2006-01-02 15:04" and friends) are read as tz wall-clock time. An empty
// value yields the current time.
func ParseLocalTime(value string, tz *time.Location) (time.Time, error) {
	if tz == nil {
		tz = UTC
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return NowInTimezone(tz), nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(tz), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, tz); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: expected RFC 3339 or \"2006-01-02 15:04\"", value)
}
