package openinghours

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ClauseKind classifies one semicolon-delimited clause.
type ClauseKind int

const (
	// Unrecognized clauses are skipped during evaluation.
	Unrecognized ClauseKind = iota
	// BareExclusion is a lone "off" or "closed": the venue is closed.
	BareExclusion
	// DaySetExclusion closes the venue on a set of weekdays, e.g. "Sa,Su off".
	DaySetExclusion
	// DateRangeExclusion closes the venue on an inclusive date range, e.g. "Dec 20-Dec 28 off".
	DateRangeExclusion
	// SingleDateExclusion closes the venue on one date, e.g. "Dec 25 off".
	SingleDateExclusion
	// DaySetTimeRule opens the venue on a set of weekdays, e.g. "Mo-Fr 09:00-17:00".
	DaySetTimeRule
	// BareTimeRule opens the venue every day, e.g. "09:00-17:00".
	BareTimeRule
)

var clauseKindNames = map[ClauseKind]string{
	Unrecognized:        "unrecognized",
	BareExclusion:       "bare_exclusion",
	DaySetExclusion:     "dayset_exclusion",
	DateRangeExclusion:  "date_range_exclusion",
	SingleDateExclusion: "single_date_exclusion",
	DaySetTimeRule:      "dayset_time_rule",
	BareTimeRule:        "bare_time_rule",
}

func (k ClauseKind) String() string {
	if name, ok := clauseKindNames[k]; ok {
		return name
	}
	return "unrecognized"
}

// IsExclusion reports whether clauses of this kind close the venue.
func (k ClauseKind) IsExclusion() bool {
	switch k {
	case BareExclusion, DaySetExclusion, DateRangeExclusion, SingleDateExclusion:
		return true
	}
	return false
}

// Clause is a parsed clause. Only the fields relevant to Kind are set.
type Clause struct {
	Kind ClauseKind
	// Raw is the trimmed clause text as written.
	Raw string
	// Days is set for DaySetExclusion, DaySetTimeRule and BareTimeRule.
	Days DaySet
	// From and To are packed month*100+day values. For SingleDateExclusion both
	// hold the same date.
	From int
	To   int
	// Ranges holds the well-formed time ranges of a time rule.
	Ranges []TimeRange
}

var (
	daySetExclusionPattern = regexp.MustCompile(`(?i)^([a-z\s,-]+) (off|closed)$`)
	dateRangePattern       = regexp.MustCompile(`(?i)^([a-z]{3}) (\d{1,2})-([a-z]{3}) (\d{1,2}) (off|closed)$`)
	singleDatePattern      = regexp.MustCompile(`(?i)^([a-z]{3}) (\d{1,2}) (off|closed)$`)
	datePrefixPattern      = regexp.MustCompile(`(?i)^[a-z]{3} \d{1,2}`)
	daySetTimePattern      = regexp.MustCompile(`(?i)^([a-z\s,-]+) ([0-9:\-\s,]+)$`)
	bareTimePattern        = regexp.MustCompile(`^([0-9:\-\s,]+)$`)
	dayRangePattern        = regexp.MustCompile(`(?i)^([a-z]{2})-([a-z]{2})$`)
	colonRangePattern      = regexp.MustCompile(`^(\d{1,2}):(\d{2})-(\d{1,2}):(\d{2})$`)
	packedRangePattern     = regexp.MustCompile(`^(\d{2})(\d{2})-(\d{2})(\d{2})$`)
	whitespace             = regexp.MustCompile(`\s`)
)

var weekdays = map[string]time.Weekday{
	"su": time.Sunday,
	"mo": time.Monday,
	"tu": time.Tuesday,
	"we": time.Wednesday,
	"th": time.Thursday,
	"fr": time.Friday,
	"sa": time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"aug": time.August,
	"sep": time.September,
	"oct": time.October,
	"nov": time.November,
	"dec": time.December,
}

// Schedule is a parsed opening_hours value.
type Schedule struct {
	// Value is the original tag value.
	Value string
	// Unspecified is set for an empty or "Not specified" value.
	Unspecified bool
	// AlwaysOpen is set for "24/7".
	AlwaysOpen bool
	Clauses    []Clause
}

// Parse splits an opening_hours value into classified clauses. It never fails:
// clauses it does not understand are kept as Unrecognized.
func Parse(value string) *Schedule {
	schedule := &Schedule{Value: value}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" || trimmed == NotSpecified {
		schedule.Unspecified = true
		return schedule
	}
	if strings.EqualFold(trimmed, "24/7") {
		schedule.AlwaysOpen = true
		return schedule
	}

	normalized := strings.ReplaceAll(value, "; ", ";")
	normalized = strings.ReplaceAll(normalized, ", ", ",")
	for _, raw := range strings.Split(normalized, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		schedule.Clauses = append(schedule.Clauses, parseClause(raw))
	}
	return schedule
}

func parseClause(raw string) Clause {
	clause := Clause{Kind: Unrecognized, Raw: raw}
	lower := strings.ToLower(raw)

	if lower == "off" || lower == "closed" {
		clause.Kind = BareExclusion
		return clause
	}

	if m := daySetExclusionPattern.FindStringSubmatch(lower); m != nil {
		clause.Kind = DaySetExclusion
		clause.Days = parseDaySet(whitespace.ReplaceAllString(m[1], ""))
		return clause
	}

	if m := dateRangePattern.FindStringSubmatch(lower); m != nil {
		from, okFrom := parseDate(m[1], m[2])
		to, okTo := parseDate(m[3], m[4])
		if okFrom && okTo {
			clause.Kind = DateRangeExclusion
			clause.From, clause.To = from, to
		}
		return clause
	}

	if m := singleDatePattern.FindStringSubmatch(lower); m != nil {
		if date, ok := parseDate(m[1], m[2]); ok {
			clause.Kind = SingleDateExclusion
			clause.From, clause.To = date, date
		}
		return clause
	}

	// Anything else starting with a month and day is a date rule this
	// evaluator does not support; reading it as days+times would be wrong.
	if datePrefixPattern.MatchString(raw) {
		return clause
	}

	var days, times string
	if m := daySetTimePattern.FindStringSubmatch(raw); m != nil {
		clause.Kind = DaySetTimeRule
		days = whitespace.ReplaceAllString(m[1], "")
		times = whitespace.ReplaceAllString(m[2], "")
		clause.Days = parseDaySet(days)
	} else if m := bareTimePattern.FindStringSubmatch(raw); m != nil {
		clause.Kind = BareTimeRule
		times = whitespace.ReplaceAllString(m[1], "")
		clause.Days = AllDays
	} else {
		return clause
	}

	for _, part := range strings.Split(times, ",") {
		if r, ok := parseTimeRange(part); ok {
			clause.Ranges = append(clause.Ranges, r)
		}
	}
	return clause
}

// parseDaySet decodes tokens such as "Mo-Fr,Su". Unknown tokens add nothing.
func parseDaySet(value string) DaySet {
	var set DaySet
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if m := dayRangePattern.FindStringSubmatch(part); m != nil {
			from, okFrom := weekdays[strings.ToLower(m[1])]
			to, okTo := weekdays[strings.ToLower(m[2])]
			if !okFrom || !okTo {
				continue
			}
			set = set.withRange(from, to)
			continue
		}
		if d, ok := weekdays[strings.ToLower(part)]; ok {
			set = set.with(d)
		}
	}
	return set
}

func parseDate(month, day string) (int, bool) {
	m, ok := months[strings.ToLower(month)]
	if !ok {
		return 0, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return 0, false
	}
	return packDate(m, d), true
}

// parseTimeRange decodes "H:MM-H:MM" or "HHMM-HHMM".
func parseTimeRange(value string) (TimeRange, bool) {
	pattern := packedRangePattern
	if strings.Contains(value, ":") {
		pattern = colonRangePattern
	}
	m := pattern.FindStringSubmatch(value)
	if m == nil {
		return TimeRange{}, false
	}

	parts := make([]int, 4)
	for i := range parts {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return TimeRange{}, false
		}
		parts[i] = n
	}

	r := TimeRange{
		Start: parts[0]*60 + parts[1],
		End:   parts[2]*60 + parts[3],
	}
	if parts[2] == 24 && parts[3] == 0 {
		r.End = endOfDay
	}
	return r, true
}
