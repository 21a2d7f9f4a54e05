package openinghours

import (
	"fmt"
	"log/slog"
	"time"
)

// Verdict is a State together with the clause that decided it.
type Verdict struct {
	State State
	// Clause is the raw text of the deciding clause. It is empty when no
	// clause applied.
	Clause string
	// Kind is the kind of the deciding clause.
	Kind ClauseKind
}

// Evaluate reports whether the venue described by value is open at the instant.
func Evaluate(value string, at Instant) State {
	return Parse(value).Evaluate(at)
}

// EvaluateTime is Evaluate for a wall-clock time already in the venue's location.
func EvaluateTime(value string, t time.Time) State {
	return Evaluate(value, At(t))
}

// Explain is Evaluate but also reports the deciding clause.
func Explain(value string, at Instant) Verdict {
	return Parse(value).Explain(at)
}

// Evaluate returns the state of the schedule at the instant.
func (s *Schedule) Evaluate(at Instant) State {
	return s.Explain(at).State
}

// Explain evaluates the schedule in two passes. Every exclusion clause is
// checked first and any match closes the venue, regardless of where it sits in
// the value. Then time rules are checked in order and the first range
// covering the instant opens it. When nothing opens the venue it is closed,
// including on days no rule mentions.
func (s *Schedule) Explain(at Instant) (verdict Verdict) {
	defer func() {
		if r := recover(); r != nil {
			slog.Debug("failed to evaluate opening hours",
				slog.String("value", s.Value),
				slog.String("panic", fmt.Sprint(r)))
			verdict = Verdict{State: Unknown}
		}
	}()

	if s.Unspecified {
		return Verdict{State: Unknown}
	}
	if s.AlwaysOpen {
		return Verdict{State: Open, Clause: s.Value}
	}

	for _, c := range s.Clauses {
		if c.Kind.IsExclusion() && c.excludes(at) {
			return Verdict{State: Closed, Clause: c.Raw, Kind: c.Kind}
		}
	}

	var matchedToday *Clause
	for i := range s.Clauses {
		c := &s.Clauses[i]
		if c.Kind != DaySetTimeRule && c.Kind != BareTimeRule {
			continue
		}
		if !c.Days.Contains(at.Weekday) {
			continue
		}
		if matchedToday == nil {
			matchedToday = c
		}
		for _, r := range c.Ranges {
			if r.Contains(at.Minute) {
				return Verdict{State: Open, Clause: c.Raw, Kind: c.Kind}
			}
		}
	}

	if matchedToday != nil {
		return Verdict{State: Closed, Clause: matchedToday.Raw, Kind: matchedToday.Kind}
	}
	return Verdict{State: Closed}
}

func (c Clause) excludes(at Instant) bool {
	switch c.Kind {
	case BareExclusion:
		return true
	case DaySetExclusion:
		return c.Days.Contains(at.Weekday)
	case DateRangeExclusion:
		date := at.packedDate()
		if c.From <= c.To {
			return date >= c.From && date <= c.To
		}
		// Spans the new year, e.g. Dec 20-Jan 05.
		return date >= c.From || date <= c.To
	case SingleDateExclusion:
		return at.packedDate() == c.From
	}
	return false
}
