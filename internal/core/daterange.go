package core

import (
	"strings"
	"time"
)

// DateRange is an inclusive filter on record dates. A zero bound is absent.
type DateRange struct {
	Start time.Time // first instant kept
	End   time.Time // midnight of the last day kept
}

// ParseDateRange builds a range from YYYY-MM-DD strings. Empty strings leave
// the bound open. A start after the end is accepted and simply matches nothing.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	var rng DateRange
	if strings.TrimSpace(start) != "" {
		t, err := ParseDay(start, loc)
		if err != nil {
			return DateRange{}, withField(err, "start_date")
		}
		rng.Start = t
	}
	if strings.TrimSpace(end) != "" {
		t, err := ParseDay(end, loc)
		if err != nil {
			return DateRange{}, withField(err, "end_date")
		}
		rng.End = t
	}
	return rng, nil
}

// HasStart reports whether a lower bound is set.
func (r DateRange) HasStart() bool { return !r.Start.IsZero() }

// HasEnd reports whether an upper bound is set.
func (r DateRange) HasEnd() bool { return !r.End.IsZero() }

// IsOpen reports whether neither bound is set.
func (r DateRange) IsOpen() bool { return !r.HasStart() && !r.HasEnd() }

// Contains reports whether t lies within the range. Both bounds are midnight
// of their day, so records later on the end day fall outside.
func (r DateRange) Contains(t time.Time) bool {
	if r.HasStart() && t.Before(r.Start) {
		return false
	}
	if r.HasEnd() && t.After(r.End) {
		return false
	}
	return true
}

func (r DateRange) String() string {
	from, to := "*", "*"
	if r.HasStart() {
		from = r.Start.Format(DayLayout)
	}
	if r.HasEnd() {
		to = r.End.Format(DayLayout)
	}
	return from + ".." + to
}

func withField(err error, field string) error {
	if ve, ok := err.(*ValidationError); ok {
		cp := *ve
		cp.Field = field
		return &cp
	}
	return err
}
