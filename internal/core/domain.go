package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TimestampLayout is the on-disk format of a record's Date column.
	TimestampLayout = "2006-01-02 15:04:05"
	// DayLayout is the format of date-range bounds.
	DayLayout = "2006-01-02"
)

type (
	// Record is a single expense entry. Records are immutable once appended.
	Record struct {
		Date        time.Time
		Category    string
		Description string
		Amount      decimal.Decimal
	}
)

// NewRecord builds a record dated at now, truncated to whole seconds so that
// it survives a round trip through the timestamp layout unchanged.
func NewRecord(now time.Time, category, description string, amount decimal.Decimal) Record {
	return Record{
		Date:        now.Truncate(time.Second),
		Category:    category,
		Description: description,
		Amount:      amount,
	}
}

// Timestamp returns the record date in TimestampLayout.
func (r Record) Timestamp() string {
	return FormatTimestamp(r.Date)
}

// Equal reports whether two records carry the same fields.
func (r Record) Equal(o Record) bool {
	return r.Date.Equal(o.Date) &&
		r.Category == o.Category &&
		r.Description == o.Description &&
		r.Amount.Equal(o.Amount)
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %q %s", r.Timestamp(), r.Category, r.Description, r.Amount.String())
}

// FormatTimestamp renders t using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a Date column value in loc. A nil loc means local time.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return t, nil
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return t, nil
}
