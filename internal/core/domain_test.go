package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewRecordTruncatesToSeconds(t *testing.T) {
	now := time.Date(2025, 2, 21, 9, 30, 15, 987654321, time.UTC)
	r := NewRecord(now, "Food", "Lunch", decimal.RequireFromString("12.50"))
	if r.Date.Nanosecond() != 0 {
		t.Fatalf("expected whole seconds, got %v", r.Date)
	}
	if r.Timestamp() != "2025-02-21 09:30:15" {
		t.Fatalf("unexpected timestamp %q", r.Timestamp())
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	in := time.Date(2025, 2, 19, 23, 59, 59, 0, loc)
	got, err := ParseTimestamp(FormatTimestamp(in), loc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !got.Equal(in) {
		t.Fatalf("round trip: got %v, want %v", got, in)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	for _, s := range []string{"", "2025-02-19", "2025/02/19 10:00:00", "2025-13-01 00:00:00"} {
		_, err := ParseTimestamp(s, time.UTC)
		if !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", s, err)
		}
	}
}

func TestRecordEqual(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewRecord(now, "Food", "x", decimal.RequireFromString("12.50"))
	b := NewRecord(now, "Food", "x", decimal.RequireFromString("12.5"))
	if !a.Equal(b) {
		t.Fatalf("expected equal records: %v vs %v", a, b)
	}
	b.Category = "Transport"
	if a.Equal(b) {
		t.Fatalf("expected records to differ")
	}
}
