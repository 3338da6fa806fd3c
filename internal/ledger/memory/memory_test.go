package memory

import (
	"context"
	"testing"
	"time"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

func TestMemoryStoreAppendAndList(t *testing.T) {
	fixed := time.Date(2025, 2, 21, 10, 0, 0, 500, time.UTC)
	s := New().WithClock(func() time.Time { return fixed }).WithLocation(time.UTC)

	r, err := s.Append(context.Background(), "Food", "Lunch", decimal.RequireFromString("12.50"))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if r.Timestamp() != "2025-02-21 10:00:00" {
		t.Fatalf("unexpected date %q", r.Timestamp())
	}

	items, err := s.List(context.Background())
	if err != nil || len(items) != 1 || !items[0].Equal(r) {
		t.Fatalf("unexpected list: %v err=%v", items, err)
	}

	// Mutating the returned slice must not leak into the store.
	items[0].Category = "changed"
	again, _ := s.List(context.Background())
	if again[0].Category != "Food" {
		t.Fatalf("store leaked its backing slice")
	}
}

func TestNewWithSeed(t *testing.T) {
	seed := []core.Record{
		core.NewRecord(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "A", "x", decimal.NewFromInt(1)),
		core.NewRecord(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "B", "y", decimal.NewFromInt(2)),
	}
	s := New(seed...)
	seed[0].Category = "mutated"
	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}
	items, _ := s.List(context.Background())
	if items[0].Category != "A" || items[1].Category != "B" {
		t.Fatalf("unexpected order or aliasing: %v", items)
	}
}

func TestAppendUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	fixed := time.Date(2025, 2, 21, 23, 30, 0, 0, time.UTC)
	s := New().WithClock(func() time.Time { return fixed }).WithLocation(loc)

	r, err := s.Append(context.Background(), "Food", "Late snack", decimal.NewFromInt(3))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if r.Timestamp() != "2025-02-22 01:30:00" {
		t.Fatalf("timestamp = %q, want the configured zone's wall clock", r.Timestamp())
	}
	if r.Date.Location() != loc {
		t.Fatalf("location = %v, want %v", r.Date.Location(), loc)
	}
}
