package memory

import (
	"context"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/ledger"

	"github.com/shopspring/decimal"
)

var _ ledger.Ledger = (*Store)(nil)

// Store keeps records in memory only. It backs the "memory" backend and tests.
type Store struct {
	mu    sync.Mutex
	now   func() time.Time
	loc   *time.Location
	items []core.Record
}

func New(seed ...core.Record) *Store {
	return &Store{now: time.Now, loc: time.Local, items: append([]core.Record(nil), seed...)}
}

// WithLocation sets the zone new records are dated in. Nil keeps time.Local.
func (s *Store) WithLocation(loc *time.Location) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithClock replaces the clock used to date new records.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// Append stores a record dated now.
func (s *Store) Append(_ context.Context, category, description string, amount decimal.Decimal) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := core.NewRecord(s.now().In(s.loc), category, description, amount)
	s.items = append(s.items, r)
	return r, nil
}

// List returns a copy of the stored records.
func (s *Store) List(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...), nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
