package csvfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Minute)
		return t
	}
}

func openTemp(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.csv")
	opts = append([]Option{WithLocation(time.UTC)}, opts...)
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	return s, path
}

func mustAppend(t *testing.T, s *Store, category, description, amount string) core.Record {
	t.Helper()
	r, err := s.Append(context.Background(), category, description, decimal.RequireFromString(amount))
	if err != nil {
		t.Fatalf("append %s/%s: %v", category, description, err)
	}
	return r
}

func TestOpenCreatesFileWithHeader(t *testing.T) {
	s, path := openTemp(t)
	if len(s.All()) != 0 {
		t.Fatalf("expected empty store, got %v", s.All())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "Date,Category,Description,Amount\n" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestOpenEmptyFileWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.csv")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "Date,Category,Description,Amount\n" {
		t.Fatalf("unexpected file content %q", data)
	}
}

func TestOpenCreatesMissingDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "expenses.csv")
	if _, err := Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestAppendWritesExactFormat(t *testing.T) {
	clock := stepClock(time.Date(2025, 2, 21, 9, 5, 7, 0, time.UTC))
	s, path := openTemp(t, WithClock(clock))

	mustAppend(t, s, "Food", "Lunch at Cafe", "12.50")
	mustAppend(t, s, "Transport", "Taxi, airport", "25.00")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "Date,Category,Description,Amount\n" +
		"2025-02-21 09:05:07,Food,Lunch at Cafe,12.5\n" +
		"2025-02-21 09:06:07,Transport,\"Taxi, airport\",25\n"
	if string(data) != want {
		t.Fatalf("unexpected file content:\n%s\nwant:\n%s", data, want)
	}
}

func TestRoundTrip(t *testing.T) {
	clock := stepClock(time.Date(2025, 2, 19, 8, 0, 0, 0, time.UTC))
	s, path := openTemp(t, WithClock(clock))

	in := []struct{ cat, desc, amt string }{
		{"Food", "Lunch at Cafe", "12.50"},
		{"Transport", "Taxi Ride", "25.00"},
		{"Food", "Grocery \"Shopping\"", "30.00"},
		{"Refund", "multi\nline", "-4.99"},
		{"", "", "0"},
	}
	for _, r := range in {
		mustAppend(t, s, r.cat, r.desc, r.amt)
	}
	written := s.All()

	reopened, err := Open(path, WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.All()
	if len(got) != len(written) {
		t.Fatalf("expected %d records, got %d", len(written), len(got))
	}
	for i := range written {
		if !got[i].Equal(written[i]) {
			t.Fatalf("record %d differs: got %v want %v", i, got[i], written[i])
		}
	}
}

func TestAllIsIdempotentAndDetached(t *testing.T) {
	s, _ := openTemp(t, WithClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	mustAppend(t, s, "Food", "a", "1")
	mustAppend(t, s, "Food", "b", "2")

	first := s.All()
	second := s.All()
	if len(first) != len(second) {
		t.Fatalf("length changed between reads")
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Fatalf("record %d differs between reads", i)
		}
	}

	first[0].Category = "mutated"
	if s.All()[0].Category != "Food" {
		t.Fatalf("All leaked the store's backing slice")
	}
}

func TestOpenSchemaMismatch(t *testing.T) {
	cases := map[string]string{
		"wrong header":   "Date,Category,Amount\n2025-01-01 00:00:00,Food,1\n",
		"renamed column": "Date,Category,Desc,Amount\n",
		"reordered":      "Category,Date,Description,Amount\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "expenses.csv")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := Open(path)
			var se *core.StorageError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StorageError, got %v", err)
			}
			if !errors.Is(err, core.ErrSchemaMismatch) || se.Path != path {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestOpenCorruptRow(t *testing.T) {
	cases := []struct {
		name    string
		content string
		line    int
	}{
		{"bad date", "Date,Category,Description,Amount\n2025-01-01 00:00:00,Food,a,1\nyesterday,Food,b,2\n", 3},
		{"bad amount", "Date,Category,Description,Amount\n2025-01-01 00:00:00,Food,a,lots\n", 2},
		{"missing field", "Date,Category,Description,Amount\n2025-01-01 00:00:00,Food,1\n", 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "expenses.csv")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := Open(path)
			var se *core.StorageError
			if !errors.As(err, &se) || !errors.Is(err, core.ErrCorruptRow) {
				t.Fatalf("expected corrupt row storage error, got %v", err)
			}
			if se.Line != tc.line {
				t.Fatalf("expected line %d, got %d (%v)", tc.line, se.Line, err)
			}
		})
	}
}

func TestOpenReadsLegacyFile(t *testing.T) {
	// Files written by the earlier tool carry float-formatted amounts.
	content := "Date,Category,Description,Amount\n" +
		"2025-02-19 12:00:00,Food,Lunch at Cafe,12.5\n" +
		"2025-02-21 18:30:00,Transport,Taxi Ride,25.0\n"
	path := filepath.Join(t.TempDir(), "expenses.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s, err := Open(path, WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got := s.All()
	if len(got) != 2 || got[1].Category != "Transport" || !got[1].Amount.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("unexpected records %v", got)
	}
	if got[0].Timestamp() != "2025-02-19 12:00:00" {
		t.Fatalf("unexpected date %q", got[0].Timestamp())
	}
}

func TestAppendDetectsExternalModification(t *testing.T) {
	s, path := openTemp(t, WithClock(stepClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	mustAppend(t, s, "Food", "a", "1")

	other, err := Open(path, WithLocation(time.UTC))
	if err != nil {
		t.Fatalf("open second handle: %v", err)
	}
	if _, err := other.Append(context.Background(), "Food", "from other process", decimal.NewFromInt(2)); err != nil {
		t.Fatalf("append through second handle: %v", err)
	}

	_, err = s.Append(context.Background(), "Food", "stale", decimal.NewFromInt(3))
	if !errors.Is(err, core.ErrModifiedExternally) || !core.IsStorage(err) {
		t.Fatalf("expected ErrModifiedExternally storage error, got %v", err)
	}
	if n := len(s.All()); n != 1 {
		t.Fatalf("failed append must not change memory, got %d records", n)
	}
}

func TestAppendHonoursCancelledContext(t *testing.T) {
	s, _ := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Append(ctx, "Food", "x", decimal.NewFromInt(1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(s.All()) != 0 {
		t.Fatalf("cancelled append must not add a record")
	}
}

func TestAppendWriteFailureRollsBack(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "expenses.csv")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	_, err = s.Append(context.Background(), "Food", "x", decimal.NewFromInt(1))
	if !core.IsStorage(err) {
		t.Fatalf("expected storage error, got %v", err)
	}
	if len(s.All()) != 0 {
		t.Fatalf("failed append must not change memory")
	}
}
