// Package csvfile implements the ledger as a flat CSV file that is loaded
// fully on open and rewritten in full after every append.
//
// On unix systems writers serialize through an advisory lock on a sidecar
// file named <path>.lock. The sidecar is left in place after the process
// exits; it holds no data and may be deleted when no writer is running.
package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

// DefaultPath is used when no ledger path is configured.
const DefaultPath = "expenses.csv"

var _ ledger.Ledger = (*Store)(nil)

// Store owns the ordered records of one ledger file.
type Store struct {
	mu       sync.Mutex
	path     string
	loc      *time.Location
	now      func() time.Time
	logger   *slog.Logger
	records  []core.Record
	checksum uint64 // xxhash64 of the file content last read or written
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the clock that dates new records.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLocation sets the zone used to write and parse the Date column.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open loads the ledger at path, creating it with only the header row when it
// does not exist or is empty.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	s := &Store{
		path:   path,
		loc:    time.Local,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &core.StorageError{Op: "create", Path: path, Err: fmt.Errorf("create directory: %w", err)}
		}
	}

	unlock, err := lockFile(path)
	if err != nil {
		return nil, &core.StorageError{Op: "lock", Path: path, Err: err}
	}
	defer unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && len(data) == 0) {
		if err := s.write(nil); err != nil {
			return nil, err
		}
		s.logger.Info("Created expense ledger", log.FieldPath, path)
		return s, nil
	}
	if err != nil {
		return nil, &core.StorageError{Op: "load", Path: path, Err: err}
	}

	records, err := decode(bytes.NewReader(data), s.loc)
	if err != nil {
		return nil, s.parseError(err)
	}
	s.records = records
	s.checksum = xxhash.Sum64(data)

	s.logger.Info("Loaded expense ledger", log.FieldPath, path, "records", len(records))
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Append dates a new record at the current time, appends it and rewrites the
// whole file. On failure the in-memory sequence is left unchanged.
func (s *Store) Append(ctx context.Context, category, description string, amount decimal.Decimal) (core.Record, error) {
	if err := ctx.Err(); err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := lockFile(s.path)
	if err != nil {
		return core.Record{}, &core.StorageError{Op: "lock", Path: s.path, Err: err}
	}
	defer unlock()

	if err := s.verifyUnchanged(); err != nil {
		return core.Record{}, err
	}

	r := core.NewRecord(s.now().In(s.loc), category, description, amount)
	next := append(slices.Clip(s.records), r)
	if err := s.write(next); err != nil {
		return core.Record{}, err
	}
	s.records = next

	s.logger.DebugContext(ctx, "Expense appended",
		log.FieldPath, s.path,
		"date", r.Timestamp(),
		"category", r.Category,
		"amount", r.Amount.String(),
		"records", len(s.records))
	return r, nil
}

// All returns a copy of the records, oldest first.
func (s *Store) All() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.records)
}

// List implements ledger.RecordLister.
func (s *Store) List(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.All(), nil
}

// write replaces the file with the encoded records through a temp file and
// rename, then records the new checksum.
func (s *Store) write(records []core.Record) error {
	data, err := encode(records)
	if err != nil {
		return &core.StorageError{Op: "write", Path: s.path, Err: fmt.Errorf("encode: %w", err)}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return &core.StorageError{Op: "write", Path: s.path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return &core.StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return &core.StorageError{Op: "write", Path: s.path, Err: fmt.Errorf("sync: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return &core.StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return &core.StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		cleanup()
		return &core.StorageError{Op: "write", Path: s.path, Err: fmt.Errorf("replace file: %w", err)}
	}

	s.checksum = xxhash.Sum64(data)
	return nil
}

// verifyUnchanged fails when the file no longer matches what this store last
// read or wrote.
func (s *Store) verifyUnchanged() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &core.StorageError{Op: "verify", Path: s.path, Err: fmt.Errorf("%w: file removed", core.ErrModifiedExternally)}
		}
		return &core.StorageError{Op: "verify", Path: s.path, Err: err}
	}
	if xxhash.Sum64(data) != s.checksum {
		return &core.StorageError{Op: "verify", Path: s.path, Err: core.ErrModifiedExternally}
	}
	return nil
}

func (s *Store) parseError(err error) error {
	se := &core.StorageError{Op: "load", Path: s.path, Err: err}
	var re *rowError
	if errors.As(err, &re) {
		se.Line = re.line
		se.Err = re.err
	}
	return se
}
