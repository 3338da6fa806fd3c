package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

var _ ledger.Ledger = (*SQLiteRepository)(nil)

// SQLiteRepository stores records in an append-only SQLite table.
type SQLiteRepository struct {
	db   *sql.DB
	path string
	loc  *time.Location
	now  func() time.Time
}

func NewSQLiteRepository(dbPath string, loc *time.Location) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, &core.StorageError{Op: "create", Path: dbPath, Err: fmt.Errorf("create db directory: %w", err)}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &core.StorageError{Op: "open", Path: dbPath, Err: fmt.Errorf("open sqlite database: %w", err)}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "open", Path: dbPath, Err: fmt.Errorf("ping database: %w", err)}
	}

	// Run migrations
	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, &core.StorageError{Op: "migrate", Path: dbPath, Err: err}
	}

	if loc == nil {
		loc = time.Local
	}
	return &SQLiteRepository{db: db, path: dbPath, loc: loc, now: time.Now}, nil
}

// SetClock replaces the clock that dates new records.
func (r *SQLiteRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.RecordWriter
func (r *SQLiteRepository) Append(ctx context.Context, category, description string, amount decimal.Decimal) (core.Record, error) {
	rec := core.NewRecord(r.now().In(r.loc), category, description, amount)

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO records (recorded_at, category, description, amount) VALUES (?, ?, ?, ?)`,
		rec.Timestamp(), rec.Category, rec.Description, rec.Amount.String())
	if err != nil {
		return core.Record{}, &core.StorageError{Op: "write", Path: r.path, Err: fmt.Errorf("insert record: %w", err)}
	}
	id, _ := res.LastInsertId()

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"date", rec.Timestamp(),
		"category", rec.Category,
		"amount", rec.Amount.String())

	return rec, nil
}

// List implements ledger.RecordLister
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recorded_at, category, description, amount FROM records ORDER BY id`)
	if err != nil {
		return nil, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("query records: %w", err)}
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			id                             int64
			recordedAt, category, desc, am string
		)
		if err := rows.Scan(&id, &recordedAt, &category, &desc, &am); err != nil {
			return nil, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("scan record: %w", err)}
		}
		date, err := core.ParseTimestamp(recordedAt, r.loc)
		if err != nil {
			return nil, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("%w: record %d: %w", core.ErrCorruptRow, id, err)}
		}
		amount, err := core.ParseAmount(am)
		if err != nil {
			return nil, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("%w: record %d: %w", core.ErrCorruptRow, id, err)}
		}
		out = append(out, core.Record{Date: date, Category: category, Description: desc, Amount: amount})
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("iterate records: %w", err)}
	}
	return out, nil
}

// Count returns the number of stored records.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, &core.StorageError{Op: "load", Path: r.path, Err: fmt.Errorf("count records: %w", err)}
	}
	return n, nil
}

// Import appends already-dated records verbatim, in order, in one transaction.
func (r *SQLiteRepository) Import(ctx context.Context, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &core.StorageError{Op: "write", Path: r.path, Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (recorded_at, category, description, amount) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return &core.StorageError{Op: "write", Path: r.path, Err: fmt.Errorf("prepare insert: %w", err)}
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, core.FormatTimestamp(rec.Date.In(r.loc)), rec.Category, rec.Description, rec.Amount.String()); err != nil {
			return &core.StorageError{Op: "write", Path: r.path, Err: fmt.Errorf("insert record: %w", err)}
		}
	}
	if err := tx.Commit(); err != nil {
		return &core.StorageError{Op: "write", Path: r.path, Err: fmt.Errorf("commit: %w", err)}
	}

	slog.InfoContext(ctx, "Imported records into SQLite", "count", len(records), log.FieldPath, r.path)
	return nil
}
