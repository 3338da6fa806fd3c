// Package ledger defines the ports shared by every record store and sink.
package ledger

import (
	"context"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

// Ports for record stores and outbound adapters.
type (
	RecordWriter interface {
		// Append dates a new record at the current time and persists it.
		Append(ctx context.Context, category, description string, amount decimal.Decimal) (core.Record, error)
	}

	// RecordLister returns every stored record, oldest first.
	RecordLister interface {
		List(ctx context.Context) ([]core.Record, error)
	}

	// Ledger is a complete record store.
	Ledger interface {
		RecordWriter
		RecordLister
	}

	// RecordPublisher is notified after a record has been persisted.
	RecordPublisher interface {
		PublishRecord(ctx context.Context, r core.Record) error
	}
)
