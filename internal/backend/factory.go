package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/ledger"
	"expenses/internal/ledger/csvfile"
	"expenses/internal/ledger/memory"
	"expenses/internal/log"
	gsheet "expenses/internal/sheets/google"
	"expenses/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch config.Type {
	case CSVBackend:
		result, err = f.createCSVBackend(config)
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		result, err = f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Initialized backend", log.FieldBackend, config.Type.String())
	result.Publishers = f.createPublishers(ctx, config)
	return result, nil
}

func (f *DefaultFactory) storeLogger() *slog.Logger {
	return f.logger.WithComponent(log.ComponentStorage).Logger
}

func (f *DefaultFactory) csvOptions(config Config) []csvfile.Option {
	opts := []csvfile.Option{csvfile.WithLogger(f.storeLogger())}
	if config.Location != nil {
		opts = append(opts, csvfile.WithLocation(config.Location))
	}
	return opts
}

func (f *DefaultFactory) createCSVBackend(config Config) (*BackendResult, error) {
	store, err := csvfile.Open(config.LedgerPath, f.csvOptions(config)...)
	if err != nil {
		return nil, fmt.Errorf("open csv ledger: %w", err)
	}

	f.storeLogger().Info("Opened CSV ledger", log.FieldPath, store.Path())

	return &BackendResult{Backend: store}, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, config.Location)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	if err := f.importCSV(ctx, sqliteRepo, config); err != nil {
		sqliteRepo.Close()
		return nil, err
	}

	f.storeLogger().Info("Opened SQLite ledger", log.FieldPath, config.SQLiteDBPath)

	return &BackendResult{
		Backend: sqliteRepo,
		Cleanup: sqliteRepo.Close,
	}, nil
}

// importCSV seeds an empty database from an existing CSV ledger so switching
// backends keeps history. A missing CSV file is not an error.
func (f *DefaultFactory) importCSV(ctx context.Context, repo *storage.SQLiteRepository, config Config) error {
	if config.LedgerPath == "" {
		return nil
	}
	info, err := os.Stat(config.LedgerPath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat csv ledger: %w", err)
	}

	n, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	store, err := csvfile.Open(config.LedgerPath, f.csvOptions(config)...)
	if err != nil {
		return fmt.Errorf("open csv ledger for import: %w", err)
	}
	records := store.All()
	if len(records) == 0 {
		return nil
	}
	if err := repo.Import(ctx, records); err != nil {
		return fmt.Errorf("import csv ledger: %w", err)
	}
	f.storeLogger().Info("Imported CSV ledger into SQLite", log.FieldPath, config.LedgerPath, "records", len(records))
	return nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	return &BackendResult{
		Backend: memory.New().WithLocation(config.Location),
		Cleanup: nil, // No cleanup needed for memory backend
	}, nil
}

// createPublishers builds the optional sinks. A sink that cannot be reached is
// logged and skipped; the ledger works without it.
func (f *DefaultFactory) createPublishers(ctx context.Context, config Config) []ledger.RecordPublisher {
	var pubs []ledger.RecordPublisher

	if config.AMQPURL != "" {
		amqpLogger := f.logger.WithComponent(log.ComponentAMQP)
		amqpClient, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			amqpLogger.Warn("Failed to initialize AMQP client, continuing without events",
				log.NewFields().WithError(err).ToSlice()...)
		} else {
			amqpLogger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			pubs = append(pubs, amqpClient)
		}
	}

	if config.GoogleSpreadsheetID != "" {
		sheetsLogger := f.logger.WithComponent(log.ComponentSheets)
		sheetsClient, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:      config.GoogleSpreadsheetID,
			SheetName:          config.GoogleSheetName,
			ServiceAccountJSON: config.GoogleServiceAccountJSON,
			ServiceAccountFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			sheetsLogger.Warn("Failed to initialize Google Sheets mirror, continuing without it",
				log.NewFields().WithError(err).ToSlice()...)
		} else {
			if err := sheetsClient.EnsureHeader(ctx); err != nil {
				sheetsLogger.Warn("Failed to prepare sheet header",
					log.NewFields().WithError(err).ToSlice()...)
			}
			sheetsLogger.Info("Initialized Google Sheets mirror", "sheet", sheetsClient.String())
			pubs = append(pubs, sheetsClient)
		}
	}

	return pubs
}
