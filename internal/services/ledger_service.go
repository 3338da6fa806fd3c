package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/ledger"
	"expenses/internal/log"
)

// DefaultPublishTimeout bounds the publish fan-out after an append.
const DefaultPublishTimeout = 5 * time.Second

// LedgerService orchestrates record operations across the ledger and its
// optional publishers.
type LedgerService struct {
	ledger     ledger.Ledger
	publishers []ledger.RecordPublisher
	timeout    time.Duration
	logger     *log.Logger
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithPublishers registers sinks notified after every successful append.
// Nil entries are ignored.
func WithPublishers(p ...ledger.RecordPublisher) Option {
	return func(s *LedgerService) {
		for _, pub := range p {
			if pub != nil {
				s.publishers = append(s.publishers, pub)
			}
		}
	}
}

// WithPublishTimeout overrides DefaultPublishTimeout.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *LedgerService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentLedger)
		}
	}
}

func NewLedgerService(l ledger.Ledger, opts ...Option) *LedgerService {
	s := &LedgerService{
		ledger:  l,
		timeout: DefaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		cfg := log.DefaultConfig()
		cfg.Component = log.ComponentLedger
		s.logger = log.New(cfg)
	}
	return s
}

// Record appends a new record and then notifies every publisher. The local
// append is authoritative: publish failures are logged and never returned.
func (s *LedgerService) Record(ctx context.Context, category, description string, amount decimal.Decimal) (core.Record, error) {
	if s.ledger == nil {
		return core.Record{}, errors.New("ledger not initialized")
	}
	r, err := s.ledger.Append(ctx, category, description, amount)
	if err != nil {
		return core.Record{}, fmt.Errorf("append record: %w", err)
	}
	s.logger.DebugContext(ctx, "Record appended",
		log.NewFields().WithOperation(log.OpAppend).WithRecord(r).ToSlice()...)

	s.publish(ctx, r)
	return r, nil
}

func (s *LedgerService) publish(ctx context.Context, r core.Record) {
	if len(s.publishers) == 0 {
		return
	}
	pubCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var g errgroup.Group
	for _, p := range s.publishers {
		g.Go(func() error {
			if err := p.PublishRecord(pubCtx, r); err != nil {
				// Don't fail the append - the record is saved locally
				s.logger.WarnContext(ctx, "Failed to publish record",
					append(log.NewFields().WithOperation(log.OpPublish).WithError(err).ToSlice(),
						log.FieldPublisher, publisherName(p))...)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Records returns every stored record in insertion order.
func (s *LedgerService) Records(ctx context.Context) ([]core.Record, error) {
	if s.ledger == nil {
		return nil, errors.New("ledger not initialized")
	}
	records, err := s.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	s.logger.DebugContext(ctx, "Records listed",
		log.FieldOperation, log.OpList,
		log.FieldRecords, len(records))
	return records, nil
}

// Summarize totals the records inside rng. The ledger itself is left untouched.
func (s *LedgerService) Summarize(ctx context.Context, rng core.DateRange) (core.Summary, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return core.Summary{}, err
	}
	sum := aggregate.Summarize(records, rng)
	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldOperation, log.OpSummarize,
		log.FieldRange, rng.String(),
		log.FieldRecords, sum.Count)
	return sum, nil
}

// Close closes every publisher holding a connection.
func (s *LedgerService) Close() error {
	var errs []error
	for _, p := range s.publishers {
		c, ok := p.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", publisherName(p), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %w", errors.Join(errs...))
	}
	return nil
}

func publisherName(p ledger.RecordPublisher) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", p)
}
