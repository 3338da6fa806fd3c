package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/report"
)

// Service is the ledger surface a run needs.
type Service interface {
	Record(ctx context.Context, category, description string, amount decimal.Decimal) (core.Record, error)
	Records(ctx context.Context) ([]core.Record, error)
	Summarize(ctx context.Context, rng core.DateRange) (core.Summary, error)
}

// Runner executes plans. It keeps no state between runs.
type Runner struct {
	svc      Service
	reporter *report.Reporter
	loc      *time.Location
}

func NewRunner(svc Service, reporter *report.Reporter, loc *time.Location) *Runner {
	if loc == nil {
		loc = time.Local
	}
	return &Runner{svc: svc, reporter: reporter, loc: loc}
}

// Run validates the date range before touching the ledger, performs every
// append, prints the summary over the range and finally lists all records.
func (r *Runner) Run(ctx context.Context, plan Plan) error {
	rng, err := plan.DateRange(r.loc)
	if err != nil {
		return err
	}

	for _, req := range plan.Appends {
		rec, err := r.svc.Record(ctx, req.Category, req.Description, req.Amount)
		if err != nil {
			return err
		}
		if err := r.reporter.Logged(rec); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	sum, err := r.svc.Summarize(ctx, rng)
	if err != nil {
		return err
	}
	if len(plan.Appends) > 0 {
		if err := r.reporter.Blank(); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if err := r.reporter.Summary(sum); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !plan.ShowRecords {
		return nil
	}
	records, err := r.svc.Records(ctx)
	if err != nil {
		return err
	}
	if err := r.reporter.Blank(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := r.reporter.Records(records); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
