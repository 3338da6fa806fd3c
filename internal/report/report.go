// Package report renders ledger summaries and record lists as plain text.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"expenses/internal/core"
)

// DefaultCurrency is the symbol printed before totals.
const DefaultCurrency = "$"

// Reporter writes human-readable output. It holds no ledger state.
type Reporter struct {
	out      io.Writer
	currency string
}

func New(out io.Writer, currency string) *Reporter {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Reporter{out: out, currency: currency}
}

// Logged confirms a successful append.
func (r *Reporter) Logged(core.Record) error {
	_, err := fmt.Fprintln(r.out, "Expense logged successfully!")
	return err
}

// Summary prints the total followed by the per-category table.
func (r *Reporter) Summary(s core.Summary) error {
	if _, err := fmt.Fprintf(r.out, "Total Expenses: %s\n\nExpenses by Category:\n", core.FormatMoney(r.currency, s.Total)); err != nil {
		return err
	}
	if len(s.ByCategory) == 0 {
		_, err := fmt.Fprintln(r.out, "(no expenses)")
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Category\tAmount")
	for _, c := range s.ByCategory {
		fmt.Fprintf(tw, "%s\t%s\n", c.Name, c.Amount.StringFixed(2))
	}
	return tw.Flush()
}

// Records prints every record, one per row.
func (r *Reporter) Records(records []core.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, "No expenses recorded.")
		return err
	}
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tCategory\tDescription\tAmount")
	for _, rec := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Timestamp(), rec.Category, rec.Description, rec.Amount.StringFixed(2))
	}
	return tw.Flush()
}

// Blank writes an empty separator line.
func (r *Reporter) Blank() error {
	_, err := fmt.Fprintln(r.out)
	return err
}
