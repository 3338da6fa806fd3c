// Package app turns command-line arguments into an explicit Plan and runs it
// against a ledger service.
package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// AppendRequest asks for one new record dated at run time.
type AppendRequest struct {
	Category    string
	Description string
	Amount      decimal.Decimal
}

// QueryRequest holds the raw summary bounds as typed on the command line.
// Empty means unbounded.
type QueryRequest struct {
	Start string
	End   string
}

// Plan is the ordered list of operations a single run performs.
type Plan struct {
	Appends     []AppendRequest
	Query       QueryRequest
	ShowRecords bool
}

// DateRange parses the query bounds as days in loc. It touches nothing, so
// callers can reject a bad range before opening any storage.
func (p Plan) DateRange(loc *time.Location) (core.DateRange, error) {
	return core.ParseDateRange(p.Query.Start, p.Query.End, loc)
}

const addCommand = "add"

// Usage describes the accepted arguments.
const Usage = `usage: expenses [-from YYYY-MM-DD] [-to YYYY-MM-DD] [-no-list] [add CATEGORY DESCRIPTION AMOUNT]...

Appends each "add" group to the ledger, prints the total and per-category
summary for the optional inclusive date range, then lists every record.`

// ErrHelp is returned by ParseArgs when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// ParseArgs builds a Plan from args (without the program name).
func ParseArgs(args []string) (Plan, error) {
	var (
		plan   Plan
		noList bool
	)
	fs := flag.NewFlagSet("expenses", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&plan.Query.Start, "from", "", "inclusive start date (YYYY-MM-DD)")
	fs.StringVar(&plan.Query.End, "to", "", "inclusive end date (YYYY-MM-DD)")
	fs.BoolVar(&noList, "no-list", false, "skip the record list")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Plan{}, ErrHelp
		}
		return Plan{}, &core.ValidationError{Field: "flags", Value: strings.Join(args, " "), Err: fmt.Errorf("%w: %v", core.ErrInvalidArgument, err)}
	}
	plan.ShowRecords = !noList

	rest := fs.Args()
	for len(rest) > 0 {
		if rest[0] != addCommand {
			return Plan{}, &core.ValidationError{Field: "command", Value: rest[0], Err: core.ErrInvalidArgument}
		}
		if len(rest) < 4 {
			return Plan{}, &core.ValidationError{
				Field: addCommand,
				Value: strings.Join(rest, " "),
				Err:   fmt.Errorf("%w: want CATEGORY DESCRIPTION AMOUNT", core.ErrInvalidArgument),
			}
		}
		amount, err := core.ParseAmount(rest[3])
		if err != nil {
			return Plan{}, err
		}
		plan.Appends = append(plan.Appends, AppendRequest{
			Category:    rest[1],
			Description: rest[2],
			Amount:      amount,
		})
		rest = rest[4:]
	}
	return plan, nil
}
