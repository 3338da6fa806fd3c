package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// Summary is the result of aggregating a filtered set of records.
type Summary struct {
	Range      DateRange
	Count      int
	Total      decimal.Decimal
	ByCategory []CategoryAmount
}

// Category returns the sum for name and whether it appeared in the summary.
func (s Summary) Category(name string) (decimal.Decimal, bool) {
	for _, c := range s.ByCategory {
		if c.Name == name {
			return c.Amount, true
		}
	}
	return decimal.Zero, false
}
