// Package aggregate computes totals and per-category sums over records.
//
// Every function here is pure: the input slice is never modified, so a
// date filter narrows only the view used for one query.
package aggregate

import (
	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Filter returns the records whose date lies within rng, in input order.
func Filter(records []core.Record, rng core.DateRange) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if rng.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// TotalAndByCategory filters records by rng and returns the total amount and
// the per-category sums. Categories keep their first-appearance order and each
// appears once. An empty selection yields zero and an empty slice.
func TotalAndByCategory(records []core.Record, rng core.DateRange) (decimal.Decimal, []core.CategoryAmount) {
	total := decimal.Zero
	byCat := make([]core.CategoryAmount, 0)
	index := make(map[string]int)

	for _, r := range records {
		if !rng.Contains(r.Date) {
			continue
		}
		total = total.Add(r.Amount)
		i, seen := index[r.Category]
		if !seen {
			i = len(byCat)
			index[r.Category] = i
			byCat = append(byCat, core.CategoryAmount{Name: r.Category, Amount: decimal.Zero})
		}
		byCat[i].Amount = byCat[i].Amount.Add(r.Amount)
	}
	return total, byCat
}

// Summarize wraps TotalAndByCategory into a core.Summary.
func Summarize(records []core.Record, rng core.DateRange) core.Summary {
	total, byCat := TotalAndByCategory(records, rng)
	count := 0
	for _, r := range records {
		if rng.Contains(r.Date) {
			count++
		}
	}
	return core.Summary{
		Range:      rng,
		Count:      count,
		Total:      total,
		ByCategory: byCat,
	}
}
