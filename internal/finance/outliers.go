package finance

import (
	"math"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

// CategoryStats describes the historical amount distribution of one
// category. Mean and StdDev are in cents; StdDev is the population
// deviation (divide by n), which matches the small sample sizes a single
// household produces.
type CategoryStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stdDev"`
	Count  int     `json:"count"`
}

// CategoryStatistics computes per-category mean and standard deviation
// over the trailing 12 full calendar months ending the month before the
// reference period. The reference month itself is excluded to avoid
// lookahead bias.
//
// Excluded from the sample: template-linked rows (their amounts are fixed,
// not informative), split-excluded rows, uncategorized rows, and
// credit-card rows dated in the month immediately before the reference
// month, since those are still in flight to the current accounting period.
//
// Categories with no qualifying rows are omitted rather than reported with
// a zero mean.
func CategoryStatistics(txs []core.Transaction, reference core.YearMonth) map[int64]CategoryStats {
	windowEnd := reference.Prev()
	windowStart := windowEnd
	for i := 0; i < 11; i++ {
		windowStart = windowStart.Prev()
	}

	samples := make(map[int64][]float64)
	for _, t := range txs {
		if t.Type == core.TypeIncome || t.CategoryID == nil {
			continue
		}
		if t.RecurringTemplateID != nil || t.ExcludeFromSplit {
			continue
		}
		month := t.Date.YearMonth()
		if month.Before(windowStart) || windowEnd.Before(month) {
			continue
		}
		if t.IsCreditCard && month == windowEnd {
			// In flight to the reference accounting month, not yet a
			// completed data point for its calendar month.
			continue
		}
		samples[*t.CategoryID] = append(samples[*t.CategoryID], float64(t.Amount.Cents))
	}

	out := make(map[int64]CategoryStats, len(samples))
	for id, amounts := range samples {
		n := float64(len(amounts))
		var sum float64
		for _, a := range amounts {
			sum += a
		}
		mean := sum / n

		var sq float64
		for _, a := range amounts {
			d := a - mean
			sq += d * d
		}
		out[id] = CategoryStats{
			Mean:   mean,
			StdDev: math.Sqrt(sq / n),
			Count:  len(amounts),
		}
	}
	return out
}
