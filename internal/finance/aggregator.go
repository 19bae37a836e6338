// Package finance holds the pure calculators that turn an assembled
// transaction list into dashboard aggregates: income totals, category
// summaries, proportional settlement and outlier statistics. Nothing in
// here touches storage or the clock.
package finance

import (
	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

type (
	// PersonShare is a person plus their proportional share of the
	// household income (0..1).
	PersonShare struct {
		core.Person
		SharePercent float64 `json:"sharePercent"`
	}

	// CategorySummary is per-category spend against total income.
	CategorySummary struct {
		core.Category
		TotalSpent      core.Money `json:"totalSpent"`
		PercentOfIncome float64    `json:"realPercentOfIncome"`
	}

	// IncomeBreakdown partitions income transactions by direction.
	IncomeBreakdown struct {
		TotalIncrement core.Money `json:"totalIncomeIncrement"`
		TotalDecrement core.Money `json:"totalIncomeDecrement"`
		Net            int64      `json:"netIncome"` // cents, may be negative
	}
)

// TotalBaseIncome sums each person's configured monthly income.
func TotalBaseIncome(people []core.Person) core.Money {
	var total int64
	for _, p := range people {
		total += p.Income.Cents
	}
	return core.Money{Cents: total}
}

// BreakdownIncome partitions income-typed transactions by IsIncrement.
// Non-income transactions are ignored. Net = increment - decrement holds
// by construction, including when either side is zero.
func BreakdownIncome(txs []core.Transaction) IncomeBreakdown {
	var b IncomeBreakdown
	for _, t := range txs {
		if t.Type != core.TypeIncome {
			continue
		}
		if t.IsIncrement {
			b.TotalIncrement.Cents += t.Amount.Cents
		} else {
			b.TotalDecrement.Cents += t.Amount.Cents
		}
	}
	b.Net = b.TotalIncrement.Cents - b.TotalDecrement.Cents
	return b
}

// EffectiveIncome is the settlement basis: base income adjusted by the
// period's income transactions. Never negative amounts are enforced here;
// a decrement-heavy month can legitimately push this below base.
func EffectiveIncome(people []core.Person, txs []core.Transaction) int64 {
	return TotalBaseIncome(people).Cents + BreakdownIncome(txs).Net
}

// TotalExpenses sums every non-income transaction, split-excluded rows
// included. Dashboards show this as "total spent".
func TotalExpenses(txs []core.Transaction) core.Money {
	var total int64
	for _, t := range txs {
		if t.Type == core.TypeIncome {
			continue
		}
		total += t.Amount.Cents
	}
	return core.Money{Cents: total}
}

// SplitEligible filters down to the expenses that count toward fairness
// splitting: non-income, not explicitly excluded, and not in a category
// the auto-exclude rule rejects. The same filtered set must feed both the
// for-split total and the settlement rows or the zero-sum invariant breaks.
func SplitEligible(txs []core.Transaction, categories []core.Category, autoExclude func(categoryName string) bool) []core.Transaction {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	var out []core.Transaction
	for _, t := range txs {
		if t.Type == core.TypeIncome || t.ExcludeFromSplit {
			continue
		}
		if t.CategoryID != nil && autoExclude != nil && autoExclude(names[*t.CategoryID]) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Shares computes each person's income share against a given total.
// A zero or negative total yields zero shares for everyone, never a
// division by zero.
func Shares(people []core.Person, totalIncome core.Money) []PersonShare {
	out := make([]PersonShare, len(people))
	for i, p := range people {
		share := 0.0
		if totalIncome.Cents > 0 {
			share = float64(p.Income.Cents) / float64(totalIncome.Cents)
		}
		out[i] = PersonShare{Person: p, SharePercent: share}
	}
	return out
}

// SharesWithIncomeTransactions computes shares over effective incomes:
// each person's base income plus their signed income transactions for the
// period. The zero-total edge case again produces all-zero shares.
func SharesWithIncomeTransactions(people []core.Person, txs []core.Transaction) []PersonShare {
	effective := make(map[int64]int64, len(people))
	for _, p := range people {
		effective[p.ID] = p.Income.Cents
	}
	for _, t := range txs {
		if t.Type != core.TypeIncome {
			continue
		}
		if _, ok := effective[t.PaidBy]; !ok {
			continue
		}
		if t.IsIncrement {
			effective[t.PaidBy] += t.Amount.Cents
		} else {
			effective[t.PaidBy] -= t.Amount.Cents
		}
	}

	var total int64
	for _, p := range people {
		total += effective[p.ID]
	}

	out := make([]PersonShare, len(people))
	for i, p := range people {
		share := 0.0
		if total > 0 {
			share = float64(effective[p.ID]) / float64(total)
		}
		out[i] = PersonShare{Person: p, SharePercent: share}
	}
	return out
}

// CategorySummaries totals expense spend per category. Income rows never
// contribute even when malformed data gives them a category id. Input
// order is preserved; callers re-sort for display.
func CategorySummaries(categories []core.Category, txs []core.Transaction, totalIncome core.Money) []CategorySummary {
	spent := make(map[int64]int64, len(categories))
	for _, t := range txs {
		if t.Type == core.TypeIncome || t.CategoryID == nil {
			continue
		}
		spent[*t.CategoryID] += t.Amount.Cents
	}

	out := make([]CategorySummary, len(categories))
	for i, c := range categories {
		total := core.Money{Cents: spent[c.ID]}
		percent := 0.0
		if totalIncome.Cents > 0 {
			percent = float64(total.Cents) / float64(totalIncome.Cents) * 100
		}
		out[i] = CategorySummary{Category: c, TotalSpent: total, PercentOfIncome: percent}
	}
	return out
}
