// Package recurring decides what virtual transactions a recurring
// template contributes to a given accounting month.
package recurring

import (
	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

// virtualIDBase spaces template ids so that (templateID, year, month)
// triples never collide for template ids below 10000.
const virtualIDBase = 100000

// VirtualID derives the deterministic negative id for a template instance
// in a period: -(templateID*100000 + year*100 + month). Stable across
// repeated reads and disjoint from the positive ids storage hands out.
func VirtualID(templateID int64, period core.YearMonth) int64 {
	return -(templateID*virtualIDBase + int64(period.Year)*100 + int64(period.Month))
}

// AppliesTo reports whether a template contributes to the given accounting
// month. Templates never appear in months before their creation month; a
// zero CreatedAt means legacy data and applies everywhere.
func AppliesTo(t core.RecurringTemplate, period core.YearMonth) bool {
	if t.CreatedAt.IsZero() {
		return true
	}
	created := core.YearMonth{Year: t.CreatedAt.UTC().Year(), Month: int(t.CreatedAt.UTC().Month())}
	return !period.Before(created)
}

// Materialize synthesizes the virtual transaction a template produces for
// the target accounting month.
//
// A plain template is dated at its day-of-month inside the target month,
// clamped to the last valid day. A credit-card template posts one month
// deferred, so its charge date is placed in the prior calendar month (the
// inverse of the accounting-month deferral): the row dated in month M-1 is
// the one that counts for month M.
//
// The transaction inherits every economic field from the template.
// IsForecast is always false: template rows are expected, not speculative.
func Materialize(t core.RecurringTemplate, period core.YearMonth) core.Transaction {
	chargeMonth := period
	if t.IsCreditCard {
		chargeMonth = period.Prev()
	}
	day := t.DayOfMonth
	if last := core.DaysInMonth(chargeMonth.Year, chargeMonth.Month); day > last {
		day = last
	}
	chargeDate := core.NewDate(chargeMonth.Year, chargeMonth.Month, day)

	templateID := t.ID
	return core.Transaction{
		ID:                  VirtualID(t.ID, period),
		HouseholdID:         t.HouseholdID,
		Source:              core.SourceRecurring,
		Description:         t.Description,
		Amount:              t.Amount,
		CategoryID:          t.CategoryID,
		PaidBy:              t.PaidBy,
		Date:                chargeDate,
		Type:                t.Type,
		IsIncrement:         t.IsIncrement,
		IsCreditCard:        t.IsCreditCard,
		ExcludeFromSplit:    t.ExcludeFromSplit,
		IsForecast:          false,
		RecurringTemplateID: &templateID,
		// Deterministic so repeated reads of the same month sort
		// identically.
		CreatedAt: chargeDate.Time,
	}
}

// ForMonth materializes every applicable active template for a period.
func ForMonth(templates []core.RecurringTemplate, period core.YearMonth) []core.Transaction {
	var out []core.Transaction
	for _, t := range templates {
		if !t.IsActive || !AppliesTo(t, period) {
			continue
		}
		out = append(out, Materialize(t, period))
	}
	return out
}
