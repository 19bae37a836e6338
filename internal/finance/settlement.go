package finance

import (
	"strings"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

// balanceEpsilon is one cent: balances within it are considered settled.
const balanceEpsilon = 1.0

type (
	// SettlementRow is one person's position for the period. Balance is
	// in cents; positive means the person is owed money.
	SettlementRow struct {
		PersonShare
		PaidAmount      core.Money `json:"paidAmount"`
		FairShareAmount float64    `json:"fairShareAmount"` // cents
		Balance         float64    `json:"balance"`         // cents
	}

	// Transfer is a settlement instruction between two people.
	Transfer struct {
		FromID int64   `json:"fromId"`
		ToID   int64   `json:"toId"`
		Amount float64 `json:"amount"` // cents
	}
)

// SettlementData computes each person's paid amount, fair share and
// balance. txs must already be the split-eligible set and
// totalForSplit its total, so that balances sum to ~zero whenever every
// payer appears in the share list. Payments by ids missing from the share
// list are silently dropped, which breaks the zero-sum invariant; that
// dangling-reference case is a data-integrity problem upstream, not
// something this calculator repairs.
func SettlementData(shares []PersonShare, txs []core.Transaction, totalForSplit core.Money) []SettlementRow {
	paid := make(map[int64]int64, len(shares))
	for _, t := range txs {
		if t.Type == core.TypeIncome {
			continue
		}
		paid[t.PaidBy] += t.Amount.Cents
	}

	out := make([]SettlementRow, len(shares))
	for i, s := range shares {
		fair := float64(totalForSplit.Cents) * s.SharePercent
		p := paid[s.ID]
		out[i] = SettlementRow{
			PersonShare:     s,
			PaidAmount:      core.Money{Cents: p},
			FairShareAmount: fair,
			Balance:         float64(p) - fair,
		}
	}
	return out
}

// Transfers pairs every debtor against every creditor and reports the
// debtor's full outstanding balance toward each. With two people this is
// at most one instruction. For larger households the pairing is a plain
// cartesian product, not a minimum-transfer netting; it can emit more
// instructions than strictly necessary.
func Transfers(rows []SettlementRow) []Transfer {
	var debtors, creditors []SettlementRow
	for _, r := range rows {
		switch {
		case r.Balance < -balanceEpsilon:
			debtors = append(debtors, r)
		case r.Balance > balanceEpsilon:
			creditors = append(creditors, r)
		}
	}

	var out []Transfer
	for _, d := range debtors {
		for _, c := range creditors {
			out = append(out, Transfer{
				FromID: d.ID,
				ToID:   c.ID,
				Amount: -d.Balance,
			})
		}
	}
	return out
}

// AutoExcludeRule builds the category-name predicate used to keep
// wealth-building categories out of fairness splitting. Matching is
// case-insensitive substring over the configured keywords.
func AutoExcludeRule(keywords []string) func(categoryName string) bool {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return func(categoryName string) bool {
		name := strings.ToLower(categoryName)
		for _, k := range lowered {
			if strings.Contains(name, k) {
				return true
			}
		}
		return false
	}
}
