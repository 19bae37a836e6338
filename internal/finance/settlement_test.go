package finance

import (
	"math"
	"testing"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

func TestSettlementData(t *testing.T) {
	people := []core.Person{person(1, "Ana", 600000), person(2, "Bea", 400000)}
	shares := Shares(people, TotalBaseIncome(people))

	// Split-eligible expenses totalling 6500.00: Ana paid 4800.00, Bea 1700.00.
	txs := []core.Transaction{
		expense(1, 480000, nil),
		expense(2, 170000, nil),
	}
	total := TotalExpenses(txs)

	rows := SettlementData(shares, txs, total)

	// Ana's fair share is 60% of 6500.00 = 3900.00; she paid 4800.00.
	if math.Abs(rows[0].Balance-90000) > 1 {
		t.Errorf("Ana balance = %f, want ~90000", rows[0].Balance)
	}
	// Bea's fair share is 40% of 6500.00 = 2600.00; she paid 1700.00.
	if math.Abs(rows[1].Balance+90000) > 1 {
		t.Errorf("Bea balance = %f, want ~-90000", rows[1].Balance)
	}
	if rows[0].PaidAmount.Cents != 480000 || rows[1].PaidAmount.Cents != 170000 {
		t.Error("paid amounts wrong")
	}
}

// Balances must sum to within one cent of zero whenever the settlement is
// fed the same split-eligible set its total was computed from.
func TestSettlementZeroSum(t *testing.T) {
	cases := []struct {
		name    string
		incomes []int64
		paid    []int64
	}{
		{"even split", []int64{500000, 500000}, []int64{123456, 654321}},
		{"skewed incomes", []int64{812345, 187655}, []int64{99999, 300001}},
		{"one pays everything", []int64{600000, 400000}, []int64{777777, 0}},
		{"three people", []int64{300000, 300000, 400000}, []int64{100000, 200000, 50000}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var people []core.Person
			var txs []core.Transaction
			for i, inc := range tc.incomes {
				id := int64(i + 1)
				people = append(people, person(id, "p", inc))
				if tc.paid[i] > 0 {
					txs = append(txs, expense(id, tc.paid[i], nil))
				}
			}

			shares := Shares(people, TotalBaseIncome(people))
			rows := SettlementData(shares, txs, TotalExpenses(txs))

			var sum float64
			for _, r := range rows {
				sum += r.Balance
			}
			if math.Abs(sum) > 1.0 {
				t.Errorf("balances sum to %f, want within one cent of zero", sum)
			}
		})
	}
}

func TestTransfers(t *testing.T) {
	t.Run("two person household yields one instruction", func(t *testing.T) {
		rows := []SettlementRow{
			{PersonShare: PersonShare{Person: person(1, "Ana", 0)}, Balance: 90000},
			{PersonShare: PersonShare{Person: person(2, "Bea", 0)}, Balance: -90000},
		}
		transfers := Transfers(rows)
		if len(transfers) != 1 {
			t.Fatalf("got %d transfers, want 1", len(transfers))
		}
		tr := transfers[0]
		if tr.FromID != 2 || tr.ToID != 1 {
			t.Errorf("transfer direction wrong: %+v", tr)
		}
		if math.Abs(tr.Amount-90000) > 1e-9 {
			t.Errorf("transfer amount = %f", tr.Amount)
		}
	})

	t.Run("settled balances yield no transfers", func(t *testing.T) {
		rows := []SettlementRow{
			{PersonShare: PersonShare{Person: person(1, "Ana", 0)}, Balance: 0.5},
			{PersonShare: PersonShare{Person: person(2, "Bea", 0)}, Balance: -0.5},
		}
		if got := Transfers(rows); len(got) != 0 {
			t.Errorf("got %d transfers, want 0 within epsilon", len(got))
		}
	})

	t.Run("multiple debtors pair against every creditor", func(t *testing.T) {
		rows := []SettlementRow{
			{PersonShare: PersonShare{Person: person(1, "a", 0)}, Balance: 50000},
			{PersonShare: PersonShare{Person: person(2, "b", 0)}, Balance: -20000},
			{PersonShare: PersonShare{Person: person(3, "c", 0)}, Balance: -30000},
		}
		if got := Transfers(rows); len(got) != 2 {
			t.Errorf("got %d transfers, want 2", len(got))
		}
	})
}

func TestAutoExcludeRule(t *testing.T) {
	rule := AutoExcludeRule([]string{"invest", " Pension "})

	tests := []struct {
		name string
		want bool
	}{
		{"Investments", true},
		{"INVESTIMENTO", true},
		{"pension fund", true},
		{"Groceries", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := rule(tt.name); got != tt.want {
			t.Errorf("rule(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	none := AutoExcludeRule(nil)
	if none("Investments") {
		t.Error("empty keyword list must exclude nothing")
	}
}
