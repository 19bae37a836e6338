package finance

import (
	"math"
	"testing"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

func person(id int64, name string, incomeCents int64) core.Person {
	return core.Person{ID: id, HouseholdID: 1, Name: name, Income: core.Money{Cents: incomeCents}}
}

func expense(paidBy, amountCents int64, categoryID *int64) core.Transaction {
	return core.Transaction{
		Source:      core.SourceStored,
		Description: "expense",
		Amount:      core.Money{Cents: amountCents},
		CategoryID:  categoryID,
		PaidBy:      paidBy,
		Date:        core.NewDate(2024, 3, 10),
		Type:        core.TypeExpense,
	}
}

func income(paidBy, amountCents int64, increment bool) core.Transaction {
	return core.Transaction{
		Source:      core.SourceStored,
		Description: "income adjustment",
		Amount:      core.Money{Cents: amountCents},
		PaidBy:      paidBy,
		Date:        core.NewDate(2024, 3, 10),
		Type:        core.TypeIncome,
		IsIncrement: increment,
	}
}

func TestBreakdownIncome(t *testing.T) {
	txs := []core.Transaction{
		income(1, 50000, true),
		income(2, 20000, true),
		income(1, 10000, false),
		expense(1, 9999, nil), // ignored
	}

	b := BreakdownIncome(txs)
	if b.TotalIncrement.Cents != 70000 {
		t.Errorf("TotalIncrement = %d", b.TotalIncrement.Cents)
	}
	if b.TotalDecrement.Cents != 10000 {
		t.Errorf("TotalDecrement = %d", b.TotalDecrement.Cents)
	}
	if b.Net != 60000 {
		t.Errorf("Net = %d", b.Net)
	}
	if b.Net != b.TotalIncrement.Cents-b.TotalDecrement.Cents {
		t.Error("additivity broken")
	}
}

func TestBreakdownIncomeNetCanGoNegative(t *testing.T) {
	b := BreakdownIncome([]core.Transaction{income(1, 30000, false)})
	if b.Net != -30000 {
		t.Errorf("Net = %d, want -30000", b.Net)
	}
}

func TestEffectiveIncome(t *testing.T) {
	people := []core.Person{person(1, "Ana", 600000), person(2, "Bea", 400000)}
	txs := []core.Transaction{income(1, 50000, true), income(2, 20000, false)}

	if got := EffectiveIncome(people, txs); got != 1030000 {
		t.Errorf("EffectiveIncome = %d, want 1030000", got)
	}
	if got := EffectiveIncome(people, nil); got != 1000000 {
		t.Errorf("EffectiveIncome with no adjustments = %d, want 1000000", got)
	}
}

func TestTotalExpensesIncludesSplitExcluded(t *testing.T) {
	excluded := expense(1, 5000, nil)
	excluded.ExcludeFromSplit = true

	total := TotalExpenses([]core.Transaction{
		expense(1, 10000, nil),
		excluded,
		income(1, 99999, true), // income never counts as spend
	})
	if total.Cents != 15000 {
		t.Errorf("TotalExpenses = %d, want 15000", total.Cents)
	}
}

func TestSplitEligible(t *testing.T) {
	investID := int64(9)
	foodID := int64(1)
	categories := []core.Category{
		{ID: foodID, Name: "Food"},
		{ID: investID, Name: "Investments"},
	}
	rule := AutoExcludeRule([]string{"invest"})

	flagged := expense(1, 3000, &foodID)
	flagged.ExcludeFromSplit = true

	txs := []core.Transaction{
		expense(1, 10000, &foodID),      // kept
		expense(2, 20000, &investID),    // auto-excluded by category
		flagged,                         // explicitly excluded
		expense(2, 4000, nil),           // uncategorized but eligible
		income(1, 50000, true),          // income never splits
	}

	got := SplitEligible(txs, categories, rule)
	if len(got) != 2 {
		t.Fatalf("SplitEligible returned %d rows, want 2", len(got))
	}
	if got[0].Amount.Cents != 10000 || got[1].Amount.Cents != 4000 {
		t.Errorf("wrong rows kept: %v", got)
	}
}

func TestShares(t *testing.T) {
	people := []core.Person{person(1, "Ana", 600000), person(2, "Bea", 400000)}

	shares := Shares(people, core.Money{Cents: 1000000})
	if math.Abs(shares[0].SharePercent-0.6) > 1e-9 {
		t.Errorf("share[0] = %f", shares[0].SharePercent)
	}
	if math.Abs(shares[1].SharePercent-0.4) > 1e-9 {
		t.Errorf("share[1] = %f", shares[1].SharePercent)
	}
}

func TestSharesZeroIncomeYieldsZeroShares(t *testing.T) {
	people := []core.Person{person(1, "Ana", 0), person(2, "Bea", 0)}
	for _, s := range Shares(people, core.Money{Cents: 0}) {
		if s.SharePercent != 0 {
			t.Errorf("share for %s = %f, want 0", s.Name, s.SharePercent)
		}
	}
}

func TestSharesWithIncomeTransactions(t *testing.T) {
	people := []core.Person{person(1, "Ana", 600000), person(2, "Bea", 400000)}
	txs := []core.Transaction{
		income(1, 100000, true),  // Ana: 7000.00
		income(2, 100000, false), // Bea: 3000.00
		income(99, 500000, true), // unknown payer, dropped
	}

	shares := SharesWithIncomeTransactions(people, txs)
	if math.Abs(shares[0].SharePercent-0.7) > 1e-9 {
		t.Errorf("Ana share = %f, want 0.7", shares[0].SharePercent)
	}
	if math.Abs(shares[1].SharePercent-0.3) > 1e-9 {
		t.Errorf("Bea share = %f, want 0.3", shares[1].SharePercent)
	}
}

func TestCategorySummaries(t *testing.T) {
	foodID, funID := int64(1), int64(2)
	categories := []core.Category{
		{ID: foodID, Name: "Food", TargetPercent: 30},
		{ID: funID, Name: "Fun", TargetPercent: 10},
	}

	badIncome := income(1, 77777, true)
	badIncome.CategoryID = &foodID // malformed, must still be ignored

	txs := []core.Transaction{
		expense(1, 30000, &foodID),
		expense(2, 20000, &foodID),
		expense(1, 10000, &funID),
		badIncome,
	}

	out := CategorySummaries(categories, txs, core.Money{Cents: 1000000})
	if out[0].TotalSpent.Cents != 50000 {
		t.Errorf("Food spent = %d, want 50000", out[0].TotalSpent.Cents)
	}
	if math.Abs(out[0].PercentOfIncome-5.0) > 1e-9 {
		t.Errorf("Food percent = %f, want 5", out[0].PercentOfIncome)
	}
	if out[1].TotalSpent.Cents != 10000 {
		t.Errorf("Fun spent = %d, want 10000", out[1].TotalSpent.Cents)
	}

	// Zero income never divides by zero.
	safe := CategorySummaries(categories, txs, core.Money{})
	if safe[0].PercentOfIncome != 0 {
		t.Errorf("percent with zero income = %f", safe[0].PercentOfIncome)
	}
}
