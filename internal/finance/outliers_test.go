package finance

import (
	"math"
	"testing"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

func datedExpense(date core.Date, amountCents int64, categoryID int64) core.Transaction {
	id := categoryID
	return core.Transaction{
		Source:      core.SourceStored,
		Description: "spend",
		Amount:      core.Money{Cents: amountCents},
		CategoryID:  &id,
		PaidBy:      1,
		Date:        date,
		Type:        core.TypeExpense,
	}
}

func TestCategoryStatistics(t *testing.T) {
	reference := core.YearMonth{Year: 2024, Month: 6}

	txs := []core.Transaction{
		datedExpense(core.NewDate(2024, 3, 10), 10000, 1),
		datedExpense(core.NewDate(2024, 4, 10), 20000, 1),
		datedExpense(core.NewDate(2024, 5, 10), 30000, 1),
	}

	stats := CategoryStatistics(txs, reference)
	st, ok := stats[1]
	if !ok {
		t.Fatal("category 1 missing from stats")
	}
	if st.Count != 3 {
		t.Errorf("Count = %d, want 3", st.Count)
	}
	if math.Abs(st.Mean-20000) > 1e-9 {
		t.Errorf("Mean = %f, want 20000", st.Mean)
	}
	// Population deviation of {10000, 20000, 30000}.
	want := math.Sqrt((1e8 + 0 + 1e8) / 3)
	if math.Abs(st.StdDev-want) > 1e-6 {
		t.Errorf("StdDev = %f, want %f", st.StdDev, want)
	}
}

func TestCategoryStatisticsWindow(t *testing.T) {
	reference := core.YearMonth{Year: 2024, Month: 6}

	txs := []core.Transaction{
		datedExpense(core.NewDate(2024, 6, 1), 10000, 1),  // reference month itself, out
		datedExpense(core.NewDate(2023, 5, 31), 10000, 1), // before the window, out
		datedExpense(core.NewDate(2023, 6, 1), 20000, 1),  // first day of window, in
		datedExpense(core.NewDate(2024, 5, 31), 40000, 1), // last day of window, in
	}

	stats := CategoryStatistics(txs, reference)
	st := stats[1]
	if st.Count != 2 {
		t.Fatalf("Count = %d, want 2 (window is 2023-06 through 2024-05)", st.Count)
	}
	if math.Abs(st.Mean-30000) > 1e-9 {
		t.Errorf("Mean = %f, want 30000", st.Mean)
	}
}

func TestCategoryStatisticsExclusions(t *testing.T) {
	reference := core.YearMonth{Year: 2024, Month: 6}

	tplID := int64(4)
	linked := datedExpense(core.NewDate(2024, 3, 10), 10000, 1)
	linked.RecurringTemplateID = &tplID

	excluded := datedExpense(core.NewDate(2024, 3, 11), 10000, 1)
	excluded.ExcludeFromSplit = true

	uncategorized := datedExpense(core.NewDate(2024, 3, 12), 10000, 1)
	uncategorized.CategoryID = nil

	// Credit-card row dated in the month before the reference: still in
	// flight to the reference accounting month.
	inFlight := datedExpense(core.NewDate(2024, 5, 20), 10000, 1)
	inFlight.IsCreditCard = true

	// Credit-card row dated earlier in the window is a completed sample.
	settledCC := datedExpense(core.NewDate(2024, 2, 20), 50000, 1)
	settledCC.IsCreditCard = true

	incomeRow := core.Transaction{
		Type:   core.TypeIncome,
		Amount: core.Money{Cents: 10000},
		PaidBy: 1,
		Date:   core.NewDate(2024, 3, 13),
	}

	stats := CategoryStatistics([]core.Transaction{
		linked, excluded, uncategorized, inFlight, settledCC, incomeRow,
	}, reference)

	st := stats[1]
	if st.Count != 1 {
		t.Fatalf("Count = %d, want only the settled credit-card row", st.Count)
	}
	if st.Mean != 50000 {
		t.Errorf("Mean = %f, want 50000", st.Mean)
	}
	if st.StdDev != 0 {
		t.Errorf("single sample StdDev = %f, want 0", st.StdDev)
	}
}

func TestCategoryStatisticsOmitsEmptyCategories(t *testing.T) {
	stats := CategoryStatistics(nil, core.YearMonth{Year: 2024, Month: 6})
	if len(stats) != 0 {
		t.Errorf("expected empty stats, got %v", stats)
	}
}
