package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/finance"
)

type fakeSettings struct {
	people     []core.Person
	categories []core.Category
}

func (f *fakeSettings) ListPeople(context.Context, int64) ([]core.Person, error) {
	return f.people, nil
}

func (f *fakeSettings) ListCategories(context.Context, int64) ([]core.Category, error) {
	return f.categories, nil
}

func TestDashboardBuild(t *testing.T) {
	foodID := int64(1)
	investID := int64(2)

	ana := storedExpense(1, core.NewDate(2024, 3, 5), time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	ana.Amount = core.Money{Cents: 480000}
	ana.PaidBy = 1
	ana.CategoryID = &foodID

	bea := storedExpense(2, core.NewDate(2024, 3, 6), time.Date(2024, 3, 6, 9, 0, 0, 0, time.UTC))
	bea.Amount = core.Money{Cents: 170000}
	bea.PaidBy = 2
	bea.CategoryID = &foodID

	invest := storedExpense(3, core.NewDate(2024, 3, 7), time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC))
	invest.Amount = core.Money{Cents: 100000}
	invest.PaidBy = 1
	invest.CategoryID = &investID

	store := &fakeStore{
		transactions: []core.Transaction{ana, bea, invest},
		closed:       map[core.YearMonth]bool{},
	}
	settings := &fakeSettings{
		people: []core.Person{
			{ID: 1, Name: "Ana", Income: core.Money{Cents: 600000}},
			{ID: 2, Name: "Bea", Income: core.Money{Cents: 400000}},
		},
		categories: []core.Category{
			{ID: foodID, Name: "Food", TargetPercent: 50},
			{ID: investID, Name: "Investments", TargetPercent: 20},
		},
	}

	svc := NewDashboardService(
		NewMonthAssembler(store, store, store),
		settings,
		finance.AutoExcludeRule([]string{"invest"}),
	)

	dash, err := svc.Build(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(1000000), dash.TotalBaseIncome.Cents)
	assert.Equal(t, int64(1000000), dash.EffectiveIncome)
	assert.Equal(t, int64(750000), dash.TotalExpenses.Cents)
	// The investment row is auto-excluded from splitting but still spent.
	assert.Equal(t, int64(650000), dash.TotalExpensesForSplit.Cents)

	require.Len(t, dash.Settlement, 2)
	var sum float64
	for _, row := range dash.Settlement {
		sum += row.Balance
	}
	assert.LessOrEqual(t, math.Abs(sum), 1.0, "settlement balances must sum to within one cent")

	// Ana paid 4800.00 of a 6500.00 split at a 60% share: owed 900.00.
	assert.InDelta(t, 90000, dash.Settlement[0].Balance, 1)
	assert.InDelta(t, -90000, dash.Settlement[1].Balance, 1)

	require.Len(t, dash.Transfers, 1)
	assert.Equal(t, int64(2), dash.Transfers[0].FromID)
	assert.Equal(t, int64(1), dash.Transfers[0].ToID)
	assert.InDelta(t, 90000, dash.Transfers[0].Amount, 1)

	// Categories sorted by spend descending.
	require.Len(t, dash.Categories, 2)
	assert.Equal(t, "Food", dash.Categories[0].Name)
	assert.Equal(t, int64(650000), dash.Categories[0].TotalSpent.Cents)
	assert.Equal(t, "Investments", dash.Categories[1].Name)

	assert.Len(t, dash.Transactions, 3)
}

func TestDashboardBuildIncomeAdjustmentsShiftShares(t *testing.T) {
	raise := core.Transaction{
		ID:          5,
		HouseholdID: 1,
		Source:      core.SourceStored,
		Description: "bonus",
		Amount:      core.Money{Cents: 200000},
		PaidBy:      1,
		Date:        core.NewDate(2024, 3, 1),
		Type:        core.TypeIncome,
		IsIncrement: true,
		CreatedAt:   time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	store := &fakeStore{
		transactions: []core.Transaction{raise},
		closed:       map[core.YearMonth]bool{},
	}
	settings := &fakeSettings{
		people: []core.Person{
			{ID: 1, Name: "Ana", Income: core.Money{Cents: 500000}},
			{ID: 2, Name: "Bea", Income: core.Money{Cents: 500000}},
		},
	}

	svc := NewDashboardService(NewMonthAssembler(store, store, store), settings, nil)
	dash, err := svc.Build(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(1200000), dash.EffectiveIncome)
	require.Len(t, dash.Settlement, 2)
	// Ana's effective income is 7000.00 of 12000.00 total.
	assert.InDelta(t, 7000.0/12000.0, dash.Settlement[0].SharePercent, 1e-9)
	assert.InDelta(t, 5000.0/12000.0, dash.Settlement[1].SharePercent, 1e-9)
}
