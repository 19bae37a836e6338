package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/finance"
)

type SettingsStore interface {
	ListPeople(ctx context.Context, householdID int64) ([]core.Person, error)
	ListCategories(ctx context.Context, householdID int64) ([]core.Category, error)
}

// Dashboard is the full aggregate view for one accounting month.
type Dashboard struct {
	Period                core.YearMonth          `json:"period"`
	TotalBaseIncome       core.Money              `json:"totalBaseIncome"`
	IncomeBreakdown       finance.IncomeBreakdown `json:"incomeBreakdown"`
	EffectiveIncome       int64                   `json:"effectiveIncome"` // cents
	TotalExpenses         core.Money              `json:"totalExpenses"`
	TotalExpensesForSplit core.Money              `json:"totalExpensesForSplit"`
	Categories            []finance.CategorySummary `json:"categories"`
	Settlement            []finance.SettlementRow   `json:"settlement"`
	Transfers             []finance.Transfer        `json:"transfers"`
	Transactions          []core.Transaction        `json:"transactions"`
}

// DashboardService composes the assembler and the finance calculators.
// "now" never enters the computation; the period is an explicit parameter
// resolved once by the HTTP layer.
type DashboardService struct {
	assembler   *MonthAssembler
	settings    SettingsStore
	autoExclude func(categoryName string) bool
}

func NewDashboardService(assembler *MonthAssembler, settings SettingsStore, autoExclude func(string) bool) *DashboardService {
	return &DashboardService{assembler: assembler, settings: settings, autoExclude: autoExclude}
}

// Build assembles the month and derives every dashboard aggregate from it.
func (s *DashboardService) Build(ctx context.Context, householdID int64, period core.YearMonth) (Dashboard, error) {
	txs, err := s.assembler.AssembleMonth(ctx, householdID, period)
	if err != nil {
		return Dashboard{}, err
	}

	people, err := s.settings.ListPeople(ctx, householdID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list people: %w", err)
	}
	categories, err := s.settings.ListCategories(ctx, householdID)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list categories: %w", err)
	}

	breakdown := finance.BreakdownIncome(txs)
	effective := finance.EffectiveIncome(people, txs)
	effectiveMoney := core.Money{Cents: effective}

	splitTxs := finance.SplitEligible(txs, categories, s.autoExclude)
	splitTotal := finance.TotalExpenses(splitTxs)

	shares := finance.SharesWithIncomeTransactions(people, txs)
	settlement := finance.SettlementData(shares, splitTxs, splitTotal)

	summaries := finance.CategorySummaries(categories, txs, effectiveMoney)
	// Display order: biggest spenders first.
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].TotalSpent.Cents > summaries[j].TotalSpent.Cents
	})

	return Dashboard{
		Period:                period,
		TotalBaseIncome:       finance.TotalBaseIncome(people),
		IncomeBreakdown:       breakdown,
		EffectiveIncome:       effective,
		TotalExpenses:         finance.TotalExpenses(txs),
		TotalExpensesForSplit: splitTotal,
		Categories:            summaries,
		Settlement:            settlement,
		Transfers:             finance.Transfers(settlement),
		Transactions:          txs,
	}, nil
}
