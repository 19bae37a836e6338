// Package services orchestrates storage, the recurring resolver and the
// finance calculators into per-request operations.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
	"github.com/luchesigui/finance-manager-sub000/internal/recurring"
)

// Collaborator interfaces, satisfied by the SQLite repository.
type (
	TransactionLister interface {
		// ListTransactionsBetween returns stored rows whose raw date
		// falls in [from, to], inclusive.
		ListTransactionsBetween(ctx context.Context, householdID int64, from, to core.Date) ([]core.Transaction, error)
	}

	TemplateLister interface {
		ListActiveTemplates(ctx context.Context, householdID int64) ([]core.RecurringTemplate, error)
	}

	MonthCloser interface {
		IsMonthClosed(ctx context.Context, householdID int64, period core.YearMonth) (bool, error)
	}
)

// MonthAssembler produces the authoritative transaction list for a
// household and accounting month: stored rows whose accounting month
// matches, plus virtual rows materialized from recurring templates when
// the month is still open.
type MonthAssembler struct {
	transactions TransactionLister
	templates    TemplateLister
	closer       MonthCloser
}

func NewMonthAssembler(txs TransactionLister, templates TemplateLister, closer MonthCloser) *MonthAssembler {
	return &MonthAssembler{transactions: txs, templates: templates, closer: closer}
}

// AssembleMonth builds the ordered transaction list for a period.
//
// Stored rows are fetched over a superset window (previous-month start
// through target-month end) because deferred credit-card rows dated in the
// prior calendar month still belong to the target accounting month; the
// window is then narrowed by each row's own accounting month.
//
// A closed month returns only stored rows: it is an immutable historical
// record and never grows virtuals. An open month additionally materializes
// every applicable active template, dropping virtuals whose template
// already produced a stored row this period.
//
// Any fetch error aborts the whole assembly; a half-materialized month is
// never presented as complete. Two calls without intervening writes return
// identical ordered lists.
func (a *MonthAssembler) AssembleMonth(ctx context.Context, householdID int64, period core.YearMonth) ([]core.Transaction, error) {
	var (
		window    []core.Transaction
		templates []core.RecurringTemplate
		closed    bool
	)

	// The three reads are independent of each other; the closed check
	// only has to resolve before the materialization decision below.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := a.transactions.ListTransactionsBetween(gctx, householdID, period.Prev().First(), period.Last())
		if err != nil {
			return fmt.Errorf("list transactions for %s: %w", period, err)
		}
		window = rows
		return nil
	})
	g.Go(func() error {
		ts, err := a.templates.ListActiveTemplates(gctx, householdID)
		if err != nil {
			return fmt.Errorf("list recurring templates: %w", err)
		}
		templates = ts
		return nil
	})
	g.Go(func() error {
		c, err := a.closer.IsMonthClosed(gctx, householdID, period)
		if err != nil {
			return fmt.Errorf("check closed month %s: %w", period, err)
		}
		closed = c
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Narrow the superset window to rows whose accounting month matches,
	// honoring each row's own deferral flag.
	real := window[:0:0]
	for _, t := range window {
		if core.AccountingMonth(t.Date, t.IsCreditCard) == period {
			real = append(real, t)
		}
	}

	if closed {
		slog.DebugContext(ctx, "Month closed, skipping materialization",
			"household_id", householdID, "period", period.String(), "stored_rows", len(real))
		sortByRecency(real)
		return real, nil
	}

	materialized := recurring.ForMonth(templates, period)

	// A stored row linked to a template supersedes its virtual
	// counterpart for the period.
	linked := make(map[int64]bool, len(real))
	for _, t := range real {
		if t.RecurringTemplateID != nil {
			linked[*t.RecurringTemplateID] = true
		}
	}
	merged := real
	for _, v := range materialized {
		if v.RecurringTemplateID != nil && linked[*v.RecurringTemplateID] {
			continue
		}
		merged = append(merged, v)
	}

	sortByRecency(merged)
	return merged, nil
}

// sortByRecency orders by createdAt descending, ties broken by id
// descending so the ordering is total and stable across calls.
func sortByRecency(txs []core.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].CreatedAt.After(txs[j].CreatedAt)
		}
		return txs[i].ID > txs[j].ID
	})
}
