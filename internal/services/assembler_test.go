package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luchesigui/finance-manager-sub000/internal/core"
)

type fakeStore struct {
	transactions []core.Transaction
	templates    []core.RecurringTemplate
	closed       map[core.YearMonth]bool

	listErr     error
	templateErr error
	closedErr   error
}

func (f *fakeStore) ListTransactionsBetween(_ context.Context, householdID int64, from, to core.Date) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, t := range f.transactions {
		if t.HouseholdID != householdID {
			continue
		}
		if t.Date.Before(from.Time) || t.Date.After(to.Time) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListActiveTemplates(context.Context, int64) ([]core.RecurringTemplate, error) {
	if f.templateErr != nil {
		return nil, f.templateErr
	}
	var out []core.RecurringTemplate
	for _, t := range f.templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) IsMonthClosed(_ context.Context, _ int64, period core.YearMonth) (bool, error) {
	if f.closedErr != nil {
		return false, f.closedErr
	}
	return f.closed[period], nil
}

func storedExpense(id int64, date core.Date, createdAt time.Time) core.Transaction {
	return core.Transaction{
		ID:          id,
		HouseholdID: 1,
		Source:      core.SourceStored,
		Description: "stored",
		Amount:      core.Money{Cents: 1000},
		PaidBy:      1,
		Date:        date,
		Type:        core.TypeExpense,
		CreatedAt:   createdAt,
	}
}

func activeTemplate(id int64, day int) core.RecurringTemplate {
	return core.RecurringTemplate{
		ID:          id,
		HouseholdID: 1,
		Description: "subscription",
		Amount:      core.Money{Cents: 2500},
		PaidBy:      1,
		Type:        core.TypeExpense,
		DayOfMonth:  day,
		IsActive:    true,
	}
}

func TestAssembleMonthMergesVirtuals(t *testing.T) {
	store := &fakeStore{
		transactions: []core.Transaction{
			storedExpense(10, core.NewDate(2024, 3, 5), time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)),
		},
		templates: []core.RecurringTemplate{activeTemplate(1, 15)},
		closed:    map[core.YearMonth]bool{},
	}
	asm := NewMonthAssembler(store, store, store)

	txs, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, txs, 2)

	var virtuals, stored int
	for _, tx := range txs {
		if tx.IsVirtual() {
			virtuals++
			assert.Negative(t, tx.ID)
			assert.Equal(t, "2024-03-15", tx.Date.String())
		} else {
			stored++
		}
	}
	assert.Equal(t, 1, virtuals)
	assert.Equal(t, 1, stored)
}

func TestAssembleMonthIsIdempotent(t *testing.T) {
	store := &fakeStore{
		templates: []core.RecurringTemplate{activeTemplate(1, 10), activeTemplate(2, 20)},
		closed:    map[core.YearMonth]bool{},
	}
	asm := NewMonthAssembler(store, store, store)
	period := core.YearMonth{Year: 2024, Month: 5}

	first, err := asm.AssembleMonth(context.Background(), 1, period)
	require.NoError(t, err)
	second, err := asm.AssembleMonth(context.Background(), 1, period)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same inputs must yield identical ordered output")
}

func TestAssembleMonthDedupsAcceptedTemplates(t *testing.T) {
	tplID := int64(1)
	accepted := storedExpense(42, core.NewDate(2024, 3, 10), time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	accepted.RecurringTemplateID = &tplID

	store := &fakeStore{
		transactions: []core.Transaction{accepted},
		templates:    []core.RecurringTemplate{activeTemplate(tplID, 10), activeTemplate(2, 20)},
		closed:       map[core.YearMonth]bool{},
	}
	asm := NewMonthAssembler(store, store, store)

	txs, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, txs, 2, "virtual for accepted template must be suppressed")

	for _, tx := range txs {
		if tx.IsVirtual() {
			assert.Equal(t, int64(2), *tx.RecurringTemplateID)
		}
	}
}

func TestAssembleMonthClosedSuppressesVirtuals(t *testing.T) {
	period := core.YearMonth{Year: 2024, Month: 3}
	store := &fakeStore{
		transactions: []core.Transaction{
			storedExpense(10, core.NewDate(2024, 3, 5), time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)),
		},
		templates: []core.RecurringTemplate{activeTemplate(1, 15)},
		closed:    map[core.YearMonth]bool{period: true},
	}
	asm := NewMonthAssembler(store, store, store)

	txs, err := asm.AssembleMonth(context.Background(), 1, period)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.False(t, txs[0].IsVirtual())
}

func TestAssembleMonthCreditCardDeferral(t *testing.T) {
	// A credit-card row dated 2024-03-15 belongs to the 2024-04
	// accounting month, not 2024-03.
	cc := storedExpense(10, core.NewDate(2024, 3, 15), time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC))
	cc.IsCreditCard = true

	store := &fakeStore{
		transactions: []core.Transaction{cc},
		closed:       map[core.YearMonth]bool{},
	}
	asm := NewMonthAssembler(store, store, store)

	march, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Empty(t, march, "deferred row must not appear in its calendar month")

	april, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 4})
	require.NoError(t, err)
	require.Len(t, april, 1)
	assert.Equal(t, int64(10), april[0].ID)
}

func TestAssembleMonthOrdering(t *testing.T) {
	older := storedExpense(1, core.NewDate(2024, 3, 1), time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	newer := storedExpense(2, core.NewDate(2024, 3, 2), time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))
	tieA := storedExpense(3, core.NewDate(2024, 3, 3), time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC))
	tieB := storedExpense(4, core.NewDate(2024, 3, 3), time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC))

	store := &fakeStore{
		transactions: []core.Transaction{older, tieA, newer, tieB},
		closed:       map[core.YearMonth]bool{},
	}
	asm := NewMonthAssembler(store, store, store)

	txs, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
	require.NoError(t, err)
	require.Len(t, txs, 4)

	assert.Equal(t, []int64{4, 3, 2, 1}, []int64{txs[0].ID, txs[1].ID, txs[2].ID, txs[3].ID})
}

func TestAssembleMonthPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")

	for name, store := range map[string]*fakeStore{
		"transactions": {listErr: boom},
		"templates":    {templateErr: boom},
		"closed check": {closedErr: boom},
	} {
		t.Run(name, func(t *testing.T) {
			asm := NewMonthAssembler(store, store, store)
			_, err := asm.AssembleMonth(context.Background(), 1, core.YearMonth{Year: 2024, Month: 3})
			require.ErrorIs(t, err, boom)
		})
	}
}
