package core

import (
	"errors"
	"strings"
	"testing"
)

func validTransaction() Transaction {
	return Transaction{
		Source:      SourceStored,
		Description: "Groceries",
		Amount:      Money{Cents: 4500},
		PaidBy:      1,
		Date:        NewDate(2024, 3, 15),
		Type:        TypeExpense,
	}
}

func TestTransactionValidate(t *testing.T) {
	catID := int64(2)

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"income with category", func(tx *Transaction) {
			tx.Type = TypeIncome
			tx.CategoryID = &catID
		}, ErrIncomeHasCategory},
		{"missing payer", func(tx *Transaction) { tx.PaidBy = 0 }, ErrMissingPayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := validTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("long description", func(t *testing.T) {
		tx := validTransaction()
		tx.Description = strings.Repeat("x", 201)
		if tx.Validate() == nil {
			t.Error("expected error for 201-char description")
		}
	})

	t.Run("zero date", func(t *testing.T) {
		tx := validTransaction()
		tx.Date = Date{}
		if tx.Validate() == nil {
			t.Error("expected error for zero date")
		}
	})
}

func TestRecurringTemplateValidate(t *testing.T) {
	valid := RecurringTemplate{
		Description: "Rent",
		Amount:      Money{Cents: 120000},
		PaidBy:      1,
		Type:        TypeExpense,
		DayOfMonth:  1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid template: %v", err)
	}

	for _, day := range []int{0, -1, 32} {
		tpl := valid
		tpl.DayOfMonth = day
		if err := tpl.Validate(); !errors.Is(err, ErrInvalidDay) {
			t.Errorf("DayOfMonth=%d error = %v, want ErrInvalidDay", day, err)
		}
	}
}

func TestTransactionIsVirtual(t *testing.T) {
	tx := validTransaction()
	if tx.IsVirtual() {
		t.Error("stored transaction should not be virtual")
	}
	tx.Source = SourceRecurring
	if !tx.IsVirtual() {
		t.Error("recurring transaction should be virtual")
	}
}
