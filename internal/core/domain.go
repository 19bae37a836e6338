package core

import (
	"errors"
	"strings"
	"time"
)

const (
	TypeExpense TransactionType = "expense"
	TypeIncome  TransactionType = "income"
)

const (
	// SourceStored marks a transaction persisted in storage (positive id).
	SourceStored TransactionSource = "stored"
	// SourceRecurring marks a transaction synthesized on read from a
	// recurring template. Never persisted; carries a deterministic
	// negative id for the wire format.
	SourceRecurring TransactionSource = "recurring"
)

type (
	TransactionType   string
	TransactionSource string

	// Person is a household member. Income is the base monthly income
	// used as the settlement share basis before adjustment transactions.
	Person struct {
		ID          int64  `json:"id"`
		HouseholdID int64  `json:"-"`
		Name        string `json:"name"`
		Income      Money  `json:"income"`
	}

	// Category partitions expense transactions. TargetPercent is the
	// budget target as percent of total income (0-100).
	Category struct {
		ID            int64   `json:"id"`
		HouseholdID   int64   `json:"-"`
		Name          string  `json:"name"`
		TargetPercent float64 `json:"targetPercent"`
	}

	// Transaction is the central entity. Stored rows have positive ids;
	// recurring-derived rows carry the deterministic negative id assigned
	// by the resolver and Source == SourceRecurring.
	Transaction struct {
		ID                  int64             `json:"id"`
		HouseholdID         int64             `json:"-"`
		Source              TransactionSource `json:"source"`
		Description         string            `json:"description"`
		Amount              Money             `json:"amount"`
		CategoryID          *int64            `json:"categoryId"`
		PaidBy              int64             `json:"paidBy"`
		Date                Date              `json:"date"`
		Type                TransactionType   `json:"type"`
		IsIncrement         bool              `json:"isIncrement"`
		IsCreditCard        bool              `json:"isCreditCard"`
		ExcludeFromSplit    bool              `json:"excludeFromSplit"`
		IsForecast          bool              `json:"isForecast"`
		RecurringTemplateID *int64            `json:"recurringTemplateId"`
		CreatedAt           time.Time         `json:"createdAt"`
	}

	// TransactionPatch is a partial update applied to one or more stored
	// transactions. Nil fields are left unchanged.
	TransactionPatch struct {
		CategoryID       *int64 `json:"categoryId"`
		PaidBy           *int64 `json:"paidBy"`
		ExcludeFromSplit *bool  `json:"excludeFromSplit"`
		IsForecast       *bool  `json:"isForecast"`
	}

	// RecurringTemplate is a standing instruction to produce one
	// transaction per month. Soft-deleted via IsActive so history stays
	// attributable.
	RecurringTemplate struct {
		ID               int64           `json:"id"`
		HouseholdID      int64           `json:"-"`
		Description      string          `json:"description"`
		Amount           Money           `json:"amount"`
		CategoryID       *int64          `json:"categoryId"`
		PaidBy           int64           `json:"paidBy"`
		Type             TransactionType `json:"type"`
		IsIncrement      bool            `json:"isIncrement"`
		IsCreditCard     bool            `json:"isCreditCard"`
		ExcludeFromSplit bool            `json:"excludeFromSplit"`
		DayOfMonth       int             `json:"dayOfMonth"`
		IsActive         bool            `json:"isActive"`
		CreatedAt        time.Time       `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidDay        = errors.New("invalid day of month")
	ErrIncomeHasCategory = errors.New("income transactions cannot have a category")
	ErrMissingPayer      = errors.New("missing payer")
)

// IsVirtual reports whether the transaction was synthesized from a
// recurring template rather than read from storage.
func (t Transaction) IsVirtual() bool {
	return t.Source == SourceRecurring
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if t.Type != TypeExpense && t.Type != TypeIncome {
		return ErrInvalidType
	}
	if t.Type == TypeIncome && t.CategoryID != nil {
		return ErrIncomeHasCategory
	}
	if t.PaidBy <= 0 {
		return ErrMissingPayer
	}
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (rt RecurringTemplate) Validate() error {
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(rt.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(rt.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if rt.Type != TypeExpense && rt.Type != TypeIncome {
		return ErrInvalidType
	}
	if rt.Type == TypeIncome && rt.CategoryID != nil {
		return ErrIncomeHasCategory
	}
	if rt.DayOfMonth < 1 || rt.DayOfMonth > 31 {
		return ErrInvalidDay
	}
	if rt.PaidBy <= 0 {
		return ErrMissingPayer
	}
	return nil
}
