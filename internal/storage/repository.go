// Package storage persists households' people, categories, transactions,
// recurring templates and closed months in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/luchesigui/finance-manager-sub000/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// household.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const txColumns = `id, household_id, description, amount_cents, category_id, paid_by,
	date, type, is_increment, is_credit_card, exclude_from_split, is_forecast,
	recurring_template_id, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t          core.Transaction
		categoryID sql.NullInt64
		templateID sql.NullInt64
		dateStr    string
		createdStr string
	)
	err := row.Scan(&t.ID, &t.HouseholdID, &t.Description, &t.Amount.Cents,
		&categoryID, &t.PaidBy, &dateStr, &t.Type, &t.IsIncrement,
		&t.IsCreditCard, &t.ExcludeFromSplit, &t.IsForecast, &templateID, &createdStr)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Source = core.SourceStored
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	if templateID.Valid {
		t.RecurringTemplateID = &templateID.Int64
	}
	t.Date, err = core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored date: %w", err)
	}
	t.CreatedAt, err = parseTimestamp(createdStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("stored created_at: %w", err)
	}
	return t, nil
}

// parseTimestamp accepts both the RFC3339 values written by this code and
// the CURRENT_TIMESTAMP format SQLite produces for defaulted columns.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// ListTransactionsBetween returns stored rows whose raw date falls in
// [from, to], newest first.
func (r *SQLiteRepository) ListTransactionsBetween(ctx context.Context, householdID int64, from, to core.Date) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+txColumns+` FROM transactions
		WHERE household_id = ? AND date >= ? AND date <= ?
		ORDER BY created_at DESC, id DESC`,
		householdID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, householdID, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions
		WHERE household_id = ? AND id = ?`, householdID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO transactions
		(household_id, description, amount_cents, category_id, paid_by, date, type,
		 is_increment, is_credit_card, exclude_from_split, is_forecast,
		 recurring_template_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Description, t.Amount.Cents, nullable(t.CategoryID),
		t.PaidBy, t.Date.String(), t.Type, t.IsIncrement, t.IsCreditCard,
		t.ExcludeFromSplit, t.IsForecast, nullable(t.RecurringTemplateID),
		t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	t.ID = id
	t.Source = core.SourceStored

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"household_id", t.HouseholdID,
		"description", t.Description,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `UPDATE transactions SET
		description = ?, amount_cents = ?, category_id = ?, paid_by = ?, date = ?,
		type = ?, is_increment = ?, is_credit_card = ?, exclude_from_split = ?,
		is_forecast = ?, recurring_template_id = ?
		WHERE household_id = ? AND id = ?`,
		t.Description, t.Amount.Cents, nullable(t.CategoryID), t.PaidBy,
		t.Date.String(), t.Type, t.IsIncrement, t.IsCreditCard,
		t.ExcludeFromSplit, t.IsForecast, nullable(t.RecurringTemplateID),
		t.HouseholdID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE household_id = ? AND id = ?`,
		householdID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireAffected(res)
}

// BulkUpdateTransactions applies the non-nil patch fields to every listed
// row owned by the household. Returns the number of rows touched.
func (r *SQLiteRepository) BulkUpdateTransactions(ctx context.Context, householdID int64, ids []int64, patch core.TransactionPatch) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var sets []string
	var args []any
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.PaidBy != nil {
		sets = append(sets, "paid_by = ?")
		args = append(args, *patch.PaidBy)
	}
	if patch.ExcludeFromSplit != nil {
		sets = append(sets, "exclude_from_split = ?")
		args = append(args, *patch.ExcludeFromSplit)
	}
	if patch.IsForecast != nil {
		sets = append(sets, "is_forecast = ?")
		args = append(args, *patch.IsForecast)
	}
	if len(sets) == 0 {
		return 0, nil
	}

	args = append(args, householdID)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `UPDATE transactions SET ` + strings.Join(sets, ", ") +
		` WHERE household_id = ? AND id IN (` + placeholders(len(ids)) + `)`
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update transactions: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) BulkDeleteTransactions(ctx context.Context, householdID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := []any{householdID}
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions
		WHERE household_id = ? AND id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk delete transactions: %w", err)
	}
	return res.RowsAffected()
}

const templateColumns = `id, household_id, description, amount_cents, category_id, paid_by,
	type, is_increment, is_credit_card, exclude_from_split, day_of_month, is_active, created_at`

func scanTemplate(row interface{ Scan(...any) error }) (core.RecurringTemplate, error) {
	var (
		t          core.RecurringTemplate
		categoryID sql.NullInt64
		createdStr string
	)
	err := row.Scan(&t.ID, &t.HouseholdID, &t.Description, &t.Amount.Cents,
		&categoryID, &t.PaidBy, &t.Type, &t.IsIncrement, &t.IsCreditCard,
		&t.ExcludeFromSplit, &t.DayOfMonth, &t.IsActive, &createdStr)
	if err != nil {
		return core.RecurringTemplate{}, err
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.Int64
	}
	t.CreatedAt, err = parseTimestamp(createdStr)
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("stored created_at: %w", err)
	}
	return t, nil
}

// ListActiveTemplates returns every active template for a household.
func (r *SQLiteRepository) ListActiveTemplates(ctx context.Context, householdID int64) ([]core.RecurringTemplate, error) {
	templates, _, err := r.ListRecurringTemplates(ctx, householdID, true, 0, 0)
	return templates, err
}

// ListRecurringTemplates pages through templates; limit 0 means no limit.
// The second return value is the total matching count ignoring paging.
func (r *SQLiteRepository) ListRecurringTemplates(ctx context.Context, householdID int64, activeOnly bool, limit, offset int) ([]core.RecurringTemplate, int64, error) {
	where := `WHERE household_id = ?`
	if activeOnly {
		where += ` AND is_active = 1`
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recurring_templates `+where, householdID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count recurring templates: %w", err)
	}

	query := `SELECT ` + templateColumns + ` FROM recurring_templates ` + where + ` ORDER BY id`
	args := []any{householdID}
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list recurring templates: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan recurring template: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate recurring templates: %w", err)
	}
	return out, total, nil
}

func (r *SQLiteRepository) GetRecurringTemplate(ctx context.Context, householdID, id int64) (core.RecurringTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM recurring_templates
		WHERE household_id = ? AND id = ?`, householdID, id)
	t, err := scanTemplate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.RecurringTemplate{}, ErrNotFound
	}
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("get recurring template %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) CreateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) (core.RecurringTemplate, error) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO recurring_templates
		(household_id, description, amount_cents, category_id, paid_by, type,
		 is_increment, is_credit_card, exclude_from_split, day_of_month, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.HouseholdID, t.Description, t.Amount.Cents, nullable(t.CategoryID),
		t.PaidBy, t.Type, t.IsIncrement, t.IsCreditCard, t.ExcludeFromSplit,
		t.DayOfMonth, t.IsActive, t.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("insert recurring template: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.RecurringTemplate{}, fmt.Errorf("recurring template insert id: %w", err)
	}
	t.ID = id

	slog.InfoContext(ctx, "Recurring template saved",
		"id", t.ID,
		"household_id", t.HouseholdID,
		"description", t.Description,
		"day_of_month", t.DayOfMonth)
	return t, nil
}

func (r *SQLiteRepository) UpdateRecurringTemplate(ctx context.Context, t core.RecurringTemplate) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_templates SET
		description = ?, amount_cents = ?, category_id = ?, paid_by = ?, type = ?,
		is_increment = ?, is_credit_card = ?, exclude_from_split = ?,
		day_of_month = ?, is_active = ?
		WHERE household_id = ? AND id = ?`,
		t.Description, t.Amount.Cents, nullable(t.CategoryID), t.PaidBy, t.Type,
		t.IsIncrement, t.IsCreditCard, t.ExcludeFromSplit, t.DayOfMonth,
		t.IsActive, t.HouseholdID, t.ID)
	if err != nil {
		return fmt.Errorf("update recurring template: %w", err)
	}
	return requireAffected(res)
}

// DeactivateRecurringTemplate soft-deletes: history stays attributable to
// the template, it just stops materializing.
func (r *SQLiteRepository) DeactivateRecurringTemplate(ctx context.Context, householdID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE recurring_templates SET is_active = 0
		WHERE household_id = ? AND id = ?`, householdID, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring template: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) ListPeople(ctx context.Context, householdID int64) ([]core.Person, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, household_id, name, income_cents
		FROM people WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var out []core.Person
	for rows.Next() {
		var p core.Person
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.Name, &p.Income.Cents); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate people: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreatePerson(ctx context.Context, p core.Person) (core.Person, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO people (household_id, name, income_cents)
		VALUES (?, ?, ?)`, p.HouseholdID, p.Name, p.Income.Cents)
	if err != nil {
		return core.Person{}, fmt.Errorf("insert person: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Person{}, fmt.Errorf("person insert id: %w", err)
	}
	p.ID = id
	return p, nil
}

func (r *SQLiteRepository) UpdatePerson(ctx context.Context, p core.Person) error {
	res, err := r.db.ExecContext(ctx, `UPDATE people SET name = ?, income_cents = ?
		WHERE household_id = ? AND id = ?`, p.Name, p.Income.Cents, p.HouseholdID, p.ID)
	if err != nil {
		return fmt.Errorf("update person: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, householdID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, household_id, name, target_percent
		FROM categories WHERE household_id = ? ORDER BY id`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.HouseholdID, &c.Name, &c.TargetPercent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (household_id, name, target_percent)
		VALUES (?, ?, ?)`, c.HouseholdID, c.Name, c.TargetPercent)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *SQLiteRepository) IsMonthClosed(ctx context.Context, householdID int64, period core.YearMonth) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM closed_months
		WHERE household_id = ? AND year = ? AND month = ?`,
		householdID, period.Year, period.Month).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check closed month: %w", err)
	}
	return true, nil
}

// ClosedMonthsSet resolves the closed flag for several periods at once.
func (r *SQLiteRepository) ClosedMonthsSet(ctx context.Context, householdID int64, periods []core.YearMonth) (map[core.YearMonth]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT year, month FROM closed_months
		WHERE household_id = ?`, householdID)
	if err != nil {
		return nil, fmt.Errorf("list closed months: %w", err)
	}
	defer rows.Close()

	closed := make(map[core.YearMonth]bool)
	for rows.Next() {
		var ym core.YearMonth
		if err := rows.Scan(&ym.Year, &ym.Month); err != nil {
			return nil, fmt.Errorf("scan closed month: %w", err)
		}
		closed[ym] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate closed months: %w", err)
	}

	out := make(map[core.YearMonth]bool, len(periods))
	for _, p := range periods {
		out[p] = closed[p]
	}
	return out, nil
}

func (r *SQLiteRepository) CloseMonth(ctx context.Context, householdID int64, period core.YearMonth) error {
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO closed_months (household_id, year, month)
		VALUES (?, ?, ?)`, householdID, period.Year, period.Month)
	if err != nil {
		return fmt.Errorf("close month: %w", err)
	}
	slog.InfoContext(ctx, "Month closed", "household_id", householdID, "period", period.String())
	return nil
}

func (r *SQLiteRepository) ReopenMonth(ctx context.Context, householdID int64, period core.YearMonth) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM closed_months
		WHERE household_id = ? AND year = ? AND month = ?`,
		householdID, period.Year, period.Month)
	if err != nil {
		return fmt.Errorf("reopen month: %w", err)
	}
	return requireAffected(res)
}

func nullable(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
