package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/internal/domain/expense"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresExpenseRepository implements ExpenseRepository using PostgreSQL.
type PostgresExpenseRepository struct {
	pgpool PgxPool
}

// NewPostgresExpenseRepository creates a new expense repository.
func NewPostgresExpenseRepository(pgpool PgxPool) *PostgresExpenseRepository {
	return &PostgresExpenseRepository{pgpool: pgpool}
}

const createExpenseQuery = `
	INSERT INTO expenses (id, user_id, date, amount, transaction_type, description, category_id, notes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

const getExpenseByIDQuery = `
	SELECT e.id, e.user_id, e.date, e.amount, e.transaction_type, e.description,
	       e.category_id, e.notes, e.created_at, e.updated_at,
	       c.name AS category_name
	FROM expenses e
	LEFT JOIN categories c ON c.id = e.category_id
	WHERE e.id = $1 AND e.user_id = $2
`

const updateExpenseQuery = `
	UPDATE expenses SET
		date = $3, amount = $4, transaction_type = $5, description = $6,
		category_id = $7, notes = $8, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
`

const deleteExpenseQuery = `
	DELETE FROM expenses WHERE id = $1 AND user_id = $2
`

const setExpenseCategoryQuery = `
	UPDATE expenses SET category_id = $3, updated_at = NOW()
	WHERE id = $1 AND user_id = $2
`

const applyCategoryToMatchingQuery = `
	UPDATE expenses SET category_id = $3, updated_at = NOW()
	WHERE user_id = $1 AND category_id IS NULL AND description ILIKE '%' || $2 || '%'
`

const summaryQuery = `
	SELECT
		COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'CREDIT'), 0) AS total_income,
		COALESCE(SUM(amount) FILTER (WHERE transaction_type = 'DEBIT'), 0) AS total_expenses,
		COUNT(*) AS transaction_count
	FROM expenses
	WHERE user_id = $1 AND date >= $2 AND date <= $3
`

const byCategoryQuery = `
	SELECT c.name AS category_name, c.color AS category_color,
	       SUM(e.amount) AS total, COUNT(e.id) AS count
	FROM expenses e
	INNER JOIN categories c ON c.id = e.category_id
	WHERE e.user_id = $1 AND e.transaction_type = $2
	GROUP BY c.name, c.color
	ORDER BY total DESC
`

const byMonthQuery = `
	SELECT date_trunc('month', date) AS month, transaction_type, SUM(amount) AS total
	FROM expenses
	WHERE user_id = $1 AND date >= $2
	GROUP BY month, transaction_type
	ORDER BY month
`

// Create inserts a new expense.
func (r *PostgresExpenseRepository) Create(ctx context.Context, e *expense.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	_, err := r.pgpool.Exec(ctx, createExpenseQuery,
		e.ID, e.UserID, e.Date, e.Amount, e.TransactionType,
		e.Description, e.CategoryID, e.Notes, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves one of the user's expenses with its category name.
func (r *PostgresExpenseRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*expense.WithCategory, error) {
	rows, err := r.pgpool.Query(ctx, getExpenseByIDQuery, id, userID)
	if err != nil {
		return nil, err
	}

	e, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[expense.WithCategory])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the user's expenses, newest first, honoring the filter.
// The query is assembled dynamically because every filter is optional.
func (r *PostgresExpenseRepository) List(ctx context.Context, userID uuid.UUID, filter expense.Filter) ([]expense.WithCategory, error) {
	query := `
		SELECT e.id, e.user_id, e.date, e.amount, e.transaction_type, e.description,
		       e.category_id, e.notes, e.created_at, e.updated_at,
		       c.name AS category_name
		FROM expenses e
		LEFT JOIN categories c ON c.id = e.category_id
		WHERE e.user_id = $1`
	args := []any{userID}

	if filter.TransactionType != "" {
		args = append(args, filter.TransactionType)
		query += " AND e.transaction_type = $" + strconv.Itoa(len(args))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		query += " AND e.category_id = $" + strconv.Itoa(len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += " AND e.date >= $" + strconv.Itoa(len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += " AND e.date <= $" + strconv.Itoa(len(args))
	}
	if filter.Uncategorized {
		query += " AND e.category_id IS NULL"
	}
	query += " ORDER BY e.date DESC, e.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[expense.WithCategory])
}

// Update rewrites an existing expense.
func (r *PostgresExpenseRepository) Update(ctx context.Context, e *expense.Expense) error {
	tag, err := r.pgpool.Exec(ctx, updateExpenseQuery,
		e.ID, e.UserID, e.Date, e.Amount, e.TransactionType,
		e.Description, e.CategoryID, e.Notes,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete removes one of the user's expenses.
func (r *PostgresExpenseRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, deleteExpenseQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetCategory assigns a category to one expense.
func (r *PostgresExpenseRepository) SetCategory(ctx context.Context, userID, id, categoryID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, setExpenseCategoryQuery, id, userID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to set expense category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters so a keyword such as
// "100% JUICE" matches literally instead of as a wildcard pattern.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// ApplyCategoryToMatching categorizes every currently-uncategorized expense
// whose description contains the keyword. Returns the number of rows updated.
func (r *PostgresExpenseRepository) ApplyCategoryToMatching(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (int64, error) {
	tag, err := r.pgpool.Exec(ctx, applyCategoryToMatchingQuery, userID, escapeLike(keyword), categoryID)
	if err != nil {
		return 0, fmt.Errorf("failed to apply category to matching expenses: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Summary aggregates income, expenses, and counts for a date range.
func (r *PostgresExpenseRepository) Summary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*expense.Summary, error) {
	var (
		income decimal.Decimal
		spent  decimal.Decimal
		count  int
	)
	err := r.pgpool.QueryRow(ctx, summaryQuery, userID, start, end).Scan(&income, &spent, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to compute summary: %w", err)
	}

	return &expense.Summary{
		TotalIncome:      income,
		TotalExpenses:    spent,
		NetBalance:       income.Sub(spent),
		TransactionCount: count,
	}, nil
}

// ByCategory breaks spending down per category for one transaction type.
func (r *PostgresExpenseRepository) ByCategory(ctx context.Context, userID uuid.UUID, transactionType string) ([]expense.CategoryBreakdown, error) {
	rows, err := r.pgpool.Query(ctx, byCategoryQuery, userID, transactionType)
	if err != nil {
		return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[expense.CategoryBreakdown])
}

// ByMonth returns monthly totals per transaction type since the given date.
func (r *PostgresExpenseRepository) ByMonth(ctx context.Context, userID uuid.UUID, since time.Time) ([]expense.MonthlyTotal, error) {
	rows, err := r.pgpool.Query(ctx, byMonthQuery, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to compute monthly totals: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[expense.MonthlyTotal])
}
