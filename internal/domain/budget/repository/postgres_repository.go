package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/trackr/internal/domain/budget"
	"github.com/FACorreiaa/trackr/internal/domain/common"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresBudgetRepository implements BudgetRepository using PostgreSQL.
type PostgresBudgetRepository struct {
	pgpool PgxPool
}

// NewPostgresBudgetRepository creates a new budget repository.
func NewPostgresBudgetRepository(pgpool PgxPool) *PostgresBudgetRepository {
	return &PostgresBudgetRepository{pgpool: pgpool}
}

const upsertBudgetQuery = `
	INSERT INTO budgets (id, user_id, category_id, amount, month, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, category_id, month)
	DO UPDATE SET amount = EXCLUDED.amount
	RETURNING id, created_at
`

const listBudgetsQuery = `
	SELECT b.id, b.user_id, b.category_id, b.amount, b.month, b.created_at,
	       c.name AS category_name,
	       COALESCE((
	           SELECT SUM(e.amount) FROM expenses e
	           WHERE e.user_id = b.user_id
	             AND e.category_id = b.category_id
	             AND e.transaction_type = 'DEBIT'
	             AND e.date >= b.month
	             AND e.date < b.month + INTERVAL '1 month'
	       ), 0) AS spent
	FROM budgets b
	INNER JOIN categories c ON c.id = b.category_id
	WHERE b.user_id = $1 AND b.month = $2
	ORDER BY c.name
`

const deleteBudgetQuery = `
	DELETE FROM budgets WHERE id = $1 AND user_id = $2
`

// Upsert creates the budget for (user, category, month), or updates its
// amount when one already exists.
func (r *PostgresBudgetRepository) Upsert(ctx context.Context, b *budget.Budget) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.Month = budget.NormalizeMonth(b.Month)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	err := r.pgpool.QueryRow(ctx, upsertBudgetQuery,
		b.ID, b.UserID, b.CategoryID, b.Amount, b.Month, b.CreatedAt,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// List returns the user's budgets for one month with spending progress.
func (r *PostgresBudgetRepository) List(ctx context.Context, userID uuid.UUID, month time.Time) ([]budget.WithProgress, error) {
	rows, err := r.pgpool.Query(ctx, listBudgetsQuery, userID, budget.NormalizeMonth(month))
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[budget.WithProgress])
}

// Delete removes one of the user's budgets.
func (r *PostgresBudgetRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, deleteBudgetQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
