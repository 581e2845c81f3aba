// Package repository persists expenses and serves the aggregation queries
// reporting needs.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/expense"
)

// ExpenseRepository defines persistence operations for expenses.
type ExpenseRepository interface {
	Create(ctx context.Context, e *expense.Expense) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*expense.WithCategory, error)
	List(ctx context.Context, userID uuid.UUID, filter expense.Filter) ([]expense.WithCategory, error)
	Update(ctx context.Context, e *expense.Expense) error
	Delete(ctx context.Context, userID, id uuid.UUID) error

	SetCategory(ctx context.Context, userID, id, categoryID uuid.UUID) error
	ApplyCategoryToMatching(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (int64, error)

	Summary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*expense.Summary, error)
	ByCategory(ctx context.Context, userID uuid.UUID, transactionType string) ([]expense.CategoryBreakdown, error)
	ByMonth(ctx context.Context, userID uuid.UUID, since time.Time) ([]expense.MonthlyTotal, error)
}
