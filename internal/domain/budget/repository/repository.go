// Package repository persists monthly category budgets.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/budget"
)

// BudgetRepository defines persistence operations for budgets.
type BudgetRepository interface {
	Upsert(ctx context.Context, b *budget.Budget) error
	List(ctx context.Context, userID uuid.UUID, month time.Time) ([]budget.WithProgress, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}
