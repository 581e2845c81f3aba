// Package repository persists categories and category rules.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/category"
)

// CategoryRepository defines persistence operations for categories and
// their keyword rules. Rules are upserted, not duplicated: at most one rule
// exists per (user, keyword) pair.
type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *category.Category) error
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error)
	ListCategories(ctx context.Context, userID uuid.UUID) ([]category.Category, error)
	DeleteCategory(ctx context.Context, userID, id uuid.UUID) error

	ListRules(ctx context.Context, userID uuid.UUID) ([]category.Rule, error)
	ListRulesWithCategories(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error)
	UpsertRule(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (*category.Rule, error)
	DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error
}
