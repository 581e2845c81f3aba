package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	"github.com/FACorreiaa/trackr/internal/domain/common"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresCategoryRepository implements CategoryRepository using PostgreSQL.
type PostgresCategoryRepository struct {
	pgpool PgxPool
}

// NewPostgresCategoryRepository creates a new category repository.
func NewPostgresCategoryRepository(pgpool PgxPool) *PostgresCategoryRepository {
	return &PostgresCategoryRepository{pgpool: pgpool}
}

const createCategoryQuery = `
	INSERT INTO categories (id, user_id, name, is_default, color, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
`

const getCategoryByIDQuery = `
	SELECT id, user_id, name, is_default, color, created_at
	FROM categories
	WHERE id = $1
`

const listCategoriesQuery = `
	SELECT id, user_id, name, is_default, color, created_at
	FROM categories
	WHERE is_default = TRUE OR user_id = $1
	ORDER BY name
`

const deleteCategoryQuery = `
	DELETE FROM categories WHERE id = $1 AND user_id = $2 AND is_default = FALSE
`

const listRulesQuery = `
	SELECT id, user_id, category_id, keyword, priority, created_at
	FROM category_rules
	WHERE user_id = $1
	ORDER BY priority DESC, created_at DESC
`

const listRulesWithCategoriesQuery = `
	SELECT r.id, r.user_id, r.category_id, r.keyword, r.priority, r.created_at,
	       c.name AS category_name
	FROM category_rules r
	INNER JOIN categories c ON c.id = r.category_id
	WHERE r.user_id = $1
	ORDER BY r.priority DESC, r.created_at DESC
`

const upsertRuleQuery = `
	INSERT INTO category_rules (id, user_id, category_id, keyword, priority, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (user_id, keyword)
	DO UPDATE SET category_id = EXCLUDED.category_id
	RETURNING id, user_id, category_id, keyword, priority, created_at
`

const deleteRuleQuery = `
	DELETE FROM category_rules WHERE id = $1 AND user_id = $2
`

// CreateCategory inserts a new category.
func (r *PostgresCategoryRepository) CreateCategory(ctx context.Context, c *category.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	_, err := r.pgpool.Exec(ctx, createCategoryQuery,
		c.ID, c.UserID, c.Name, c.IsDefault, c.Color, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

// GetCategoryByID retrieves a category by ID.
func (r *PostgresCategoryRepository) GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	rows, err := r.pgpool.Query(ctx, getCategoryByIDQuery, id)
	if err != nil {
		return nil, err
	}

	c, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[category.Category])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns default categories plus the user's custom ones.
func (r *PostgresCategoryRepository) ListCategories(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	rows, err := r.pgpool.Query(ctx, listCategoriesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[category.Category])
}

// DeleteCategory removes a user's custom category. Default categories
// cannot be deleted.
func (r *PostgresCategoryRepository) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, deleteCategoryQuery, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}

// ListRules returns the user's rules ordered by priority then recency.
func (r *PostgresCategoryRepository) ListRules(ctx context.Context, userID uuid.UUID) ([]category.Rule, error) {
	rows, err := r.pgpool.Query(ctx, listRulesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[category.Rule])
}

// ListRulesWithCategories returns the user's rules joined with category
// names, ordered by priority then recency.
func (r *PostgresCategoryRepository) ListRulesWithCategories(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error) {
	rows, err := r.pgpool.Query(ctx, listRulesWithCategoriesQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list category rules: %w", err)
	}

	return pgx.CollectRows(rows, pgx.RowToStructByName[category.RuleWithCategory])
}

// UpsertRule atomically creates or retargets the rule for (user, keyword).
// The database-level upsert serializes concurrent assignments of the same
// keyword, so no duplicate rules can appear.
func (r *PostgresCategoryRepository) UpsertRule(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (*category.Rule, error) {
	rows, err := r.pgpool.Query(ctx, upsertRuleQuery,
		uuid.New(), userID, categoryID, keyword, 0, time.Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category rule: %w", err)
	}

	rule, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[category.Rule])
	if err != nil {
		return nil, fmt.Errorf("failed to upsert category rule: %w", err)
	}
	return &rule, nil
}

// DeleteRule removes one of the user's rules.
func (r *PostgresCategoryRepository) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, deleteRuleQuery, ruleID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	return nil
}
