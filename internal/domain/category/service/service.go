// Package service implements category and keyword-rule management.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	"github.com/FACorreiaa/trackr/internal/domain/category/repository"
	"github.com/FACorreiaa/trackr/internal/domain/common"
)

// Service manages categories and the keyword rules that auto-categorize
// transactions.
type Service struct {
	repo   repository.CategoryRepository
	logger *slog.Logger
}

// New creates a new category service.
func New(repo repository.CategoryRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateCategory creates a user-scoped category.
func (s *Service) CreateCategory(ctx context.Context, userID uuid.UUID, name, color string) (*category.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", common.ErrBadRequest)
	}

	c := &category.Category{
		ID:     uuid.New(),
		UserID: &userID,
		Name:   name,
		Color:  color,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCategories returns the user's categories plus the shared defaults.
func (s *Service) ListCategories(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	return s.repo.ListCategories(ctx, userID)
}

// DeleteCategory removes a user-owned category. Default categories cannot
// be deleted through this path since they carry no owner.
func (s *Service) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.DeleteCategory(ctx, userID, id)
}

// ListRules returns the user's keyword rules with their category names,
// ordered the way the matcher evaluates them.
func (s *Service) ListRules(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error) {
	return s.repo.ListRulesWithCategories(ctx, userID)
}

// UpsertRule creates or repoints the rule for a keyword. A keyword maps to
// exactly one category per user, so a second upsert replaces the target.
func (s *Service) UpsertRule(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (*category.Rule, error) {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil, fmt.Errorf("%w: keyword is required", common.ErrBadRequest)
	}
	if _, err := s.repo.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, err
	}

	rule, err := s.repo.UpsertRule(ctx, userID, keyword, categoryID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("category rule upserted", "user_id", userID, "keyword", keyword, "category_id", categoryID)
	return rule, nil
}

// DeleteRule removes one of the user's keyword rules.
func (s *Service) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	return s.repo.DeleteRule(ctx, userID, ruleID)
}
