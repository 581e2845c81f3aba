// Package service implements expense workflows: CRUD, the bulk ETL load
// with an explicit partial result, the category-assignment flow that feeds
// the keyword rules, and the reporting queries.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	categoryrepo "github.com/FACorreiaa/trackr/internal/domain/category/repository"
	"github.com/FACorreiaa/trackr/internal/domain/expense"
	"github.com/FACorreiaa/trackr/internal/domain/expense/repository"
)

// BulkInput is one transaction row submitted to the bulk create endpoint,
// usually straight from an ingestion preview.
type BulkInput struct {
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transaction_type"`
	Description     string          `json:"description"`
	CategoryID      *uuid.UUID      `json:"category,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// RowError pairs a failed bulk row with its index and original input, so
// callers can report exactly which rows were rejected and why.
type RowError struct {
	Index int       `json:"index"`
	Error string    `json:"error"`
	Input BulkInput `json:"transaction"`
}

// BulkResult is the explicit partial result of a bulk create: successes and
// failures in one value, never an interrupt halfway through.
type BulkResult struct {
	Created  []expense.Expense `json:"expenses"`
	Failures []RowError        `json:"errors"`
}

// Service wires expense persistence with the category rule store.
type Service struct {
	expenses repository.ExpenseRepository
	rules    categoryrepo.CategoryRepository
	logger   *slog.Logger
}

// New creates a new expense service.
func New(expenses repository.ExpenseRepository, rules categoryrepo.CategoryRepository, logger *slog.Logger) *Service {
	return &Service{
		expenses: expenses,
		rules:    rules,
		logger:   logger,
	}
}

// Create stores one manually entered expense. When no category is given,
// the user's keyword rules are consulted for a suggestion; persisting with
// that suggestion is this service's explicit decision, not a side effect
// buried in the storage layer.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input BulkInput) (*expense.Expense, error) {
	e, err := s.validate(userID, input)
	if err != nil {
		return nil, err
	}

	if e.CategoryID == nil {
		if rules, ruleErr := s.rules.ListRules(ctx, userID); ruleErr == nil {
			if rule, ok := category.Match(e.Description, rules); ok {
				e.CategoryID = &rule.CategoryID
			}
		} else {
			s.logger.Warn("failed to load category rules for create", "error", ruleErr)
		}
	}

	if err := s.expenses.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// BulkCreate validates and stores many expenses, returning the successes
// plus an (index, error, input) record for every rejected row.
func (s *Service) BulkCreate(ctx context.Context, userID uuid.UUID, inputs []BulkInput) (*BulkResult, error) {
	result := &BulkResult{
		Created:  make([]expense.Expense, 0, len(inputs)),
		Failures: make([]RowError, 0),
	}

	for i, input := range inputs {
		e, err := s.validate(userID, input)
		if err == nil {
			err = s.expenses.Create(ctx, e)
		}
		if err != nil {
			result.Failures = append(result.Failures, RowError{
				Index: i,
				Error: err.Error(),
				Input: input,
			})
			continue
		}
		result.Created = append(result.Created, *e)
	}

	s.logger.Info("bulk create finished",
		"user_id", userID,
		"created", len(result.Created),
		"failed", len(result.Failures),
	)
	return result, nil
}

// AssignCategory sets an expense's category. When createRule is true, a
// keyword derived from the expense's description is upserted as a rule and
// re-applied to every other currently-uncategorized expense containing it.
func (s *Service) AssignCategory(ctx context.Context, userID, expenseID, categoryID uuid.UUID, createRule bool) (*expense.WithCategory, error) {
	if _, err := s.rules.GetCategoryByID(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("category lookup failed: %w", err)
	}

	if err := s.expenses.SetCategory(ctx, userID, expenseID, categoryID); err != nil {
		return nil, err
	}

	if createRule {
		updated, err := s.expenses.GetByID(ctx, userID, expenseID)
		if err != nil {
			return nil, err
		}

		keyword := category.DeriveKeyword(updated.Description)
		if keyword != "" {
			if _, err := s.rules.UpsertRule(ctx, userID, keyword, categoryID); err != nil {
				return nil, fmt.Errorf("failed to upsert rule for keyword %q: %w", keyword, err)
			}
			applied, err := s.expenses.ApplyCategoryToMatching(ctx, userID, keyword, categoryID)
			if err != nil {
				return nil, err
			}
			s.logger.Info("category rule applied",
				"user_id", userID,
				"keyword", keyword,
				"expenses_updated", applied,
			)
		}
		return updated, nil
	}

	return s.expenses.GetByID(ctx, userID, expenseID)
}

// Summary reports income, expenses, and net balance for the month
// containing now when no explicit range is given.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*expense.Summary, error) {
	return s.expenses.Summary(ctx, userID, start, end)
}

// ByCategory reports spending per category for one transaction type.
func (s *Service) ByCategory(ctx context.Context, userID uuid.UUID, transactionType string) ([]expense.CategoryBreakdown, error) {
	if transactionType == "" {
		transactionType = expense.TypeDebit
	}
	return s.expenses.ByCategory(ctx, userID, transactionType)
}

// ByMonth reports monthly totals over roughly the last N months.
func (s *Service) ByMonth(ctx context.Context, userID uuid.UUID, months int) ([]expense.MonthlyTotal, error) {
	if months <= 0 {
		months = 6
	}
	since := time.Now().AddDate(0, 0, -months*30)
	return s.expenses.ByMonth(ctx, userID, since)
}

// List returns the user's filtered expenses.
func (s *Service) List(ctx context.Context, userID uuid.UUID, filter expense.Filter) ([]expense.WithCategory, error) {
	return s.expenses.List(ctx, userID, filter)
}

// Get returns one of the user's expenses.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*expense.WithCategory, error) {
	return s.expenses.GetByID(ctx, userID, id)
}

// Update rewrites an expense after validation.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, input BulkInput) (*expense.Expense, error) {
	e, err := s.validate(userID, input)
	if err != nil {
		return nil, err
	}
	e.ID = id

	if err := s.expenses.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Delete removes one of the user's expenses.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.expenses.Delete(ctx, userID, id)
}

// validate turns a raw input row into a storable expense or an error
// naming the offending field.
func (s *Service) validate(userID uuid.UUID, input BulkInput) (*expense.Expense, error) {
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", input.Date)
	}
	if input.Amount.IsNegative() {
		return nil, fmt.Errorf("amount must be non-negative, got %s", input.Amount)
	}
	if !expense.ValidType(input.TransactionType) {
		return nil, fmt.Errorf("invalid transaction type %q", input.TransactionType)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("description is required")
	}

	return &expense.Expense{
		ID:              uuid.New(),
		UserID:          userID,
		Date:            date,
		Amount:          input.Amount.Round(2),
		TransactionType: input.TransactionType,
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		Notes:           input.Notes,
	}, nil
}
