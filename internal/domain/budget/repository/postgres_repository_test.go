package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/trackr/internal/domain/budget"
	"github.com/FACorreiaa/trackr/internal/domain/common"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresBudgetRepository_Upsert(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	categoryID := uuid.New()
	returnedID := uuid.New()
	now := time.Now()
	month := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	b := &budget.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString("400.00"),
		// Mid-month input must be normalized to the first of the month.
		Month: time.Date(2024, time.March, 17, 9, 30, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta(upsertBudgetQuery)).
		WithArgs(pgxmock.AnyArg(), userID, categoryID, b.Amount, month, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(returnedID, now))

	repo := NewPostgresBudgetRepository(mock)
	if err := repo.Upsert(context.Background(), b); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if b.ID != returnedID {
		t.Fatalf("expected returned id %s, got %s", returnedID, b.ID)
	}
	if !b.Month.Equal(month) {
		t.Fatalf("expected month normalized to %s, got %s", month, b.Month)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresBudgetRepository_List(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	month := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "category_id", "amount", "month", "created_at",
		"category_name", "spent",
	}).AddRow(uuid.New(), userID, uuid.New(), decimal.RequireFromString("400.00"),
		month, now, "Groceries", decimal.RequireFromString("123.45"))

	mock.ExpectQuery(regexp.QuoteMeta(listBudgetsQuery)).
		WithArgs(userID, month).
		WillReturnRows(rows)

	repo := NewPostgresBudgetRepository(mock)
	budgets, err := repo.List(context.Background(), userID, month.AddDate(0, 0, 14))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected 1 budget, got %d", len(budgets))
	}
	if budgets[0].CategoryName != "Groceries" {
		t.Fatalf("unexpected category name: %s", budgets[0].CategoryName)
	}
	if !budgets[0].Spent.Equal(decimal.RequireFromString("123.45")) {
		t.Fatalf("unexpected spent: %s", budgets[0].Spent)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresBudgetRepository_Delete_NotFound(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(deleteBudgetQuery)).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresBudgetRepository(mock)
	if err := repo.Delete(context.Background(), userID, id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
