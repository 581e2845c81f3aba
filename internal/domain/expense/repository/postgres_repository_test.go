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

	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/internal/domain/expense"
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

func TestPostgresExpenseRepository_Create(t *testing.T) {
	mock := newMockPool(t)

	e := &expense.Expense{
		UserID:          uuid.New(),
		Date:            time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Amount:          decimal.RequireFromString("50.00"),
		TransactionType: expense.TypeDebit,
		Description:     "POS PURCHASE TESCO",
	}

	mock.ExpectExec(regexp.QuoteMeta(createExpenseQuery)).
		WithArgs(pgxmock.AnyArg(), e.UserID, e.Date, e.Amount, expense.TypeDebit,
			"POS PURCHASE TESCO", pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	repo := NewPostgresExpenseRepository(mock)
	if err := repo.Create(context.Background(), e); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.ID == uuid.Nil {
		t.Fatal("expected generated expense ID")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_GetByID_NotFound(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	id := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "date", "amount", "transaction_type", "description",
		"category_id", "notes", "created_at", "updated_at", "category_name",
	})
	mock.ExpectQuery(regexp.QuoteMeta(getExpenseByIDQuery)).
		WithArgs(id, userID).
		WillReturnRows(rows)

	repo := NewPostgresExpenseRepository(mock)
	_, err := repo.GetByID(context.Background(), userID, id)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_List_UncategorizedFilter(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	now := time.Now()

	rows := pgxmock.NewRows([]string{
		"id", "user_id", "date", "amount", "transaction_type", "description",
		"category_id", "notes", "created_at", "updated_at", "category_name",
	}).AddRow(uuid.New(), userID, now, decimal.RequireFromString("12.50"),
		expense.TypeDebit, "COFFEE", nil, "", now, now, nil)

	mock.ExpectQuery("category_id IS NULL").
		WithArgs(userID, 50).
		WillReturnRows(rows)

	repo := NewPostgresExpenseRepository(mock)
	expenses, err := repo.List(context.Background(), userID, expense.Filter{
		Uncategorized: true,
		Limit:         50,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	if expenses[0].CategoryID != nil {
		t.Fatalf("expected uncategorized expense, got %+v", expenses[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_SetCategory_NotFound(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	id := uuid.New()
	categoryID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(setExpenseCategoryQuery)).
		WithArgs(id, userID, categoryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	repo := NewPostgresExpenseRepository(mock)
	if err := repo.SetCategory(context.Background(), userID, id, categoryID); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_ApplyCategoryToMatching(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(applyCategoryToMatchingQuery)).
		WithArgs(userID, "uber eats", categoryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	repo := NewPostgresExpenseRepository(mock)
	applied, err := repo.ApplyCategoryToMatching(context.Background(), userID, "uber eats", categoryID)
	if err != nil {
		t.Fatalf("ApplyCategoryToMatching: %v", err)
	}
	if applied != 3 {
		t.Fatalf("expected 3 rows updated, got %d", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_ApplyCategoryToMatching_EscapesWildcards(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(applyCategoryToMatchingQuery)).
		WithArgs(userID, `100\% JUICE\_CO`, categoryID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	repo := NewPostgresExpenseRepository(mock)
	applied, err := repo.ApplyCategoryToMatching(context.Background(), userID, "100% JUICE_CO", categoryID)
	if err != nil {
		t.Fatalf("ApplyCategoryToMatching: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 row updated, got %d", applied)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_Summary(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{"total_income", "total_expenses", "transaction_count"}).
		AddRow(decimal.RequireFromString("2500.00"), decimal.RequireFromString("1800.00"), 42)

	mock.ExpectQuery(regexp.QuoteMeta(summaryQuery)).
		WithArgs(userID, start, end).
		WillReturnRows(rows)

	repo := NewPostgresExpenseRepository(mock)
	summary, err := repo.Summary(context.Background(), userID, start, end)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if !summary.NetBalance.Equal(decimal.RequireFromString("700.00")) {
		t.Fatalf("expected net balance 700.00, got %s", summary.NetBalance)
	}
	if summary.TransactionCount != 42 {
		t.Fatalf("expected 42 transactions, got %d", summary.TransactionCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_ByCategory(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()

	rows := pgxmock.NewRows([]string{"category_name", "category_color", "total", "count"}).
		AddRow("Groceries", "#00AA00", decimal.RequireFromString("320.00"), 12).
		AddRow("Transport", "#0000AA", decimal.RequireFromString("85.50"), 7)

	mock.ExpectQuery(regexp.QuoteMeta(byCategoryQuery)).
		WithArgs(userID, expense.TypeDebit).
		WillReturnRows(rows)

	repo := NewPostgresExpenseRepository(mock)
	breakdown, err := repo.ByCategory(context.Background(), userID, expense.TypeDebit)
	if err != nil {
		t.Fatalf("ByCategory: %v", err)
	}
	if len(breakdown) != 2 || breakdown[0].CategoryName != "Groceries" {
		t.Fatalf("unexpected breakdown: %+v", breakdown)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresExpenseRepository_Delete_NotFound(t *testing.T) {
	mock := newMockPool(t)

	userID := uuid.New()
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(deleteExpenseQuery)).
		WithArgs(id, userID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresExpenseRepository(mock)
	if err := repo.Delete(context.Background(), userID, id); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
