package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	"github.com/FACorreiaa/trackr/internal/domain/expense"
	"github.com/FACorreiaa/trackr/pkg/logger"
)

type mockExpenseRepo struct {
	mock.Mock
}

func (m *mockExpenseRepo) Create(ctx context.Context, e *expense.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockExpenseRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*expense.WithCategory, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.WithCategory), args.Error(1)
}

func (m *mockExpenseRepo) List(ctx context.Context, userID uuid.UUID, filter expense.Filter) ([]expense.WithCategory, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.WithCategory), args.Error(1)
}

func (m *mockExpenseRepo) Update(ctx context.Context, e *expense.Expense) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *mockExpenseRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockExpenseRepo) SetCategory(ctx context.Context, userID, id, categoryID uuid.UUID) error {
	args := m.Called(ctx, userID, id, categoryID)
	return args.Error(0)
}

func (m *mockExpenseRepo) ApplyCategoryToMatching(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID, keyword, categoryID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockExpenseRepo) Summary(ctx context.Context, userID uuid.UUID, start, end time.Time) (*expense.Summary, error) {
	args := m.Called(ctx, userID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Summary), args.Error(1)
}

func (m *mockExpenseRepo) ByCategory(ctx context.Context, userID uuid.UUID, transactionType string) ([]expense.CategoryBreakdown, error) {
	args := m.Called(ctx, userID, transactionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.CategoryBreakdown), args.Error(1)
}

func (m *mockExpenseRepo) ByMonth(ctx context.Context, userID uuid.UUID, since time.Time) ([]expense.MonthlyTotal, error) {
	args := m.Called(ctx, userID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]expense.MonthlyTotal), args.Error(1)
}

type mockCategoryRepo struct {
	mock.Mock
}

func (m *mockCategoryRepo) CreateCategory(ctx context.Context, c *category.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *mockCategoryRepo) GetCategoryByID(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Category), args.Error(1)
}

func (m *mockCategoryRepo) ListCategories(ctx context.Context, userID uuid.UUID) ([]category.Category, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]category.Category), args.Error(1)
}

func (m *mockCategoryRepo) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *mockCategoryRepo) ListRules(ctx context.Context, userID uuid.UUID) ([]category.Rule, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]category.Rule), args.Error(1)
}

func (m *mockCategoryRepo) ListRulesWithCategories(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]category.RuleWithCategory), args.Error(1)
}

func (m *mockCategoryRepo) UpsertRule(ctx context.Context, userID uuid.UUID, keyword string, categoryID uuid.UUID) (*category.Rule, error) {
	args := m.Called(ctx, userID, keyword, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*category.Rule), args.Error(1)
}

func (m *mockCategoryRepo) DeleteRule(ctx context.Context, userID, ruleID uuid.UUID) error {
	args := m.Called(ctx, userID, ruleID)
	return args.Error(0)
}

func setupExpenseServiceTest() (*Service, *mockExpenseRepo, *mockCategoryRepo) {
	expenses := new(mockExpenseRepo)
	categories := new(mockCategoryRepo)
	svc := New(expenses, categories, logger.NewTestLogger())
	return svc, expenses, categories
}

func validInput() BulkInput {
	return BulkInput{
		Date:            "2024-01-15",
		Amount:          decimal.RequireFromString("50.00"),
		TransactionType: expense.TypeDebit,
		Description:     "POS PURCHASE TESCO",
	}
}

func TestCreate_SuggestsCategoryFromRules(t *testing.T) {
	svc, expenses, categories := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	groceriesID := uuid.New()

	categories.On("ListRules", ctx, userID).Return([]category.Rule{
		{ID: uuid.New(), UserID: userID, CategoryID: groceriesID, Keyword: "tesco", CreatedAt: time.Now()},
	}, nil).Once()
	expenses.On("Create", ctx, mock.AnythingOfType("*expense.Expense")).Return(nil).Once()

	e, err := svc.Create(ctx, userID, validInput())
	require.NoError(t, err)
	require.NotNil(t, e.CategoryID)
	assert.Equal(t, groceriesID, *e.CategoryID)

	expenses.AssertExpectations(t)
	categories.AssertExpectations(t)
}

func TestCreate_ExplicitCategorySkipsRules(t *testing.T) {
	svc, expenses, categories := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	chosen := uuid.New()

	input := validInput()
	input.CategoryID = &chosen

	expenses.On("Create", ctx, mock.AnythingOfType("*expense.Expense")).Return(nil).Once()

	e, err := svc.Create(ctx, userID, input)
	require.NoError(t, err)
	assert.Equal(t, chosen, *e.CategoryID)

	categories.AssertNotCalled(t, "ListRules", ctx, userID)
}

func TestCreate_ValidationErrors(t *testing.T) {
	svc, _, _ := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*BulkInput)
		msg    string
	}{
		{name: "bad date", mutate: func(i *BulkInput) { i.Date = "15/01/2024" }, msg: "expected YYYY-MM-DD"},
		{name: "negative amount", mutate: func(i *BulkInput) { i.Amount = decimal.RequireFromString("-5") }, msg: "non-negative"},
		{name: "bad type", mutate: func(i *BulkInput) { i.TransactionType = "TRANSFER" }, msg: "invalid transaction type"},
		{name: "empty description", mutate: func(i *BulkInput) { i.Description = "" }, msg: "description is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)

			_, err := svc.Create(ctx, userID, input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestBulkCreate_PartialResult(t *testing.T) {
	svc, expenses, _ := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	bad := validInput()
	bad.Date = "not-a-date"

	failing := validInput()
	failing.Description = "INSERT FAILS"

	expenses.On("Create", ctx, mock.MatchedBy(func(e *expense.Expense) bool {
		return e.Description == "INSERT FAILS"
	})).Return(errors.New("insert failed")).Once()
	expenses.On("Create", ctx, mock.AnythingOfType("*expense.Expense")).Return(nil)

	result, err := svc.BulkCreate(ctx, userID, []BulkInput{validInput(), bad, failing, validInput()})
	require.NoError(t, err, "bulk create must not abort on row failures")

	assert.Len(t, result.Created, 2)
	require.Len(t, result.Failures, 2)

	assert.Equal(t, 1, result.Failures[0].Index)
	assert.Contains(t, result.Failures[0].Error, "invalid date")
	assert.Equal(t, bad, result.Failures[0].Input)

	assert.Equal(t, 2, result.Failures[1].Index)
	assert.Contains(t, result.Failures[1].Error, "insert failed")
}

func TestBulkCreate_AllRowsFailStillReturnsResult(t *testing.T) {
	svc, _, _ := setupExpenseServiceTest()
	ctx := context.Background()

	bad := validInput()
	bad.TransactionType = "bogus"

	result, err := svc.BulkCreate(ctx, uuid.New(), []BulkInput{bad, bad})
	require.NoError(t, err)
	assert.Empty(t, result.Created)
	assert.Len(t, result.Failures, 2)
}

func TestAssignCategory_WithoutRule(t *testing.T) {
	svc, expenses, categories := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	expenseID := uuid.New()
	categoryID := uuid.New()

	stored := &expense.WithCategory{
		Expense: expense.Expense{ID: expenseID, UserID: userID, Description: "UBER EATS ORDER", CategoryID: &categoryID},
	}

	categories.On("GetCategoryByID", ctx, categoryID).Return(&category.Category{ID: categoryID, Name: "Dining"}, nil).Once()
	expenses.On("SetCategory", ctx, userID, expenseID, categoryID).Return(nil).Once()
	expenses.On("GetByID", ctx, userID, expenseID).Return(stored, nil).Once()

	got, err := svc.AssignCategory(ctx, userID, expenseID, categoryID, false)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	categories.AssertNotCalled(t, "UpsertRule", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	expenses.AssertExpectations(t)
}

func TestAssignCategory_CreateRuleDerivesKeywordAndReapplies(t *testing.T) {
	svc, expenses, categories := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	expenseID := uuid.New()
	categoryID := uuid.New()

	stored := &expense.WithCategory{
		Expense: expense.Expense{ID: expenseID, UserID: userID, Description: "UBER EATS ORDER 1234", CategoryID: &categoryID},
	}

	categories.On("GetCategoryByID", ctx, categoryID).Return(&category.Category{ID: categoryID, Name: "Dining"}, nil).Once()
	expenses.On("SetCategory", ctx, userID, expenseID, categoryID).Return(nil).Once()
	expenses.On("GetByID", ctx, userID, expenseID).Return(stored, nil).Once()
	categories.On("UpsertRule", ctx, userID, "UBER EATS", categoryID).
		Return(&category.Rule{ID: uuid.New(), Keyword: "uber eats", CategoryID: categoryID}, nil).Once()
	expenses.On("ApplyCategoryToMatching", ctx, userID, "UBER EATS", categoryID).Return(int64(3), nil).Once()

	got, err := svc.AssignCategory(ctx, userID, expenseID, categoryID, true)
	require.NoError(t, err)
	assert.Equal(t, stored, got)

	expenses.AssertExpectations(t)
	categories.AssertExpectations(t)
}

func TestAssignCategory_UnknownCategory(t *testing.T) {
	svc, expenses, categories := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()
	categoryID := uuid.New()

	categories.On("GetCategoryByID", ctx, categoryID).Return(nil, errors.New("not found")).Once()

	_, err := svc.AssignCategory(ctx, userID, uuid.New(), categoryID, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "category lookup failed")

	expenses.AssertNotCalled(t, "SetCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestByCategory_DefaultsToDebit(t *testing.T) {
	svc, expenses, _ := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	expenses.On("ByCategory", ctx, userID, expense.TypeDebit).Return([]expense.CategoryBreakdown{}, nil).Once()

	_, err := svc.ByCategory(ctx, userID, "")
	require.NoError(t, err)
	expenses.AssertExpectations(t)
}

func TestByMonth_DefaultsToSixMonths(t *testing.T) {
	svc, expenses, _ := setupExpenseServiceTest()
	ctx := context.Background()
	userID := uuid.New()

	expenses.On("ByMonth", ctx, userID, mock.MatchedBy(func(since time.Time) bool {
		expected := time.Now().AddDate(0, 0, -180)
		return since.Sub(expected).Abs() < time.Minute
	})).Return([]expense.MonthlyTotal{}, nil).Once()

	_, err := svc.ByMonth(ctx, userID, 0)
	require.NoError(t, err)
	expenses.AssertExpectations(t)
}
