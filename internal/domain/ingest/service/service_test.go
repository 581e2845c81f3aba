package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/trackr/internal/domain/category"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/detector"
	"github.com/FACorreiaa/trackr/internal/domain/ingest/normalizer"
	"github.com/FACorreiaa/trackr/pkg/logger"
)

type mockRuleSource struct {
	mock.Mock
}

func (m *mockRuleSource) ListRulesWithCategories(ctx context.Context, userID uuid.UUID) ([]category.RuleWithCategory, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]category.RuleWithCategory), args.Error(1)
}

func newTestService(rules RuleSource) *Service {
	return New(rules, logger.NewTestLogger())
}

func TestIngest_EndToEnd(t *testing.T) {
	userID := uuid.New()
	groceriesID := uuid.New()

	rules := new(mockRuleSource)
	rules.On("ListRulesWithCategories", mock.Anything, userID).Return([]category.RuleWithCategory{
		{
			Rule: category.Rule{
				ID:         uuid.New(),
				UserID:     userID,
				CategoryID: groceriesID,
				Keyword:    "tesco",
				Priority:   0,
				CreatedAt:  time.Now(),
			},
			CategoryName: "Groceries",
		},
	}, nil)

	csv := "Trans Date,Narration,Amount\n" +
		"15/01/2024,POS PURCHASE TESCO,(50.00)\n" +
		"16/01/2024,SALARY JANUARY,\"2,500.00 CR\"\n" +
		"17/01/2024,BALANCE CHECK,0.00\n"

	preview, err := newTestService(rules).Ingest(context.Background(), userID, "statement.csv", []byte(csv), detector.Overrides{})
	require.NoError(t, err)

	assert.Equal(t, detector.RoleDate, preview.Mapping["Trans Date"])
	assert.Equal(t, detector.RoleAmount, preview.Mapping["Amount"])
	assert.Equal(t, detector.RoleDescription, preview.Mapping["Narration"])

	require.Len(t, preview.Transactions, 3)
	assert.Zero(t, preview.Rejected.Total())

	tesco := preview.Transactions[0]
	assert.Equal(t, "2024-01-15", tesco.DateString())
	assert.Equal(t, normalizer.DirectionDebit, tesco.Direction)
	assert.True(t, tesco.Amount.Equal(decimal.RequireFromString("50")))
	require.NotNil(t, tesco.CategoryID)
	assert.Equal(t, groceriesID, *tesco.CategoryID)
	require.NotNil(t, tesco.CategoryName)
	assert.Equal(t, "Groceries", *tesco.CategoryName)

	salary := preview.Transactions[1]
	assert.Equal(t, normalizer.DirectionCredit, salary.Direction)
	assert.True(t, salary.Amount.Equal(decimal.RequireFromString("2500")))
	assert.Nil(t, salary.CategoryID)

	zero := preview.Transactions[2]
	assert.Equal(t, normalizer.DirectionNeutral, zero.Direction)

	rules.AssertExpectations(t)
}

func TestIngest_RejectionsCountedPerStage(t *testing.T) {
	rules := new(mockRuleSource)
	rules.On("ListRulesWithCategories", mock.Anything, mock.Anything).Return([]category.RuleWithCategory{}, nil)

	csv := "Date,Amount,Description\n" +
		"2024-01-15,50.00,Groceries\n" +
		"not a date,20.00,Coffee\n" +
		"2024-01-17,not a number,Rent\n" +
		"2024-01-15,50.00,Groceries\n"

	preview, err := newTestService(rules).Ingest(context.Background(), uuid.New(), "statement.csv", []byte(csv), detector.Overrides{})
	require.NoError(t, err)

	require.Len(t, preview.Transactions, 1)
	assert.Equal(t, 1, preview.Rejected.BadDate)
	assert.Equal(t, 1, preview.Rejected.BadAmount)
	assert.Equal(t, 1, preview.Rejected.Duplicate)
	assert.Equal(t, 3, preview.Rejected.Total())
}

func TestIngest_MissingDescriptionGetsPlaceholder(t *testing.T) {
	rules := new(mockRuleSource)
	rules.On("ListRulesWithCategories", mock.Anything, mock.Anything).Return([]category.RuleWithCategory{}, nil)

	csv := "Date,Amount,Description\n2024-01-15,50.00,\n"

	preview, err := newTestService(rules).Ingest(context.Background(), uuid.New(), "statement.csv", []byte(csv), detector.Overrides{})
	require.NoError(t, err)

	require.Len(t, preview.Transactions, 1)
	assert.Equal(t, normalizer.DescriptionPlaceholder, preview.Transactions[0].Description)
}

func TestIngest_NoSurvivingRows(t *testing.T) {
	rules := new(mockRuleSource)

	csv := "Date,Amount,Description\n" +
		"not a date,50.00,Groceries\n" +
		"also bad,20.00,Coffee\n"

	// The date column never samples as dates, so detection is bypassed
	// with overrides to reach the normalization stage.
	_, err := newTestService(rules).Ingest(context.Background(), uuid.New(), "statement.csv", []byte(csv), detector.Overrides{
		DateColumn:        "Date",
		AmountColumn:      "Amount",
		DescriptionColumn: "Description",
	})
	require.Error(t, err)

	var nsr *NoSurvivingRowsError
	require.ErrorAs(t, err, &nsr)
	assert.Equal(t, 2, nsr.Rejected.BadDate)
}

func TestIngest_RuleLookupFailureIsNotFatal(t *testing.T) {
	rules := new(mockRuleSource)
	rules.On("ListRulesWithCategories", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	csv := "Date,Amount,Description\n2024-01-15,50.00,Groceries\n"

	preview, err := newTestService(rules).Ingest(context.Background(), uuid.New(), "statement.csv", []byte(csv), detector.Overrides{})
	require.NoError(t, err)
	require.Len(t, preview.Transactions, 1)
	assert.Nil(t, preview.Transactions[0].CategoryID)
}

func TestIngest_ManualOverrides(t *testing.T) {
	rules := new(mockRuleSource)
	rules.On("ListRulesWithCategories", mock.Anything, mock.Anything).Return([]category.RuleWithCategory{}, nil)

	csv := "When,How Much,What,Reference\n" +
		"2024-01-15,50.00,Groceries,ref-1\n"

	preview, err := newTestService(rules).Ingest(context.Background(), uuid.New(), "statement.csv", []byte(csv), detector.Overrides{
		DateColumn:        "When",
		AmountColumn:      "How Much",
		DescriptionColumn: "What",
	})
	require.NoError(t, err)

	assert.Equal(t, detector.RoleDate, preview.Mapping["When"])
	assert.Equal(t, detector.RoleAmount, preview.Mapping["How Much"])
	assert.Equal(t, detector.RoleDescription, preview.Mapping["What"])
	require.Len(t, preview.Transactions, 1)
}
