// Package expense holds individual transactions (debits and credits) and
// the aggregation shapes reporting is built on.
package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types. Amounts are stored as non-negative magnitudes; the
// type carries the direction so debit and credit sums stay unambiguous.
const (
	TypeDebit   = "DEBIT"
	TypeCredit  = "CREDIT"
	TypeNeutral = "NEUTRAL"
)

// Expense is a single stored transaction.
type Expense struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"user_id" db:"user_id"`
	Date            time.Time       `json:"date" db:"date"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	TransactionType string          `json:"transaction_type" db:"transaction_type"`
	Description     string          `json:"description" db:"description"`
	CategoryID      *uuid.UUID      `json:"category,omitempty" db:"category_id"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// WithCategory joins an expense with its category name for list responses.
type WithCategory struct {
	Expense
	CategoryName *string `json:"category_name,omitempty" db:"category_name"`
}

// Filter narrows expense listings. Uncategorized restricts the result to
// expenses with no category, which is how review queues are built.
type Filter struct {
	TransactionType string
	CategoryID      *uuid.UUID
	StartDate       *time.Time
	EndDate         *time.Time
	Uncategorized   bool
	Limit           int
	Offset          int
}

// Summary is the overall financial picture for a period.
type Summary struct {
	TotalIncome      decimal.Decimal `json:"total_income"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetBalance       decimal.Decimal `json:"net_balance"`
	TransactionCount int             `json:"transaction_count"`
}

// CategoryBreakdown is one slice of the by-category spending report.
type CategoryBreakdown struct {
	CategoryName  string          `json:"category_name" db:"category_name"`
	CategoryColor string          `json:"category_color" db:"category_color"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Count         int             `json:"count" db:"count"`
}

// MonthlyTotal is one point of the monthly trend report.
type MonthlyTotal struct {
	Month           time.Time       `json:"month" db:"month"`
	TransactionType string          `json:"transaction_type" db:"transaction_type"`
	Total           decimal.Decimal `json:"total" db:"total"`
}

// ValidType reports whether t is a known transaction type.
func ValidType(t string) bool {
	return t == TypeDebit || t == TypeCredit || t == TypeNeutral
}
