// Package budget holds monthly spending limits per category.
package budget

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category. Month is always
// normalized to the first day of the month; at most one budget exists per
// (user, category, month).
type Budget struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	UserID     uuid.UUID       `json:"user_id" db:"user_id"`
	CategoryID uuid.UUID       `json:"category" db:"category_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Month      time.Time       `json:"month" db:"month"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// WithProgress joins a budget with the spending recorded against it so far.
type WithProgress struct {
	Budget
	CategoryName string          `json:"category_name" db:"category_name"`
	Spent        decimal.Decimal `json:"spent" db:"spent"`
}

// NormalizeMonth truncates t to the first day of its month in UTC.
func NormalizeMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
