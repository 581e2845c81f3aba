// Package category holds expense categories and the keyword rules that
// auto-assign them to transactions.
package category

import (
	"time"

	"github.com/google/uuid"
)

// Category is an expense/income category. Default categories have a nil
// UserID and are visible to everyone; custom categories belong to one user.
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	IsDefault bool       `json:"is_default" db:"is_default"`
	Color     string     `json:"color" db:"color"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Rule maps a description keyword to a category for one user. Rules are
// upserted per (user, keyword), so at most one rule exists per pair.
type Rule struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	CategoryID uuid.UUID `json:"category_id" db:"category_id"`
	Keyword    string    `json:"keyword" db:"keyword"`
	Priority   int       `json:"priority" db:"priority"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// Matches reports whether the rule's keyword appears in the description,
// case-insensitively.
func (r *Rule) Matches(description string) bool {
	return containsFold(description, r.Keyword)
}

// RuleWithCategory joins a rule with its category's display name, the shape
// the preview pipeline needs to annotate suggestions.
type RuleWithCategory struct {
	Rule
	CategoryName string `db:"category_name"`
}
