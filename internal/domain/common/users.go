package common

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the user's own view of their account, including
// display preferences used when rendering amounts and dates.
type UserProfile struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username"`
	DisplayName     string     `json:"display_name"`
	Role            string     `json:"role"`
	Currency        string     `json:"currency"`
	Theme           string     `json:"theme"`
	Locale          string     `json:"locale"`
	IsActive        bool       `json:"is_active"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UpdateProfileParams carries the mutable profile fields. Nil means
// "leave unchanged".
type UpdateProfileParams struct {
	Username    *string `json:"username,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	Currency    *string `json:"currency,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	Locale      *string `json:"locale,omitempty"`
}
