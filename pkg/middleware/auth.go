// Package middleware holds the HTTP middleware chain: authentication,
// request logging, tracing, rate limiting, and panic recovery.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/trackr/internal/domain/common"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	userRoleKey contextKey = "user_role"
)

// TokenVerifier validates an access token and returns the subject and role.
type TokenVerifier interface {
	VerifySubject(tokenString string) (userID uuid.UUID, role string, err error)
}

// UserIDFromContext returns the authenticated user ID, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// RoleFromContext returns the authenticated user's role, if any.
func RoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(userRoleKey).(string)
	return role, ok
}

// ContextWithUser returns ctx with the user identity attached. Exposed for
// handler tests.
func ContextWithUser(ctx context.Context, userID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// Auth rejects requests without a valid bearer token and attaches the
// user identity to the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				common.WriteError(w, common.ErrUnauthenticated)
				return
			}

			userID, role, err := verifier.VerifySubject(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				common.WriteError(w, common.ErrUnauthenticated)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), userID, role)))
		})
	}
}
