package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/FACorreiaa/trackr/internal/domain/common"
)

// Recover converts panics into 500 responses so one bad request cannot
// take the process down.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					common.WriteJSON(w, http.StatusInternalServerError, common.ErrorResponse{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
