// Package handler exposes profile and account management over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authservice "github.com/FACorreiaa/trackr/internal/domain/auth/service"
	"github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/internal/domain/user"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// UserHandler serves the profile endpoints for the authenticated user.
type UserHandler struct {
	svc user.UserService
}

// NewUserHandler constructs a new handler.
func NewUserHandler(svc user.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Routes mounts the profile endpoints onto a router.
func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/profile", h.GetProfile)
	r.Put("/profile", h.UpdateProfile)
	r.Put("/profile/password", h.ChangePassword)
	r.Delete("/profile", h.DeactivateAccount)

	r.Post("/users/{user_id}/reactivate", h.ReactivateUser)
}

// GetProfile returns the caller's profile and display preferences.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	profile, err := h.svc.GetUserProfile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, profile)
}

// UpdateProfile applies a partial update to the caller's profile.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var params common.UpdateProfileParams
	if err := common.DecodeJSON(r, &params); err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.svc.UpdateUserProfile(r.Context(), userID, params); err != nil {
		common.WriteError(w, err)
		return
	}

	profile, err := h.svc.GetUserProfile(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, profile)
}

// ChangePassword swaps the caller's password after verifying the
// current one. All sessions are revoked afterwards, so clients must
// log in again.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	if err := h.svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, authservice.ErrPasswordTooShort),
			errors.Is(err, authservice.ErrPasswordNoDigit),
			errors.Is(err, authservice.ErrPasswordNoLowercase),
			errors.Is(err, authservice.ErrPasswordNoUppercase):
			common.WriteBadRequest(w, err.Error())
		default:
			common.WriteError(w, err)
		}
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

// DeactivateAccount soft deletes the caller's account.
func (h *UserHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}

	if err := h.svc.DeactivateUser(r.Context(), userID); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "account deactivated"})
}

// ReactivateUser restores a deactivated account. Admin only, since
// deactivated users cannot authenticate themselves.
func (h *UserHandler) ReactivateUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		common.WriteError(w, common.ErrUnauthenticated)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if role != "admin" {
		common.WriteError(w, common.ErrForbidden)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "user_id"))
	if err != nil {
		common.WriteBadRequest(w, "invalid user id")
		return
	}

	if err := h.svc.ReactivateUser(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteJSON(w, http.StatusOK, map[string]string{"message": "account reactivated"})
}
