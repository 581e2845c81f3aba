// Package handler exposes registration, login, and session management
// over HTTP.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/trackr/internal/domain/auth/common"
	"github.com/FACorreiaa/trackr/internal/domain/auth/repository"
	"github.com/FACorreiaa/trackr/internal/domain/auth/service"
	domaincommon "github.com/FACorreiaa/trackr/internal/domain/common"
	"github.com/FACorreiaa/trackr/pkg/middleware"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs a new handler.
func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// PublicRoutes mounts the unauthenticated auth endpoints.
func (h *AuthHandler) PublicRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
	r.Post("/auth/logout", h.Logout)
	r.Post("/auth/verify-email", h.VerifyEmail)
	r.Post("/auth/forgot-password", h.ForgotPassword)
	r.Post("/auth/reset-password", h.ResetPassword)
}

// Routes mounts the authenticated auth endpoints.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Get("/auth/me", h.GetMe)
}

// userResponse is the wire shape of a user. The password hash never
// leaves the service boundary.
type userResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type authResponse struct {
	User   *userResponse       `json:"user,omitempty"`
	Tokens *service.AuthTokens `json:"tokens,omitempty"`
}

func toUserResponse(u *repository.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// Register handles user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Username    string `json:"username"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		domaincommon.WriteBadRequest(w, "email and password are required")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	result, err := h.service.RegisterUser(r.Context(), service.RegisterParams{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Metadata:    metadataFromRequest(r),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	domaincommon.WriteJSON(w, http.StatusCreated, authResponse{
		User:   toUserResponse(result.User),
		Tokens: result.Tokens,
	})
}

// Login authenticates a user.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		domaincommon.WriteBadRequest(w, "email and password are required")
		return
	}

	result, err := h.service.Login(r.Context(), service.LoginParams{
		Email:    req.Email,
		Password: req.Password,
		Metadata: metadataFromRequest(r),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	domaincommon.WriteJSON(w, http.StatusOK, authResponse{
		User:   toUserResponse(result.User),
		Tokens: result.Tokens,
	})
}

// Refresh rotates the refresh token and issues a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.RefreshToken == "" {
		domaincommon.WriteBadRequest(w, "refresh token is required")
		return
	}

	tokens, err := h.service.RefreshTokens(r.Context(), service.RefreshTokenParams{
		RefreshToken: req.RefreshToken,
		Metadata:     metadataFromRequest(r),
	})
	if err != nil {
		h.writeAuthError(w, err)
		return
	}

	domaincommon.WriteJSON(w, http.StatusOK, authResponse{Tokens: tokens})
}

// Logout deletes the refresh token session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.RefreshToken == "" {
		domaincommon.WriteBadRequest(w, "refresh token is required")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		h.writeAuthError(w, err)
		return
	}
	domaincommon.WriteJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// VerifyEmail consumes an email verification token.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.Token == "" {
		domaincommon.WriteBadRequest(w, "token is required")
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		h.writeAuthError(w, err)
		return
	}
	domaincommon.WriteJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

// ForgotPassword requests a password reset email.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.Email == "" {
		domaincommon.WriteBadRequest(w, "email is required")
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeAuthError(w, err)
		return
	}
	domaincommon.WriteJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset email has been sent"})
}

// ResetPassword consumes a reset token and sets a new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := domaincommon.DecodeJSON(r, &req); err != nil {
		domaincommon.WriteError(w, err)
		return
	}
	if req.Token == "" || req.Password == "" {
		domaincommon.WriteBadRequest(w, "token and password are required")
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeAuthError(w, err)
		return
	}
	domaincommon.WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// GetMe returns the current authenticated user.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		domaincommon.WriteError(w, domaincommon.ErrUnauthenticated)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	domaincommon.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func metadataFromRequest(r *http.Request) service.SessionMetadata {
	return service.SessionMetadata{
		UserAgent: r.UserAgent(),
		ClientIP:  r.RemoteAddr,
	}
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrUserAlreadyExists):
		domaincommon.WriteJSON(w, http.StatusConflict, domaincommon.ErrorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrInvalidCredentials),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrSessionNotFound):
		domaincommon.WriteJSON(w, http.StatusUnauthorized, domaincommon.ErrorResponse{Error: err.Error()})
	case errors.Is(err, common.ErrUserNotFound):
		domaincommon.WriteJSON(w, http.StatusNotFound, domaincommon.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAccountInactive):
		domaincommon.WriteJSON(w, http.StatusForbidden, domaincommon.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordNoDigit),
		errors.Is(err, service.ErrPasswordNoLowercase),
		errors.Is(err, service.ErrPasswordNoUppercase):
		domaincommon.WriteJSON(w, http.StatusBadRequest, domaincommon.ErrorResponse{Error: err.Error()})
	default:
		domaincommon.WriteError(w, err)
	}
}
