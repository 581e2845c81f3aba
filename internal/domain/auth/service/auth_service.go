// Package service implements registration, login, and session lifecycle
// on top of the auth repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/trackr/internal/domain/auth/common"
	"github.com/FACorreiaa/trackr/internal/domain/auth/repository"
)

var (
	ErrAccountInactive     = errors.New("account is deactivated")
	ErrPasswordTooShort    = errors.New("password must be at least 8 characters")
	ErrPasswordNoDigit     = errors.New("password must contain a digit")
	ErrPasswordNoLowercase = errors.New("password must contain a lowercase letter")
	ErrPasswordNoUppercase = errors.New("password must contain an uppercase letter")
)

// Token types stored in user_tokens.
const (
	TokenTypeEmailVerification = "email_verification"
	TokenTypePasswordReset     = "password_reset"
)

// AuthTokens is the access/refresh pair handed to clients.
type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// SessionMetadata carries request attribution for refresh sessions.
type SessionMetadata struct {
	UserAgent string
	ClientIP  string
}

// RegisterParams are the inputs for user registration.
type RegisterParams struct {
	Email       string
	Username    string
	Password    string
	DisplayName string
	Metadata    SessionMetadata
}

// LoginParams are the inputs for password login.
type LoginParams struct {
	Email    string
	Password string
	Metadata SessionMetadata
}

// RefreshTokenParams are the inputs for a token refresh.
type RefreshTokenParams struct {
	RefreshToken string
	Metadata     SessionMetadata
}

// AuthResult pairs a user with freshly issued tokens.
type AuthResult struct {
	User   *repository.User
	Tokens *AuthTokens
}

// AuthService implements the authentication flows.
type AuthService struct {
	repo   repository.AuthRepository
	tokens *TokenManager
	email  EmailSender
	logger *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(repo repository.AuthRepository, tokens *TokenManager, email EmailSender, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:   repo,
		tokens: tokens,
		email:  email,
		logger: logger,
	}
}

// RegisterUser creates a user, opens a session, and sends the verification
// email. The verification email is best-effort: a mail failure never fails
// the registration.
func (s *AuthService) RegisterUser(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if err := ValidatePassword(params.Password); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, common.ErrUserAlreadyExists
	} else if !errors.Is(err, common.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, params.Username, string(hashed), params.DisplayName)
	if err != nil {
		return nil, err
	}

	tokens, err := s.openSession(ctx, user, params.Metadata)
	if err != nil {
		return nil, err
	}

	if verifyToken, tokenErr := s.issueUserToken(ctx, user.ID, TokenTypeEmailVerification, 24*time.Hour); tokenErr != nil {
		s.logger.Warn("failed to issue verification token", "error", tokenErr)
	} else if mailErr := s.email.SendVerificationEmail(user.Email, user.DisplayName, verifyToken); mailErr != nil {
		s.logger.Warn("failed to send verification email", "error", mailErr)
	}

	s.logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// Login authenticates a user by email and password.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(params.Email)))
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(params.Password)); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	tokens, err := s.openSession(ctx, user, params.Metadata)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// RefreshTokens rotates a refresh token: the presented session is deleted
// and a new one is opened, so each refresh token is single-use.
func (s *AuthService) RefreshTokens(ctx context.Context, params RefreshTokenParams) (*AuthTokens, error) {
	session, err := s.repo.GetUserSessionByToken(ctx, HashToken(params.RefreshToken))
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	if err := s.repo.DeleteUserSession(ctx, session.HashedRefreshToken); err != nil {
		return nil, err
	}
	return s.openSession(ctx, user, params.Metadata)
}

// Logout deletes the session behind a refresh token.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.DeleteUserSession(ctx, HashToken(refreshToken))
}

// GetUser returns one user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

// VerifyEmail consumes a verification token and marks the email verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	hash := HashToken(token)
	stored, err := s.repo.GetUserTokenByHash(ctx, hash, TokenTypeEmailVerification)
	if err != nil {
		return err
	}

	if err := s.repo.VerifyEmail(ctx, stored.UserID); err != nil {
		return err
	}
	return s.repo.DeleteUserToken(ctx, hash)
}

// RequestPasswordReset issues a reset token and mails it. Unknown emails
// are reported as success so the endpoint cannot be used to probe accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, common.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := s.issueUserToken(ctx, user.ID, TokenTypePasswordReset, time.Hour)
	if err != nil {
		return err
	}
	return s.email.SendPasswordResetEmail(user.Email, user.DisplayName, token)
}

// ResetPassword consumes a reset token, updates the password, and revokes
// every open session for the user.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	hash := HashToken(token)
	stored, err := s.repo.GetUserTokenByHash(ctx, hash, TokenTypePasswordReset)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.repo.UpdatePassword(ctx, stored.UserID, string(hashed)); err != nil {
		return err
	}
	if err := s.repo.DeleteUserToken(ctx, hash); err != nil {
		return err
	}
	return s.repo.DeleteAllUserSessions(ctx, stored.UserID)
}

// openSession issues an access/refresh pair and records the session.
func (s *AuthService) openSession(ctx context.Context, user *repository.User, meta SessionMetadata) (*AuthTokens, error) {
	access, err := s.tokens.GenerateAccessToken(user.ID, user.Email, user.Username, user.Role)
	if err != nil {
		return nil, err
	}

	refresh, refreshHash, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.tokens.RefreshTTL())
	if _, err := s.repo.CreateUserSession(ctx, user.ID, refreshHash, meta.UserAgent, meta.ClientIP, expiresAt); err != nil {
		return nil, err
	}

	return &AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// issueUserToken stores a hashed single-purpose token and returns the
// plaintext for delivery.
func (s *AuthService) issueUserToken(ctx context.Context, userID uuid.UUID, tokenType string, ttl time.Duration) (string, error) {
	plaintext, hash, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return "", err
	}
	if err := s.repo.CreateUserToken(ctx, userID, hash, tokenType, time.Now().Add(ttl)); err != nil {
		return "", err
	}
	return plaintext, nil
}

// ValidatePassword enforces the minimum password policy shared by
// registration, reset and password change flows.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		}
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}
	if !hasLower {
		return ErrPasswordNoLowercase
	}
	if !hasUpper {
		return ErrPasswordNoUppercase
	}
	return nil
}
