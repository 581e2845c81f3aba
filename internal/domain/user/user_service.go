package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	authservice "github.com/FACorreiaa/trackr/internal/domain/auth/service"
	"github.com/FACorreiaa/trackr/internal/domain/common"
)

// Ensure implementation satisfies the interface
var _ UserService = (*ServiceUserImpl)(nil)

// UserService defines the business logic contract for profile operations.
//
//revive:disable-next-line:exported
type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*common.UserProfile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params common.UpdateProfileParams) error
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
	DeactivateUser(ctx context.Context, userID uuid.UUID) error
	ReactivateUser(ctx context.Context, userID uuid.UUID) error
}

// ServiceUserImpl provides the implementation for UserService.
type ServiceUserImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *ServiceUserImpl {
	return &ServiceUserImpl{
		logger: logger,
		repo:   repo,
	}
}

// GetUserProfile retrieves a user's profile by ID.
func (s *ServiceUserImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*common.UserProfile, error) {
	l := s.logger.With(slog.String("method", "GetUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching user profile")

	profile, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}

	return profile, nil
}

// UpdateUserProfile updates a user's profile.
func (s *ServiceUserImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params common.UpdateProfileParams) error {
	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user profile")

	err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		return fmt.Errorf("error updating user profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	return nil
}

// ChangePassword validates the new password against the shared policy
// before letting the repository verify and swap the hash.
func (s *ServiceUserImpl) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	l := s.logger.With(slog.String("method", "ChangePassword"), slog.String("userID", userID.String()))

	if err := authservice.ValidatePassword(newPassword); err != nil {
		return err
	}

	if err := s.repo.ChangePassword(ctx, userID, oldPassword, newPassword); err != nil {
		l.ErrorContext(ctx, "Failed to change password", slog.Any("error", err))
		return fmt.Errorf("error changing password: %w", err)
	}

	l.InfoContext(ctx, "Password changed successfully")
	return nil
}

// DeactivateUser deactivates a user.
func (s *ServiceUserImpl) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "DeactivateUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Deactivating user")

	err := s.repo.DeactivateUser(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to deactivate user", slog.Any("error", err))
		return fmt.Errorf("error deactivating user: %w", err)
	}

	l.InfoContext(ctx, "User deactivated successfully")
	return nil
}

// ReactivateUser reactivates a user.
func (s *ServiceUserImpl) ReactivateUser(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "ReactivateUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Reactivating user")

	err := s.repo.ReactivateUser(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to reactivate user", slog.Any("error", err))
		return fmt.Errorf("error reactivating user: %w", err)
	}

	l.InfoContext(ctx, "User reactivated successfully")
	return nil
}
