package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/trackr/internal/domain/common"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user profile persistence.
//
//revive:disable-next-line:exported
type UserRepo interface {
	// GetUserByID retrieves a user's profile by their unique ID.
	// Returns common.ErrNotFound if the user doesn't exist or is inactive.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*common.UserProfile, error)

	// UpdateProfile updates mutable fields on a user's profile.
	// Nil fields in params are left unchanged.
	// Returns common.ErrNotFound if the user doesn't exist.
	UpdateProfile(ctx context.Context, userID uuid.UUID, params common.UpdateProfileParams) error

	// ChangePassword verifies the current password, stores the new hash
	// and revokes every open session for the user.
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error

	// DeactivateUser marks a user as inactive (soft delete) and
	// invalidates all active sessions and tokens.
	DeactivateUser(ctx context.Context, userID uuid.UUID) error

	// ReactivateUser marks a user as active again.
	ReactivateUser(ctx context.Context, userID uuid.UUID) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgxpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

// userProfileRow is a local struct for GetUserByID scans.
type userProfileRow struct {
	ID              uuid.UUID  `db:"id"`
	Email           string     `db:"email"`
	Username        string     `db:"username"`
	DisplayName     string     `db:"display_name"`
	Role            string     `db:"role"`
	Currency        string     `db:"currency"`
	Theme           string     `db:"theme"`
	Locale          string     `db:"locale"`
	IsActive        bool       `db:"is_active"`
	EmailVerifiedAt *time.Time `db:"email_verified_at"`
	LastLoginAt     *time.Time `db:"last_login_at"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*common.UserProfile, error) {
	query := `
		SELECT id, email, username, display_name, role,
		       currency, theme, locale,
		       is_active, email_verified_at, last_login_at,
		       created_at, updated_at
		FROM users WHERE id = $1 AND is_active = TRUE
	`

	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userProfileRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &common.UserProfile{
		ID:              row.ID,
		Email:           row.Email,
		Username:        row.Username,
		DisplayName:     row.DisplayName,
		Role:            row.Role,
		Currency:        row.Currency,
		Theme:           row.Theme,
		Locale:          row.Locale,
		IsActive:        row.IsActive,
		EmailVerifiedAt: row.EmailVerifiedAt,
		LastLoginAt:     row.LastLoginAt,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params common.UpdateProfileParams) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "UpdateProfile", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Updating user profile")

	var setClauses []string
	var args []interface{}
	argID := 1

	if params.Username != nil {
		setClauses = append(setClauses, fmt.Sprintf("username = $%d", argID))
		args = append(args, *params.Username)
		argID++
		span.SetAttributes(attribute.Bool("update.username", true))
	}
	if params.DisplayName != nil {
		setClauses = append(setClauses, fmt.Sprintf("display_name = $%d", argID))
		args = append(args, *params.DisplayName)
		argID++
		span.SetAttributes(attribute.Bool("update.display_name", true))
	}
	if params.Currency != nil {
		setClauses = append(setClauses, fmt.Sprintf("currency = $%d", argID))
		args = append(args, strings.ToUpper(*params.Currency))
		argID++
		span.SetAttributes(attribute.Bool("update.currency", true))
	}
	if params.Theme != nil {
		setClauses = append(setClauses, fmt.Sprintf("theme = $%d", argID))
		args = append(args, *params.Theme)
		argID++
		span.SetAttributes(attribute.Bool("update.theme", true))
	}
	if params.Locale != nil {
		setClauses = append(setClauses, fmt.Sprintf("locale = $%d", argID))
		args = append(args, *params.Locale)
		argID++
		span.SetAttributes(attribute.Bool("update.locale", true))
	}

	if len(setClauses) == 0 {
		l.WarnContext(ctx, "UpdateProfile called with no fields to update")
		span.SetStatus(codes.Ok, "No update fields provided")
		return nil
	}

	setClauses = append(setClauses, fmt.Sprintf("updated_at = $%d", argID))
	args = append(args, time.Now())
	argID++

	args = append(args, userID)

	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d AND is_active = TRUE",
		strings.Join(setClauses, ", "),
		argID,
	)

	tag, err := r.pgpool.Exec(ctx, query, args...)
	if err != nil {
		l.ErrorContext(ctx, "Failed to execute update profile query", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error updating profile: %w", err)
	}

	if tag.RowsAffected() == 0 {
		l.WarnContext(ctx, "User not found or no update occurred")
		span.SetStatus(codes.Error, "User not found")
		return fmt.Errorf("user not found for update: %w", common.ErrNotFound)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	span.SetStatus(codes.Ok, "Profile updated")
	return nil
}

// changePasswordRow is used for the ChangePassword lookup.
type changePasswordRow struct {
	ID           uuid.UUID `db:"id"`
	PasswordHash string    `db:"password_hash"`
}

func (r *PostgresUserRepo) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ChangePassword", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ChangePassword"), slog.String("userID", userID.String()))

	rows, err := r.pgpool.Query(ctx,
		"SELECT id, password_hash FROM users WHERE id = $1 AND is_active = TRUE",
		userID)
	if err != nil {
		return fmt.Errorf("failed to query user: %w", err)
	}

	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[changePasswordRow])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		return fmt.Errorf("user not found: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(oldPassword)); err != nil {
		span.SetStatus(codes.Error, "Current password mismatch")
		return fmt.Errorf("current password does not match: %w", common.ErrBadRequest)
	}

	newHashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = r.pgpool.Exec(ctx,
		"UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3",
		string(newHashedPassword), time.Now(), row.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("failed to update password: %w", err)
	}

	// A password change invalidates every open session.
	_, err = r.pgpool.Exec(ctx,
		"DELETE FROM user_sessions WHERE user_id = $1", row.ID)
	if err != nil {
		l.WarnContext(ctx, "Failed to revoke sessions after password change", slog.Any("error", err))
	}

	l.InfoContext(ctx, "Password changed successfully")
	span.SetStatus(codes.Ok, "Password changed")
	return nil
}

// DeactivateUser implements user.UserRepo.
func (r *PostgresUserRepo) DeactivateUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "DeactivateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "DeactivateUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Deactivating user")

	tx, err := r.pgpool.Begin(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction failed")
		return fmt.Errorf("database error beginning transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			l.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", rollbackErr))
		}
	}()

	var isActive bool
	err = tx.QueryRow(ctx, "SELECT is_active FROM users WHERE id = $1", userID).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.WarnContext(ctx, "Attempted to deactivate non-existent user")
			span.SetStatus(codes.Error, "User not found")
			return fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to check user active status", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return fmt.Errorf("database error checking user status: %w", err)
	}

	if !isActive {
		l.InfoContext(ctx, "User is already inactive")
		span.SetStatus(codes.Ok, "User already inactive")
		return nil
	}

	_, err = tx.Exec(ctx, "UPDATE users SET is_active = FALSE, updated_at = $1 WHERE id = $2", time.Now(), userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to deactivate user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error deactivating user: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM user_sessions WHERE user_id = $1", userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to revoke sessions", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error revoking sessions: %w", err)
	}

	_, err = tx.Exec(ctx, "DELETE FROM user_tokens WHERE user_id = $1", userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to revoke tokens", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB DELETE failed")
		return fmt.Errorf("database error revoking tokens: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		l.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB transaction commit failed")
		return fmt.Errorf("database error committing transaction: %w", err)
	}

	l.InfoContext(ctx, "User deactivated successfully")
	span.SetStatus(codes.Ok, "User deactivated")
	return nil
}

// ReactivateUser implements user.UserRepo.
func (r *PostgresUserRepo) ReactivateUser(ctx context.Context, userID uuid.UUID) error {
	ctx, span := otel.Tracer("UserRepo").Start(ctx, "ReactivateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "ReactivateUser"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Reactivating user")

	var isActive bool
	err := r.pgpool.QueryRow(ctx, "SELECT is_active FROM users WHERE id = $1", userID).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			l.WarnContext(ctx, "Attempted to reactivate non-existent user")
			span.SetStatus(codes.Error, "User not found")
			return fmt.Errorf("user not found: %w", common.ErrNotFound)
		}
		l.ErrorContext(ctx, "Failed to check user active status", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB query failed")
		return fmt.Errorf("database error checking user status: %w", err)
	}

	if isActive {
		l.InfoContext(ctx, "User is already active")
		span.SetStatus(codes.Ok, "User already active")
		return nil
	}

	_, err = r.pgpool.Exec(ctx, "UPDATE users SET is_active = TRUE, updated_at = $1 WHERE id = $2", time.Now(), userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to reactivate user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		return fmt.Errorf("database error reactivating user: %w", err)
	}

	l.InfoContext(ctx, "User reactivated successfully")
	span.SetStatus(codes.Ok, "User reactivated")
	return nil
}
