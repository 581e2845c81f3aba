package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FACorreiaa/trackr/internal/domain/auth/common"
)

// PgxPool abstracts the subset of pgxpool.Pool used by the repository to allow mocking in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ PgxPool = (*pgxpool.Pool)(nil)

// PostgresAuthRepository handles database operations for authentication
type PostgresAuthRepository struct {
	pgpool PgxPool
}

// NewPostgresAuthRepository creates a new auth repository
func NewPostgresAuthRepository(pgpool PgxPool) *PostgresAuthRepository {
	return &PostgresAuthRepository{pgpool: pgpool}
}

type userInsertRow struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type userSessionInsertRow struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

// CreateUser creates a new user
func (r *PostgresAuthRepository) CreateUser(ctx context.Context, email, username, hashedPassword, displayName string) (*User, error) {
	user := &User{
		ID:             uuid.New(),
		Email:          email,
		Username:       username,
		HashedPassword: hashedPassword,
		DisplayName:    displayName,
		Role:           "member",
		IsActive:       true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	query := `
		INSERT INTO users (id, email, username, password_hash, display_name, role, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	rows, err := r.pgpool.Query(
		ctx, query,
		user.ID, user.Email, user.Username, user.HashedPassword, user.DisplayName,
		user.Role, user.IsActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	dbRow, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userInsertRow])
	if err != nil {
		return nil, err
	}

	user.ID = dbRow.ID
	user.CreatedAt = dbRow.CreatedAt
	user.UpdatedAt = dbRow.UpdatedAt

	return user, nil
}

// GetUserByEmail retrieves a user by email
func (r *PostgresAuthRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, email, username, password_hash, display_name, role,
		       is_active, email_verified_at, created_at, updated_at, last_login_at
		FROM users
		WHERE email = $1
	`

	rows, err := r.pgpool.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (r *PostgresAuthRepository) GetUserByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	query := `
		SELECT id, email, username, password_hash, display_name, role,
		       is_active, email_verified_at, created_at, updated_at, last_login_at
		FROM users
		WHERE id = $1
	`

	rows, err := r.pgpool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateLastLogin updates the user's last login timestamp
func (r *PostgresAuthRepository) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET last_login_at = $1 WHERE id = $2`
	_, err := r.pgpool.Exec(ctx, query, time.Now(), userID)
	return err
}

// CreateUserSession creates a new refresh token session
func (r *PostgresAuthRepository) CreateUserSession(ctx context.Context, userID uuid.UUID, hashedRefreshToken, userAgent, clientIP string, expiresAt time.Time) (*UserSession, error) {
	session := &UserSession{
		ID:                 uuid.New(),
		UserID:             userID,
		HashedRefreshToken: hashedRefreshToken,
		UserAgent:          &userAgent,
		ClientIP:           &clientIP,
		ExpiresAt:          expiresAt,
		CreatedAt:          time.Now(),
	}

	query := `
		INSERT INTO user_sessions (id, user_id, hashed_refresh_token, user_agent, client_ip, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	rows, err := r.pgpool.Query(
		ctx, query,
		session.ID, session.UserID, session.HashedRefreshToken,
		session.UserAgent, session.ClientIP, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	dbRow, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[userSessionInsertRow])
	if err != nil {
		return nil, err
	}

	session.ID = dbRow.ID
	session.CreatedAt = dbRow.CreatedAt

	return session, nil
}

// GetUserSessionByToken retrieves a session by hashed refresh token
func (r *PostgresAuthRepository) GetUserSessionByToken(ctx context.Context, hashedToken string) (*UserSession, error) {
	query := `
		SELECT id, user_id, hashed_refresh_token, user_agent, client_ip, expires_at, created_at
		FROM user_sessions
		WHERE hashed_refresh_token = $1 AND expires_at > $2
	`

	rows, err := r.pgpool.Query(ctx, query, hashedToken, time.Now())
	if err != nil {
		return nil, err
	}

	session, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[UserSession])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// DeleteUserSession deletes a session
func (r *PostgresAuthRepository) DeleteUserSession(ctx context.Context, hashedToken string) error {
	query := `DELETE FROM user_sessions WHERE hashed_refresh_token = $1`
	_, err := r.pgpool.Exec(ctx, query, hashedToken)
	return err
}

// DeleteAllUserSessions deletes all sessions for a user
func (r *PostgresAuthRepository) DeleteAllUserSessions(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM user_sessions WHERE user_id = $1`
	_, err := r.pgpool.Exec(ctx, query, userID)
	return err
}

// CreateUserToken creates a verification or reset token
func (r *PostgresAuthRepository) CreateUserToken(ctx context.Context, userID uuid.UUID, tokenHash, tokenType string, expiresAt time.Time) error {
	query := `
		INSERT INTO user_tokens (token_hash, user_id, type, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pgpool.Exec(ctx, query, tokenHash, userID, tokenType, expiresAt, time.Now())
	return err
}

// GetUserTokenByHash retrieves a token by hash
func (r *PostgresAuthRepository) GetUserTokenByHash(ctx context.Context, tokenHash, tokenType string) (*UserToken, error) {
	query := `
		SELECT token_hash, user_id, type, expires_at, created_at
		FROM user_tokens
		WHERE token_hash = $1 AND type = $2 AND expires_at > $3
	`

	rows, err := r.pgpool.Query(ctx, query, tokenHash, tokenType, time.Now())
	if err != nil {
		return nil, err
	}

	token, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[UserToken])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return &token, nil
}

// DeleteUserToken deletes a token
func (r *PostgresAuthRepository) DeleteUserToken(ctx context.Context, tokenHash string) error {
	query := `DELETE FROM user_tokens WHERE token_hash = $1`
	_, err := r.pgpool.Exec(ctx, query, tokenHash)
	return err
}

// VerifyEmail marks a user's email as verified
func (r *PostgresAuthRepository) VerifyEmail(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE users SET email_verified_at = $1 WHERE id = $2`
	_, err := r.pgpool.Exec(ctx, query, time.Now(), userID)
	return err
}

// UpdatePassword updates a user's password
func (r *PostgresAuthRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	_, err := r.pgpool.Exec(ctx, query, hashedPassword, time.Now(), userID)
	return err
}
