package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

// --- Refresh Token Repository ---

// RefreshTokenRepository implements repository.RefreshTokenRepository using
// PostgreSQL.
type RefreshTokenRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewRefreshTokenRepository creates a new PostgreSQL-backed refresh token
// repository.
func NewRefreshTokenRepository(db database.DBTX, tracer *database.QueryTracer) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, tracer: tracer}
}

// Create inserts a refresh token hash.
func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token_hash, session_id, expires_at, user_agent, ip_address, device_fingerprint, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	ctx, end := r.tracer.Trace(ctx, "CreateRefreshToken", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.TokenHash,
		t.SessionID,
		t.ExpiresAt,
		nullString(t.UserAgent),
		nullString(t.IPAddress),
		nullString(t.DeviceFingerprint),
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

// GetActiveByHash returns the non-revoked, unexpired token with the hash.
func (r *RefreshTokenRepository) GetActiveByHash(ctx context.Context, tokenHash string) (_ *domain.RefreshToken, err error) {
	query := `
		SELECT id, user_id, token_hash, session_id, expires_at,
		       COALESCE(user_agent, ''), COALESCE(ip_address, ''), COALESCE(device_fingerprint, ''),
		       created_at, revoked_at, COALESCE(revoked_reason, '')
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > NOW()`

	ctx, end := r.tracer.Trace(ctx, "GetRefreshTokenByHash", query)
	defer func() { end(ignoreNoRows(err)) }()

	var (
		t      domain.RefreshToken
		reason string
	)
	err = r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.SessionID,
		&t.ExpiresAt,
		&t.UserAgent,
		&t.IPAddress,
		&t.DeviceFingerprint,
		&t.CreatedAt,
		&t.RevokedAt,
		&reason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("refresh_token", "<hash>")
		}
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	t.RevokedReason = domain.RevokeReason(reason)
	return &t, nil
}

// Revoke revokes the token only if it is still active.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string, reason domain.RevokeReason) (err error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1, revoked_reason = $2
		WHERE id = $3 AND revoked_at IS NULL`

	ctx, end := r.tracer.Trace(ctx, "RevokeRefreshToken", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), string(reason), id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return apperrors.NotFound("refresh_token", id)
	}
	return nil
}

// RevokeForUser revokes the user's active token with the hash, if any.
func (r *RefreshTokenRepository) RevokeForUser(ctx context.Context, userID, tokenHash string, reason domain.RevokeReason) (_ bool, err error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1, revoked_reason = $2
		WHERE user_id = $3 AND token_hash = $4 AND revoked_at IS NULL`

	ctx, end := r.tracer.Trace(ctx, "RevokeUserRefreshToken", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), string(reason), userID, tokenHash)
	if err != nil {
		return false, fmt.Errorf("revoke user refresh token: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}

// RevokeAllForUser revokes every active token of the user, keeping the one
// bound to exceptSessionID when it is non-empty.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, reason domain.RevokeReason, exceptSessionID string) (_ int64, err error) {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = $1, revoked_reason = $2
		WHERE user_id = $3 AND revoked_at IS NULL AND ($4 = '' OR session_id <> $4)`

	ctx, end := r.tracer.Trace(ctx, "RevokeAllRefreshTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), string(reason), userID, exceptSessionID)
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// --- Password Reset Repository ---

// PasswordResetRepository implements repository.PasswordResetRepository using
// PostgreSQL.
type PasswordResetRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewPasswordResetRepository creates a new PostgreSQL-backed reset token
// repository.
func NewPasswordResetRepository(db database.DBTX, tracer *database.QueryTracer) *PasswordResetRepository {
	return &PasswordResetRepository{db: db, tracer: tracer}
}

// Create inserts a reset token hash.
func (r *PasswordResetRepository) Create(ctx context.Context, t *domain.PasswordResetToken) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO password_reset_tokens (id, user_id, token_hash, expires_at, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := r.tracer.Trace(ctx, "CreatePasswordResetToken", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		t.ID,
		t.UserID,
		t.TokenHash,
		t.ExpiresAt,
		nullString(t.IPAddress),
		nullString(t.UserAgent),
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert password reset token: %w", err)
	}
	return nil
}

// InvalidateForUser marks every unused token of the user as used.
func (r *PasswordResetRepository) InvalidateForUser(ctx context.Context, userID string) (_ int64, err error) {
	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE user_id = $2 AND used_at IS NULL`

	ctx, end := r.tracer.Trace(ctx, "InvalidatePasswordResetTokens", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return 0, fmt.Errorf("invalidate password reset tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}

// GetActiveByHash returns an unused, unexpired token.
func (r *PasswordResetRepository) GetActiveByHash(ctx context.Context, tokenHash string) (_ *domain.PasswordResetToken, err error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, used_at,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM password_reset_tokens
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > NOW()`

	ctx, end := r.tracer.Trace(ctx, "GetPasswordResetTokenByHash", query)
	defer func() { end(ignoreNoRows(err)) }()

	var t domain.PasswordResetToken
	err = r.db.QueryRow(ctx, query, tokenHash).Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.UsedAt,
		&t.IPAddress,
		&t.UserAgent,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("password_reset_token", "<hash>")
		}
		return nil, fmt.Errorf("scan password reset token: %w", err)
	}
	return &t, nil
}

// MarkUsed consumes the token if it is still unused.
func (r *PasswordResetRepository) MarkUsed(ctx context.Context, id string) (err error) {
	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`

	ctx, end := r.tracer.Trace(ctx, "MarkPasswordResetTokenUsed", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("mark password reset token used: %w", err)
	}
	if ct.RowsAffected() != 1 {
		return apperrors.NotFound("password_reset_token", id)
	}
	return nil
}

// --- Email Verification Repository ---

// VerificationTokenRepository implements repository.VerificationTokenRepository
// using PostgreSQL.
type VerificationTokenRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewVerificationTokenRepository creates a new PostgreSQL-backed verification
// token repository.
func NewVerificationTokenRepository(db database.DBTX, tracer *database.QueryTracer) *VerificationTokenRepository {
	return &VerificationTokenRepository{db: db, tracer: tracer}
}

// Create inserts a verification token hash.
func (r *VerificationTokenRepository) Create(ctx context.Context, t *domain.EmailVerificationToken) (err error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO email_verification_tokens (id, user_id, token_hash, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	ctx, end := r.tracer.Trace(ctx, "CreateEmailVerificationToken", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, t.ID, t.UserID, t.TokenHash, t.Email, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert email verification token: %w", err)
	}
	return nil
}

// Consume marks a pending token verified and returns its user id.
func (r *VerificationTokenRepository) Consume(ctx context.Context, tokenHash string) (userID string, err error) {
	query := `
		UPDATE email_verification_tokens
		SET verified_at = $1
		WHERE token_hash = $2 AND verified_at IS NULL AND expires_at > $1
		RETURNING user_id`

	ctx, end := r.tracer.Trace(ctx, "ConsumeEmailVerificationToken", query)
	defer func() { end(ignoreNoRows(err)) }()

	err = r.db.QueryRow(ctx, query, time.Now().UTC(), tokenHash).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperrors.NotFound("email_verification_token", "<hash>")
		}
		return "", fmt.Errorf("consume email verification token: %w", err)
	}
	return userID, nil
}

// ignoreNoRows keeps expected misses out of span error status.
func ignoreNoRows(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}
