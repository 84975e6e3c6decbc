package repository

import (
	"context"
	"time"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
// Every lookup excludes soft-deleted users.
type UserRepository interface {
	// Create inserts a new user. Duplicate email or phone returns a 409
	// AppError with code EMAIL_EXISTS or PHONE_EXISTS.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their case-folded email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByPhone reports whether a live user already uses phone.
	ExistsByPhone(ctx context.Context, phone string) (bool, error)

	// RecordFailedLogin atomically applies one failed login to the stored
	// lock state and returns the result. applied is false when the account
	// was already locked at now; state is then the stored lock.
	RecordFailedLogin(ctx context.Context, id string, now time.Time, policy domain.LockoutPolicy) (state domain.LockState, applied bool, err error)

	// RecordLogin clears the lock state and bumps the login counter and
	// last-login time.
	RecordLogin(ctx context.Context, id string, at time.Time) error

	// UpdatePassword stores a new password hash and clears the lock state.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// MarkEmailVerified sets the email-verified flag.
	MarkEmailVerified(ctx context.Context, id string) error
}

// RefreshTokenRepository defines the interface for refresh token persistence.
// Tokens are revoked, never deleted.
type RefreshTokenRepository interface {
	// Create stores a new refresh token hash.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// GetActiveByHash returns a non-revoked, unexpired token.
	GetActiveByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Revoke revokes one token if it is still active. A token that was
	// already revoked returns a NOT_FOUND AppError, which lets at most one
	// of several concurrent rotations win.
	Revoke(ctx context.Context, id string, reason domain.RevokeReason) error

	// RevokeForUser revokes the user's token with the given hash, if any is
	// still active, and reports whether one was revoked.
	RevokeForUser(ctx context.Context, userID, tokenHash string, reason domain.RevokeReason) (bool, error)

	// RevokeAllForUser revokes every active token of the user except the one
	// belonging to exceptSessionID (empty for none) and returns the count.
	RevokeAllForUser(ctx context.Context, userID string, reason domain.RevokeReason, exceptSessionID string) (int64, error)
}

// PasswordResetRepository defines the interface for password reset tokens.
type PasswordResetRepository interface {
	// Create stores a new reset token hash.
	Create(ctx context.Context, token *domain.PasswordResetToken) error

	// InvalidateForUser marks all of the user's unused tokens as used.
	InvalidateForUser(ctx context.Context, userID string) (int64, error)

	// GetActiveByHash returns an unused, unexpired token.
	GetActiveByHash(ctx context.Context, tokenHash string) (*domain.PasswordResetToken, error)

	// MarkUsed consumes the token if it is still unused; otherwise it returns
	// a NOT_FOUND AppError.
	MarkUsed(ctx context.Context, id string) error
}

// VerificationTokenRepository defines the interface for email verification
// tokens.
type VerificationTokenRepository interface {
	// Create stores a new verification token hash.
	Create(ctx context.Context, token *domain.EmailVerificationToken) error

	// Consume marks an unverified, unexpired token as verified and returns
	// its user id. Unknown, used or expired tokens return NOT_FOUND.
	Consume(ctx context.Context, tokenHash string) (userID string, err error)
}

// AuditRepository is the append-only login audit sink.
type AuditRepository interface {
	// Insert appends one audit row.
	Insert(ctx context.Context, entry *domain.LoginAudit) error
}

// Repositories groups the persisted stores bound to one connection or
// transaction.
type Repositories struct {
	Users         UserRepository
	RefreshTokens RefreshTokenRepository
	ResetTokens   PasswordResetRepository
	Verifications VerificationTokenRepository
	Audit         AuditRepository
}

// Transactor runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Blacklist stores revoked token ids until their tokens would have expired.
type Blacklist interface {
	// Add revokes jti for ttl. A non-positive ttl is a no-op.
	Add(ctx context.Context, jti string, ttl time.Duration) error

	// Contains reports whether jti is revoked.
	Contains(ctx context.Context, jti string) (bool, error)
}

// SessionStore keeps ephemeral session records.
type SessionStore interface {
	// Save stores the session for ttl.
	Save(ctx context.Context, session *domain.Session, ttl time.Duration) error

	// Get returns a session or a NOT_FOUND AppError.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session; deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
