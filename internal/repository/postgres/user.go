package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

// Unique indexes created by the users migration.
const (
	emailUniqueIndex = "users_email_live_idx"
	phoneUniqueIndex = "users_phone_live_idx"
)

const userColumns = `id, email, COALESCE(phone, ''), full_name, password_hash, role, email_verified,
		failed_login_attempts, account_locked_until, login_count, last_login_at,
		created_at, updated_at, deleted_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db     database.DBTX
	tracer *database.QueryTracer
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX, tracer *database.QueryTracer) *UserRepository {
	return &UserRepository{db: db, tracer: tracer}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	attempts, lockedUntil := u.Lock.Columns()

	query := `
		INSERT INTO users (id, email, phone, full_name, password_hash, role, email_verified,
		    failed_login_attempts, account_locked_until, login_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	ctx, end := r.tracer.Trace(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		nullString(u.Phone),
		u.FullName,
		u.PasswordHash,
		string(u.Role),
		u.EmailVerified,
		attempts,
		lockedUntil,
		u.LoginCount,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := database.UniqueViolationConstraint(err); ok {
			if constraint == phoneUniqueIndex {
				return apperrors.Conflict("PHONE_EXISTS", "Phone number already registered")
			}
			return apperrors.Conflict("EMAIL_EXISTS", "Email already registered")
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a live user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return r.scanUser(ctx, "GetUserByID", query, id)
}

// GetByEmail retrieves a live user by their case-folded email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = $1 AND deleted_at IS NULL`
	return r.scanUser(ctx, "GetUserByEmail", query, strings.ToLower(strings.TrimSpace(email)))
}

// ExistsByPhone reports whether a live user already uses phone.
func (r *UserRepository) ExistsByPhone(ctx context.Context, phone string) (exists bool, err error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE phone = $1 AND deleted_at IS NULL)`

	ctx, end := r.tracer.Trace(ctx, "UserPhoneExists", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, phone).Scan(&exists); err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return exists, nil
}

// nextFailures is the failure count after one more miss. An expired lock
// counts as zero failures.
const nextFailures = `(CASE WHEN account_locked_until IS NULL THEN failed_login_attempts ELSE 0 END) + 1`

// RecordFailedLogin applies one failed login in a single statement so that
// concurrent misses are all counted. Reaching policy.MaxAttempts locks the
// account until now + policy.Duration. When the account is already locked at
// now nothing is written and the stored state is returned with applied=false.
func (r *UserRepository) RecordFailedLogin(ctx context.Context, id string, now time.Time, policy domain.LockoutPolicy) (state domain.LockState, applied bool, err error) {
	query := `
		UPDATE users
		SET failed_login_attempts = CASE WHEN ` + nextFailures + ` >= $2 THEN 0 ELSE ` + nextFailures + ` END,
		    account_locked_until = CASE WHEN ` + nextFailures + ` >= $2 THEN $3::timestamptz ELSE NULL END,
		    updated_at = $4
		WHERE id = $1 AND deleted_at IS NULL
		  AND (account_locked_until IS NULL OR account_locked_until <= $4)
		RETURNING failed_login_attempts, account_locked_until`

	now = now.UTC()
	ctx, end := r.tracer.Trace(ctx, "RecordUserFailedLogin", query)
	defer func() { end(ignoreNoRows(err)) }()

	var (
		attempts    int
		lockedUntil *time.Time
	)
	err = r.db.QueryRow(ctx, query, id, policy.MaxAttempts, now.Add(policy.Duration), now).Scan(&attempts, &lockedUntil)
	if err == nil {
		return domain.LockStateFromColumns(attempts, lockedUntil), true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.LockState{}, false, fmt.Errorf("record failed login: %w", err)
	}

	// Locked by a concurrent attempt, or gone.
	current := `SELECT failed_login_attempts, account_locked_until FROM users WHERE id = $1 AND deleted_at IS NULL`
	err = r.db.QueryRow(ctx, current, id).Scan(&attempts, &lockedUntil)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LockState{}, false, apperrors.NotFound("user", id)
		}
		return domain.LockState{}, false, fmt.Errorf("read lock state: %w", err)
	}
	return domain.LockStateFromColumns(attempts, lockedUntil), false, nil
}

// RecordLogin clears the lock state and bumps the login statistics.
func (r *UserRepository) RecordLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0, account_locked_until = NULL,
		    login_count = login_count + 1, last_login_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`

	return r.execOne(ctx, "RecordUserLogin", query, id, at.UTC(), id)
}

// UpdatePassword stores a new hash and clears the lock state.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, failed_login_attempts = 0, account_locked_until = NULL, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL`

	return r.execOne(ctx, "UpdateUserPassword", query, id, passwordHash, time.Now().UTC(), id)
}

// MarkEmailVerified sets the email-verified flag.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `UPDATE users SET email_verified = TRUE, updated_at = $1 WHERE id = $2 AND deleted_at IS NULL`

	return r.execOne(ctx, "MarkUserEmailVerified", query, id, time.Now().UTC(), id)
}

// execOne runs an UPDATE that must touch exactly one live user.
func (r *UserRepository) execOne(ctx context.Context, op, query, id string, args ...any) (err error) {
	ctx, end := r.tracer.Trace(ctx, op, query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.ToLower(op), err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}
	return nil
}

// scanUser executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, op, query string, args ...any) (_ *domain.User, err error) {
	ctx, end := r.tracer.Trace(ctx, op, query)
	defer func() { end(ignoreNoRows(err)) }()

	var (
		u           domain.User
		role        string
		attempts    int
		lockedUntil *time.Time
	)
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&u.Phone,
		&u.FullName,
		&u.PasswordHash,
		&role,
		&u.EmailVerified,
		&attempts,
		&lockedUntil,
		&u.LoginCount,
		&u.LastLoginAt,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			id := ""
			if len(args) > 0 {
				id = fmt.Sprint(args[0])
			}
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	u.Role = domain.Role(role)
	u.Lock = domain.LockStateFromColumns(attempts, lockedUntil)
	return &u, nil
}
