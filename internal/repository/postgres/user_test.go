package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/pkg/database"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewUserRepository(mock, nil), mock
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "u-1234",
		Email:        "asha@example.com",
		Phone:        "+919876543210",
		FullName:     "Asha Rao",
		PasswordHash: "hash-abc",
		Role:         domain.RoleBuyer,
		Lock:         domain.Active(0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// scannedColumns mirrors the select list in userColumns.
func scannedColumns() []string {
	return []string{
		"id", "email", "phone", "full_name", "password_hash", "role", "email_verified",
		"failed_login_attempts", "account_locked_until", "login_count", "last_login_at",
		"created_at", "updated_at", "deleted_at",
	}
}

func userRow(u *domain.User, attempts int, lockedUntil *time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(scannedColumns()).AddRow(
		u.ID, u.Email, u.Phone, u.FullName, u.PasswordHash, string(u.Role), u.EmailVerified,
		attempts, lockedUntil, u.LoginCount, u.LastLoginAt,
		u.CreatedAt, u.UpdatedAt, (*time.Time)(nil),
	)
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	u.Email = "  Asha@Example.com "

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			u.ID, "asha@example.com", &u.Phone, u.FullName, u.PasswordHash, "BUYER", false,
			0, (*time.Time)(nil), 0, u.CreatedAt, u.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", u.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_GeneratesID(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	u.ID = ""
	u.Phone = ""

	mock.ExpectExec("INSERT INTO users").
		WithArgs(
			pgxmock.AnyArg(), u.Email, (*string)(nil), u.FullName, u.PasswordHash, "BUYER", false,
			0, (*time.Time)(nil), 0, pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NotEmpty(t, u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: emailUniqueIndex})

	err := repo.Create(context.Background(), sampleUser())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "EMAIL_EXISTS", appErr.Code)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicatePhone(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: phoneUniqueIndex})

	err := repo.Create(context.Background(), sampleUser())

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "PHONE_EXISTS", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DBError(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO users").WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), sampleUser())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert user")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

func TestUserRepository_GetByID_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectQuery("SELECT .+ FROM users WHERE id = .+ AND deleted_at IS NULL").
		WithArgs(u.ID).
		WillReturnRows(userRow(u, 2, nil))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, domain.RoleBuyer, got.Role)
	assert.False(t, got.Lock.Locked())
	assert.Equal(t, 2, got.Lock.FailedAttempts())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_Locked(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	until := time.Now().Add(10 * time.Minute).UTC().Truncate(time.Microsecond)
	mock.ExpectQuery("SELECT .+ FROM users WHERE id =").
		WithArgs(u.ID).
		WillReturnRows(userRow(u, 0, &until))

	got, err := repo.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, got.Lock.Locked())
	assert.Equal(t, until, got.Lock.Until())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id =").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_CaseFolds(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectQuery("SELECT .+ FROM users WHERE LOWER\\(email\\) =").
		WithArgs("asha@example.com").
		WillReturnRows(userRow(u, 0, nil))

	got, err := repo.GetByEmail(context.Background(), "ASHA@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ExistsByPhone(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("+919876543210").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByPhone(context.Background(), "+919876543210")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Updates
// ---------------------------------------------------------------------------

func TestUserRepository_RecordFailedLogin_Counts(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	policy := domain.DefaultLockoutPolicy()
	mock.ExpectQuery(`UPDATE users SET failed_login_attempts = CASE WHEN .* RETURNING failed_login_attempts, account_locked_until`).
		WithArgs("u-1234", 5, now.Add(15*time.Minute), now).
		WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts", "account_locked_until"}).AddRow(3, (*time.Time)(nil)))

	state, applied, err := repo.RecordFailedLogin(context.Background(), "u-1234", now, policy)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, domain.Active(3), state)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecordFailedLogin_Locks(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	until := now.Add(15 * time.Minute)
	mock.ExpectQuery(`UPDATE users SET failed_login_attempts`).
		WithArgs("u-1234", 5, until, now).
		WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts", "account_locked_until"}).AddRow(0, &until))

	state, applied, err := repo.RecordFailedLogin(context.Background(), "u-1234", now, domain.DefaultLockoutPolicy())
	require.NoError(t, err)
	assert.True(t, applied)
	assert.True(t, state.IsLocked(now))
	assert.Equal(t, until, state.Until())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecordFailedLogin_AlreadyLocked(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC()
	until := now.Add(7 * time.Minute)
	mock.ExpectQuery(`UPDATE users SET failed_login_attempts`).
		WithArgs("u-1234", 5, pgxmock.AnyArg(), now).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT failed_login_attempts, account_locked_until FROM users`).
		WithArgs("u-1234").
		WillReturnRows(pgxmock.NewRows([]string{"failed_login_attempts", "account_locked_until"}).AddRow(0, &until))

	state, applied, err := repo.RecordFailedLogin(context.Background(), "u-1234", now, domain.DefaultLockoutPolicy())
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, 7*time.Minute, state.Remaining(now))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecordFailedLogin_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery(`UPDATE users SET failed_login_attempts`).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT failed_login_attempts, account_locked_until FROM users`).
		WithArgs("u-gone").
		WillReturnError(pgx.ErrNoRows)

	_, _, err := repo.RecordFailedLogin(context.Background(), "u-gone", time.Now(), domain.DefaultLockoutPolicy())
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_RecordLogin(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("UPDATE users SET failed_login_attempts = 0, account_locked_until = NULL, login_count = login_count \\+ 1").
		WithArgs(at, "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.RecordLogin(context.Background(), "u-1234", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET password_hash").
		WithArgs("new-hash", pgxmock.AnyArg(), "gone").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePassword(context.Background(), "gone", "new-hash")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE users SET email_verified = TRUE").
		WithArgs(pgxmock.AnyArg(), "u-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.MarkEmailVerified(context.Background(), "u-1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
