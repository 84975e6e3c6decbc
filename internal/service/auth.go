// Package service implements the authentication and session lifecycle.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/password"
	"github.com/Joseph-VJ/houlnd-realty/internal/ratelimit"
	"github.com/Joseph-VJ/houlnd-realty/internal/repository"
	"github.com/Joseph-VJ/houlnd-realty/internal/token"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
)

var loginAttempts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Login attempts by audit status.",
	},
	[]string{"status"},
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// EventPublisher publishes auth notification events.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, u *domain.User) error
	PublishEmailVerificationRequested(ctx context.Context, u *domain.User, rawToken string, expiresAt time.Time) error
	PublishPasswordResetRequested(ctx context.Context, u *domain.User, rawToken string, expiresAt time.Time) error
	PublishAccountLocked(ctx context.Context, u *domain.User, until time.Time) error
	PublishPasswordChanged(ctx context.Context, u *domain.User, reason domain.RevokeReason) error
}

// Config holds the tunables of the auth flows.
type Config struct {
	Lockout              domain.LockoutPolicy
	ResetTokenTTL        time.Duration
	VerificationTokenTTL time.Duration
	StoreTimeout         time.Duration
	AuditTimeout         time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Lockout:              domain.DefaultLockoutPolicy(),
		ResetTokenTTL:        time.Hour,
		VerificationTokenTTL: 24 * time.Hour,
		StoreTimeout:         3 * time.Second,
		AuditTimeout:         2 * time.Second,
	}
}

// Deps are the collaborators of AuthService. Events may be nil when no
// broker is configured.
type Deps struct {
	Repos     repository.Repositories
	Tx        repository.Transactor
	Tokens    *token.Service
	Policy    password.Policy
	Hasher    *password.Hasher
	Blacklist repository.Blacklist
	Sessions  repository.SessionStore
	Events    EventPublisher
	Clock     func() time.Time
	Logger    *slog.Logger
}

// AuthService implements registration, login, token rotation, logout and
// the password and email token flows.
type AuthService struct {
	repos     repository.Repositories
	tx        repository.Transactor
	tokens    *token.Service
	policy    password.Policy
	hasher    *password.Hasher
	blacklist repository.Blacklist
	sessions  repository.SessionStore
	events    EventPublisher
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger
}

// NewAuthService creates a new auth service. Zero config fields take their
// defaults.
func NewAuthService(d Deps, cfg Config) *AuthService {
	def := DefaultConfig()
	if cfg.Lockout.MaxAttempts <= 0 {
		cfg.Lockout.MaxAttempts = def.Lockout.MaxAttempts
	}
	if cfg.Lockout.Duration <= 0 {
		cfg.Lockout.Duration = def.Lockout.Duration
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = def.ResetTokenTTL
	}
	if cfg.VerificationTokenTTL <= 0 {
		cfg.VerificationTokenTTL = def.VerificationTokenTTL
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = def.StoreTimeout
	}
	if cfg.AuditTimeout <= 0 {
		cfg.AuditTimeout = def.AuditTimeout
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	return &AuthService{
		repos:     d.Repos,
		tx:        d.Tx,
		tokens:    d.Tokens,
		policy:    d.Policy,
		hasher:    d.Hasher,
		blacklist: d.Blacklist,
		sessions:  d.Sessions,
		events:    d.Events,
		cfg:       cfg,
		now:       func() time.Time { return d.Clock().UTC() },
		logger:    d.Logger,
	}
}

// --- Input/Output types ---

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
	Role     string
	Meta     domain.ClientMeta
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
	Meta     domain.ClientMeta
}

// LogoutInput identifies the session being closed. AccessJTI and
// AccessExpiresAt describe the access token presented with the request.
type LogoutInput struct {
	UserID          string
	SessionID       string
	RefreshToken    string
	AccessJTI       string
	AccessExpiresAt time.Time
	Meta            domain.ClientMeta
}

// AuthResult is returned by the flows that start a session.
type AuthResult struct {
	User   *domain.PublicUser
	Tokens *domain.TokenPair
}

// --- Auth Operations ---

// Register creates a new account, issues its first session and requests
// email verification.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	phone := strings.TrimSpace(in.Phone)
	if email == "" || in.Password == "" || fullName == "" {
		return nil, apperrors.BadRequest("MISSING_FIELDS", "Email, password, and full name are required")
	}

	role, err := domain.ParseRole(in.Role)
	if err != nil || !role.IsSelfAssignable() {
		return nil, apperrors.BadRequest("INVALID_ROLE", "Invalid role. Must be BUYER or PROMOTER")
	}
	if res := s.policy.Validate(in.Password); !res.Valid {
		return nil, apperrors.BadRequest("INVALID_PASSWORD", res.Error())
	}
	if !emailPattern.MatchString(email) {
		return nil, apperrors.BadRequest("INVALID_EMAIL", "Invalid email format")
	}

	if err := s.checkAvailable(ctx, email, phone); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Phone:        phone,
		FullName:     fullName,
		PasswordHash: hash,
		Role:         role,
		Lock:         domain.Active(0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	rawVerification, err := token.GenerateOpaqueToken(0)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}
	verification := &domain.EmailVerificationToken{
		UserID:    user.ID,
		TokenHash: token.HashToken(rawVerification),
		Email:     email,
		ExpiresAt: now.Add(s.cfg.VerificationTokenTTL),
		CreatedAt: now,
	}

	err = s.inTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}
		return repos.Verifications.Create(ctx, verification)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	pair, err := s.startSession(ctx, user, in.Meta)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "email_verification_requested", func(ctx context.Context) error {
		return s.events.PublishEmailVerificationRequested(ctx, user, rawVerification, verification.ExpiresAt)
	})
	s.publish(ctx, "user_registered", func(ctx context.Context) error {
		return s.events.PublishUserRegistered(ctx, user)
	})

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("role", role.String()),
	)

	return &AuthResult{User: user.Public(), Tokens: pair}, nil
}

// checkAvailable rejects an email or phone already used by a live account.
func (s *AuthService) checkAvailable(ctx context.Context, email, phone string) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	_, err := s.repos.Users.GetByEmail(sctx, email)
	switch {
	case err == nil:
		return apperrors.Conflict("EMAIL_EXISTS", "Email already registered")
	case !errors.Is(err, apperrors.ErrNotFound):
		return fmt.Errorf("check email: %w", err)
	}

	if phone == "" {
		return nil
	}
	taken, err := s.repos.Users.ExistsByPhone(sctx, phone)
	if err != nil {
		return fmt.Errorf("check phone: %w", err)
	}
	if taken {
		return apperrors.Conflict("PHONE_EXISTS", "Phone number already registered")
	}
	return nil
}

// Login authenticates with email and password, applying progressive
// lockout, and starts a new session.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperrors.BadRequest("MISSING_FIELDS", "Email and password are required")
	}

	attempt := domain.LoginAudit{
		EmailAttempted:    email,
		IPAddress:         in.Meta.IPAddress,
		UserAgent:         in.Meta.UserAgent,
		DeviceFingerprint: in.Meta.DeviceFingerprint,
	}

	sctx, cancel := s.storeCtx(ctx)
	user, err := s.repos.Users.GetByEmail(sctx, email)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			attempt.Status = domain.LoginFailedUserNotFound
			attempt.FailureReason = "User not found"
			s.audit(ctx, attempt)
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	attempt.UserID = user.ID

	now := s.now()
	lock := user.Lock.Evaluate(now)
	if lock.IsLocked(now) {
		return nil, s.rejectLocked(ctx, lock, now, attempt)
	}

	ok, err := s.hasher.Verify(ctx, in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, s.recordFailedLogin(ctx, user, now, attempt)
	}

	sctx, cancel = s.storeCtx(ctx)
	err = s.repos.Users.RecordLogin(sctx, user.ID, now)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.Lock = lock.RecordSuccess()
	user.LoginCount++
	user.LastLoginAt = &now

	pair, err := s.startSession(ctx, user, in.Meta)
	if err != nil {
		return nil, err
	}

	attempt.Status = domain.LoginSuccess
	attempt.SessionID = pair.SessionID
	s.audit(ctx, attempt)

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("session_id", pair.SessionID),
	)

	return &AuthResult{User: user.Public(), Tokens: pair}, nil
}

// rejectLocked audits a login refused because the account is locked.
func (s *AuthService) rejectLocked(ctx context.Context, lock domain.LockState, now time.Time, attempt domain.LoginAudit) error {
	attempt.Status = domain.LoginFailedAccountLocked
	attempt.FailureReason = "Account is locked"
	s.audit(ctx, attempt)
	return apperrors.Locked(
		fmt.Sprintf("Account is locked. Try again in %d minutes", lock.RemainingMinutes(now)),
		lock.Remaining(now),
	)
}

// recordFailedLogin counts one failure in the store and builds the error
// returned to the client. The store applies the transition atomically, so
// concurrent misses are never lost.
func (s *AuthService) recordFailedLogin(ctx context.Context, user *domain.User, now time.Time, attempt domain.LoginAudit) error {
	p := s.cfg.Lockout

	sctx, cancel := s.storeCtx(ctx)
	next, applied, err := s.repos.Users.RecordFailedLogin(sctx, user.ID, now, p)
	cancel()
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	if !applied {
		// A concurrent attempt locked the account first.
		return s.rejectLocked(ctx, next, now, attempt)
	}

	attempt.Status = domain.LoginFailedWrongPassword
	if next.Locked() {
		attempt.FailureReason = fmt.Sprintf("Account locked after %d failed attempts", p.MaxAttempts)
		s.audit(ctx, attempt)

		user.Lock = next
		s.publish(ctx, "account_locked", func(ctx context.Context) error {
			return s.events.PublishAccountLocked(ctx, user, next.Until())
		})
		s.logger.WarnContext(ctx, "account locked",
			slog.String("user_id", user.ID),
			slog.Time("locked_until", next.Until()),
		)
		return apperrors.Locked(
			fmt.Sprintf("Account locked for %d minutes due to too many failed attempts", int(p.Duration.Minutes())),
			p.Duration,
		)
	}

	attempt.FailureReason = fmt.Sprintf("Failed attempt %d of %d", next.FailedAttempts(), p.MaxAttempts)
	s.audit(ctx, attempt)
	return invalidCredentials().WithRetryAfter(ratelimit.ProgressiveDelay(next.FailedAttempts()))
}

// RefreshTokens rotates a refresh token: the presented token is revoked and
// a new pair with a new session id is issued. A token that was already
// rotated is rejected.
func (s *AuthService) RefreshTokens(ctx context.Context, rawRefresh string, meta domain.ClientMeta) (*AuthResult, error) {
	if rawRefresh == "" {
		return nil, apperrors.Unauthorized("NO_REFRESH_TOKEN", "Refresh token required")
	}

	claims, err := s.tokens.VerifyRefresh(rawRefresh)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, invalidRefreshToken("Refresh token expired")
		}
		return nil, invalidRefreshToken("Invalid refresh token")
	}

	sctx, cancel := s.storeCtx(ctx)
	stored, err := s.repos.RefreshTokens.GetActiveByHash(sctx, token.HashToken(rawRefresh))
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "refresh token not found or revoked",
				slog.String("user_id", claims.UserID),
			)
			return nil, invalidRefreshToken("Refresh token not found or revoked")
		}
		return nil, fmt.Errorf("get refresh token: %w", err)
	}
	if stored.UserID != claims.UserID {
		return nil, invalidRefreshToken("Invalid refresh token")
	}

	sctx, cancel = s.storeCtx(ctx)
	user, err := s.repos.Users.GetByID(sctx, stored.UserID)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalidRefreshToken("User not found")
		}
		return nil, fmt.Errorf("get user for refresh: %w", err)
	}

	sctx, cancel = s.storeCtx(ctx)
	err = s.repos.RefreshTokens.Revoke(sctx, stored.ID, domain.RevokeTokenRotation)
	cancel()
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalidRefreshToken("Refresh token not found or revoked")
		}
		return nil, fmt.Errorf("revoke rotated refresh token: %w", err)
	}

	s.revokeJTI(ctx, claims.ID, claims.ExpiresAtTime())
	s.dropSession(ctx, stored.SessionID)

	pair, err := s.startSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tokens refreshed",
		slog.String("user_id", user.ID),
		slog.String("session_id", pair.SessionID),
	)

	return &AuthResult{User: user.Public(), Tokens: pair}, nil
}

// Logout revokes the presented refresh token, blacklists both tokens and
// closes the session.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	if in.RefreshToken != "" {
		sctx, cancel := s.storeCtx(ctx)
		revoked, err := s.repos.RefreshTokens.RevokeForUser(sctx, in.UserID, token.HashToken(in.RefreshToken), domain.RevokeUserLogout)
		cancel()
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}

		// Only a token this service issued to the caller may touch the blacklist.
		if revoked {
			if claims, err := s.tokens.VerifyRefresh(in.RefreshToken); err == nil && claims.UserID == in.UserID {
				s.revokeJTI(ctx, claims.ID, claims.ExpiresAtTime())
			}
		}
	}

	s.revokeJTI(ctx, in.AccessJTI, in.AccessExpiresAt)
	s.dropSession(ctx, in.SessionID)

	s.audit(ctx, domain.LoginAudit{
		UserID:            in.UserID,
		IPAddress:         in.Meta.IPAddress,
		UserAgent:         in.Meta.UserAgent,
		DeviceFingerprint: in.Meta.DeviceFingerprint,
		Status:            domain.LoginLogout,
		SessionID:         in.SessionID,
	})

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", in.UserID),
		slog.String("session_id", in.SessionID),
	)
	return nil
}

// LogoutAll revokes every active refresh token of the user and returns how
// many were revoked.
func (s *AuthService) LogoutAll(ctx context.Context, in LogoutInput) (int64, error) {
	sctx, cancel := s.storeCtx(ctx)
	n, err := s.repos.RefreshTokens.RevokeAllForUser(sctx, in.UserID, domain.RevokeLogoutAll, "")
	cancel()
	if err != nil {
		return 0, fmt.Errorf("revoke all refresh tokens: %w", err)
	}

	s.revokeJTI(ctx, in.AccessJTI, in.AccessExpiresAt)
	s.dropSession(ctx, in.SessionID)

	s.audit(ctx, domain.LoginAudit{
		UserID:            in.UserID,
		IPAddress:         in.Meta.IPAddress,
		UserAgent:         in.Meta.UserAgent,
		DeviceFingerprint: in.Meta.DeviceFingerprint,
		Status:            domain.LoginLogout,
		FailureReason:     "Logged out from all devices",
		SessionID:         in.SessionID,
	})

	s.logger.InfoContext(ctx, "user logged out from all devices",
		slog.String("user_id", in.UserID),
		slog.Int64("revoked", n),
	)
	return n, nil
}

// GetUser returns the sanitized user.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.PublicUser, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	user, err := s.repos.Users.GetByID(sctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user.Public(), nil
}

// GetSession returns the caller's live session entry. A session owned by
// another user reads as not found.
func (s *AuthService) GetSession(ctx context.Context, userID, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, apperrors.NotFound("session", sessionID)
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()

	session, err := s.sessions.Get(sctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.UserID != userID {
		return nil, apperrors.NotFound("session", sessionID)
	}
	return session, nil
}

// IsRevoked reports whether an access token id is blacklisted.
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.blacklist.Contains(sctx, jti)
}

// --- Helpers ---

// startSession mints a session id, issues and persists a token pair and
// stores the session entry.
func (s *AuthService) startSession(ctx context.Context, user *domain.User, meta domain.ClientMeta) (*domain.TokenPair, error) {
	sessionID := uuid.New().String()
	pair, err := s.tokens.IssuePair(token.Payload{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	sctx, cancel := s.storeCtx(ctx)
	err = s.repos.RefreshTokens.Create(sctx, &domain.RefreshToken{
		UserID:            user.ID,
		TokenHash:         token.HashToken(pair.RefreshToken),
		SessionID:         sessionID,
		ExpiresAt:         pair.RefreshExpiresAt,
		UserAgent:         meta.UserAgent,
		IPAddress:         meta.IPAddress,
		DeviceFingerprint: meta.DeviceFingerprint,
		CreatedAt:         s.now(),
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	sctx, cancel = s.storeCtx(ctx)
	err = s.sessions.Save(sctx, &domain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: s.now(),
	}, s.tokens.RefreshTTL())
	cancel()
	if err != nil {
		s.logger.WarnContext(ctx, "failed to store session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	return &domain.TokenPair{
		AccessToken:      pair.AccessToken,
		RefreshToken:     pair.RefreshToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
		SessionID:        sessionID,
	}, nil
}

// revokeJTI blacklists a token id for the rest of its lifetime. The
// blacklist is degradable, so failures are logged only.
func (s *AuthService) revokeJTI(ctx context.Context, jti string, expiresAt time.Time) {
	if jti == "" || expiresAt.IsZero() {
		return
	}
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}

	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.blacklist.Add(sctx, jti, ttl); err != nil {
		s.logger.WarnContext(ctx, "failed to blacklist token",
			slog.String("jti", jti),
			slog.String("error", err.Error()),
		)
	}
}

func (s *AuthService) dropSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.sessions.Delete(sctx, sessionID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}

// audit writes one audit row. It outlives request cancellation and never
// fails the caller.
func (s *AuthService) audit(ctx context.Context, entry domain.LoginAudit) {
	loginAttempts.WithLabelValues(string(entry.Status)).Inc()

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AuditTimeout)
	defer cancel()

	entry.CreatedAt = s.now()
	if err := s.repos.Audit.Insert(actx, &entry); err != nil {
		s.logger.WarnContext(ctx, "failed to write login audit",
			slog.String("status", string(entry.Status)),
			slog.String("error", err.Error()),
		)
	}
}

// publish sends a best-effort event.
func (s *AuthService) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if s.events == nil {
		return
	}
	if err := fn(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish event",
			slog.String("event", name),
			slog.String("error", err.Error()),
		)
	}
}

// inTx runs fn in one transaction bounded by the store timeout.
func (s *AuthService) inTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return s.tx.WithinTx(sctx, fn)
}

func (s *AuthService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() *apperrors.AppError {
	return apperrors.Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
}

func invalidRefreshToken(msg string) *apperrors.AppError {
	return apperrors.Unauthorized("INVALID_REFRESH_TOKEN", msg)
}
