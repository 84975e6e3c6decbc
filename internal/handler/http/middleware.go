package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/token"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
	"github.com/Joseph-VJ/houlnd-realty/pkg/httputil"
	"github.com/Joseph-VJ/houlnd-realty/pkg/logger"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller, derived from a verified access
// token.
type Principal struct {
	UserID    string
	Email     string
	Role      domain.Role
	SessionID string
	JTI       string
	ExpiresAt time.Time
}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by Authenticate or
// OptionalAuth.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// AccessVerifier verifies access tokens.
type AccessVerifier interface {
	VerifyAccess(tokenString string) (*token.Claims, error)
}

// RevocationChecker reports blacklisted token ids.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserLookup loads the current state of a user.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*domain.PublicUser, error)
}

// AuthMiddleware authenticates requests with bearer access tokens.
type AuthMiddleware struct {
	tokens  AccessVerifier
	revoked RevocationChecker
	users   UserLookup
	logger  *slog.Logger
}

// NewAuthMiddleware creates the authentication middleware set.
func NewAuthMiddleware(tokens AccessVerifier, revoked RevocationChecker, users UserLookup, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, revoked: revoked, users: users, logger: logger}
}

// Authenticate requires a valid, non-revoked access token.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := token.ExtractBearer(r.Header.Get("Authorization"))
		if !ok {
			httputil.WriteError(w, r, apperrors.Unauthorized("NO_TOKEN", "Authentication required"), m.logger)
			return
		}

		p, err := m.principal(r.Context(), raw)
		if err != nil {
			httputil.WriteError(w, r, err, m.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(m.attach(r.Context(), p)))
	})
}

// OptionalAuth attaches the principal when a usable token is present and
// otherwise passes the request through unchanged.
func (m *AuthMiddleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := token.ExtractBearer(r.Header.Get("Authorization")); ok {
			if p, err := m.principal(r.Context(), raw); err == nil {
				r = r.WithContext(m.attach(r.Context(), p))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireEmailVerified rejects callers whose email is not verified. It must
// run after Authenticate.
func (m *AuthMiddleware) RequireEmailVerified(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			httputil.WriteError(w, r, notAuthenticated(), m.logger)
			return
		}

		user, err := m.users.GetUser(r.Context(), p.UserID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				httputil.WriteError(w, r, apperrors.Unauthorized("USER_NOT_FOUND", "User not found"), m.logger)
				return
			}
			httputil.WriteError(w, r, err, m.logger)
			return
		}
		if !user.EmailVerified {
			httputil.WriteError(w, r, apperrors.Forbidden("EMAIL_NOT_VERIFIED", "Please verify your email address"), m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// principal verifies raw and checks the blacklist. A blacklist failure is
// logged and the token is treated as not revoked.
func (m *AuthMiddleware) principal(ctx context.Context, raw string) (*Principal, error) {
	claims, err := m.tokens.VerifyAccess(raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, apperrors.TokenExpired()
		}
		return nil, apperrors.InvalidToken()
	}

	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		logger.FromContext(ctx).WarnContext(ctx, "blacklist lookup failed, accepting token",
			slog.String("error", err.Error()),
		)
	} else if revoked {
		return nil, apperrors.TokenRevoked()
	}

	return &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		JTI:       claims.ID,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// attach stores p and re-derives the request logger with the user and
// session ids.
func (m *AuthMiddleware) attach(ctx context.Context, p *Principal) context.Context {
	ctx = WithPrincipal(ctx, p)
	ctx = logger.WithUserID(ctx, p.UserID)
	ctx = logger.WithSessionID(ctx, p.SessionID)
	base := logger.FromContext(ctx)
	if base == slog.Default() {
		base = m.logger
	}
	return logger.NewContext(ctx, base.With(
		slog.String("user_id", p.UserID),
		slog.String("session_id", p.SessionID),
	))
}

// RequireRole admits only principals holding one of roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, notAuthenticated(), nil)
				return
			}
			if !slices.Contains(roles, p.Role) {
				httputil.WriteError(w, r, apperrors.Forbidden("FORBIDDEN", "Insufficient permissions"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OwnerResolver returns the owner id of the resource addressed by r. An
// empty id means the resource does not exist.
type OwnerResolver func(r *http.Request) (string, error)

// RequireOwnership admits the resource owner and admins.
func RequireOwnership(resolve OwnerResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, notAuthenticated(), nil)
				return
			}

			owner, err := resolve(r)
			if err != nil {
				httputil.WriteError(w, r, err, nil)
				return
			}
			if owner == "" {
				httputil.WriteError(w, r, &apperrors.AppError{
					Code:    "NOT_FOUND",
					Message: "Resource not found",
					Status:  http.StatusNotFound,
					Err:     apperrors.ErrNotFound,
				}, nil)
				return
			}
			if p.Role != domain.RoleAdmin && owner != p.UserID {
				httputil.WriteError(w, r, apperrors.Forbidden("FORBIDDEN", "You do not have access to this resource"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CanAccess admits the request only when check returns true for the
// principal.
func CanAccess(check func(r *http.Request, p *Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httputil.WriteError(w, r, notAuthenticated(), nil)
				return
			}
			if !check(r, p) {
				httputil.WriteError(w, r, apperrors.Forbidden("FORBIDDEN", "Access denied"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func notAuthenticated() *apperrors.AppError {
	return apperrors.Unauthorized("NOT_AUTHENTICATED", "Authentication required")
}
