package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Joseph-VJ/houlnd-realty/internal/password"
	"github.com/Joseph-VJ/houlnd-realty/internal/ratelimit"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
	"github.com/Joseph-VJ/houlnd-realty/pkg/health"
	"github.com/Joseph-VJ/houlnd-realty/pkg/httputil"
	"github.com/Joseph-VJ/houlnd-realty/pkg/middleware"
)

const serviceName = "auth"

// Policies are the rate limit budgets applied by the router.
type Policies struct {
	Auth          ratelimit.Policy
	PasswordReset ratelimit.Policy
	API           ratelimit.Policy
}

// DefaultPolicies returns the stock budgets.
func DefaultPolicies() Policies {
	return Policies{
		Auth:          ratelimit.AuthPolicy(),
		PasswordReset: ratelimit.PasswordResetPolicy(),
		API:           ratelimit.APIPolicy(),
	}
}

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Service        AuthService
	Tokens         AccessVerifier
	PasswordPolicy password.Policy
	Limiter        *ratelimit.Limiter
	Policies       Policies
	IPGuard        *ratelimit.IPGuard
	Cookie         RefreshCookie
	CORS           middleware.CORSConfig
	Health         *health.Handler
	RequestTimeout time.Duration

	// TrustedProxyHops is the number of reverse proxies in front of the
	// service; see ratelimit.TrustedProxies.
	TrustedProxyHops int

	PprofEnabled      bool
	PprofAllowedCIDRs []string

	Logger *slog.Logger
}

// NewRouter creates a chi router with all auth routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	logger := cfg.Logger

	r := chi.NewRouter()

	// Global middleware. The client address is resolved first and the IP
	// guard runs before everything else.
	r.Use(ratelimit.TrustedProxies(cfg.TrustedProxyHops))
	r.Use(cfg.IPGuard.Middleware)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	if cfg.PprofEnabled {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	authn := NewAuthMiddleware(cfg.Tokens, cfg.Service, cfg.Service, logger)
	h := NewAuthHandler(cfg.Service, cfg.PasswordPolicy, cfg.Cookie, logger)
	limit := cfg.Limiter.Middleware

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limit(cfg.Policies.API))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(ContentTypeJSON)

			r.With(limit(cfg.Policies.Auth)).Post("/register", h.Register)
			r.With(limit(cfg.Policies.Auth)).Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.With(limit(cfg.Policies.PasswordReset)).Post("/forgot-password", h.ForgotPassword)
			r.With(limit(cfg.Policies.PasswordReset)).Post("/reset-password", h.ResetPassword)
			r.Post("/verify-email", h.VerifyEmail)
			r.Get("/password-requirements", h.PasswordRequirements)
			r.Post("/validate-password", h.ValidatePassword)

			r.Group(func(r chi.Router) {
				r.Use(authn.Authenticate)

				r.Post("/logout", h.Logout)
				r.Post("/logout-all", h.LogoutAll)
				r.Post("/resend-verification", h.ResendVerification)
				r.Post("/change-password", h.ChangePassword)
				r.Get("/me", h.Me)
				r.Get("/session", h.Session)
			})
		})
	})

	return r
}

// ContentTypeJSON rejects request bodies that are not declared as JSON.
// Bodiless POSTs such as logout pass through.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			httputil.WriteError(w, r, &apperrors.AppError{
				Code:    "UNSUPPORTED_MEDIA_TYPE",
				Message: "Content-Type must be application/json",
				Status:  http.StatusUnsupportedMediaType,
				Err:     apperrors.ErrInvalidInput,
			}, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
