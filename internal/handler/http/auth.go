package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
	"github.com/Joseph-VJ/houlnd-realty/internal/password"
	"github.com/Joseph-VJ/houlnd-realty/internal/ratelimit"
	"github.com/Joseph-VJ/houlnd-realty/internal/service"
	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
	"github.com/Joseph-VJ/houlnd-realty/pkg/httputil"
	"github.com/Joseph-VJ/houlnd-realty/pkg/validator"
)

// DeviceFingerprintHeader carries an optional client-computed device id.
const DeviceFingerprintHeader = "X-Device-Fingerprint"

// AuthService is the subset of service.AuthService the handlers use.
type AuthService interface {
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Login(ctx context.Context, in service.LoginInput) (*service.AuthResult, error)
	RefreshTokens(ctx context.Context, rawRefresh string, meta domain.ClientMeta) (*service.AuthResult, error)
	Logout(ctx context.Context, in service.LogoutInput) error
	LogoutAll(ctx context.Context, in service.LogoutInput) (int64, error)
	RequestPasswordReset(ctx context.Context, email string, meta domain.ClientMeta) error
	ResetPassword(ctx context.Context, rawToken, newPassword string) error
	VerifyEmail(ctx context.Context, rawToken string) error
	ResendVerification(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, in service.ChangePasswordInput) error
	GetUser(ctx context.Context, userID string) (*domain.PublicUser, error)
	GetSession(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service AuthService
	policy  password.Policy
	cookies RefreshCookie
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc AuthService, policy password.Policy, cookies RefreshCookie, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, policy: policy, cookies: cookies, logger: logger}
}

// --- Request DTOs ---

// RegisterRequest is the JSON request body for user registration. Field
// presence and format are checked by the service so clients get the
// domain error codes.
type RegisterRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=256"`
	FullName string `json:"full_name" validate:"max=200"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Role     string `json:"role" validate:"omitempty,max=20"`
}

// LoginRequest is the JSON request body for user login.
type LoginRequest struct {
	Email    string `json:"email" validate:"max=254"`
	Password string `json:"password" validate:"max=256"`
}

// RefreshTokenRequest is the optional JSON body of the refresh and logout
// endpoints. The cookie takes precedence.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ForgotPasswordRequest is the JSON request body for forgot password.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"max=254"`
}

// ResetPasswordRequest is the JSON request body for password reset.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"max=256"`
	NewPassword string `json:"new_password" validate:"max=256"`
}

// VerifyEmailRequest is the JSON request body for email verification.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"max=256"`
}

// ChangePasswordRequest is the JSON request body for password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"max=256"`
	NewPassword     string `json:"new_password" validate:"max=256"`
}

// ValidatePasswordRequest is the JSON request body for the password check.
type ValidatePasswordRequest struct {
	Password string `json:"password" validate:"max=256"`
}

// --- Response types ---

// AuthResponse is returned by the endpoints that start a session. The
// refresh token travels only in the cookie.
type AuthResponse struct {
	User        *domain.PublicUser `json:"user"`
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
}

// LogoutAllResponse reports how many sessions were closed.
type LogoutAllResponse struct {
	Message         string `json:"message"`
	RevokedSessions int64  `json:"revoked_sessions"`
}

func newAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:        res.User,
		AccessToken: res.Tokens.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   res.Tokens.AccessExpiresAt,
	}
}

// --- Handlers ---

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Role:     req.Role,
		Meta:     clientMeta(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, res.Tokens.RefreshToken)
	httputil.WriteData(w, http.StatusCreated, newAuthResponse(res))
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Meta:     clientMeta(r),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, res.Tokens.RefreshToken)
	httputil.WriteData(w, http.StatusOK, newAuthResponse(res))
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	raw := h.refreshToken(w, r)

	res, err := h.service.RefreshTokens(r.Context(), raw, clientMeta(r))
	if err != nil {
		h.cookies.Clear(w)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Set(w, res.Tokens.RefreshToken)
	httputil.WriteData(w, http.StatusOK, newAuthResponse(res))
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	err := h.service.Logout(r.Context(), logoutInput(p, h.refreshToken(w, r), r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	httputil.WriteMessage(w, "Logged out successfully")
}

// LogoutAll handles POST /api/v1/auth/logout-all
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	n, err := h.service.LogoutAll(r.Context(), logoutInput(p, "", r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.cookies.Clear(w)
	httputil.WriteData(w, http.StatusOK, LogoutAllResponse{
		Message:         "Logged out from all devices",
		RevokedSessions: n,
	})
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The response is
// the same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email, clientMeta(r)); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "If an account with that email exists, a password reset link has been sent")
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Password has been reset successfully")
}

// VerifyEmail handles POST /api/v1/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Token); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Email verified successfully")
}

// ResendVerification handles POST /api/v1/auth/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	if err := h.service.ResendVerification(r.Context(), p.UserID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Verification email sent")
}

// ChangePassword handles POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	var req ChangePasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}

	err := h.service.ChangePassword(r.Context(), service.ChangePasswordInput{
		UserID:          p.UserID,
		SessionID:       p.SessionID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteMessage(w, "Password changed successfully")
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	user, err := h.service.GetUser(r.Context(), p.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, user)
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, notAuthenticated(), h.logger)
		return
	}

	session, err := h.service.GetSession(r.Context(), p.UserID, p.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, session)
}

// PasswordRequirements handles GET /api/v1/auth/password-requirements
func (h *AuthHandler) PasswordRequirements(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.policy.Requirements())
}

// ValidatePassword handles POST /api/v1/auth/validate-password
func (h *AuthHandler) ValidatePassword(w http.ResponseWriter, r *http.Request) {
	var req ValidatePasswordRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteDecodeError(w, r, err)
		return
	}
	if req.Password == "" {
		httputil.WriteError(w, r, apperrors.BadRequest("MISSING_PASSWORD", "Password is required"), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.policy.Validate(req.Password))
}

// refreshToken reads the refresh cookie, falling back to the optional JSON
// body.
func (h *AuthHandler) refreshToken(w http.ResponseWriter, r *http.Request) string {
	if raw := h.cookies.Read(r); raw != "" {
		return raw
	}
	if r.Body == nil || r.ContentLength == 0 {
		return ""
	}
	var req RefreshTokenRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		return ""
	}
	return req.RefreshToken
}

func logoutInput(p *Principal, refresh string, r *http.Request) service.LogoutInput {
	return service.LogoutInput{
		UserID:          p.UserID,
		SessionID:       p.SessionID,
		RefreshToken:    refresh,
		AccessJTI:       p.JTI,
		AccessExpiresAt: p.ExpiresAt,
		Meta:            clientMeta(r),
	}
}

func clientMeta(r *http.Request) domain.ClientMeta {
	return domain.ClientMeta{
		IPAddress:         ratelimit.ClientIP(r),
		UserAgent:         r.UserAgent(),
		DeviceFingerprint: r.Header.Get(DeviceFingerprintHeader),
	}
}
