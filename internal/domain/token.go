package domain

import (
	"time"
)

// RevokeReason records why a refresh token stopped being valid.
type RevokeReason string

const (
	RevokeUserLogout     RevokeReason = "USER_LOGOUT"
	RevokeLogoutAll      RevokeReason = "LOGOUT_ALL_DEVICES"
	RevokeTokenRotation  RevokeReason = "TOKEN_ROTATION"
	RevokePasswordReset  RevokeReason = "PASSWORD_RESET"
	RevokePasswordChange RevokeReason = "PASSWORD_CHANGE"
)

// ClientMeta describes the client behind a request.
type ClientMeta struct {
	IPAddress         string
	UserAgent         string
	DeviceFingerprint string
}

// RefreshToken is a stored refresh token. Only the SHA-256 hash of the raw
// token is kept.
type RefreshToken struct {
	ID                string
	UserID            string
	TokenHash         string
	SessionID         string
	ExpiresAt         time.Time
	UserAgent         string
	IPAddress         string
	DeviceFingerprint string
	CreatedAt         time.Time
	RevokedAt         *time.Time
	RevokedReason     RevokeReason
}

// IsActive reports whether the token can still be redeemed at now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}

// PasswordResetToken is a single-use, hashed password reset token.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// IsActive reports whether the token is unused and unexpired at now.
func (t *PasswordResetToken) IsActive(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}

// EmailVerificationToken is a hashed email verification token.
type EmailVerificationToken struct {
	ID         string
	UserID     string
	TokenHash  string
	Email      string
	ExpiresAt  time.Time
	VerifiedAt *time.Time
	CreatedAt  time.Time
}

// TokenPair is a signed access/refresh token pair with expiry times.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"-"`
	AccessExpiresAt  time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"-"`
	SessionID        string    `json:"-"`
}

// Session is the ephemeral record of a signed-in session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
