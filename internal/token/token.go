// Package token issues and verifies the HS256 access and refresh JWTs and
// provides the opaque token helpers used by reset and verification flows.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Joseph-VJ/houlnd-realty/internal/domain"
)

// Kind is the value of the "type" claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Verification errors. ErrInvalidTokenType wraps ErrInvalidToken so callers
// that only care about validity can match the latter.
var (
	ErrTokenExpired     = errors.New("token expired")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
)

const (
	DefaultIssuer     = "houlnd-realty"
	DefaultAudience   = "houlnd-realty-client"
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Payload is the identity carried by both token kinds.
type Payload struct {
	UserID    string
	Email     string
	Role      domain.Role
	SessionID string
}

// Claims represents the JWT claims of either token kind.
type Claims struct {
	Type      Kind        `json:"type"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	SessionID string      `json:"session_id,omitempty"`
	jwt.RegisteredClaims
}

// Payload returns the identity part of the claims.
func (c *Claims) Payload() Payload {
	return Payload{UserID: c.UserID, Email: c.Email, Role: c.Role, SessionID: c.SessionID}
}

// ExpiresAtTime returns the exp claim in UTC, zero when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time.UTC()
}

// Config holds the signing settings. Access and refresh secrets must differ.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	Issuer        string
	Audience      string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Pair is the result of IssuePair.
type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
	AccessJTI        string
	RefreshJTI       string
}

// Service handles JWT issuance and validation.
type Service struct {
	cfg Config
	now func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a token service. Empty issuer, audience and TTLs take
// their defaults.
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}
	if cfg.Audience == "" {
		cfg.Audience = DefaultAudience
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	s := &Service{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// AccessTTL returns the access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// RefreshTTL returns the refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.cfg.RefreshTTL }

// IssueAccessToken signs a short-lived access token.
func (s *Service) IssueAccessToken(p Payload) (string, error) {
	signed, _, _, err := s.issue(KindAccess, p)
	return signed, err
}

// IssueRefreshToken signs a long-lived refresh token.
func (s *Service) IssueRefreshToken(p Payload) (string, error) {
	signed, _, _, err := s.issue(KindRefresh, p)
	return signed, err
}

// IssuePair signs an access and a refresh token for the same payload.
func (s *Service) IssuePair(p Payload) (*Pair, error) {
	access, accessJTI, accessExp, err := s.issue(KindAccess, p)
	if err != nil {
		return nil, err
	}
	refresh, refreshJTI, refreshExp, err := s.issue(KindRefresh, p)
	if err != nil {
		return nil, err
	}
	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
		AccessJTI:        accessJTI,
		RefreshJTI:       refreshJTI,
	}, nil
}

func (s *Service) issue(kind Kind, p Payload) (signed, jti string, expiresAt time.Time, err error) {
	secret, ttl := s.keyFor(kind)
	now := s.now().UTC()
	jti = uuid.NewString()
	expiresAt = now.Add(ttl)

	claims := &Claims{
		Type:      kind,
		UserID:    p.UserID,
		Email:     p.Email,
		Role:      p.Role,
		SessionID: p.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   p.UserID,
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign %s token: %w", kind, err)
	}
	// NumericDate truncates to seconds; report what the token actually says.
	return signed, jti, claims.ExpiresAt.Time, nil
}

func (s *Service) keyFor(kind Kind) ([]byte, time.Duration) {
	if kind == KindRefresh {
		return []byte(s.cfg.RefreshSecret), s.cfg.RefreshTTL
	}
	return []byte(s.cfg.AccessSecret), s.cfg.AccessTTL
}

// VerifyAccess validates an access token.
func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return s.verify(tokenString, KindAccess)
}

// VerifyRefresh validates a refresh token.
func (s *Service) VerifyRefresh(tokenString string) (*Claims, error) {
	return s.verify(tokenString, KindRefresh)
}

func (s *Service) verify(tokenString string, want Kind) (*Claims, error) {
	secret, _ := s.keyFor(want)
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}

// Decode parses a token without verifying it. Only use the result for
// bookkeeping such as finding a jti to blacklist.
func Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims, nil
}

// TimeToExpiry returns how long until the claims expire, never negative.
func (s *Service) TimeToExpiry(c *Claims) time.Duration {
	exp := c.ExpiresAtTime()
	if exp.IsZero() {
		return 0
	}
	if d := exp.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

// IsAboutToExpire reports whether the claims expire within threshold.
// Claims without an expiry count as expiring.
func (s *Service) IsAboutToExpire(c *Claims, threshold time.Duration) bool {
	if c.ExpiresAtTime().IsZero() {
		return true
	}
	return s.TimeToExpiry(c) < threshold
}
