package ratelimit

import (
	"net/http"
	"time"
)

// Policy is a named request budget per window.
type Policy struct {
	Name    string
	Window  time.Duration
	Max     int64
	Message string

	// Key derives the counter key from a request. Nil uses
	// "<client ip>:<path>".
	Key func(r *http.Request) string
}

// AuthPolicy limits login and registration attempts.
func AuthPolicy() Policy {
	return Policy{
		Name:    "auth",
		Window:  15 * time.Minute,
		Max:     5,
		Message: "Too many authentication attempts. Please try again later.",
	}
}

// PasswordResetPolicy limits password reset requests.
func PasswordResetPolicy() Policy {
	return Policy{
		Name:    "password_reset",
		Window:  time.Hour,
		Max:     3,
		Message: "Too many password reset requests. Please try again later.",
	}
}

// APIPolicy is the general budget for API routes.
func APIPolicy() Policy {
	return Policy{
		Name:    "api",
		Window:  time.Minute,
		Max:     100,
		Message: "Too many requests. Please slow down.",
	}
}

// WithLimit returns a copy of p with a different window and maximum. Zero
// values keep the original setting.
func (p Policy) WithLimit(window time.Duration, max int64) Policy {
	if window > 0 {
		p.Window = window
	}
	if max > 0 {
		p.Max = max
	}
	return p
}

func (p Policy) key(r *http.Request) string {
	if p.Key != nil {
		return p.Key(r)
	}
	return ClientIP(r) + ":" + r.URL.Path
}
