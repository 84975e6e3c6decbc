package http

import (
	"net/http"
	"time"
)

const (
	// RefreshCookieName is the cookie holding the refresh token.
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/api/v1/auth"
)

// RefreshCookie writes the HttpOnly refresh-token cookie.
type RefreshCookie struct {
	Domain string
	Secure bool
	MaxAge time.Duration
}

// Set stores raw in the cookie for MaxAge.
func (c RefreshCookie) Set(w http.ResponseWriter, raw string) {
	http.SetCookie(w, c.cookie(raw, int(c.MaxAge.Seconds())))
}

// Clear expires the cookie.
func (c RefreshCookie) Clear(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

// Read returns the cookie value, empty when absent.
func (c RefreshCookie) Read(r *http.Request) string {
	ck, err := r.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c RefreshCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     refreshCookiePath,
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
