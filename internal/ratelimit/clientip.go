package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
)

type clientIPKey struct{}

// TrustedProxies resolves the client address once per request and stores it
// for ClientIP. hops is the number of reverse proxies in front of the
// service. Each proxy appends the peer it saw to X-Forwarded-For, so the
// client is the hops-th entry from the right. Entries further left are
// client-supplied and never trusted. With hops <= 0 the header is ignored
// and the socket peer is used.
func TrustedProxies(hops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := resolveClientIP(r, hops)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientIPKey{}, ip)))
		})
	}
}

// ClientIP returns the address resolved by TrustedProxies, or the
// RemoteAddr host when the middleware did not run.
func ClientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r.RemoteAddr)
}

func resolveClientIP(r *http.Request, hops int) string {
	peer := remoteHost(r.RemoteAddr)
	if hops <= 0 {
		return peer
	}

	var entries []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entries = append(entries, e)
			}
		}
	}
	if len(entries) == 0 {
		return peer
	}

	idx := len(entries) - hops
	if idx < 0 {
		idx = 0
	}
	if ip := net.ParseIP(entries[idx]); ip != nil {
		return ip.String()
	}
	return peer
}

func remoteHost(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
