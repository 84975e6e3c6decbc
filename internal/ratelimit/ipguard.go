package ratelimit

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
	"github.com/Joseph-VJ/houlnd-realty/pkg/httputil"
)

// DefaultBlockDuration is used by Block when d <= 0.
const DefaultBlockDuration = time.Hour

// IPGuard is an explicit, time-bounded IP blocklist. It is owned by the
// composition root and shared by reference.
type IPGuard struct {
	mu      sync.Mutex
	blocked map[string]time.Time
	nowFunc func() time.Time
	logger  *slog.Logger
}

// NewIPGuard creates an empty blocklist.
func NewIPGuard(logger *slog.Logger) *IPGuard {
	return &IPGuard{blocked: make(map[string]time.Time), nowFunc: time.Now, logger: logger}
}

// Block denies ip for d.
func (g *IPGuard) Block(ip string, d time.Duration) {
	if d <= 0 {
		d = DefaultBlockDuration
	}
	g.mu.Lock()
	g.blocked[ip] = g.nowFunc().Add(d)
	g.mu.Unlock()

	g.logger.Warn("ip blocked", slog.String("ip", ip), slog.Duration("duration", d))
}

// Unblock removes ip from the blocklist.
func (g *IPGuard) Unblock(ip string) {
	g.mu.Lock()
	delete(g.blocked, ip)
	g.mu.Unlock()
}

// IsBlocked reports whether ip is currently blocked. Expired entries are
// removed on the way.
func (g *IPGuard) IsBlocked(ip string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	until, ok := g.blocked[ip]
	if !ok {
		return false
	}
	if !g.nowFunc().Before(until) {
		delete(g.blocked, ip)
		return false
	}
	return true
}

// Middleware rejects blocked clients with 403 ACCESS_DENIED. Mount it right
// after TrustedProxies and before every other middleware.
func (g *IPGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := ClientIP(r); g.IsBlocked(ip) {
			httputil.WriteError(w, r, apperrors.Forbidden("ACCESS_DENIED", "access denied"), g.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}
