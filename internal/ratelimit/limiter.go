package ratelimit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/Joseph-VJ/houlnd-realty/pkg/errors"
	"github.com/Joseph-VJ/houlnd-realty/pkg/httputil"
)

var rejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ratelimit_rejected_total",
		Help: "Requests rejected by a rate limit policy.",
	},
	[]string{"policy"},
)

// Limiter applies policies against a Store.
type Limiter struct {
	store   Store
	logger  *slog.Logger
	nowFunc func() time.Time
}

// NewLimiter creates a limiter.
func NewLimiter(store Store, logger *slog.Logger) *Limiter {
	return &Limiter{store: store, logger: logger, nowFunc: time.Now}
}

// Middleware enforces p. Every response carries X-RateLimit-Limit,
// X-RateLimit-Remaining and X-RateLimit-Reset (unix seconds). Requests over
// the limit get 429 RATE_LIMITED with Retry-After. A store error lets the
// request through.
func (l *Limiter) Middleware(p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := p.key(r)
			res, err := l.store.Increment(r.Context(), key, p.Window)
			if err != nil {
				l.logger.WarnContext(r.Context(), "rate limit check failed, allowing request",
					slog.String("policy", p.Name),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			remaining := p.Max - res.Count
			if remaining < 0 {
				remaining = 0
			}
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(p.Max, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if res.Count > p.Max {
				rejectedTotal.WithLabelValues(p.Name).Inc()
				l.logger.WarnContext(r.Context(), "rate limit exceeded",
					slog.String("policy", p.Name),
					slog.String("key", key),
				)
				retryAfter := res.ResetAt.Sub(l.nowFunc())
				httputil.WriteError(w, r, apperrors.TooManyRequests(p.Message, retryAfter), l.logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ProgressiveDelay is the retry hint after n consecutive failures:
// 1s, 2s, 4s, ... capped at 30s. n <= 0 yields 0.
func ProgressiveDelay(n int) time.Duration {
	const maxDelay = 30 * time.Second
	if n <= 0 {
		return 0
	}
	if n > 6 {
		return maxDelay
	}
	d := time.Duration(1<<(n-1)) * time.Second
	if d > maxDelay {
		return maxDelay
	}
	return d
}
