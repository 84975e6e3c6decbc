package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/Joseph-VJ/houlnd-realty/pkg/breaker"
)

// degradedWarnInterval bounds how often the degraded-mode warning is logged.
const degradedWarnInterval = 30 * time.Second

var degradedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "ratelimit_degraded_total",
	Help: "Rate limit operations served by the in-process fallback store.",
})

// FallbackStore serves from the primary store through a circuit breaker and
// falls back to an in-process store whenever the primary fails or the
// breaker is open. It never returns an error from the primary.
type FallbackStore struct {
	primary  Store
	fallback *MemoryStore
	breaker  *breaker.Breaker[Result]
	warn     *rate.Sometimes
	logger   *slog.Logger
}

// NewFallbackStore wraps primary with a breaker configured by cfg.
func NewFallbackStore(primary Store, fallback *MemoryStore, cfg breaker.Config, logger *slog.Logger) *FallbackStore {
	return &FallbackStore{
		primary:  primary,
		fallback: fallback,
		breaker:  breaker.New[Result](cfg, logger),
		warn:     &rate.Sometimes{Interval: degradedWarnInterval},
		logger:   logger,
	}
}

// Increment implements Store.
func (s *FallbackStore) Increment(ctx context.Context, key string, window time.Duration) (Result, error) {
	res, err := s.breaker.Execute(func() (Result, error) {
		return s.primary.Increment(ctx, key, window)
	})
	if err != nil {
		s.degraded(ctx, "increment", err)
		return s.fallback.Increment(ctx, key, window)
	}
	return res, nil
}

// Get implements Store.
func (s *FallbackStore) Get(ctx context.Context, key string, window time.Duration) (Result, error) {
	res, err := s.breaker.Execute(func() (Result, error) {
		return s.primary.Get(ctx, key, window)
	})
	if err != nil {
		s.degraded(ctx, "get", err)
		return s.fallback.Get(ctx, key, window)
	}
	return res, nil
}

// Reset implements Store. Both stores are cleared so a later fallback does
// not resurrect a stale count.
func (s *FallbackStore) Reset(ctx context.Context, key string, window time.Duration) error {
	_, err := s.breaker.Execute(func() (Result, error) {
		return Result{}, s.primary.Reset(ctx, key, window)
	})
	if err != nil {
		s.degraded(ctx, "reset", err)
	}
	return s.fallback.Reset(ctx, key, window)
}

func (s *FallbackStore) degraded(ctx context.Context, op string, err error) {
	degradedTotal.Inc()
	s.warn.Do(func() {
		s.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback",
			slog.String("operation", op),
			slog.String("breaker", s.breaker.Name()),
			slog.String("error", err.Error()),
		)
	})
}
