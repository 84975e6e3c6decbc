package password

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

// bcrypt ignores input past 72 bytes and x/crypto rejects it outright, so
// longer passwords are truncated the same way on hash and verify.
const maxBcryptBytes = 72

var hashDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "password_hash_duration_seconds",
		Help:    "Time spent in bcrypt, including the wait for a worker slot.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5},
	},
	[]string{"op"},
)

// Hasher hashes and verifies passwords with bcrypt. At most `workers`
// bcrypt computations run at once; further callers wait for a slot or for
// their context to end, so a burst of logins cannot occupy every CPU.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher returns a Hasher. cost outside bcrypt's range falls back to
// DefaultCost and workers <= 0 means runtime.NumCPU().
func NewHasher(cost, workers int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(workers))}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns a salted bcrypt hash of password.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() { hashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds()) }()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	b, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil);
// an error means the check could not be performed.
func (h *Hasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	start := time.Now()
	defer func() { hashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds()) }()

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("wait for hash worker: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxBcryptBytes {
		b = b[:maxBcryptBytes]
	}
	return b
}
