// Package ratelimit implements fixed-window request counting backed by Redis
// with an in-process fallback, the IP blocklist and the login backoff hint.
package ratelimit

import (
	"context"
	"strconv"
	"time"
)

// keyPrefix namespaces rate limit counters in the shared store.
const keyPrefix = "ratelimit:"

// Result is the state of a window counter after an operation.
type Result struct {
	Count   int64
	ResetAt time.Time
}

// Store counts hits per key in fixed windows.
type Store interface {
	// Increment adds one hit to the current window of key and returns the
	// new count together with the window boundary.
	Increment(ctx context.Context, key string, window time.Duration) (Result, error)

	// Get returns the current window count without changing it.
	Get(ctx context.Context, key string, window time.Duration) (Result, error)

	// Reset clears the current window of key.
	Reset(ctx context.Context, key string, window time.Duration) error
}

// bucket returns the window index containing now and the time that window
// ends. ResetAt is always the window boundary, never now.
func bucket(now time.Time, window time.Duration) (int64, time.Time) {
	w := window.Milliseconds()
	if w <= 0 {
		w = 1
	}
	idx := now.UnixMilli() / w
	return idx, time.UnixMilli((idx + 1) * w).UTC()
}

// bucketKey builds "ratelimit:<key>:<bucket>".
func bucketKey(key string, idx int64) string {
	return keyPrefix + key + ":" + strconv.FormatInt(idx, 10)
}
