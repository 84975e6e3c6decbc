package breaker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

var errDown = errors.New("redis down")

func fail() (int, error) { return 0, errDown }
func succeed() (int, error) { return 42, nil }

func TestBreaker_ClosedPassesThrough(t *testing.T) {
	b := New[int](testConfig("closed"), testLogger())

	v, err := b.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, "closed", b.Name())
}

func TestBreaker_TripsAndRejects(t *testing.T) {
	b := New[int](testConfig("trip"), testLogger())

	for i := 0; i < 3; i++ {
		_, err := b.Execute(fail)
		assert.ErrorIs(t, err, errDown)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, float64(2), testutil.ToFloat64(stateGauge.WithLabelValues("trip")))

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestBreaker_RecoversAfterTimeout(t *testing.T) {
	b := New[int](testConfig("recover"), testLogger())
	for i := 0; i < 3; i++ {
		_, _ = b.Execute(fail)
	}
	require.Equal(t, gobreaker.StateOpen, b.State())

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, b.State())

	_, err := b.Execute(succeed)
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, float64(0), testutil.ToFloat64(stateGauge.WithLabelValues("recover")))
}

func TestBreaker_BelowMinRequestsStaysClosed(t *testing.T) {
	b := New[int](testConfig("min"), testLogger())
	_, _ = b.Execute(fail)
	_, _ = b.Execute(fail)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_CallerCancellationIsNotAFailure(t *testing.T) {
	b := New[int](testConfig("cancel"), testLogger())
	for i := 0; i < 5; i++ {
		_, err := b.Execute(func() (int, error) { return 0, context.Canceled })
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}
