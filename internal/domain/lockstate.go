package domain

import (
	"math"
	"time"
)

// LockoutPolicy configures progressive account lockout.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy locks an account for 15 minutes after 5 consecutive
// failed logins.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute}
}

// LockState is the login lock state of an account: either Active with a
// count of consecutive failures, or Locked until a point in time. A Locked
// state never carries a failure count and an Active state never carries an
// expiry.
type LockState struct {
	locked         bool
	failedAttempts int
	until          time.Time
}

// Active returns an unlocked state with n consecutive failures.
func Active(n int) LockState {
	if n < 0 {
		n = 0
	}
	return LockState{failedAttempts: n}
}

// LockedUntil returns a locked state expiring at t.
func LockedUntil(t time.Time) LockState {
	return LockState{locked: true, until: t.UTC()}
}

// LockStateFromColumns rebuilds the state from its persisted form. A
// non-nil lock timestamp wins over the counter.
func LockStateFromColumns(failedAttempts int, lockedUntil *time.Time) LockState {
	if lockedUntil != nil {
		return LockedUntil(*lockedUntil)
	}
	return Active(failedAttempts)
}

// Columns returns the persisted form: failed_login_attempts and
// account_locked_until.
func (s LockState) Columns() (failedAttempts int, lockedUntil *time.Time) {
	if s.locked {
		u := s.until
		return 0, &u
	}
	return s.failedAttempts, nil
}

// Locked reports whether the state is the Locked variant, regardless of
// whether its expiry has passed. Use IsLocked for a time-aware check.
func (s LockState) Locked() bool { return s.locked }

// FailedAttempts is the consecutive failure count of an Active state.
func (s LockState) FailedAttempts() int { return s.failedAttempts }

// Until is the expiry of a Locked state, zero otherwise.
func (s LockState) Until() time.Time { return s.until }

// Evaluate expires a lock whose window has elapsed.
func (s LockState) Evaluate(now time.Time) LockState {
	if s.locked && !now.Before(s.until) {
		return Active(0)
	}
	return s
}

// IsLocked reports whether login must be refused at now.
func (s LockState) IsLocked(now time.Time) bool {
	return s.Evaluate(now).locked
}

// Remaining is the time left on an unexpired lock.
func (s LockState) Remaining(now time.Time) time.Duration {
	if !s.IsLocked(now) {
		return 0
	}
	return s.until.Sub(now)
}

// RemainingMinutes rounds Remaining up to whole minutes.
func (s LockState) RemainingMinutes(now time.Time) int {
	return int(math.Ceil(s.Remaining(now).Minutes()))
}

// RecordFailure applies one failed password check. Reaching the policy's
// threshold locks the account for the policy duration.
func (s LockState) RecordFailure(now time.Time, p LockoutPolicy) LockState {
	s = s.Evaluate(now)
	if s.locked {
		return s
	}
	n := s.failedAttempts + 1
	if p.MaxAttempts > 0 && n >= p.MaxAttempts {
		return LockedUntil(now.Add(p.Duration))
	}
	return Active(n)
}

// RecordSuccess clears any failures or lock.
func (s LockState) RecordSuccess() LockState {
	return Active(0)
}
