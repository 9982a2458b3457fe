package service

import (
	"time"

	"github.com/plateshare/accountcore/internal/core/domain"
)

const (
	defaultLockoutThreshold = 3
	defaultLockoutWindow    = 15 * time.Minute
)

// LockoutPolicy decides whether an identity may attempt verification, based
// on its failure counter and the time since the last failure. Check only
// observes; every mutation of the counters goes through the identity
// repository so concurrent attempts cannot lose updates.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
}

// NewLockoutPolicy builds a policy, substituting defaults (3 attempts,
// 15 minutes) for non-positive values.
func NewLockoutPolicy(threshold int, window time.Duration) LockoutPolicy {
	if threshold <= 0 {
		threshold = defaultLockoutThreshold
	}
	if window <= 0 {
		window = defaultLockoutWindow
	}
	return LockoutPolicy{Threshold: threshold, Window: window}
}

// Check classifies the identity's lockout state at the given instant.
// LockStateExpired means the threshold was reached but the window has
// elapsed; the caller is expected to reset the counters and proceed.
func (p LockoutPolicy) Check(id *domain.Identity, now time.Time) domain.LockState {
	if id.FailedAttempts < p.Threshold {
		return domain.LockStateUnlocked
	}
	if id.LastFailureAt == nil {
		return domain.LockStateExpired
	}
	if now.Before(id.LastFailureAt.Add(p.Window)) {
		return domain.LockStateLocked
	}
	return domain.LockStateExpired
}

// Remaining returns how long the lockout window still has to run. Zero when
// the identity is not locked at the given instant.
func (p LockoutPolicy) Remaining(id *domain.Identity, now time.Time) time.Duration {
	if p.Check(id, now) != domain.LockStateLocked {
		return 0
	}
	return id.LastFailureAt.Add(p.Window).Sub(now)
}
