// Package lockout holds the brute-force lockout decision logic. It is
// pure: callers load the counters, ask for a decision and persist the
// updated state themselves.
package lockout

import "time"

const (
	MaxFailedAttempts = 5
	LockDuration      = 15 * time.Minute
)

type State struct {
	FailedAttempts int
	LockedUntil    *time.Time
}

type Decision struct {
	Allowed     bool
	LockedUntil time.Time
	// LapsedLock means a lock was set but has expired. The caller must
	// reset the state (OnSuccess) before evaluating the attempt.
	LapsedLock bool
}

func Check(s State, now time.Time) Decision {
	if s.LockedUntil == nil {
		return Decision{Allowed: true}
	}
	if s.LockedUntil.After(now) {
		return Decision{LockedUntil: *s.LockedUntil}
	}
	return Decision{Allowed: true, LapsedLock: true}
}

// OnSuccess clears the counter and the lock unconditionally.
func OnSuccess(State) State {
	return State{}
}

// OnFailure increments the counter and sets the lock once the counter
// reaches MaxFailedAttempts.
func OnFailure(s State, now time.Time) State {
	next := State{FailedAttempts: s.FailedAttempts + 1, LockedUntil: s.LockedUntil}
	if next.FailedAttempts >= MaxFailedAttempts {
		until := now.Add(LockDuration)
		next.LockedUntil = &until
	}
	return next
}
