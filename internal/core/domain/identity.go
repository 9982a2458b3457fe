package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of actor roles. Values outside this set cannot be
// constructed through ParseRole, and the authorizer compares roles by strict
// equality only.
type Role string

const (
	RoleUser     Role = "user"
	RoleEmployee Role = "employee"
	RoleAdmin    Role = "admin"
)

// ParseRole converts a raw string into a Role, rejecting anything outside
// the closed set.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleEmployee, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleEmployee, RoleAdmin:
		return true
	}
	return false
}

// Identity is the account record the security core operates on. The record
// itself is owned by the credential store; this core reads it, and mutates
// only the lockout fields, the password digest, and the rename grant.
type Identity struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	PasswordDigest string `json:"-"`
	Role           Role   `json:"role"`
	FailedAttempts int    `json:"failed_attempts"`
	// LastFailureAt is set iff FailedAttempts > 0 since the last successful
	// login or lockout reset.
	LastFailureAt        *time.Time `json:"last_failure_at,omitempty"`
	UsernameResetAllowed bool       `json:"username_reset_allowed"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// LockState is the tri-state result of a lockout check.
type LockState int

const (
	// LockStateUnlocked: below the failure threshold.
	LockStateUnlocked LockState = iota
	// LockStateLocked: at or over the threshold, window still running.
	LockStateLocked
	// LockStateExpired: at or over the threshold but the window has elapsed.
	// Transient; collapses to unlocked once the caller resets the counters.
	LockStateExpired
)

func (s LockState) String() string {
	switch s {
	case LockStateLocked:
		return "locked"
	case LockStateExpired:
		return "expired"
	default:
		return "unlocked"
	}
}
