package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrWeakPassword = errors.New("password does not meet policy")
var ErrInvalidCredentials = errors.New("invalid username or password")
var ErrUnauthenticated = errors.New("authentication required")
var ErrPermissionDenied = errors.New("permission denied")
var ErrDuplicateIdentifier = errors.New("username or email already exists")
var ErrIdentityNotFound = errors.New("identity not found")
var ErrNoFile = errors.New("no file provided")
var ErrInvalidFileType = errors.New("file type not allowed")
var ErrMalformedDigest = errors.New("malformed password digest")
var ErrResetNotAllowed = errors.New("username reset not granted")
var ErrInvalidInput = errors.New("invalid input")

// AccountLockedError reports an active lockout window. Remaining is the
// duration until the window elapses, so callers can surface it to the user.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.Remaining.Round(time.Second))
}

// IsAccountLocked reports whether err is an AccountLockedError and returns it.
func IsAccountLocked(err error) (*AccountLockedError, bool) {
	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}
