package ports

import (
	"context"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// AuthService authenticates credentials under the lockout policy.
type AuthService interface {
	// Login verifies username/password. Failures never distinguish an unknown
	// user from a wrong password (domain.ErrInvalidCredentials); an active
	// lockout window yields *domain.AccountLockedError without the password
	// ever being hashed.
	Login(ctx context.Context, username, password string) (*domain.Identity, error)
}
