package ports

import (
	"context"
	"time"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// IdentityRepository defines persistence for identity records. The lockout
// mutations (RecordFailure, ResetLockout) and the grant consumption
// (ConsumeUsernameReset) must each execute as a single atomic
// read-modify-write on one record: two concurrent failed logins for the
// same account must both be counted.
type IdentityRepository interface {
	Create(ctx context.Context, id *domain.Identity) (*domain.Identity, error)
	FindByUsername(ctx context.Context, username string) (*domain.Identity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.Identity, error)

	// RecordFailure increments failed_attempts and stamps last_failure_at,
	// returning the updated record.
	RecordFailure(ctx context.Context, username string, at time.Time) (*domain.Identity, error)
	// ResetLockout zeroes failed_attempts and clears last_failure_at.
	ResetLockout(ctx context.Context, username string) error

	UpdateDigest(ctx context.Context, username, digest string) error
	// UpdateIdentifiers rewrites username and email for the identity with the
	// given ID. Returns domain.ErrDuplicateIdentifier on collision.
	UpdateIdentifiers(ctx context.Context, id, username, email string) error
	SetRole(ctx context.Context, username string, role domain.Role) error

	// GrantUsernameReset sets the one-shot rename flag and clears the lockout
	// counters in the same write.
	GrantUsernameReset(ctx context.Context, username string) error
	// ConsumeUsernameReset renames the identity iff the flag is set, clearing
	// it in the same write. Returns domain.ErrResetNotAllowed otherwise.
	ConsumeUsernameReset(ctx context.Context, username, newUsername string) error

	Delete(ctx context.Context, username string) error
}
