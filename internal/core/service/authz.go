package service

import "github.com/plateshare/accountcore/internal/core/domain"

// Authorize is the capability check gating privileged operations. The actor
// is passed explicitly; there is no ambient current-user lookup. Roles are
// compared by strict equality: admin does not imply employee and vice versa.
func Authorize(actor *domain.Identity, required domain.Role) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if actor.Role != required {
		return domain.ErrPermissionDenied
	}
	return nil
}
