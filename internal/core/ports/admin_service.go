package ports

import (
	"context"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// CreateEmployeeInput carries an admin request to provision an employee
// account.
type CreateEmployeeInput struct {
	Username        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

// AdminService covers administrative account management. Every operation
// requires an actor with the admin role; anything else is rejected before
// any state is touched.
type AdminService interface {
	CreateEmployee(ctx context.Context, actor *domain.Identity, input CreateEmployeeInput) (*domain.Identity, error)
	// UpdateEmployee rewrites an employee's username and email. Only accounts
	// holding the employee role can be edited.
	UpdateEmployee(ctx context.Context, actor *domain.Identity, employeeUsername, newUsername, newEmail string) error
	// GrantUsernameReset arms the one-shot rename flag for an employee that
	// is at or over the failure threshold, clearing its lockout counters.
	GrantUsernameReset(ctx context.Context, actor *domain.Identity, employeeUsername string) error
	SetRole(ctx context.Context, actor *domain.Identity, username string, role domain.Role) error
	ListEmployees(ctx context.Context, actor *domain.Identity) ([]*domain.Identity, error)
}
