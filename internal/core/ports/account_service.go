package ports

import (
	"context"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// RegisterInput carries a self-service registration request.
type RegisterInput struct {
	Username        string `validate:"required,min=3"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required"`
}

// AccountService covers self-service account operations.
type AccountService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.Identity, error)
	ChangePassword(ctx context.Context, actor *domain.Identity, current, next, confirm string) error
	// RenameUsername consumes a previously granted one-shot rename.
	RenameUsername(ctx context.Context, actor *domain.Identity, newUsername string) error
	// DeleteAccount verifies the password and the literal confirmation phrase,
	// then removes the identity along with its stored uploads.
	DeleteAccount(ctx context.Context, actor *domain.Identity, password, confirm string, ownedUploads []string) error
}
