package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plateshare/accountcore/internal/core/domain"
	"github.com/plateshare/accountcore/internal/core/ports"
)

// minRegisterScore is the strength floor for new passwords at registration
// and employee creation. Below it, the hash is never attempted.
const minRegisterScore = 2

// AccountService implements self-service account operations: registration,
// password change, the one-shot username rename, and account deletion.
type AccountService struct {
	repo     ports.IdentityRepository
	files    ports.FileStore
	hasher   ports.PasswordHasher
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAccountService(repo ports.IdentityRepository, files ports.FileStore, hasher ports.PasswordHasher, logger zerolog.Logger) *AccountService {
	return &AccountService{
		repo:     repo,
		files:    files,
		hasher:   hasher,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register creates a new ordinary-user identity. The password must clear the
// strength floor; username and email must be free. The digest is produced by
// the injected hasher, never assembled by hand.
func (s *AccountService) Register(ctx context.Context, input ports.RegisterInput) (*domain.Identity, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if err := s.checkStrength(input.Password); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, input.Username, input.Email); err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Identity{
		ID:             uuid.NewString(),
		Username:       input.Username,
		Email:          input.Email,
		PasswordDigest: digest,
		Role:           domain.RoleUser,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", created.Username).Msg("identity registered")
	return created, nil
}

// ChangePassword rotates the actor's digest after verifying the current
// password. The new password must meet length policy and avoid the common
// fragment denylist.
func (s *AccountService) ChangePassword(ctx context.Context, actor *domain.Identity, current, next, confirm string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}

	ok, err := s.hasher.Verify(actor.PasswordDigest, current)
	if err != nil || !ok {
		return domain.ErrInvalidCredentials
	}
	if next != confirm {
		return fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if containsCommonFragment(next) {
		return fmt.Errorf("%w: avoid common words or sequences", domain.ErrWeakPassword)
	}

	digest, err := s.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateDigest(ctx, actor.Username, digest); err != nil {
		return fmt.Errorf("update digest: %w", err)
	}

	s.logger.Info().Str("username", actor.Username).Msg("password changed")
	return nil
}

// RenameUsername consumes a previously granted one-shot rename. The grant is
// cleared in the same repository write that performs the rename.
func (s *AccountService) RenameUsername(ctx context.Context, actor *domain.Identity, newUsername string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if len(newUsername) < 3 {
		return fmt.Errorf("%w: username must be at least 3 characters", domain.ErrInvalidInput)
	}
	if _, err := s.repo.FindByUsername(ctx, newUsername); err == nil {
		return domain.ErrDuplicateIdentifier
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	if err := s.repo.ConsumeUsernameReset(ctx, actor.Username, newUsername); err != nil {
		return err
	}

	s.logger.Info().Str("old_username", actor.Username).Str("new_username", newUsername).Msg("username renamed")
	return nil
}

// DeleteAccount removes the actor's identity after verifying the password
// and the literal "DELETE" confirmation. Stored uploads owned by the account
// are removed best-effort before the record itself.
func (s *AccountService) DeleteAccount(ctx context.Context, actor *domain.Identity, password, confirm string, ownedUploads []string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}

	ok, err := s.hasher.Verify(actor.PasswordDigest, password)
	if err != nil || !ok {
		return domain.ErrInvalidCredentials
	}
	if confirm != "DELETE" {
		return fmt.Errorf(`%w: type "DELETE" to confirm`, domain.ErrInvalidInput)
	}

	for _, name := range ownedUploads {
		if err := s.files.Remove(ctx, name); err != nil {
			s.logger.Error().Err(err).Str("stored_name", name).Msg("failed to remove upload")
		}
	}

	if err := s.repo.Delete(ctx, actor.Username); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}

	s.logger.Info().Str("username", actor.Username).Msg("account deleted")
	return nil
}

func (s *AccountService) checkStrength(password string) error {
	score, recs := EvaluatePassword(password)
	if score >= minRegisterScore {
		return nil
	}
	if len(recs) > 3 {
		recs = recs[:3]
	}
	return fmt.Errorf("%w: %s", domain.ErrWeakPassword, strings.Join(recs, "; "))
}

func (s *AccountService) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return domain.ErrDuplicateIdentifier
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("check username: %w", err)
	}
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateIdentifier
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		return fmt.Errorf("check email: %w", err)
	}
	return nil
}
