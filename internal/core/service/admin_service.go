package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/plateshare/accountcore/internal/core/domain"
	"github.com/plateshare/accountcore/internal/core/ports"
)

// AdminService implements administrative account management. Every operation
// runs the explicit admin guard before touching any state.
type AdminService struct {
	repo     ports.IdentityRepository
	hasher   ports.PasswordHasher
	lockout  LockoutPolicy
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewAdminService(repo ports.IdentityRepository, hasher ports.PasswordHasher, lockout LockoutPolicy, logger zerolog.Logger) *AdminService {
	return &AdminService{
		repo:     repo,
		hasher:   hasher,
		lockout:  lockout,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateEmployee provisions an employee identity. Same validation and
// strength gates as registration, but the resulting role is employee.
func (s *AdminService) CreateEmployee(ctx context.Context, actor *domain.Identity, input ports.CreateEmployeeInput) (*domain.Identity, error) {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	if input.Password != input.ConfirmPassword {
		return nil, fmt.Errorf("%w: passwords do not match", domain.ErrInvalidInput)
	}
	if score, _ := EvaluatePassword(input.Password); score < minRegisterScore {
		return nil, fmt.Errorf("%w: password is too weak", domain.ErrWeakPassword)
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
		Role:           domain.RoleEmployee,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("username", created.Username).Str("created_by", actor.Username).Msg("employee created")
	return created, nil
}

// UpdateEmployee rewrites an employee's username and email. Accounts holding
// any other role cannot be edited through this path.
func (s *AdminService) UpdateEmployee(ctx context.Context, actor *domain.Identity, employeeUsername, newUsername, newEmail string) error {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if len(newUsername) < 3 || newEmail == "" {
		return fmt.Errorf("%w: username and email are required", domain.ErrInvalidInput)
	}

	employee, err := s.repo.FindByUsername(ctx, employeeUsername)
	if err != nil {
		return err
	}
	if employee.Role != domain.RoleEmployee {
		return fmt.Errorf("%w: can only edit employee accounts", domain.ErrInvalidInput)
	}

	if newUsername != employee.Username {
		if _, err := s.repo.FindByUsername(ctx, newUsername); err == nil {
			return domain.ErrDuplicateIdentifier
		} else if !errors.Is(err, domain.ErrIdentityNotFound) {
			return fmt.Errorf("check username: %w", err)
		}
	}
	if newEmail != employee.Email {
		if _, err := s.repo.FindByEmail(ctx, newEmail); err == nil {
			return domain.ErrDuplicateIdentifier
		} else if !errors.Is(err, domain.ErrIdentityNotFound) {
			return fmt.Errorf("check email: %w", err)
		}
	}

	if err := s.repo.UpdateIdentifiers(ctx, employee.ID, newUsername, newEmail); err != nil {
		return err
	}

	s.logger.Info().Str("username", newUsername).Str("updated_by", actor.Username).Msg("employee updated")
	return nil
}

// GrantUsernameReset arms the one-shot rename flag for an employee that has
// reached the failure threshold. The same repository write clears the
// lockout counters so the employee can log back in and use the grant.
func (s *AdminService) GrantUsernameReset(ctx context.Context, actor *domain.Identity, employeeUsername string) error {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}

	employee, err := s.repo.FindByUsername(ctx, employeeUsername)
	if err != nil {
		return err
	}
	if employee.Role != domain.RoleEmployee {
		return fmt.Errorf("%w: can only grant username reset to employees", domain.ErrInvalidInput)
	}
	if employee.FailedAttempts < s.lockout.Threshold {
		return fmt.Errorf("%w: employee has fewer than %d failed attempts", domain.ErrInvalidInput, s.lockout.Threshold)
	}

	if err := s.repo.GrantUsernameReset(ctx, employeeUsername); err != nil {
		return err
	}

	s.logger.Info().Str("username", employeeUsername).Str("granted_by", actor.Username).Msg("username reset granted")
	return nil
}

// SetRole reassigns an identity's role. This is the only path through which
// a role changes after creation.
func (s *AdminService) SetRole(ctx context.Context, actor *domain.Identity, username string, role domain.Role) error {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}

	if err := s.repo.SetRole(ctx, username, role); err != nil {
		return err
	}

	s.logger.Info().Str("username", username).Str("role", string(role)).Str("set_by", actor.Username).Msg("role changed")
	return nil
}

// ListEmployees returns every identity holding the employee role.
func (s *AdminService) ListEmployees(ctx context.Context, actor *domain.Identity) ([]*domain.Identity, error) {
	if err := Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.repo.ListByRole(ctx, domain.RoleEmployee)
}
