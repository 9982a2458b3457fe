package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/plateshare/accountcore/internal/core/domain"
	"github.com/plateshare/accountcore/internal/core/ports"
	"github.com/plateshare/accountcore/internal/metrics"
)

// AuthService implements credential verification under the lockout policy.
type AuthService struct {
	repo    ports.IdentityRepository
	hasher  ports.PasswordHasher
	lockout LockoutPolicy
	logger  zerolog.Logger
}

func NewAuthService(repo ports.IdentityRepository, hasher ports.PasswordHasher, lockout LockoutPolicy, logger zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, lockout: lockout, logger: logger}
}

// Login authenticates username/password. The lockout state is checked before
// any hashing work: a locked account yields *domain.AccountLockedError with
// the remaining window, and the password is never verified. Unknown users
// and wrong passwords both yield domain.ErrInvalidCredentials so the error
// cannot be used to enumerate usernames.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.Identity, error) {
	if username == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	id, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load identity: %w", err)
	}

	now := time.Now().UTC()
	switch s.lockout.Check(id, now) {
	case domain.LockStateLocked:
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		return nil, &domain.AccountLockedError{Remaining: s.lockout.Remaining(id, now)}
	case domain.LockStateExpired:
		// Window elapsed; write the lazy reset through before verifying.
		if err := s.repo.ResetLockout(ctx, id.Username); err != nil {
			return nil, fmt.Errorf("reset lockout: %w", err)
		}
		id.FailedAttempts = 0
		id.LastFailureAt = nil
	}

	ok, err := s.hasher.Verify(id.PasswordDigest, password)
	if err != nil {
		// A digest that does not parse is a data problem, not a user error;
		// log it but answer the caller exactly like a mismatch.
		s.logger.Error().Err(err).Str("username", username).Msg("stored digest unreadable")
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		updated, recErr := s.repo.RecordFailure(ctx, id.Username, now)
		if recErr != nil {
			s.logger.Error().Err(recErr).Str("username", username).Msg("failed to record login failure")
		} else if updated.FailedAttempts >= s.lockout.Threshold {
			metrics.AccountLockoutsTotal.Inc()
			s.logger.Warn().
				Str("username", username).
				Int("failed_attempts", updated.FailedAttempts).
				Dur("window", s.lockout.Window).
				Msg("account entered lockout window")
		}
		metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	if err := s.repo.ResetLockout(ctx, id.Username); err != nil {
		return nil, fmt.Errorf("reset lockout: %w", err)
	}
	id.FailedAttempts = 0
	id.LastFailureAt = nil

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	s.logger.Info().Str("username", username).Msg("login succeeded")
	return id, nil
}
