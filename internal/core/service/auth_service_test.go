package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/plateshare/accountcore/internal/core/domain"
)

func seedIdentity(t *testing.T, repo *stubIdentityRepo, username, password string, role domain.Role) {
	t.Helper()
	digest, err := testHasher().Hash(password)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	repo.add(&domain.Identity{
		ID:             username + "-id",
		Username:       username,
		Email:          username + "@example.com",
		PasswordDigest: digest,
		Role:           role,
	})
}

func newTestAuthService(repo *stubIdentityRepo) *AuthService {
	return NewAuthService(repo, testHasher(), NewLockoutPolicy(3, 15*time.Minute), zerolog.Nop())
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "alice", "S3cure pass!", domain.RoleUser)
	svc := newTestAuthService(repo)

	id, err := svc.Login(context.Background(), "alice", "S3cure pass!")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if id.Username != "alice" || id.Role != domain.RoleUser {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if id.FailedAttempts != 0 || id.LastFailureAt != nil {
		t.Fatalf("counters not clean after success: %+v", id)
	}
}

func TestAuthService_Login_UnknownUserIndistinguishable(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "alice", "S3cure pass!", domain.RoleUser)
	svc := newTestAuthService(repo)
	ctx := context.Background()

	_, unknownErr := svc.Login(ctx, "ghost", "S3cure pass!")
	_, wrongErr := svc.Login(ctx, "alice", "not the password")

	if !errors.Is(unknownErr, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", unknownErr)
	}
	if !errors.Is(wrongErr, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}
	// Same kind for both, so the error cannot be used to probe usernames.
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("errors differ: %q vs %q", unknownErr, wrongErr)
	}
}

func TestAuthService_Login_FailureCountsAccumulate(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "bob", "S3cure pass!", domain.RoleUser)
	svc := newTestAuthService(repo)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		if _, err := svc.Login(ctx, "bob", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i, err)
		}
		stored := repo.identities["bob"]
		if stored.FailedAttempts != i {
			t.Fatalf("attempt %d: failed_attempts = %d", i, stored.FailedAttempts)
		}
		if stored.LastFailureAt == nil {
			t.Fatalf("attempt %d: last_failure_at not set", i)
		}
	}
}

func TestAuthService_Login_LockoutAfterThreshold(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "carol", "S3cure pass!", domain.RoleUser)

	hasher := &countingHasher{inner: testHasher()}
	svc := NewAuthService(repo, hasher, NewLockoutPolicy(3, 15*time.Minute), zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Login(ctx, "carol", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	verifiesBeforeLock := hasher.verifyCalls

	// The account is locked now; even the correct password is rejected and
	// the hasher is never consulted.
	_, err := svc.Login(ctx, "carol", "S3cure pass!")
	locked, ok := domain.IsAccountLocked(err)
	if !ok {
		t.Fatalf("expected AccountLockedError, got %v", err)
	}
	if locked.Remaining <= 0 || locked.Remaining > 15*time.Minute {
		t.Fatalf("remaining window out of range: %s", locked.Remaining)
	}
	if hasher.verifyCalls != verifiesBeforeLock {
		t.Fatalf("password was verified while locked")
	}
}

func TestAuthService_Login_WindowExpiryUnlocks(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "dave", "S3cure pass!", domain.RoleUser)
	svc := newTestAuthService(repo)
	ctx := context.Background()

	stale := time.Now().UTC().Add(-16 * time.Minute)
	stored := repo.identities["dave"]
	stored.FailedAttempts = 3
	stored.LastFailureAt = &stale

	id, err := svc.Login(ctx, "dave", "S3cure pass!")
	if err != nil {
		t.Fatalf("Login after window elapsed returned error: %v", err)
	}
	if id.FailedAttempts != 0 || id.LastFailureAt != nil {
		t.Fatalf("lazy reset not applied: %+v", id)
	}
	if repo.identities["dave"].FailedAttempts != 0 {
		t.Fatalf("reset was not written through to the store")
	}
}

func TestAuthService_Login_SuccessResetsCounter(t *testing.T) {
	repo := newStubIdentityRepo()
	seedIdentity(t, repo, "erin", "S3cure pass!", domain.RoleUser)
	svc := newTestAuthService(repo)
	ctx := context.Background()

	_, _ = svc.Login(ctx, "erin", "bad")
	_, _ = svc.Login(ctx, "erin", "bad")

	if _, err := svc.Login(ctx, "erin", "S3cure pass!"); err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if got := repo.identities["erin"].FailedAttempts; got != 0 {
		t.Fatalf("failed_attempts after success = %d, want 0", got)
	}
}

func TestAuthService_Login_UnreadableDigest(t *testing.T) {
	repo := newStubIdentityRepo()
	repo.add(&domain.Identity{ID: "x", Username: "frank", Email: "frank@example.com", PasswordDigest: "garbage", Role: domain.RoleUser})
	svc := newTestAuthService(repo)

	if _, err := svc.Login(context.Background(), "frank", "whatever!"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	svc := newTestAuthService(newStubIdentityRepo())
	ctx := context.Background()

	if _, err := svc.Login(ctx, "", "pw"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "user", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}
