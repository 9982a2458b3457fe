package service

import (
	"context"
	"sort"
	"time"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// testParams are cheap Argon2id costs so the suite stays fast.
func testParams() Argon2Params {
	return Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
}

func testHasher() *Argon2Hasher {
	return NewArgon2Hasher(testParams(), 8)
}

func cloneIdentity(id *domain.Identity) *domain.Identity {
	if id == nil {
		return nil
	}
	clone := *id
	if id.LastFailureAt != nil {
		t := *id.LastFailureAt
		clone.LastFailureAt = &t
	}
	return &clone
}

// stubIdentityRepo is an in-memory identity repository keyed by username.
type stubIdentityRepo struct {
	identities map[string]*domain.Identity
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{identities: make(map[string]*domain.Identity)}
}

func (r *stubIdentityRepo) add(id *domain.Identity) {
	r.identities[id.Username] = cloneIdentity(id)
}

func (r *stubIdentityRepo) Create(_ context.Context, id *domain.Identity) (*domain.Identity, error) {
	for _, existing := range r.identities {
		if existing.Username == id.Username || existing.Email == id.Email {
			return nil, domain.ErrDuplicateIdentifier
		}
	}
	r.identities[id.Username] = cloneIdentity(id)
	return cloneIdentity(id), nil
}

func (r *stubIdentityRepo) FindByUsername(_ context.Context, username string) (*domain.Identity, error) {
	id, ok := r.identities[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return cloneIdentity(id), nil
}

func (r *stubIdentityRepo) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	for _, id := range r.identities {
		if id.Email == email {
			return cloneIdentity(id), nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) ListByRole(_ context.Context, role domain.Role) ([]*domain.Identity, error) {
	var out []*domain.Identity
	for _, id := range r.identities {
		if id.Role == role {
			out = append(out, cloneIdentity(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *stubIdentityRepo) RecordFailure(_ context.Context, username string, at time.Time) (*domain.Identity, error) {
	id, ok := r.identities[username]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	id.FailedAttempts++
	t := at
	id.LastFailureAt = &t
	return cloneIdentity(id), nil
}

func (r *stubIdentityRepo) ResetLockout(_ context.Context, username string) error {
	id, ok := r.identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.FailedAttempts = 0
	id.LastFailureAt = nil
	return nil
}

func (r *stubIdentityRepo) UpdateDigest(_ context.Context, username, digest string) error {
	id, ok := r.identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.PasswordDigest = digest
	return nil
}

func (r *stubIdentityRepo) UpdateIdentifiers(_ context.Context, idValue, username, email string) error {
	for key, id := range r.identities {
		if id.ID != idValue {
			continue
		}
		for _, other := range r.identities {
			if other.ID == idValue {
				continue
			}
			if other.Username == username || other.Email == email {
				return domain.ErrDuplicateIdentifier
			}
		}
		id.Username = username
		id.Email = email
		delete(r.identities, key)
		r.identities[username] = id
		return nil
	}
	return domain.ErrIdentityNotFound
}

func (r *stubIdentityRepo) SetRole(_ context.Context, username string, role domain.Role) error {
	id, ok := r.identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.Role = role
	return nil
}

func (r *stubIdentityRepo) GrantUsernameReset(_ context.Context, username string) error {
	id, ok := r.identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	id.UsernameResetAllowed = true
	id.FailedAttempts = 0
	id.LastFailureAt = nil
	return nil
}

func (r *stubIdentityRepo) ConsumeUsernameReset(_ context.Context, username, newUsername string) error {
	id, ok := r.identities[username]
	if !ok {
		return domain.ErrIdentityNotFound
	}
	if !id.UsernameResetAllowed {
		return domain.ErrResetNotAllowed
	}
	id.Username = newUsername
	id.UsernameResetAllowed = false
	delete(r.identities, username)
	r.identities[newUsername] = id
	return nil
}

func (r *stubIdentityRepo) Delete(_ context.Context, username string) error {
	if _, ok := r.identities[username]; !ok {
		return domain.ErrIdentityNotFound
	}
	delete(r.identities, username)
	return nil
}

// stubFileStore records saves and removals in memory.
type stubFileStore struct {
	saved   map[string][]byte
	removed []string
}

func newStubFileStore() *stubFileStore {
	return &stubFileStore{saved: make(map[string][]byte)}
}

func (s *stubFileStore) Save(_ context.Context, name string, content []byte) error {
	s.saved[name] = append([]byte(nil), content...)
	return nil
}

func (s *stubFileStore) Remove(_ context.Context, name string) error {
	s.removed = append(s.removed, name)
	delete(s.saved, name)
	return nil
}

// countingHasher wraps a hasher and counts Verify calls, so tests can assert
// that locked accounts never reach verification.
type countingHasher struct {
	inner       *Argon2Hasher
	verifyCalls int
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	return h.inner.Hash(plaintext)
}

func (h *countingHasher) Verify(digest, plaintext string) (bool, error) {
	h.verifyCalls++
	return h.inner.Verify(digest, plaintext)
}
