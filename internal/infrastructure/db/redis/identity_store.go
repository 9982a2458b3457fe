package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plateshare/accountcore/internal/core/domain"
)

const maxTxRetries = 5

// RedisIdentityStore is an identity repository backed by Redis, for
// deployments that run without Mongo. Records are JSON values keyed by
// username, with a secondary key per email for uniqueness and lookup.
// Every read-modify-write rides a WATCH transaction and retries on
// contention, so concurrent failed logins on one account are both counted.
type RedisIdentityStore struct {
	client *redis.Client
}

func NewIdentityStore(client *redis.Client) *RedisIdentityStore {
	return &RedisIdentityStore{client: client}
}

type redisIdentity struct {
	ID                   string     `json:"id"`
	Username             string     `json:"username"`
	Email                string     `json:"email"`
	PasswordDigest       string     `json:"password_digest"`
	Role                 string     `json:"role"`
	FailedAttempts       int        `json:"failed_attempts"`
	LastFailureAt        *time.Time `json:"last_failure_at,omitempty"`
	UsernameResetAllowed bool       `json:"username_reset_allowed"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func identityKey(username string) string { return "identity:" + username }
func emailKey(email string) string       { return "identity:email:" + email }

func (r *RedisIdentityStore) Create(ctx context.Context, id *domain.Identity) (*domain.Identity, error) {
	userKey := identityKey(id.Username)
	mailKey := emailKey(id.Email)
	buf, err := json.Marshal(toRedis(id))
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}

	err = r.withRetry(ctx, func() error {
		return r.client.Watch(ctx, func(tx *redis.Tx) error {
			for _, key := range []string{userKey, mailKey} {
				n, err := tx.Exists(ctx, key).Result()
				if err != nil {
					return err
				}
				if n > 0 {
					return domain.ErrDuplicateIdentifier
				}
			}
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, userKey, buf, 0)
				pipe.Set(ctx, mailKey, id.Username, 0)
				return nil
			})
			return err
		}, userKey, mailKey)
	})
	if err != nil {
		return nil, err
	}
	return r.FindByUsername(ctx, id.Username)
}

func (r *RedisIdentityStore) FindByUsername(ctx context.Context, username string) (*domain.Identity, error) {
	raw, err := r.client.Get(ctx, identityKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return decodeIdentity(raw)
}

func (r *RedisIdentityStore) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	username, err := r.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, fmt.Errorf("get email index: %w", err)
	}
	return r.FindByUsername(ctx, username)
}

func (r *RedisIdentityStore) ListByRole(ctx context.Context, role domain.Role) ([]*domain.Identity, error) {
	var out []*domain.Identity
	iter := r.client.Scan(ctx, 0, identityKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) >= len("identity:email:") && key[:len("identity:email:")] == "identity:email:" {
			continue
		}
		raw, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("get identity: %w", err)
		}
		id, err := decodeIdentity(raw)
		if err != nil {
			return nil, err
		}
		if id.Role == role {
			out = append(out, id)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan identities: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (r *RedisIdentityStore) RecordFailure(ctx context.Context, username string, at time.Time) (*domain.Identity, error) {
	return r.mutate(ctx, username, func(ri *redisIdentity) error {
		ri.FailedAttempts++
		t := at.UTC()
		ri.LastFailureAt = &t
		return nil
	})
}

func (r *RedisIdentityStore) ResetLockout(ctx context.Context, username string) error {
	_, err := r.mutate(ctx, username, func(ri *redisIdentity) error {
		ri.FailedAttempts = 0
		ri.LastFailureAt = nil
		return nil
	})
	return err
}

func (r *RedisIdentityStore) UpdateDigest(ctx context.Context, username, digest string) error {
	_, err := r.mutate(ctx, username, func(ri *redisIdentity) error {
		ri.PasswordDigest = digest
		return nil
	})
	return err
}

func (r *RedisIdentityStore) SetRole(ctx context.Context, username string, role domain.Role) error {
	_, err := r.mutate(ctx, username, func(ri *redisIdentity) error {
		ri.Role = string(role)
		return nil
	})
	return err
}

func (r *RedisIdentityStore) GrantUsernameReset(ctx context.Context, username string) error {
	_, err := r.mutate(ctx, username, func(ri *redisIdentity) error {
		ri.UsernameResetAllowed = true
		ri.FailedAttempts = 0
		ri.LastFailureAt = nil
		return nil
	})
	return err
}

func (r *RedisIdentityStore) UpdateIdentifiers(ctx context.Context, id, username, email string) error {
	current, err := r.findByID(ctx, id)
	if err != nil {
		return err
	}
	return r.rename(ctx, current, func(ri *redisIdentity) error {
		ri.Username = username
		ri.Email = email
		return nil
	}, username, email)
}

func (r *RedisIdentityStore) ConsumeUsernameReset(ctx context.Context, username, newUsername string) error {
	current, err := r.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	return r.rename(ctx, current, func(ri *redisIdentity) error {
		if !ri.UsernameResetAllowed {
			return domain.ErrResetNotAllowed
		}
		ri.Username = newUsername
		ri.UsernameResetAllowed = false
		return nil
	}, newUsername, current.Email)
}

func (r *RedisIdentityStore) Delete(ctx context.Context, username string) error {
	id, err := r.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	userKey := identityKey(username)
	mailKey := emailKey(id.Email)
	return r.withRetry(ctx, func() error {
		return r.client.Watch(ctx, func(tx *redis.Tx) error {
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, userKey, mailKey)
				return nil
			})
			return err
		}, userKey, mailKey)
	})
}

// rename rewrites an identity under possibly new username/email keys,
// removing the old keys in the same transaction.
func (r *RedisIdentityStore) rename(ctx context.Context, current *domain.Identity, apply func(*redisIdentity) error, newUsername, newEmail string) error {
	oldUserKey := identityKey(current.Username)
	oldMailKey := emailKey(current.Email)
	newUserKey := identityKey(newUsername)
	newMailKey := emailKey(newEmail)

	return r.withRetry(ctx, func() error {
		return r.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, oldUserKey).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return domain.ErrIdentityNotFound
				}
				return err
			}
			var ri redisIdentity
			if err := json.Unmarshal([]byte(raw), &ri); err != nil {
				return fmt.Errorf("decode identity: %w", err)
			}

			if newUserKey != oldUserKey {
				if n, err := tx.Exists(ctx, newUserKey).Result(); err != nil {
					return err
				} else if n > 0 {
					return domain.ErrDuplicateIdentifier
				}
			}
			if newMailKey != oldMailKey {
				if n, err := tx.Exists(ctx, newMailKey).Result(); err != nil {
					return err
				} else if n > 0 {
					return domain.ErrDuplicateIdentifier
				}
			}

			if err := apply(&ri); err != nil {
				return err
			}
			ri.UpdatedAt = time.Now().UTC()
			buf, err := json.Marshal(&ri)
			if err != nil {
				return fmt.Errorf("encode identity: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				if newUserKey != oldUserKey {
					pipe.Del(ctx, oldUserKey)
				}
				if newMailKey != oldMailKey {
					pipe.Del(ctx, oldMailKey)
				}
				pipe.Set(ctx, identityKey(ri.Username), buf, 0)
				pipe.Set(ctx, emailKey(ri.Email), ri.Username, 0)
				return nil
			})
			return err
		}, oldUserKey, oldMailKey, newUserKey, newMailKey)
	})
}

func (r *RedisIdentityStore) mutate(ctx context.Context, username string, fn func(*redisIdentity) error) (*domain.Identity, error) {
	key := identityKey(username)
	var updated *domain.Identity

	err := r.withRetry(ctx, func() error {
		return r.client.Watch(ctx, func(tx *redis.Tx) error {
			raw, err := tx.Get(ctx, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return domain.ErrIdentityNotFound
				}
				return err
			}
			var ri redisIdentity
			if err := json.Unmarshal([]byte(raw), &ri); err != nil {
				return fmt.Errorf("decode identity: %w", err)
			}
			if err := fn(&ri); err != nil {
				return err
			}
			ri.UpdatedAt = time.Now().UTC()

			buf, err := json.Marshal(&ri)
			if err != nil {
				return fmt.Errorf("encode identity: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, buf, 0)
				return nil
			})
			if err == nil {
				updated = fromRedis(&ri)
			}
			return err
		}, key)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// withRetry re-runs fn while the WATCH transaction loses the optimistic race.
func (r *RedisIdentityStore) withRetry(ctx context.Context, fn func() error) error {
	for i := 0; i < maxTxRetries; i++ {
		err := fn()
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("identity store: transaction contention: %w", redis.TxFailedErr)
}

func (r *RedisIdentityStore) findByID(ctx context.Context, id string) (*domain.Identity, error) {
	iter := r.client.Scan(ctx, 0, identityKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) >= len("identity:email:") && key[:len("identity:email:")] == "identity:email:" {
			continue
		}
		raw, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, fmt.Errorf("get identity: %w", err)
		}
		found, err := decodeIdentity(raw)
		if err != nil {
			return nil, err
		}
		if found.ID == id {
			return found, nil
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan identities: %w", err)
	}
	return nil, domain.ErrIdentityNotFound
}

func decodeIdentity(raw string) (*domain.Identity, error) {
	var ri redisIdentity
	if err := json.Unmarshal([]byte(raw), &ri); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	return fromRedis(&ri), nil
}

func toRedis(id *domain.Identity) *redisIdentity {
	return &redisIdentity{
		ID:                   id.ID,
		Username:             id.Username,
		Email:                id.Email,
		PasswordDigest:       id.PasswordDigest,
		Role:                 string(id.Role),
		FailedAttempts:       id.FailedAttempts,
		LastFailureAt:        id.LastFailureAt,
		UsernameResetAllowed: id.UsernameResetAllowed,
		CreatedAt:            id.CreatedAt,
		UpdatedAt:            id.UpdatedAt,
	}
}

func fromRedis(ri *redisIdentity) *domain.Identity {
	return &domain.Identity{
		ID:                   ri.ID,
		Username:             ri.Username,
		Email:                ri.Email,
		PasswordDigest:       ri.PasswordDigest,
		Role:                 domain.Role(ri.Role),
		FailedAttempts:       ri.FailedAttempts,
		LastFailureAt:        ri.LastFailureAt,
		UsernameResetAllowed: ri.UsernameResetAllowed,
		CreatedAt:            ri.CreatedAt,
		UpdatedAt:            ri.UpdatedAt,
	}
}
