package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/argon2"

	"github.com/plateshare/accountcore/internal/core/domain"
)

// Argon2Params captures the tunable cost parameters for Argon2id digests.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns production hashing costs (64 MiB, 1 pass,
// 4 lanes). Tests inject cheaper values through NewArgon2Hasher.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Argon2Hasher produces self-describing Argon2id digests in the standard
// encoded form: $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>. Verification
// reads the parameters back out of the digest, so stored digests survive
// cost changes.
type Argon2Hasher struct {
	params    Argon2Params
	minLength int
}

// NewArgon2Hasher builds a hasher with the given cost parameters and minimum
// plaintext length (in runes). Non-positive minLength falls back to 8.
func NewArgon2Hasher(params Argon2Params, minLength int) *Argon2Hasher {
	if minLength <= 0 {
		minLength = 8
	}
	return &Argon2Hasher{params: params, minLength: minLength}
}

// Hash derives a digest from plaintext with a fresh random salt. Plaintexts
// shorter than the minimum length are rejected with domain.ErrWeakPassword.
func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	if utf8.RuneCountInString(plaintext) < h.minLength {
		return "", fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakPassword, h.minLength)
	}

	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory, h.params.Iterations, h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify re-derives the key under the parameters embedded in digest and
// compares in constant time. A mismatch is (false, nil); a digest that does
// not parse is (false, domain.ErrMalformedDigest).
func (h *Argon2Hasher) Verify(digest, plaintext string) (bool, error) {
	salt, key, params, err := decodeDigest(digest)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1, nil
}

func decodeDigest(digest string) (salt, key []byte, params Argon2Params, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, domain.ErrMalformedDigest
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, params, domain.ErrMalformedDigest
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return nil, nil, params, domain.ErrMalformedDigest
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, nil, params, domain.ErrMalformedDigest
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, domain.ErrMalformedDigest
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, params, domain.ErrMalformedDigest
	}
	return salt, key, params, nil
}
