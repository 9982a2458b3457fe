package ports

// PasswordHasher produces and checks one-way, salted password digests. The
// digest is self-describing: Verify needs no parameters beyond the digest
// itself. Injected into services so tests can swap in cheap parameters.
type PasswordHasher interface {
	// Hash returns a digest for plaintext, or domain.ErrWeakPassword when the
	// plaintext is below the minimum length. Equal plaintexts yield distinct
	// digests (per-call random salt).
	Hash(plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. A mismatch is
	// (false, nil); a digest that cannot be parsed is (false, error).
	Verify(digest, plaintext string) (bool, error)
}
