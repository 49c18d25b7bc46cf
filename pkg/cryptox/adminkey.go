package cryptox

import (
	"errors"
	"fmt"
)

// ErrNoAdminKey is returned when neither a plaintext key nor a hash is set.
var ErrNoAdminKey = errors.New("cryptox: no admin key configured")

// AdminKey matches a presented key against either a plaintext key held in
// memory or an Argon2id PHC hash, so the plaintext never has to be deployed.
type AdminKey struct {
	plain string
	hash  string
}

// VerifyKey reports whether presented is the admin key.
func (k AdminKey) VerifyKey(presented string) bool {
	switch {
	case presented == "":
		return false
	case k.hash != "":
		return VerifySecret(presented, k.hash) == nil
	case k.plain != "":
		return EqualTokens(presented, k.plain)
	default:
		return false
	}
}

// Hashed reports whether the key is checked against a stored hash.
func (k AdminKey) Hashed() bool {
	return k.hash != ""
}

// NewAdminKeyVerifier builds the admin key from the configured credential.
// The hash wins when both are set.
func NewAdminKeyVerifier(plain, hash string) (AdminKey, error) {
	switch {
	case hash != "":
		if err := ValidateSecretHash(hash); err != nil {
			return AdminKey{}, fmt.Errorf("admin key hash: %w", err)
		}
		return AdminKey{hash: hash}, nil
	case plain != "":
		return AdminKey{plain: plain}, nil
	default:
		return AdminKey{}, ErrNoAdminKey
	}
}
