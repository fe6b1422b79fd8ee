// Package cryptox derives account keys for the cloud service. Passwords never
// leave the process: only a salt and a verifier derived from the master key
// are stored remotely.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the length of freshly generated account salts.
const SaltSize = 32

// DeriveMasterKey stretches password with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier hashes the master key into the value stored server-side.
func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

// VerifierFor is DeriveMasterKey followed by MakeVerifier.
func VerifierFor(password, salt []byte) []byte {
	return MakeVerifier(DeriveMasterKey(password, salt))
}

// CheckVerifier compares two verifiers in constant time.
func CheckVerifier(stored, candidate []byte) bool {
	return subtle.ConstantTimeCompare(stored, candidate) == 1
}
