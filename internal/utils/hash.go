package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/argon2"
)

// Argon2 parameters
const (
	SaltLength  = 16
	Memory      = 64 * 1024 // 64 MB
	Iterations  = 1
	Parallelism = 4
	KeyLength   = 32
)

var ErrInvalidHash = errors.New("invalid hash format")

// NewSalt returns SaltLength random bytes, hex encoded
func NewSalt() (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	return hex.EncodeToString(salt), nil
}

// HashPassword derives the Argon2id digest of password under salt.
// An empty salt is replaced by a fresh one; the salt actually used is returned
// so it can be stored next to the digest. Same (password, salt) -> same digest.
func HashPassword(password, salt string) (digest string, usedSalt string, err error) {
	if salt == "" {
		if salt, err = NewSalt(); err != nil {
			return "", "", err
		}
	}

	key := argon2.IDKey(
		[]byte(password),
		[]byte(salt),
		Iterations,
		Memory,
		Parallelism,
		KeyLength,
	)

	return hex.EncodeToString(key), salt, nil
}

// VerifyPassword recomputes the digest with the stored salt and compares it
func VerifyPassword(password, salt, digest string) (bool, error) {
	if salt == "" {
		return false, ErrInvalidHash
	}
	stored, err := hex.DecodeString(digest)
	if err != nil || len(stored) != KeyLength {
		return false, ErrInvalidHash
	}

	computed, _, err := HashPassword(password, salt)
	if err != nil {
		return false, err
	}
	test, _ := hex.DecodeString(computed)

	// Constant-time comparison (prevent timing attacks)
	return subtle.ConstantTimeCompare(stored, test) == 1, nil
}
