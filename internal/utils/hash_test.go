package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// Test constants
const (
	testPassword        = "SecurePassword123!"
	testWrongPassword   = "WrongPassword456!"
	testSpecialPassword = "P@ssw0rd!#$%"
)

func TestHashPassword_GeneratesSalt(t *testing.T) {
	digest, salt, err := HashPassword(testPassword, "")

	require.NoError(t, err, "HashPassword should not return error for valid password")
	assert.Len(t, salt, SaltLength*2, "Salt should be hex encoded")
	assert.Len(t, digest, KeyLength*2, "Digest should be hex encoded")
	assert.NotContains(t, digest, testPassword)
}

func TestHashPassword_DeterministicWithSalt(t *testing.T) {
	digest1, salt, err := HashPassword(testPassword, "")
	require.NoError(t, err)

	digest2, salt2, err := HashPassword(testPassword, salt)
	require.NoError(t, err)

	assert.Equal(t, salt, salt2, "Supplied salt must be returned unchanged")
	assert.Equal(t, digest1, digest2, "Same password and salt should give the same digest")
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	digest1, salt1, err1 := HashPassword(testPassword, "")
	digest2, salt2, err2 := HashPassword(testPassword, "")

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, digest1, digest2, "Same password should produce different digests under fresh salts")
}

func TestVerifyPassword_Correct(t *testing.T) {
	digest, salt, err := HashPassword(testPassword, "")
	require.NoError(t, err, "Setup: HashPassword should not fail")

	match, err := VerifyPassword(testPassword, salt, digest)

	require.NoError(t, err)
	assert.True(t, match, "Password should match its digest")
}

func TestVerifyPassword_Incorrect(t *testing.T) {
	digest, salt, err := HashPassword(testPassword, "")
	require.NoError(t, err, "Setup: HashPassword should not fail")

	match, err := VerifyPassword(testWrongPassword, salt, digest)

	require.NoError(t, err)
	assert.False(t, match, "Wrong password should not match digest")
}

func TestVerifyPassword_VeryLongPassword(t *testing.T) {
	password := strings.Repeat("a", 1000)
	digest, salt, err := HashPassword(password, "")
	require.NoError(t, err)

	match, err := VerifyPassword(password, salt, digest)
	require.NoError(t, err)
	assert.True(t, match, "Very long password should match its digest")
}

func TestVerifyPassword_UnicodeCharacters(t *testing.T) {
	unicodePasswords := []string{
		"パスワード123",
		"Şifre123!",
		"Пароль123",
		"🔒🔑Password123",
		testSpecialPassword,
	}

	for _, password := range unicodePasswords {
		t.Run(password, func(t *testing.T) {
			digest, salt, err := HashPassword(password, "")
			require.NoError(t, err)

			match, err := VerifyPassword(password, salt, digest)
			require.NoError(t, err)
			assert.True(t, match)
		})
	}
}

func TestVerifyPassword_InvalidStoredValues(t *testing.T) {
	digest, salt, err := HashPassword(testPassword, "")
	require.NoError(t, err)

	testCases := []struct {
		name   string
		salt   string
		digest string
	}{
		{"empty_salt", "", digest},
		{"empty_digest", salt, ""},
		{"not_hex", salt, "zz-not-hex"},
		{"short_digest", salt, "abcd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			match, err := VerifyPassword(testPassword, tc.salt, tc.digest)

			assert.ErrorIs(t, err, ErrInvalidHash)
			assert.False(t, match)
		})
	}
}

func TestVerifyPassword_CaseAndWhitespaceMatter(t *testing.T) {
	digest, salt, err := HashPassword("Password123 ", "")
	require.NoError(t, err)

	for _, attempt := range []string{"password123 ", "Password123"} {
		match, err := VerifyPassword(attempt, salt, digest)
		require.NoError(t, err)
		assert.False(t, match, "attempt %q should not match", attempt)
	}
}

func TestHashPassword_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		salt := rapid.StringMatching(`[0-9a-f]{32}`).Draw(t, "salt")
		p1 := rapid.String().Draw(t, "p1")
		p2 := rapid.String().Filter(func(s string) bool { return s != p1 }).Draw(t, "p2")

		d1, _, err := HashPassword(p1, salt)
		if err != nil {
			t.Fatalf("hash p1: %v", err)
		}
		again, _, _ := HashPassword(p1, salt)
		if d1 != again {
			t.Fatalf("digest not deterministic for %q", p1)
		}
		d2, _, _ := HashPassword(p2, salt)
		if d1 == d2 {
			t.Fatalf("distinct passwords %q and %q share a digest", p1, p2)
		}
	})
}

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _, _ = HashPassword(testPassword, "")
	}
}
