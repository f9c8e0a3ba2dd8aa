package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret        = "test-secret-key-for-jwt-testing"
	testWrongSecret   = "wrong-secret-key-for-jwt-testing"
	testTokenDuration = 1 * time.Hour
)

func createTestUser(role models.Role) *models.User {
	return &models.User{
		ID:       42,
		Username: "testuser",
		Email:    "test@example.com",
		Role:     role,
	}
}

func TestIssue_Format(t *testing.T) {
	token, err := NewTokenIssuer(testSecret, testTokenDuration).Issue(createTestUser(models.RoleUser))

	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3, "JWT should be header.payload.signature")
}

func TestParse_CarriesRole(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	for _, role := range []models.Role{models.RoleUser, models.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			token, err := issuer.Issue(createTestUser(role))
			require.NoError(t, err)

			claims, err := issuer.Parse(token)
			require.NoError(t, err)
			assert.Equal(t, role, claims.Role)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	token, err := issuer.Issue(createTestUser(models.RoleUser))
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * testTokenDuration) }
	claims, err := issuer.Parse(token)

	assert.ErrorIs(t, err, ErrExpiredToken)
	assert.Nil(t, claims)
}

func TestParse_WrongSecret(t *testing.T) {
	token, err := NewTokenIssuer(testSecret, testTokenDuration).Issue(createTestUser(models.RoleUser))
	require.NoError(t, err)

	claims, err := NewTokenIssuer(testWrongSecret, testTokenDuration).Parse(token)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, claims)
}

func TestParse_ForeignIssuer(t *testing.T) {
	now := time.Now()
	claims := &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = NewTokenIssuer(testSecret, testTokenDuration).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		UserID: 42,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuerName,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenIssuer(testSecret, testTokenDuration).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_Tampered(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	token, err := issuer.Issue(createTestUser(models.RoleUser))
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[1] = parts[1] + "x"

	_, err = issuer.Parse(strings.Join(parts, "."))
	assert.Error(t, err)
}

func TestParse_Garbage(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	for _, input := range []string{"", "not.a.token", "abc"} {
		_, err := issuer.Parse(input)
		assert.ErrorIs(t, err, ErrInvalidToken, "input %q should be rejected", input)
	}
}

func TestToken_RoundTripToSession(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	user := createTestUser(models.RoleAdmin)
	token, err := issuer.Issue(user)
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)

	sess := claims.Session()
	assert.Equal(t, user.ID, sess.UserID)
	assert.Equal(t, user.Username, sess.Username)
	assert.True(t, sess.IsAdmin())
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, TokenIssuerName, claims.Issuer)
	assert.NotEmpty(t, claims.ID, "Each token should carry a unique ID")
}

func BenchmarkParse(b *testing.B) {
	issuer := NewTokenIssuer(testSecret, testTokenDuration)
	token, _ := issuer.Issue(createTestUser(models.RoleUser))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = issuer.Parse(token)
	}
}
