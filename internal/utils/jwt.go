package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/Baaaki/community-hub/internal/models"
	"github.com/Baaaki/community-hub/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuerName is stamped into, and required on, every token
const TokenIssuerName = "community-hub"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

type Claims struct {
	UserID   uint        `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session converts validated claims into the explicit session object
func (c *Claims) Session() session.Session {
	return session.Session{
		UserID:   c.UserID,
		Username: c.Username,
		Role:     c.Role,
	}
}

// TokenIssuer signs and verifies HS256 session tokens with one secret
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL is how long issued tokens stay valid
func (ti *TokenIssuer) TTL() time.Duration {
	return ti.ttl
}

func (ti *TokenIssuer) Issue(user *models.User) (string, error) {
	now := ti.now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    TokenIssuerName,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
}

// Parse verifies signature, issuer and expiry. Expired tokens report
// ErrExpiredToken; every other failure reports ErrInvalidToken.
func (ti *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuerName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return ti.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, errors.Join(ErrInvalidToken, err)
	case !token.Valid || claims.UserID == 0:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
