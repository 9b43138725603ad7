// Package auth validates the JWTs minted by the account system sitting
// in front of the relay. Token issuance itself is not the relay's job;
// GenerateToken exists for tooling and tests.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	relayerrors "chat-relay/errors"
)

// Claims carried inside a relay token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 tokens with a shared secret.
type Tokens struct {
	secret   []byte
	lifetime time.Duration
}

func NewTokens(secret string, lifetime time.Duration) Tokens {
	return Tokens{secret: []byte(secret), lifetime: lifetime}
}

// GenerateToken creates a signed JWT for a specific user.
func (t Tokens) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "chat-relay",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken parses and validates signature and expiration, and
// returns the claims on success.
func (t Tokens) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return nil, relayerrors.ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, relayerrors.ErrInvalidToken
	}
	return claims, nil
}
