// Package auth validates the platform's session tokens. Token issuance
// belongs to the main application; this service only needs to recognize a
// caller.
package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"heirloom/internal/platform/middleware"
	id "heirloom/pkg/domain"
)

// TokenValidator validates HS256 session tokens issued by the platform.
type TokenValidator struct {
	signingKey []byte
}

func NewTokenValidator(signingKey string) *TokenValidator {
	return &TokenValidator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a bearer token, returning the claims the
// middleware needs. The subject claim carries the user ID.
func (v *TokenValidator) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token invalid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return nil, fmt.Errorf("token subject: %w", err)
	}
	userID, err := id.ParseUserID(subject)
	if err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}

	return &middleware.JWTClaims{UserID: userID}, nil
}
