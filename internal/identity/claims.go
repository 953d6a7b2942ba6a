package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the ID token fields this front end reads
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// ParseClaims decodes an ID token without verifying its signature. Only use
// the result for display and routing; the backend verifies every token.
func ParseClaims(idToken string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id token: %w", err)
	}
	return claims, nil
}
