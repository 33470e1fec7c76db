package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims defines the custom claims for the JWT tokens.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Roles  []string  `json:"roles,omitempty"`
	Type   string    `json:"type"`
	jwt.RegisteredClaims
}

// TokenService defines the interface for generating and validating JWTs.
type TokenService interface {
	// GenerateAccessToken creates a signed access token for the user.
	GenerateAccessToken(userID uuid.UUID, roles []string) (string, time.Time, error)

	// ValidateToken checks the validity of a token string.
	ValidateToken(tokenString string) (*Claims, error)
}

// OpaqueTokenIssuer creates single-use tokens for links sent by mail.
type OpaqueTokenIssuer interface {
	// Issue returns the plaintext token to send and the hash to store.
	Issue() (token string, hash string, err error)

	// Hash returns the stored form of a plaintext token.
	Hash(token string) string
}
