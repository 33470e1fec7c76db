package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	// VerificationTokenTTL is how long an email verification link stays usable.
	VerificationTokenTTL = 24 * time.Hour
	// ResetTokenTTL is how long a password reset link stays usable.
	ResetTokenTTL = time.Hour
)

// User is an account of the store. Customers and admins share the same shape.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Verified     bool
	Verification *TokenGrant // nil once consumed or never issued
	Reset        *TokenGrant // nil once consumed or never issued
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenGrant is an issued single-use token. Only the hash of the token is kept.
type TokenGrant struct {
	Hash      string
	ExpiresAt time.Time
}

// Usable reports whether the grant has not expired at now.
func (g *TokenGrant) Usable(now time.Time) bool {
	return g != nil && now.Before(g.ExpiresAt)
}

// NewTokenGrant issues a grant for hash that expires ttl after now.
func NewTokenGrant(hash string, now time.Time, ttl time.Duration) *TokenGrant {
	return &TokenGrant{Hash: hash, ExpiresAt: now.Add(ttl)}
}

// Roles returns the roles carried in access tokens.
func (u *User) Roles() Roles {
	if u.Role == "" {
		return Roles{RoleCustomer}
	}

	return Roles{u.Role}
}
