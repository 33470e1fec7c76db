// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"tienda/config"
	domainerrors "tienda/internal/domain/errors"
	"tienda/internal/domain/service"
)

const (
	defaultMinPasswordLength = 8
	// bcrypt ignores input past 72 bytes
	defaultMaxPasswordLength = 72
)

// PasswordPolicy is the set of rules ValidatePasswordStrength enforces.
type PasswordPolicy struct {
	MinLength        int
	MaxLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumbers   bool
	RequireSpecial   bool
}

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost   int
	policy PasswordPolicy
}

// NewBcryptHasher builds the hasher from the auth and passwordStrength config sections.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := bcrypt.DefaultCost
	if cfg.Auth != nil && cfg.Auth.BcryptCost >= bcrypt.MinCost && cfg.Auth.BcryptCost <= bcrypt.MaxCost {
		cost = cfg.Auth.BcryptCost
	}

	policy := PasswordPolicy{MinLength: defaultMinPasswordLength, MaxLength: defaultMaxPasswordLength}
	if ps := cfg.PasswordStrength; ps != nil {
		policy = PasswordPolicy{
			MinLength:        ps.MinLength,
			MaxLength:        ps.MaxLength,
			RequireUppercase: ps.RequireUppercase,
			RequireLowercase: ps.RequireLowercase,
			RequireNumbers:   ps.RequireNumbers,
			RequireSpecial:   ps.RequireSpecial,
		}
	}

	return NewBcryptHasherWithPolicy(cost, policy)
}

// NewBcryptHasherWithPolicy is used directly by tests that need a cheap cost.
func NewBcryptHasherWithPolicy(cost int, policy PasswordPolicy) service.PasswordHasher {
	if policy.MinLength <= 0 {
		policy.MinLength = defaultMinPasswordLength
	}
	if policy.MaxLength <= 0 || policy.MaxLength > defaultMaxPasswordLength {
		policy.MaxLength = defaultMaxPasswordLength
	}

	return &bcryptHasher{cost: cost, policy: policy}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength reports the first rule the password breaks.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < h.policy.MinLength {
		return domainerrors.ErrPasswordStrength.WithDetails("must be at least " + strconv.Itoa(h.policy.MinLength) + " characters long")
	}
	if len(password) > h.policy.MaxLength {
		return domainerrors.ErrPasswordStrength.WithDetails("must be at most " + strconv.Itoa(h.policy.MaxLength) + " bytes long")
	}

	var upper, lower, number, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	switch {
	case h.policy.RequireLowercase && !lower:
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one lowercase letter")
	case h.policy.RequireUppercase && !upper:
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one uppercase letter")
	case h.policy.RequireNumbers && !number:
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one number")
	case h.policy.RequireSpecial && !special:
		return domainerrors.ErrPasswordStrength.WithDetails("must contain at least one special character")
	}

	return nil
}
