// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"time"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// TokenPurpose selects which single-use token a lookup targets.
type TokenPurpose string

const (
	TokenPurposeVerification TokenPurpose = "verification"
	TokenPurposeReset        TokenPurpose = "reset"
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID retrieves a single user by their unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// FindByEmail retrieves a single user by their email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// FindByTokenHash returns the user holding an unexpired token of the given
	// purpose. Expired and unknown tokens both yield ErrUserNotFound.
	FindByTokenHash(ctx context.Context, purpose TokenPurpose, hash string, now time.Time) (*entity.User, error)

	// Create persists a new user entity to the storage.
	Create(ctx context.Context, user *entity.User) error

	// Update modifies an existing user entity in the storage.
	Update(ctx context.Context, user *entity.User) error

	// PurgeExpiredTokens clears every token that expired before now and
	// returns how many users were touched.
	PurgeExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
