package usecase

import (
	"context"
	"time"

	"tienda/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new customer.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// ResetPasswordInput completes a password reset.
type ResetPasswordInput struct {
	Token    string
	Password string
}

// --- Output DTOs ---

// LoginOutput returns the access token after a successful login.
type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *entity.User
}

// AuthUsecase defines registration, login and the single-use token flows.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	// Register creates an unverified customer and mails a verification link.
	Register(ctx context.Context, input RegisterInput) (*entity.User, error)

	// VerifyEmail consumes a verification token.
	VerifyEmail(ctx context.Context, token string) (*entity.User, error)

	// ResendVerification issues a fresh verification token, voiding the previous one.
	ResendVerification(ctx context.Context, email string) error

	// Login refuses unverified accounts even when the password is right.
	Login(ctx context.Context, input LoginInput) (*LoginOutput, error)

	// ForgotPassword mails a reset link when the email is known and is silent otherwise.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword consumes a reset token and replaces the password.
	ResetPassword(ctx context.Context, input ResetPasswordInput) error

	Profile(ctx context.Context, userID uuid.UUID) (*entity.User, error)

	// EnsureAdmin creates the configured administrator once.
	EnsureAdmin(ctx context.Context) error

	// PurgeExpiredTokens clears expired verification and reset tokens.
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}
