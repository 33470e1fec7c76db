package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table.
// Opaque tokens are stored as SHA-256 hex digests, never in clear text.
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name         string    `gorm:"type:varchar(100);not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	Role         string    `gorm:"type:varchar(20);not null;default:cliente"`
	Verified     bool      `gorm:"not null;default:false"`

	VerificationTokenHash *string `gorm:"type:char(64);index"`
	VerificationExpiresAt *time.Time
	ResetTokenHash        *string `gorm:"type:char(64);index"`
	ResetExpiresAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}
