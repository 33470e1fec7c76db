package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel mirrors the 'orders' table. Lines are embedded as a JSONB snapshot.
type OrderModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number        int64           `gorm:"uniqueIndex;not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	CustomerName  string          `gorm:"type:varchar(100)"`
	CustomerEmail string          `gorm:"type:varchar(255)"`
	OrderedAt     time.Time       `gorm:"index;not null"`
	Status        string          `gorm:"type:varchar(30);index;not null"`
	Lines         []LineRecord    `gorm:"type:jsonb;serializer:json;not null"`
	Total         decimal.Decimal `gorm:"type:numeric;not null"`
	TotalProfit   decimal.Decimal `gorm:"type:numeric;not null"`
	Version       int64           `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (OrderModel) TableName() string {
	return "orders"
}
