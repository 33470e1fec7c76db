package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel mirrors the 'sales' table.
type SaleModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Number        int64           `gorm:"uniqueIndex;not null"`
	CustomerName  string          `gorm:"type:varchar(100)"`
	CustomerPhone string          `gorm:"type:varchar(30)"`
	Lines         []LineRecord    `gorm:"type:jsonb;serializer:json;not null"`
	Total         decimal.Decimal `gorm:"type:numeric;not null"`
	TotalProfit   decimal.Decimal `gorm:"type:numeric;not null"`
	Channel       string          `gorm:"type:varchar(20);not null"`
	PaymentMethod string          `gorm:"type:varchar(30)"`
	SoldAt        time.Time       `gorm:"index;not null"`
	CashierID     *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt     time.Time
}

// TableName explicitly sets the table name for GORM.
func (SaleModel) TableName() string {
	return "sales"
}

