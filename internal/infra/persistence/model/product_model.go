package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel mirrors the 'products' table.
// Stock is always counted in individual units; the set columns are null for unit-only products.
type ProductModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"type:varchar(200);not null"`
	Description string          `gorm:"type:text"`
	BuyPrice    decimal.Decimal `gorm:"type:numeric;not null"`
	SellPrice   decimal.Decimal `gorm:"type:numeric;not null"`
	Category    string          `gorm:"type:varchar(100);index"`
	Stock       int             `gorm:"not null;default:0"`
	ImageKey    string          `gorm:"type:varchar(255)"`

	SetName        *string
	SetUnitsPerSet *int
	SetPrice       decimal.NullDecimal `gorm:"type:numeric"`

	Version   int64 `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (ProductModel) TableName() string {
	return "products"
}
