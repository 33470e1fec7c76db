package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleChannel tells where a sale happened.
type SaleChannel string

const (
	SaleChannelPhysical SaleChannel = "fisica"
	SaleChannelOnline   SaleChannel = "online"
)

// Sale is a point of sale transaction. It is immutable once written.
type Sale struct {
	ID            uuid.UUID
	Number        int64
	CustomerName  string
	CustomerPhone string
	Lines         []Line
	Total         decimal.Decimal
	TotalProfit   decimal.Decimal
	Channel       SaleChannel
	PaymentMethod string
	SoldAt        time.Time
	CashierID     uuid.UUID
	CreatedAt     time.Time
}
