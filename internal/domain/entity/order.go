package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pendiente"
	OrderStatusConfirmed      OrderStatus = "confirmado"
	OrderStatusReadyForPickup OrderStatus = "listo_para_recoger"
	OrderStatusShipped        OrderStatus = "enviado"
	OrderStatusDelivered      OrderStatus = "entregado"
	OrderStatusCancelled      OrderStatus = "cancelado"
)

// orderTransitions lists the states reachable from each non-terminal state.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusReadyForPickup, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusReadyForPickup: {OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered, OrderStatusCancelled},
}

// OrderStatuses returns every lifecycle state.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusReadyForPickup,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCancelled,
	}
}

// IsValid reports whether s is one of the six lifecycle states.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusReadyForPickup,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// Order is an online checkout. Lines are snapshots written once at checkout.
type Order struct {
	ID            uuid.UUID
	Number        int64
	UserID        uuid.UUID
	CustomerName  string
	CustomerEmail string
	OrderedAt     time.Time
	Status        OrderStatus
	Lines         []Line
	Total         decimal.Decimal
	TotalProfit   decimal.Decimal
	Version       int64
	UpdatedAt     time.Time
}

// IsOwnedBy reports whether userID placed the order.
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}
