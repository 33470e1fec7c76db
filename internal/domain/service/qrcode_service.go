package service

import (
	"github.com/google/uuid"
)

// QRCodeService defines the interface for QR code generation and parsing services
type QRCodeService interface {
	// GeneratePickupQR generates the PNG a customer shows to collect an order.
	GeneratePickupQR(orderID uuid.UUID, orderNumber int64) ([]byte, error)

	// ParsePickupQR parses QR code data and returns the order ID.
	ParsePickupQR(qrData string) (uuid.UUID, error)
}
