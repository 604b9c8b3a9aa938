package model

import (
	"time"

	"github.com/google/uuid"
)

// Receipt is an immutable snapshot of an order at the time it was issued.
type Receipt struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	OrderRef     string         `json:"order_ref" db:"order_ref"`
	OrderID      uuid.UUID      `json:"order_id" db:"order_id"`
	UserID       uuid.UUID      `json:"user_id" db:"user_id"`
	CustomerName string         `json:"customer_name" db:"customer_name"`
	OrderDate    string         `json:"order_date" db:"order_date"`
	Total        float64        `json:"total" db:"total"`
	Items        []*ReceiptItem `json:"items" db:"-"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

type ReceiptItem struct {
	ID        uuid.UUID `json:"-" db:"id"`
	ReceiptID uuid.UUID `json:"-" db:"receipt_id"`
	Name      string    `json:"name" db:"name"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     float64   `json:"price" db:"price"`
}

type ReceiptRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
}
