package model

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

const (
	PaymentMethodCOD     = "cod"
	PaymentMethodGCash   = "gcash"
	PaymentMethodPayMaya = "paymaya"
)

const (
	PaymentStatusUnpaid          = "unpaid"
	PaymentStatusAwaitingPayment = "awaiting_payment"
	PaymentStatusPaid            = "paid"
	PaymentStatusFailed          = "failed"
)

const (
	RefundStatusNone      = "none"
	RefundStatusCompleted = "completed"
)

func IsEWallet(method string) bool {
	return method == PaymentMethodGCash || method == PaymentMethodPayMaya
}

type Order struct {
	Base
	UserID          uuid.UUID    `json:"user_id" db:"user_id"`
	CustomerName    string       `json:"customer_name" db:"customer_name"`
	CustomerAddress string       `json:"customer_address" db:"customer_address"`
	OrderDate       string       `json:"order_date" db:"order_date"`
	Total           float64      `json:"total" db:"total"`
	Status          OrderStatus  `json:"status" db:"status"`
	PaymentMethod   string       `json:"payment_method" db:"payment_method"`
	PaymentStatus   string       `json:"payment_status" db:"payment_status"`
	PaymentIntentID *string      `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	CancelRequested bool         `json:"cancel_requested" db:"cancel_requested"`
	CancelReason    *string      `json:"cancel_reason,omitempty" db:"cancel_reason"`
	RefundStatus    string       `json:"refund_status" db:"refund_status"`
	RefundID        *string      `json:"refund_id,omitempty" db:"refund_id"`
	Items           []*OrderItem `json:"items,omitempty" db:"-"`
}

type OrderItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"order_id" db:"order_id"`
	ProductID   uuid.UUID `json:"product_id" db:"product_id"`
	ProductName string    `json:"product_name" db:"product_name"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
}

// Purchase is a line item joined with its product for the purchase history view.
type Purchase struct {
	OrderID       uuid.UUID   `json:"order_id" db:"order_id"`
	OrderDate     string      `json:"order_date" db:"order_date"`
	Status        OrderStatus `json:"status" db:"status"`
	PaymentMethod string      `json:"payment_method" db:"payment_method"`
	ProductID     uuid.UUID   `json:"product_id" db:"product_id"`
	ProductName   string      `json:"product_name" db:"product_name"`
	Quantity      int         `json:"quantity" db:"quantity"`
	UnitPrice     float64     `json:"unit_price" db:"unit_price"`
	PhotoURL      *string     `json:"photo_url" db:"photo_url"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

type OrderLine struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0"`
}

// OrderDraft is everything needed to record an order.
type OrderDraft struct {
	CustomerName    string      `json:"customer_name" binding:"required"`
	CustomerAddress string      `json:"customer_address" binding:"required"`
	Email           string      `json:"email" binding:"omitempty,email"`
	Phone           string      `json:"phone"`
	PaymentMethod   string      `json:"payment_method" binding:"required,oneof=cod gcash paymaya"`
	Items           []OrderLine `json:"items" binding:"required,min=1,dive"`
}

type ConfirmOrderRequest struct {
	PaymentIntentID string      `json:"payment_intent_id" binding:"required"`
	Draft           *OrderDraft `json:"order"`
}

type OrderIDRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Reason  string    `json:"reason"`
}

type ApproveCancelRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Refund  bool      `json:"refund"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Shipped Delivered"`
}

type CreateOrderResult struct {
	OrderID     *uuid.UUID        `json:"order_id,omitempty"`
	RedirectURL string            `json:"redirect_url,omitempty"`
	IntentID    string            `json:"payment_intent_id,omitempty"`
	Warnings    []LowStockWarning `json:"warnings,omitempty"`
}
