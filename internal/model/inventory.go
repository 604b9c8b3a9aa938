package model

import (
	"time"

	"github.com/google/uuid"
)

type InventoryItem struct {
	Base
	ItemCode       string  `json:"item_code" db:"item_code"`
	Name           string  `json:"name" db:"name"`
	ItemGroup      string  `json:"item_group" db:"item_group"`
	DatePurchase   *string `json:"date_purchase" db:"date_purchase"`
	DateExpiration *string `json:"date_expiration" db:"date_expiration"`
	Stock          int     `json:"stock" db:"stock"`
	Price          float64 `json:"price" db:"price"`
	Unit           string  `json:"unit" db:"unit"`
	PhotoURL       *string `json:"photo_url" db:"photo_url"`
	PhotoKey       *string `json:"-" db:"photo_key"`
}

// StockMovement is one append-only ledger row; exactly one of StockIn or StockOut is non-zero.
type StockMovement struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	StockIn   int       `json:"stock_in" db:"stock_in"`
	StockOut  int       `json:"stock_out" db:"stock_out"`
	Reason    string    `json:"reason" db:"reason"`
	Reference *string   `json:"reference,omitempty" db:"reference"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Reasons recorded on stock movements.
const (
	MovementInitial = "initial"
	MovementManual  = "manual"
	MovementRestock = "restock"
	MovementOrder   = "order"
	MovementCancel  = "cancel"
)

// Photo is an uploaded image passed from handlers to services.
type Photo struct {
	Filename    string
	ContentType string
	Size        int64
	Body        []byte
}

type InventoryInput struct {
	ItemCode       string  `form:"item_code" json:"item_code" binding:"required"`
	Name           string  `form:"name" json:"name" binding:"required"`
	ItemGroup      string  `form:"item_group" json:"item_group" binding:"required"`
	DatePurchase   string  `form:"date_purchase" json:"date_purchase" binding:"omitempty,ymd"`
	DateExpiration string  `form:"date_expiration" json:"date_expiration" binding:"omitempty,ymd"`
	Stock          *int    `form:"stock" json:"stock" binding:"required,gte=0"`
	Price          float64 `form:"price" json:"price" binding:"required,gt=0"`
	Unit           string  `form:"unit" json:"unit"`
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// LowStockWarning is returned alongside order creation for items that are nearly depleted.
type LowStockWarning struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Remaining int       `json:"remaining"`
	Message   string    `json:"message"`
}

// AdjustResult carries the outcome of a ledger adjustment.
type AdjustResult struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	OldStock  int       `json:"old_stock"`
	NewStock  int       `json:"new_stock"`
	Applied   int       `json:"applied"`
}
