package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderApproved   OrderStatus = "approved"
	OrderRejected   OrderStatus = "rejected"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
)

func (s OrderStatus) Terminal() bool {
	return s == OrderRejected || s == OrderCompleted
}

type Order struct {
	ID              uint64              `gorm:"primaryKey" json:"id"`
	CreatedBy       uint64              `gorm:"not null;index" json:"created_by"`
	ApprovedBy      *uint64             `json:"approved_by"`
	AssignedDriver  *uint64             `gorm:"index" json:"assigned_driver"`
	Status          OrderStatus         `gorm:"size:20;not null;default:pending;index" json:"status"`
	Notes           string              `gorm:"type:text" json:"notes"`
	TotalEstimated  decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"total_estimated"`
	TotalActual     decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"total_actual"`
	ReceiptImageURL string              `gorm:"size:255" json:"receipt_image_url"`
	CompletedAt     *time.Time          `json:"completed_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	// Preloaded relations
	Items   []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Creator *User       `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Driver  *User       `gorm:"foreignKey:AssignedDriver" json:"driver,omitempty"`
}

type OrderItem struct {
	ID             uint64              `gorm:"primaryKey" json:"id"`
	OrderID        uint64              `gorm:"not null;index" json:"order_id"`
	ProductID      *uint64             `json:"product_id"`
	Name           string              `gorm:"size:100;not null" json:"name"`
	Quantity       int                 `gorm:"not null;default:1" json:"quantity"`
	Unit           string              `gorm:"size:20" json:"unit"`
	EstimatedPrice decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0" json:"estimated_price"`
	ActualPrice    decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"actual_price"`
	Purchased      bool                `gorm:"default:false" json:"purchased"`
	Notes          string              `gorm:"size:255" json:"notes"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// LineTotal is quantity times the estimated unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.EstimatedPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Product struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Category  string          `gorm:"size:50;index" json:"category"`
	Unit      string          `gorm:"size:20" json:"unit"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price"`
	ImageURL  string          `gorm:"size:255" json:"image_url"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type OrderItemInput struct {
	ProductID      *uint64          `json:"product_id"`
	Name           string           `json:"name"`
	Quantity       int              `json:"quantity" binding:"required,min=1"`
	Unit           string           `json:"unit"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
	Notes          string           `json:"notes"`
}

type CreateOrderInput struct {
	Notes string           `json:"notes"`
	Items []OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

type UpdateOrderItemInput struct {
	Quantity       *int             `json:"quantity" binding:"omitempty,min=1"`
	EstimatedPrice *decimal.Decimal `json:"estimated_price"`
	ActualPrice    *decimal.Decimal `json:"actual_price"`
	Purchased      *bool            `json:"purchased"`
	Notes          *string          `json:"notes"`
}

type UpdateOrderStatusInput struct {
	Status          OrderStatus      `json:"status" binding:"required,oneof=pending approved rejected in_progress completed"`
	TotalActual     *decimal.Decimal `json:"total_actual"`
	ReceiptImageURL *string          `json:"receipt_image_url"`
}

type ReceiptInput struct {
	TotalActual     *decimal.Decimal `json:"total_actual"`
	ReceiptImageURL string           `json:"receipt_image_url" binding:"required"`
}

type ProductInput struct {
	Name     string          `json:"name" binding:"required"`
	Category string          `json:"category"`
	Unit     string          `json:"unit"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
}
