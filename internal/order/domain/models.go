package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// Order is never hard-deleted. After creation only the lifecycle, payment and
// receipt columns change.
type Order struct {
	ID             int64         `json:"id" gorm:"primaryKey"`
	CustomerID     *int64        `json:"customer_id,omitempty" gorm:"index:idx_orders_customer"`
	CustomerName   string        `json:"customer_name" gorm:"type:text;not null"`
	Phone          string        `json:"phone" gorm:"type:text;not null"`
	Email          string        `json:"email,omitempty" gorm:"type:text"`
	AddressLine    string        `json:"address_line" gorm:"type:text;not null"`
	City           string        `json:"city,omitempty" gorm:"type:text"`
	PostalCode     string        `json:"postal_code,omitempty" gorm:"type:text"`
	Notes          string        `json:"notes,omitempty" gorm:"type:text"`
	PaymentMethod  string        `json:"payment_method" gorm:"type:text;not null"`
	Subtotal       int64         `json:"subtotal" gorm:"not null"`
	Discount       int64         `json:"discount" gorm:"not null;default:0"`
	DeliveryFee    int64         `json:"delivery_fee" gorm:"not null;default:0"`
	Total          int64         `json:"total" gorm:"not null"`
	PointsRedeemed int64         `json:"points_redeemed" gorm:"not null;default:0"`
	Status         Status        `json:"status" gorm:"type:text;not null;default:pending;index:idx_orders_status_created,priority:1"`
	PaymentStatus  PaymentStatus `json:"payment_status" gorm:"type:text;not null;default:unpaid"`
	ReceiptLocator string        `json:"receipt_locator" gorm:"type:text;not null;uniqueIndex:ux_orders_receipt_locator"`
	CreatedAt      time.Time     `json:"created_at" gorm:"not null;index:idx_orders_status_created,priority:2"`
	UpdatedAt      time.Time     `json:"updated_at" gorm:"not null"`
	ConfirmedAt    *time.Time    `json:"confirmed_at,omitempty"`
	ShippedAt      *time.Time    `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty"`
	PaidAt         *time.Time    `json:"paid_at,omitempty"`

	Items []OrderItem `json:"items,omitempty" gorm:"-"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is immutable once written; LineTotal is always UnitPrice * Quantity.
type OrderItem struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	OrderID      int64     `json:"order_id" gorm:"not null;index:idx_order_items_order"`
	ProductID    *int64    `json:"product_id,omitempty"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	UnitPrice    int64     `json:"unit_price" gorm:"not null"`
	Quantity     int64     `json:"quantity" gorm:"not null"`
	LineTotal    int64     `json:"line_total" gorm:"not null"`
	IsDiscounted bool      `json:"is_discounted" gorm:"not null;default:false"`
	IsGiftCard   bool      `json:"is_gift_card" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }

// ReceiptLocator derives the public receipt code from the order id.
func ReceiptLocator(id snowflake.ID) string {
	return "R" + strings.ToUpper(id.Base36())
}
