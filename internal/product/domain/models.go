package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusActive     Status = "active"
	StatusLowStock   Status = "low_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// StatusForStock classifies a stock level against the low-stock threshold.
func StatusForStock(stock, lowStockThreshold int64) Status {
	switch {
	case stock <= 0:
		return StatusOutOfStock
	case stock <= lowStockThreshold:
		return StatusLowStock
	default:
		return StatusActive
	}
}

type Product struct {
	ID           int64             `json:"id" gorm:"primaryKey"`
	Slug         string            `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_products_slug"`
	Name         string            `json:"name" gorm:"type:text;not null"`
	Price        int64             `json:"price" gorm:"not null"`
	Stock        int64             `json:"stock" gorm:"not null;default:0"`
	Status       Status            `json:"status" gorm:"type:text;not null;default:active"`
	IsGiftCard   bool              `json:"is_gift_card" gorm:"not null;default:false"`
	IsDiscounted bool              `json:"is_discounted" gorm:"not null;default:false"`
	Metadata     datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt    time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
