package domain

import (
	"context"
	"errors"
	"time"

	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

// Result is the product stock after an adjustment.
type Result struct {
	ProductID int64                `json:"product_id,string"`
	Stock     int64                `json:"stock"`
	Status    productdomain.Status `json:"status"`
}

type Service interface {
	// Decrement lowers stock by qty, floored at zero, and recomputes the status.
	Decrement(ctx context.Context, productID int64, qty int64) (*Result, error)
	Restock(ctx context.Context, productID int64, qty int64) (*Result, error)
}

type Repository interface {
	Decrement(ctx context.Context, db *gorm.DB, productID, qty, lowStockThreshold int64, now time.Time) (*Result, error)
	Increment(ctx context.Context, db *gorm.DB, productID, qty, lowStockThreshold int64, now time.Time) (*Result, error)
}

var (
	ErrProductNotFound = errors.New("product_not_found")
	ErrInvalidQuantity = errors.New("invalid_quantity")
)
