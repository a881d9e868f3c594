package domain

import (
	"context"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	// FindByIDForUpdate row-locks the order where the database supports it.
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	FindByReceipt(ctx context.Context, db *gorm.DB, locator string) (*Order, error)
	FindItems(ctx context.Context, db *gorm.DB, orderID int64) ([]OrderItem, error)
	UpdateLifecycle(ctx context.Context, db *gorm.DB, order *Order) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination) ([]*Order, error)
}
