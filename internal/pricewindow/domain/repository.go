package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	// LockWindows serializes overlap checks between concurrent creates.
	LockWindows(ctx context.Context, db *gorm.DB) error
	Insert(ctx context.Context, db *gorm.DB, window *PriceWindow) error
	InsertItems(ctx context.Context, db *gorm.DB, items []PriceWindowItem) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*PriceWindow, error)
	// FindActive returns the most recently created window covering day.
	FindActive(ctx context.Context, db *gorm.DB, day time.Time) (*PriceWindow, error)
	FindOverlapping(ctx context.Context, db *gorm.DB, start, end time.Time) ([]PriceWindow, error)
	FindItems(ctx context.Context, db *gorm.DB, windowIDs ...int64) ([]PriceWindowItem, error)
	List(ctx context.Context, db *gorm.DB, activeOn *time.Time) ([]PriceWindow, error)
	CountProducts(ctx context.Context, db *gorm.DB, productIDs []int64) (int64, error)
}
