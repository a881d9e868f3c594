package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	LoadOrder(ctx context.Context, db *gorm.DB, orderID int64) (*OrderSnapshot, error)
	LoadOrderLines(ctx context.Context, db *gorm.DB, orderID int64) ([]OrderLine, error)

	// InsertEntry returns false when an entry with the same (order_id, reason) exists.
	InsertEntry(ctx context.Context, db *gorm.DB, entry *LedgerEntry) (bool, error)
	SumForOrder(ctx context.Context, db *gorm.DB, orderID int64, reason Reason) (int64, error)
	SumRedeemable(ctx context.Context, db *gorm.DB, customerID int64, since time.Time) (earned int64, redeemed int64, err error)
	SumLifetime(ctx context.Context, db *gorm.DB, customerID int64) (int64, error)
	ListEntries(ctx context.Context, db *gorm.DB, customerID int64, limit int) ([]LedgerEntry, error)

	FindCustomer(ctx context.Context, db *gorm.DB, customerID int64) (*CustomerBalance, error)
	// LockCustomer reads the customer row with a row lock where the database supports it.
	LockCustomer(ctx context.Context, db *gorm.DB, customerID int64) (*CustomerBalance, error)
	// AdjustCustomerPoints adds delta to the cached balance, flooring at zero.
	AdjustCustomerPoints(ctx context.Context, db *gorm.DB, customerID, delta int64, now time.Time) error
	SetCustomerPoints(ctx context.Context, db *gorm.DB, customerID, points int64, now time.Time) error
	ListCustomerIDs(ctx context.Context, db *gorm.DB, afterID int64, limit int) ([]int64, error)
}
