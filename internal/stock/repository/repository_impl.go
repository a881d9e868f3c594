package repository

import (
	"context"
	"time"

	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/stock/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

type stockRow struct {
	ID     int64
	Stock  int64
	Status string
}

// Decrement runs as one conditional statement so concurrent checkouts never drive
// stock below zero. SET expressions read the pre-update row.
func (r *repo) Decrement(ctx context.Context, db *gorm.DB, productID, qty, lowStockThreshold int64, now time.Time) (*domain.Result, error) {
	return r.adjust(ctx, db, `UPDATE products
		 SET stock = CASE WHEN stock - ? < 0 THEN 0 ELSE stock - ? END,
		     status = CASE
		         WHEN stock - ? <= 0 THEN 'out_of_stock'
		         WHEN stock - ? <= ? THEN 'low_stock'
		         ELSE 'active'
		     END,
		     updated_at = ?
		 WHERE id = ?
		 RETURNING id, stock, status`,
		qty, qty, qty, qty, lowStockThreshold, now, productID,
	)
}

func (r *repo) Increment(ctx context.Context, db *gorm.DB, productID, qty, lowStockThreshold int64, now time.Time) (*domain.Result, error) {
	return r.adjust(ctx, db, `UPDATE products
		 SET stock = stock + ?,
		     status = CASE
		         WHEN stock + ? <= 0 THEN 'out_of_stock'
		         WHEN stock + ? <= ? THEN 'low_stock'
		         ELSE 'active'
		     END,
		     updated_at = ?
		 WHERE id = ?
		 RETURNING id, stock, status`,
		qty, qty, qty, lowStockThreshold, now, productID,
	)
}

func (r *repo) adjust(ctx context.Context, db *gorm.DB, sql string, args ...any) (*domain.Result, error) {
	var rows []stockRow
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &domain.Result{
		ProductID: rows[0].ID,
		Stock:     rows[0].Stock,
		Status:    productdomain.Status(rows[0].Status),
	}, nil
}
