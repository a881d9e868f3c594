package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/internal/loyalty/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) LoadOrder(ctx context.Context, db *gorm.DB, orderID int64) (*domain.OrderSnapshot, error) {
	var order domain.OrderSnapshot
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, discount FROM orders WHERE id = ?`,
		orderID,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) LoadOrderLines(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := db.WithContext(ctx).Raw(
		`SELECT line_total, is_discounted, is_gift_card FROM order_items WHERE order_id = ? ORDER BY id ASC`,
		orderID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.LedgerEntry) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO points_ledger (id, customer_id, order_id, points, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (order_id, reason) DO NOTHING`,
		entry.ID,
		entry.CustomerID,
		entry.OrderID,
		entry.Points,
		entry.Reason,
		entry.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) SumForOrder(ctx context.Context, db *gorm.DB, orderID int64, reason domain.Reason) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE order_id = ? AND reason = ?`,
		orderID,
		reason,
	).Scan(&sum).Error
	return sum, err
}

func (r *repo) SumRedeemable(ctx context.Context, db *gorm.DB, customerID int64, since time.Time) (int64, int64, error) {
	var row struct {
		Earned   int64
		Redeemed int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT
		     COALESCE(SUM(CASE WHEN reason IN (?, ?) AND points > 0 THEN points ELSE 0 END), 0) AS earned,
		     COALESCE(SUM(CASE WHEN reason = ? THEN ABS(points) ELSE 0 END), 0) AS redeemed
		 FROM points_ledger
		 WHERE customer_id = ? AND created_at >= ?`,
		domain.ReasonOrderDelivered,
		domain.ReasonReferralBonus,
		domain.ReasonRedeem,
		customerID,
		since,
	).Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Earned, row.Redeemed, nil
}

func (r *repo) SumLifetime(ctx context.Context, db *gorm.DB, customerID int64) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE customer_id = ?`,
		customerID,
	).Scan(&sum).Error
	return sum, err
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, customerID int64, limit int) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, order_id, points, reason, created_at
		 FROM points_ledger
		 WHERE customer_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		customerID,
		limit,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) FindCustomer(ctx context.Context, db *gorm.DB, customerID int64) (*domain.CustomerBalance, error) {
	var balance domain.CustomerBalance
	err := db.WithContext(ctx).Raw(
		`SELECT id, points FROM customers WHERE id = ?`,
		customerID,
	).Scan(&balance).Error
	if err != nil {
		return nil, err
	}
	if balance.ID == 0 {
		return nil, nil
	}
	return &balance, nil
}

func (r *repo) LockCustomer(ctx context.Context, db *gorm.DB, customerID int64) (*domain.CustomerBalance, error) {
	var rows []domain.CustomerBalance
	err := db.WithContext(ctx).
		Table("customers").
		Select("id, points").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", customerID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *repo) AdjustCustomerPoints(ctx context.Context, db *gorm.DB, customerID, delta int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET points = CASE WHEN points + ? < 0 THEN 0 ELSE points + ? END,
		     updated_at = ?
		 WHERE id = ?`,
		delta,
		delta,
		now,
		customerID,
	).Error
}

func (r *repo) SetCustomerPoints(ctx context.Context, db *gorm.DB, customerID, points int64, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers SET points = ?, updated_at = ? WHERE id = ?`,
		points,
		now,
		customerID,
	).Error
}

func (r *repo) ListCustomerIDs(ctx context.Context, db *gorm.DB, afterID int64, limit int) ([]int64, error) {
	var ids []int64
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM customers WHERE id > ? ORDER BY id ASC LIMIT ?`,
		afterID,
		limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
