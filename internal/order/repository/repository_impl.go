package repository

import (
	"context"
	"strconv"

	"github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, customer_id, customer_name, phone, email, address_line, city, postal_code, notes,
			payment_method, subtotal, discount, delivery_fee, total, points_redeemed,
			status, payment_status, receipt_locator, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.CustomerID,
		order.CustomerName,
		order.Phone,
		order.Email,
		order.AddressLine,
		order.City,
		order.PostalCode,
		order.Notes,
		order.PaymentMethod,
		order.Subtotal,
		order.Discount,
		order.DeliveryFee,
		order.Total,
		order.PointsRedeemed,
		order.Status,
		order.PaymentStatus,
		order.ReceiptLocator,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	return r.findOne(db.WithContext(ctx).Where("id = ?", id))
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	return r.findOne(db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id))
}

func (r *repo) FindByReceipt(ctx context.Context, db *gorm.DB, locator string) (*domain.Order, error) {
	return r.findOne(db.WithContext(ctx).Where("receipt_locator = ?", locator))
}

func (r *repo) findOne(stmt *gorm.DB) (*domain.Order, error) {
	var orders []domain.Order
	if err := stmt.Model(&domain.Order{}).Limit(1).Find(&orders).Error; err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orderID int64) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, name, unit_price, quantity, line_total, is_discounted, is_gift_card, created_at
		 FROM order_items
		 WHERE order_id = ?
		 ORDER BY id ASC`,
		orderID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET status = ?, payment_status = ?, receipt_locator = ?,
		     confirmed_at = ?, shipped_at = ?, delivered_at = ?, cancelled_at = ?, paid_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		order.Status,
		order.PaymentStatus,
		order.ReceiptLocator,
		order.ConfirmedAt,
		order.ShippedAt,
		order.DeliveredAt,
		order.CancelledAt,
		order.PaidAt,
		order.UpdatedAt,
		order.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		stmt = stmt.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Phone != "" {
		stmt = stmt.Where("phone = ?", filter.Phone)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
			stmt = stmt.Where("id < ?", id)
		}
	}
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
