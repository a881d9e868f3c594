package repository

import (
	"context"
	"strconv"

	"github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const customerColumns = `id, name, phone, email, points, created_at, updated_at`

func (r *repo) InsertIfAbsent(ctx context.Context, db *gorm.DB, customer *domain.Customer) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO customers (`+customerColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT DO NOTHING`,
		customer.ID,
		customer.Name,
		customer.Phone,
		customer.Email,
		customer.Points,
		customer.CreatedAt,
		customer.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Customer, error) {
	return r.findOne(ctx, db, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
}

func (r *repo) FindByPhone(ctx context.Context, db *gorm.DB, phone string) (*domain.Customer, error) {
	return r.findOne(ctx, db, `SELECT `+customerColumns+` FROM customers WHERE phone = ?`, phone)
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Customer, error) {
	return r.findOne(ctx, db,
		`SELECT `+customerColumns+` FROM customers WHERE lower(email) = lower(?) ORDER BY id ASC LIMIT 1`,
		email,
	)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, sql string, args ...any) (*domain.Customer, error) {
	var customer domain.Customer
	if err := db.WithContext(ctx).Raw(sql, args...).Scan(&customer).Error; err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

// FillContact sets phone and email only where they are still empty.
func (r *repo) FillContact(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Exec(
		`UPDATE customers
		 SET phone = COALESCE(phone, ?), email = COALESCE(email, ?), updated_at = ?
		 WHERE id = ?`,
		customer.Phone,
		customer.Email,
		customer.UpdatedAt,
		customer.ID,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := db.WithContext(ctx).Model(&domain.Customer{})
	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Phone != "" {
		stmt = stmt.Where("phone = ?", filter.Phone)
	}
	if filter.Email != "" {
		stmt = stmt.Where("lower(email) = lower(?)", filter.Email)
	}
	if page.PageToken != "" {
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil {
			return nil, err
		}
		// Snowflake ids grow with creation time, so id alone orders the pages.
		if id, err := strconv.ParseInt(cursor.ID, 10, 64); err == nil {
			stmt = stmt.Where("id < ?", id)
		}
	}
	err := stmt.
		Order("id desc").
		Limit(page.Limit() + 1).
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}
