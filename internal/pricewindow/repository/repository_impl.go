package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/storefront/internal/pricewindow/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

const windowColumns = `id, name, start_date, end_date, allow_overlap, created_at`

func (r *repo) LockWindows(ctx context.Context, db *gorm.DB) error {
	// sqlite serializes writers already.
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.WithContext(ctx).Exec(`LOCK TABLE price_windows IN SHARE ROW EXCLUSIVE MODE`).Error
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, window *domain.PriceWindow) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO price_windows (`+windowColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		window.ID,
		window.Name,
		window.StartDate,
		window.EndDate,
		window.AllowOverlap,
		window.CreatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.PriceWindowItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO price_window_items (id, price_window_id, product_id, price) VALUES (?, ?, ?, ?)`,
			item.ID,
			item.PriceWindowID,
			item.ProductID,
			item.Price,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.PriceWindow, error) {
	var window domain.PriceWindow
	err := db.WithContext(ctx).Raw(
		`SELECT `+windowColumns+` FROM price_windows WHERE id = ?`,
		id,
	).Scan(&window).Error
	if err != nil {
		return nil, err
	}
	if window.ID == 0 {
		return nil, nil
	}
	return &window, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, day time.Time) (*domain.PriceWindow, error) {
	var window domain.PriceWindow
	err := db.WithContext(ctx).Raw(
		`SELECT `+windowColumns+`
		 FROM price_windows
		 WHERE start_date <= ? AND end_date >= ?
		 ORDER BY id DESC
		 LIMIT 1`,
		day,
		day,
	).Scan(&window).Error
	if err != nil {
		return nil, err
	}
	if window.ID == 0 {
		return nil, nil
	}
	return &window, nil
}

func (r *repo) FindOverlapping(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.PriceWindow, error) {
	var windows []domain.PriceWindow
	err := db.WithContext(ctx).Raw(
		`SELECT `+windowColumns+`
		 FROM price_windows
		 WHERE start_date <= ? AND end_date >= ?
		 ORDER BY id ASC`,
		end,
		start,
	).Scan(&windows).Error
	if err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, windowIDs ...int64) ([]domain.PriceWindowItem, error) {
	if len(windowIDs) == 0 {
		return nil, nil
	}
	var items []domain.PriceWindowItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, price_window_id, product_id, price
		 FROM price_window_items
		 WHERE price_window_id IN ?
		 ORDER BY price_window_id ASC, id ASC`,
		windowIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOn *time.Time) ([]domain.PriceWindow, error) {
	var windows []domain.PriceWindow
	stmt := db.WithContext(ctx).Model(&domain.PriceWindow{})
	if activeOn != nil {
		stmt = stmt.Where("start_date <= ? AND end_date >= ?", *activeOn, *activeOn)
	}
	if err := stmt.Order("start_date DESC").Order("id DESC").Find(&windows).Error; err != nil {
		return nil, err
	}
	return windows, nil
}

func (r *repo) CountProducts(ctx context.Context, db *gorm.DB, productIDs []int64) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM products WHERE id IN ?`,
		productIDs,
	).Scan(&count).Error
	return count, err
}
