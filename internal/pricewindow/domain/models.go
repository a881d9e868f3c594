package domain

import "time"

// PriceWindow overrides product prices for an inclusive range of calendar days.
// Dates are stored as UTC midnight.
type PriceWindow struct {
	ID           int64     `json:"id,string" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"type:text;not null"`
	StartDate    time.Time `json:"start_date" gorm:"not null;index:idx_price_windows_range,priority:1"`
	EndDate      time.Time `json:"end_date" gorm:"not null;index:idx_price_windows_range,priority:2"`
	AllowOverlap bool      `json:"allow_overlap" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	Items []PriceWindowItem `json:"items" gorm:"-"`
}

func (PriceWindow) TableName() string { return "price_windows" }

// Covers reports whether day falls within the window.
func (w PriceWindow) Covers(day time.Time) bool {
	return !day.Before(w.StartDate) && !day.After(w.EndDate)
}

// Overlaps reports whether the two inclusive ranges share at least one day.
func (w PriceWindow) Overlaps(start, end time.Time) bool {
	return !w.StartDate.After(end) && !w.EndDate.Before(start)
}

type PriceWindowItem struct {
	ID            int64 `json:"id,string" gorm:"primaryKey"`
	PriceWindowID int64 `json:"price_window_id,string" gorm:"not null;uniqueIndex:ux_price_window_items_window_product,priority:1"`
	ProductID     int64 `json:"product_id,string" gorm:"not null;uniqueIndex:ux_price_window_items_window_product,priority:2"`
	Price         int64 `json:"price" gorm:"not null"`
}

func (PriceWindowItem) TableName() string { return "price_window_items" }

// DateOnly returns the calendar date of t, read in t's own location, as UTC midnight.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
