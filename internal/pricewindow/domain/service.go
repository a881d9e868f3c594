package domain

import (
	"context"
	"errors"
	"time"
)

const DateLayout = "2006-01-02"

type Service interface {
	// ResolveActivePrices returns product id -> override price for the window covering
	// today. When windows overlap the most recently created one wins; items are never
	// merged across windows. An empty map means no window is active.
	ResolveActivePrices(ctx context.Context, today time.Time) (map[int64]int64, error)
	GetActive(ctx context.Context, today time.Time) (*Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
}

type CreateRequest struct {
	Name         string              `json:"name"`
	StartDate    string              `json:"start_date"`
	EndDate      string              `json:"end_date"`
	AllowOverlap bool                `json:"allow_overlap"`
	Items        []CreateItemRequest `json:"items"`
}

type CreateItemRequest struct {
	ProductID int64 `json:"product_id,string"`
	Price     int64 `json:"price"`
}

type ListRequest struct {
	ActiveOn *time.Time
}

type Response struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	StartDate    string         `json:"start_date"`
	EndDate      string         `json:"end_date"`
	AllowOverlap bool           `json:"allow_overlap"`
	Items        []ItemResponse `json:"items"`
	CreatedAt    time.Time      `json:"created_at"`
}

type ItemResponse struct {
	ProductID string `json:"product_id"`
	Price     int64  `json:"price"`
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidDate      = errors.New("invalid_date")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrInvalidItems     = errors.New("invalid_items")
	ErrTooManyItems     = errors.New("too_many_items")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrDuplicateProduct = errors.New("duplicate_product")
	ErrProductNotFound  = errors.New("product_not_found")
	ErrOverlapConflict  = errors.New("price_window_overlap")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)
