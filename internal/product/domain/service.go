package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Name   string
	Status Status
}

type CreateRequest struct {
	Name         string         `json:"name"`
	Slug         string         `json:"slug"`
	Price        int64          `json:"price"`
	Stock        int64          `json:"stock"`
	IsGiftCard   bool           `json:"is_gift_card"`
	IsDiscounted bool           `json:"is_discounted"`
	Metadata     map[string]any `json:"metadata"`
}

type Response struct {
	ID           string         `json:"id"`
	Slug         string         `json:"slug"`
	Name         string         `json:"name"`
	Price        int64          `json:"price"`
	Stock        int64          `json:"stock"`
	Status       Status         `json:"status"`
	IsGiftCard   bool           `json:"is_gift_card"`
	IsDiscounted bool           `json:"is_discounted"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidPrice = errors.New("invalid_price")
	ErrInvalidStock = errors.New("invalid_stock")
	ErrInvalidSlug  = errors.New("invalid_slug")
	ErrSlugTaken    = errors.New("slug_taken")
	ErrNotFound     = errors.New("not_found")
	ErrInvalidID    = errors.New("invalid_id")
)
