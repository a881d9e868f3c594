package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

type Service interface {
	// Create prices, stocks and records an order, including any points redemption,
	// in one transaction.
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	// UpdateStatus commits lifecycle and payment changes, then runs loyalty side
	// effects whose failures never undo the committed change.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	GetByReceipt(ctx context.Context, locator string) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type Address struct {
	Line       string `json:"line"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Notes      string `json:"notes"`
}

type ItemRequest struct {
	ProductID *int64 `json:"product_id,omitempty,string"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
}

type CreateRequest struct {
	Contact                 Contact       `json:"contact"`
	Address                 Address       `json:"address"`
	Items                   []ItemRequest `json:"items"`
	Subtotal                int64         `json:"subtotal"`
	Discount                int64         `json:"discount"`
	DeliveryFee             int64         `json:"delivery_fee"`
	Total                   int64         `json:"total"`
	PaymentMethod           string        `json:"payment_method"`
	RequestedRedeemedPoints int64         `json:"requested_redeemed_points"`
}

type CreateResult struct {
	OrderID        string `json:"order_id"`
	ReceiptLocator string `json:"receipt_locator"`
	AppliedPoints  int64  `json:"applied_points"`
	PointsDiscount int64  `json:"points_discount"`
	Subtotal       int64  `json:"subtotal"`
	Discount       int64  `json:"discount"`
	Total          int64  `json:"total"`
}

type UpdateStatusRequest struct {
	OrderID        string         `json:"-"`
	Status         *Status        `json:"status"`
	PaymentStatus  *PaymentStatus `json:"payment_status"`
	ReceiptLocator *string        `json:"receipt_locator"`
}

type ListRequest struct {
	Status        Status
	PaymentStatus PaymentStatus
	Phone         string
	PageToken     string
	PageSize      int
}

type ListFilter struct {
	Status        Status
	PaymentStatus PaymentStatus
	Phone         string
}

type ListResponse struct {
	pagination.PageInfo
	Orders []Response `json:"orders"`
}

type Response struct {
	ID             string         `json:"id"`
	CustomerID     *string        `json:"customer_id,omitempty"`
	CustomerName   string         `json:"customer_name"`
	Phone          string         `json:"phone"`
	Email          string         `json:"email,omitempty"`
	AddressLine    string         `json:"address_line"`
	City           string         `json:"city,omitempty"`
	PostalCode     string         `json:"postal_code,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	PaymentMethod  string         `json:"payment_method"`
	Subtotal       int64          `json:"subtotal"`
	Discount       int64          `json:"discount"`
	DeliveryFee    int64          `json:"delivery_fee"`
	Total          int64          `json:"total"`
	PointsRedeemed int64          `json:"points_redeemed"`
	Status         Status         `json:"status"`
	PaymentStatus  PaymentStatus  `json:"payment_status"`
	ReceiptLocator string         `json:"receipt_locator"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`
	ShippedAt      *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	PaidAt         *time.Time     `json:"paid_at,omitempty"`
	Items          []ItemResponse `json:"items,omitempty"`
}

type ItemResponse struct {
	ID           string  `json:"id"`
	ProductID    *string `json:"product_id,omitempty"`
	Name         string  `json:"name"`
	UnitPrice    int64   `json:"unit_price"`
	Quantity     int64   `json:"quantity"`
	LineTotal    int64   `json:"line_total"`
	IsDiscounted bool    `json:"is_discounted"`
	IsGiftCard   bool    `json:"is_gift_card"`
}

var (
	ErrInvalidCustomerName = errors.New("invalid_customer_name")
	ErrInvalidPhone        = errors.New("invalid_phone")
	ErrInvalidAddress      = errors.New("invalid_address")
	ErrEmptyItems          = errors.New("empty_items")
	ErrInvalidItemName     = errors.New("invalid_item_name")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidPrice        = errors.New("invalid_price")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidReceipt      = errors.New("invalid_receipt_locator")

	ErrProductNotFound          = errors.New("product_not_found")
	ErrTransactionFailed        = errors.New("transaction_failed")
	ErrInvalidTransition        = errors.New("invalid_status_transition")
	ErrInvalidPaymentTransition = errors.New("invalid_payment_transition")
	ErrReceiptTaken             = errors.New("receipt_locator_taken")
	ErrInvalidID                = errors.New("invalid_id")
	ErrNotFound                 = errors.New("not_found")
)
