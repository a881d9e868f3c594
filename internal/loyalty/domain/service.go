package domain

import (
	"context"
	"errors"
)

type Service interface {
	AwardPointsForDeliveredOrder(ctx context.Context, orderID int64) (AwardResult, error)
	ReversePointsForCancelledOrder(ctx context.Context, orderID int64) (AwardResult, error)
	RedeemPointsForOrder(ctx context.Context, orderID, customerID, points int64) (AwardResult, error)
	RecreditRedeemedPointsOnCancel(ctx context.Context, orderID int64) (AwardResult, error)
	GrantReferralBonus(ctx context.Context, customerID, orderID, points int64) (AwardResult, error)

	// GetRedeemablePoints is trailing-window earned minus redeemed, floored at zero.
	GetRedeemablePoints(ctx context.Context, customerID int64) (int64, error)
	// PlanRedemption locks the customer and clamps the request against a balance read
	// inside the caller's transaction.
	PlanRedemption(ctx context.Context, req PlanRequest) (Redemption, error)
	PreviewRedemption(ctx context.Context, req PreviewRequest) (PreviewResponse, error)

	ReconcileBalance(ctx context.Context, customerID int64) (ReconcileResult, error)
	ReconcileBatch(ctx context.Context, afterID int64, limit int) (ReconcileBatchResult, error)
	ListEntries(ctx context.Context, customerID int64) ([]LedgerEntry, error)
}

// AwardResult reports whether a ledger entry was appended. Awarded is false when the
// call was an idempotent no-op.
type AwardResult struct {
	Awarded bool   `json:"awarded"`
	Points  int64  `json:"points"`
	Reason  Reason `json:"reason"`
}

type PlanRequest struct {
	CustomerID      int64
	RequestedPoints int64
	Subtotal        int64
	Discount        int64
}

type PreviewRequest struct {
	CustomerID      int64 `json:"customer_id,string"`
	RequestedPoints int64 `json:"requested_points"`
	Subtotal        int64 `json:"subtotal"`
	Discount        int64 `json:"discount"`
	DeliveryFee     int64 `json:"delivery_fee"`
}

type PreviewResponse struct {
	RedeemablePoints int64 `json:"redeemable_points"`
	RequestedPoints  int64 `json:"requested_points"`
	AppliedPoints    int64 `json:"applied_points"`
	PointsDiscount   int64 `json:"points_discount"`
	Total            int64 `json:"total"`
}

type ReconcileResult struct {
	CustomerID int64 `json:"customer_id,string"`
	Previous   int64 `json:"previous"`
	Recomputed int64 `json:"recomputed"`
	Corrected  bool  `json:"corrected"`
}

type ReconcileBatchResult struct {
	LastID    int64
	Processed int
	Corrected int
}

var (
	ErrOrderNotFound    = errors.New("order_not_found")
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrInvalidPoints    = errors.New("invalid_points")
	ErrInvalidRequest   = errors.New("invalid_request")
)
