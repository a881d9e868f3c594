package domain

import "time"

type Reason string

const (
	ReasonOrderDelivered          Reason = "order_delivered"
	ReasonOrderCancelledReversal  Reason = "order_cancelled_reversal"
	ReasonRedeem                  Reason = "redeem"
	ReasonRedeemCancelledRecredit Reason = "redeem_cancelled_recredit"
	ReasonReferralBonus           Reason = "referral_bonus"
)

// LedgerEntry is an append-only balance event. At most one entry exists per
// (order_id, reason); that index is what makes award and redeem idempotent.
type LedgerEntry struct {
	ID         int64     `json:"id,string" gorm:"primaryKey"`
	CustomerID int64     `json:"customer_id,string" gorm:"not null;index:idx_points_ledger_customer_created,priority:1"`
	OrderID    *int64    `json:"order_id,omitempty,string" gorm:"uniqueIndex:ux_points_ledger_order_reason,priority:1"`
	Points     int64     `json:"points" gorm:"not null"`
	Reason     Reason    `json:"reason" gorm:"type:text;not null;uniqueIndex:ux_points_ledger_order_reason,priority:2"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null;index:idx_points_ledger_customer_created,priority:2"`
}

func (LedgerEntry) TableName() string { return "points_ledger" }

// OrderSnapshot is the part of an order the points engine reads.
type OrderSnapshot struct {
	ID         int64
	CustomerID *int64
	Discount   int64
}

type OrderLine struct {
	LineTotal    int64
	IsDiscounted bool
	IsGiftCard   bool
}

type CustomerBalance struct {
	ID     int64
	Points int64
}
