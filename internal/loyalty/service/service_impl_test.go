package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	customerdomain "github.com/smallbiznis/storefront/internal/customer/domain"
	"github.com/smallbiznis/storefront/internal/loyalty/domain"
	"github.com/smallbiznis/storefront/internal/loyalty/repository"
	"github.com/smallbiznis/storefront/internal/loyalty/service"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	node  *snowflake.Node
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conn := testutil.OpenDB(t)
	clk := clock.NewFakeClock(start)
	node := testutil.Node(t)
	svc := service.New(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Rules: config.NewStaticLoyaltyConfigHolder(config.DefaultLoyaltyConfig()),
		Clock: clk,
	})
	return &fixture{svc: svc, db: conn, clock: clk, node: node}
}

func (f *fixture) customer(t *testing.T) int64 {
	t.Helper()
	id := f.node.Generate().Int64()
	phone := "62811" + f.node.Generate().String()[12:]
	require.NoError(t, f.db.Create(&customerdomain.Customer{
		ID:        id,
		Name:      "Sari",
		Phone:     &phone,
		CreatedAt: start,
		UpdatedAt: start,
	}).Error)
	return id
}

// order stores a delivered-ready order whose lines are given as (line total, discounted).
func (f *fixture) order(t *testing.T, customerID int64, discount int64, lines ...orderdomain.OrderItem) int64 {
	t.Helper()
	id := f.node.Generate()
	var subtotal int64
	for i := range lines {
		lines[i].ID = f.node.Generate().Int64()
		lines[i].OrderID = id.Int64()
		lines[i].Name = "item"
		lines[i].Quantity = 1
		lines[i].UnitPrice = lines[i].LineTotal
		lines[i].CreatedAt = start
		subtotal += lines[i].LineTotal
	}
	require.NoError(t, f.db.Create(&orderdomain.Order{
		ID:             id.Int64(),
		CustomerID:     &customerID,
		CustomerName:   "Sari",
		Phone:          "62811",
		AddressLine:    "Jl. Kenanga 1",
		PaymentMethod:  "transfer",
		Subtotal:       subtotal,
		Discount:       discount,
		Total:          subtotal - discount,
		Status:         orderdomain.StatusPending,
		PaymentStatus:  orderdomain.PaymentStatusUnpaid,
		ReceiptLocator: orderdomain.ReceiptLocator(id),
		CreatedAt:      start,
		UpdatedAt:      start,
	}).Error)
	if len(lines) > 0 {
		require.NoError(t, f.db.Create(&lines).Error)
	}
	return id.Int64()
}

func (f *fixture) balance(t *testing.T, customerID int64) int64 {
	t.Helper()
	var points int64
	require.NoError(t, f.db.Raw(`SELECT points FROM customers WHERE id = ?`, customerID).Scan(&points).Error)
	return points
}

func TestAwardIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0,
		orderdomain.OrderItem{LineTotal: 150_000},
		orderdomain.OrderItem{LineTotal: 50_000, IsDiscounted: true},
		orderdomain.OrderItem{LineTotal: 25_000, IsGiftCard: true},
	)

	first, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, first.Awarded)
	assert.Equal(t, int64(150), first.Points)

	second, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, second.Awarded)

	assert.Equal(t, int64(150), f.balance(t, customerID))

	entries, err := f.svc.ListEntries(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestAwardUnknownOrder(t *testing.T) {
	f := setup(t)

	_, err := f.svc.AwardPointsForDeliveredOrder(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestReverseWithoutAwardIsNoop(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 80_000})

	result, err := f.svc.ReversePointsForCancelledOrder(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, result.Awarded)
	assert.Equal(t, int64(0), f.balance(t, customerID))
}

func TestReverseUndoesAward(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 80_000})

	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)

	result, err := f.svc.ReversePointsForCancelledOrder(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, result.Awarded)
	assert.Equal(t, int64(-80), result.Points)

	again, err := f.svc.ReversePointsForCancelledOrder(ctx, orderID)
	require.NoError(t, err)
	assert.False(t, again.Awarded)
	assert.Equal(t, int64(0), f.balance(t, customerID))
}

func TestRedeemAndRecredit(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	earnOrder := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 1_000_000})
	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, earnOrder)
	require.NoError(t, err)

	spendOrder := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 100_000})
	redeemed, err := f.svc.RedeemPointsForOrder(ctx, spendOrder, customerID, 600)
	require.NoError(t, err)
	assert.True(t, redeemed.Awarded)

	redeemable, err := f.svc.GetRedeemablePoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(400), redeemable)

	again, err := f.svc.RedeemPointsForOrder(ctx, spendOrder, customerID, 600)
	require.NoError(t, err)
	assert.False(t, again.Awarded)
	assert.Equal(t, int64(400), f.balance(t, customerID))

	recredit, err := f.svc.RecreditRedeemedPointsOnCancel(ctx, spendOrder)
	require.NoError(t, err)
	assert.True(t, recredit.Awarded)
	assert.Equal(t, int64(600), recredit.Points)
	assert.Equal(t, int64(1000), f.balance(t, customerID))

	_, err = f.svc.RecreditRedeemedPointsOnCancel(ctx, spendOrder)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.balance(t, customerID))
}

func TestRedeemRejectsNonPositive(t *testing.T) {
	f := setup(t)
	_, err := f.svc.RedeemPointsForOrder(context.Background(), 1, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidPoints)
}

func TestRedeemableWindowExpires(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 700_000})
	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)

	redeemable, err := f.svc.GetRedeemablePoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(700), redeemable)

	f.clock.Set(start.AddDate(0, 13, 0))
	redeemable, err = f.svc.GetRedeemablePoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), redeemable)
}

func TestRedeemableNeverNegative(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 10_000})

	// Redemption recorded against a customer without earned points in the window.
	_, err := f.svc.RedeemPointsForOrder(ctx, orderID, customerID, 500)
	require.NoError(t, err)

	redeemable, err := f.svc.GetRedeemablePoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), redeemable)
	assert.Equal(t, int64(0), f.balance(t, customerID))
}

func TestPlanRedemptionClampsInsideTransaction(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 900_000})
	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)

	plan, err := f.svc.PlanRedemption(ctx, domain.PlanRequest{
		CustomerID:      customerID,
		RequestedPoints: 600,
		Subtotal:        100_000,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Redemption{Points: 600, Discount: 6_000}, plan)

	plan, err = f.svc.PlanRedemption(ctx, domain.PlanRequest{
		CustomerID:      customerID,
		RequestedPoints: 5_000,
		Subtotal:        100_000,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(900), plan.Points)

	_, err = f.svc.PlanRedemption(ctx, domain.PlanRequest{CustomerID: 99, RequestedPoints: 600, Subtotal: 1})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestPreviewRedemption(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 2_000_000})
	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)

	preview, err := f.svc.PreviewRedemption(ctx, domain.PreviewRequest{
		CustomerID:      customerID,
		RequestedPoints: 600,
		Subtotal:        100_000,
		DeliveryFee:     0,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), preview.RedeemablePoints)
	assert.Equal(t, int64(600), preview.AppliedPoints)
	assert.Equal(t, int64(6_000), preview.PointsDiscount)
	assert.Equal(t, int64(94_000), preview.Total)
}

func TestReferralBonus(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 10_000})

	result, err := f.svc.GrantReferralBonus(ctx, customerID, orderID, 250)
	require.NoError(t, err)
	assert.True(t, result.Awarded)

	again, err := f.svc.GrantReferralBonus(ctx, customerID, orderID, 250)
	require.NoError(t, err)
	assert.False(t, again.Awarded)

	redeemable, err := f.svc.GetRedeemablePoints(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), redeemable)
}

func TestReconcileCorrectsDrift(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	customerID := f.customer(t)
	orderID := f.order(t, customerID, 0, orderdomain.OrderItem{LineTotal: 300_000})
	_, err := f.svc.AwardPointsForDeliveredOrder(ctx, orderID)
	require.NoError(t, err)

	require.NoError(t, f.db.Exec(`UPDATE customers SET points = 9999 WHERE id = ?`, customerID).Error)

	result, err := f.svc.ReconcileBalance(ctx, customerID)
	require.NoError(t, err)
	assert.True(t, result.Corrected)
	assert.Equal(t, int64(9999), result.Previous)
	assert.Equal(t, int64(300), result.Recomputed)
	assert.Equal(t, int64(300), f.balance(t, customerID))

	batch, err := f.svc.ReconcileBatch(ctx, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Processed)
	assert.Equal(t, 0, batch.Corrected)
	assert.Equal(t, customerID, batch.LastID)
}
