package domain

import (
	"testing"

	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestClampRedemption(t *testing.T) {
	rules := config.DefaultLoyaltyConfig()

	cases := []struct {
		name       string
		requested  int64
		redeemable int64
		subtotal   int64
		discount   int64
		want       Redemption
	}{
		{name: "under minimum after rounding", requested: 430, redeemable: 5000, subtotal: 100_000, want: Redemption{}},
		{name: "rounds down to step", requested: 1250, redeemable: 5000, subtotal: 100_000, want: Redemption{Points: 1200, Discount: 12_000}},
		{name: "applies requested", requested: 600, redeemable: 2000, subtotal: 100_000, want: Redemption{Points: 600, Discount: 6_000}},
		{name: "capped by redeemable", requested: 2000, redeemable: 750, subtotal: 100_000, want: Redemption{Points: 700, Discount: 7_000}},
		{name: "redeemable under minimum", requested: 2000, redeemable: 450, subtotal: 100_000, want: Redemption{}},
		{name: "capped by order amount", requested: 5000, redeemable: 5000, subtotal: 25_500, discount: 500, want: Redemption{Points: 2500, Discount: 25_000}},
		{name: "order too small", requested: 1000, redeemable: 5000, subtotal: 4_000, want: Redemption{}},
		{name: "negative request", requested: -500, redeemable: 5000, subtotal: 100_000, want: Redemption{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClampRedemption(tc.requested, tc.redeemable, tc.subtotal, tc.discount, rules)
			assert.Equal(t, tc.want, got)
			assert.LessOrEqual(t, got.Discount, max(tc.subtotal-tc.discount, 0))
		})
	}
}

func TestEligibleSpend(t *testing.T) {
	lines := []OrderLine{
		{LineTotal: 60_000},
		{LineTotal: 20_000, IsDiscounted: true},
		{LineTotal: 20_000, IsGiftCard: true},
	}

	assert.Equal(t, int64(60_000), EligibleSpend(lines, 0))
	// 10% order discount takes 10% of the eligible lines.
	assert.Equal(t, int64(54_000), EligibleSpend(lines, 10_000))
	assert.Equal(t, int64(0), EligibleSpend(nil, 0))
}

func TestPointsForSpend(t *testing.T) {
	rules := config.DefaultLoyaltyConfig()
	assert.Equal(t, int64(54), PointsForSpend(54_999, rules))
	assert.Equal(t, int64(0), PointsForSpend(999, rules))
	assert.Equal(t, int64(0), PointsForSpend(-10, rules))
}
