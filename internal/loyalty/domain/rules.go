package domain

import "github.com/smallbiznis/storefront/internal/config"

// EligibleSpend sums lines that are neither discounted nor gift cards, minus their
// proportional share of the order-level discount. Delivery fees never count.
func EligibleSpend(lines []OrderLine, discount int64) int64 {
	var eligible, total int64
	for _, line := range lines {
		total += line.LineTotal
		if line.IsDiscounted || line.IsGiftCard {
			continue
		}
		eligible += line.LineTotal
	}
	if discount > 0 && total > 0 {
		eligible -= discount * eligible / total
	}
	return max(eligible, 0)
}

func PointsForSpend(spend int64, rules config.LoyaltyConfig) int64 {
	if spend <= 0 || rules.SpendPerPoint <= 0 {
		return 0
	}
	return spend / rules.SpendPerPoint
}

// Redemption is the outcome of clamping a requested redemption.
type Redemption struct {
	Points   int64 `json:"applied_points"`
	Discount int64 `json:"points_discount"`
}

// ClampRedemption applies the redemption rules in order: round down to the step,
// drop anything under the minimum, cap by the redeemable balance, cap by what the
// order amount can absorb, and drop the result again if it fell under the minimum.
func ClampRedemption(requested, redeemable, subtotal, discount int64, rules config.LoyaltyConfig) Redemption {
	step := rules.RedeemStep
	if step <= 0 || requested <= 0 {
		return Redemption{}
	}

	points := requested / step * step
	if points < rules.MinRedeemPoints {
		return Redemption{}
	}

	points = min(points, max(redeemable, 0)/step*step)

	base := max(subtotal-discount, 0)
	maxCurrency := base / rules.RedeemUnitValue * rules.RedeemUnitValue
	maxPoints := maxCurrency / rules.RedeemUnitValue * rules.PointsPerRedeemUnit
	points = min(points, maxPoints/step*step)

	if points < rules.MinRedeemPoints || points <= 0 {
		return Redemption{}
	}
	return Redemption{Points: points, Discount: rules.PointsValue(points)}
}
