package pricing

import (
	"github.com/shopspring/decimal"
)

// PointRedemption 积分抵扣结果
type PointRedemption struct {
	PointsUsage int
	Discount    decimal.Decimal
}

// ValidatePointRedemption 校验并换算积分抵扣。
// 用户明确要求使用无法兑现的积分时整个定价请求失败，而不是静默封顶。
// 抵扣金额最终以剩余应付金额为上限——积分可以抵到零，但不会抵成负数。
func ValidatePointRedemption(
	pointsUsage int,
	availablePoints int,
	maxPointsPerUnit int,
	quantity int,
	unitValue decimal.Decimal,
	remainingPayable decimal.Decimal,
) (*PointRedemption, error) {
	if pointsUsage <= 0 {
		return &PointRedemption{}, nil
	}

	if maxPointsPerUnit <= 0 || !unitValue.IsPositive() {
		return nil, ErrPointsNotRedeemable
	}
	if pointsUsage > availablePoints {
		return nil, ErrInsufficientPoints
	}
	if pointsUsage > maxPointsPerUnit*quantity {
		return nil, ErrPointsExceedLimit
	}

	discount := decimal.NewFromInt(int64(pointsUsage)).Mul(unitValue)
	if remainingPayable.IsNegative() {
		remainingPayable = decimal.Zero
	}
	if discount.GreaterThan(remainingPayable) {
		discount = remainingPayable
	}

	return &PointRedemption{
		PointsUsage: pointsUsage,
		Discount:    discount,
	}, nil
}
