package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// GiftPricer 查询赠品单价。
// 赠品商品不存在或已下架时返回 (decimal.Zero, nil)，对应规则按零价值处理。
type GiftPricer interface {
	GiftUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error)
}

// GiftLine 满赠结果中的一条赠品
type GiftLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// TierOutcome 阶梯规则决议结果。
// 满减/满折产生 DiscountAmount；满赠产生 Gifts。未命中任何档位时 Rule 为 nil。
type TierOutcome struct {
	Rule           *TierRule
	DiscountAmount decimal.Decimal
	Gifts          []GiftLine
	Description    string
}

// Empty 是否未命中任何档位
func (o *TierOutcome) Empty() bool {
	return o == nil || o.Rule == nil
}

// ResolveTierRules 决议一组阶梯规则。
// 规则按门槛类型分组，组内取订单满足的最高档位（而非累加所有可满足档位）；
// 金额档与数量档同时命中时取优惠效果更大者，效果相同时金额档优先。
func ResolveTierRules(
	ctx context.Context,
	discountType string,
	rules []TierRule,
	orderAmount decimal.Decimal,
	orderQuantity int,
	pricer GiftPricer,
) (*TierOutcome, error) {
	var amountRules, quantityRules []TierRule
	for _, r := range rules {
		if !validRule(discountType, &r) {
			continue
		}
		switch r.ConditionType {
		case ConditionAmount:
			amountRules = append(amountRules, r)
		case ConditionQuantity:
			quantityRules = append(quantityRules, r)
		}
	}

	amountRule := bestAmountTier(amountRules, orderAmount)
	quantityRule := bestQuantityTier(quantityRules, orderQuantity)

	if amountRule == nil && quantityRule == nil {
		return &TierOutcome{}, nil
	}

	var (
		amountOutcome, quantityOutcome *TierOutcome
		amountEffect, quantityEffect   decimal.Decimal
		err                            error
	)
	if amountRule != nil {
		amountOutcome, amountEffect, err = tierEffect(ctx, discountType, amountRule, orderAmount, pricer)
		if err != nil {
			return nil, err
		}
	}
	if quantityRule != nil {
		quantityOutcome, quantityEffect, err = tierEffect(ctx, discountType, quantityRule, orderAmount, pricer)
		if err != nil {
			return nil, err
		}
	}

	if amountOutcome == nil {
		return quantityOutcome, nil
	}
	if quantityOutcome == nil {
		return amountOutcome, nil
	}
	// 效果相同时金额档优先
	if quantityEffect.GreaterThan(amountEffect) {
		return quantityOutcome, nil
	}
	return amountOutcome, nil
}

// bestAmountTier 按金额门槛降序扫描，返回订单金额满足的最高档位
func bestAmountTier(rules []TierRule, orderAmount decimal.Decimal) *TierRule {
	if len(rules) == 0 {
		return nil
	}
	sorted := make([]TierRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinAmount > sorted[j].MinAmount
	})
	for i := range sorted {
		if orderAmount.GreaterThanOrEqual(decimal.NewFromFloat(sorted[i].MinAmount)) {
			return &sorted[i]
		}
	}
	return nil
}

// bestQuantityTier 按数量门槛降序扫描，返回购买数量满足的最高档位
func bestQuantityTier(rules []TierRule, orderQuantity int) *TierRule {
	if len(rules) == 0 {
		return nil
	}
	sorted := make([]TierRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity > sorted[j].MinQuantity
	})
	for i := range sorted {
		if orderQuantity >= sorted[i].MinQuantity {
			return &sorted[i]
		}
	}
	return nil
}

// tierEffect 计算单个档位的优惠效果及其用于比较的金额价值。
// 满赠的价值为赠品单价×赠品数量。
func tierEffect(
	ctx context.Context,
	discountType string,
	rule *TierRule,
	orderAmount decimal.Decimal,
	pricer GiftPricer,
) (*TierOutcome, decimal.Decimal, error) {
	outcome := &TierOutcome{Rule: rule}

	switch discountType {
	case models.CouponTypeFullReduction:
		outcome.DiscountAmount = decimal.NewFromFloat(rule.DiscountAmount)
		outcome.Description = describeTier(rule, fmt.Sprintf("减%s元", outcome.DiscountAmount.String()))
		return outcome, outcome.DiscountAmount, nil

	case models.CouponTypeFullDiscount:
		rate := decimal.NewFromFloat(rule.DiscountRate)
		outcome.DiscountAmount = orderAmount.Mul(decimal.NewFromInt(1).Sub(rate))
		outcome.Description = describeTier(rule, fmt.Sprintf("享%s折", rate.Mul(decimal.NewFromInt(10)).String()))
		return outcome, outcome.DiscountAmount, nil

	case models.CouponTypeFullGift:
		unitPrice, err := pricer.GiftUnitPrice(ctx, rule.Gift.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		outcome.Gifts = []GiftLine{{
			ProductID: rule.Gift.ProductID,
			Quantity:  rule.Gift.Quantity,
			UnitPrice: unitPrice,
		}}
		outcome.Description = describeTier(rule, fmt.Sprintf("赠品×%d", rule.Gift.Quantity))
		giftValue := unitPrice.Mul(decimal.NewFromInt(int64(rule.Gift.Quantity)))
		return outcome, giftValue, nil
	}

	return nil, decimal.Zero, fmt.Errorf("不支持的阶梯优惠类型: %q", discountType)
}

// describeTier 生成档位描述，如 "满100减10元"、"满3件享9折"
func describeTier(rule *TierRule, effect string) string {
	if rule.ConditionType == ConditionQuantity {
		return fmt.Sprintf("满%d件%s", rule.MinQuantity, effect)
	}
	return fmt.Sprintf("满%s%s", decimal.NewFromFloat(rule.MinAmount).String(), effect)
}

// describeFlat 生成非阶梯类优惠描述
func describeFlat(rs *RuleSet) string {
	switch rs.DiscountType {
	case models.CouponTypeFixed:
		return fmt.Sprintf("立减%s元", rs.Value.String())
	case models.CouponTypePercent:
		rate := decimal.NewFromInt(1).Sub(rs.Value)
		return fmt.Sprintf("享%s折", rate.Mul(decimal.NewFromInt(10)).String())
	}
	return rs.Name
}

// describeMemberRate 生成会员等级折扣描述
func describeMemberRate(level *models.MemberLevel) string {
	rate := decimal.NewFromFloat(level.Discount)
	return fmt.Sprintf("会员%s折", rate.Mul(decimal.NewFromInt(10)).String())
}

func describePoints(points int) string {
	return fmt.Sprintf("使用%d积分", points)
}
