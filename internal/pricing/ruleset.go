// Package pricing 实现促销与价格决议引擎：
// 针对单个商品行（商品、SKU、数量），结合会员、候选优惠券/活动与积分抵扣，
// 计算最终应付金额及优惠明细。
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// InstrumentKind 优惠载体类型
type InstrumentKind string

// 优惠载体
const (
	InstrumentCoupon    InstrumentKind = "coupon"    // 优惠券
	InstrumentPromotion InstrumentKind = "promotion" // 促销活动
)

// ConditionType 阶梯规则门槛类型
type ConditionType string

// 门槛类型
const (
	ConditionAmount   ConditionType = "amount"   // 按订单金额
	ConditionQuantity ConditionType = "quantity" // 按购买数量
)

// GiftSpec 满赠规则的赠品描述
type GiftSpec struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// TierRule 阶梯规则：一个门槛/效果对。
// ConditionType 决定门槛字段（MinAmount 或 MinQuantity）；
// 效果字段按优惠类型取其一：DiscountAmount（满减）、DiscountRate（满折）、Gift（满赠）。
type TierRule struct {
	ConditionType  ConditionType `json:"condition_type"`
	MinAmount      float64       `json:"min_amount,omitempty"`
	MinQuantity    int           `json:"min_quantity,omitempty"`
	DiscountAmount float64       `json:"discount_amount,omitempty"`
	DiscountRate   float64       `json:"discount_rate,omitempty"`
	Gift           *GiftSpec     `json:"gift,omitempty"`
}

// RuleSet 优惠券或促销活动的不可变快照，规则已解析。
type RuleSet struct {
	Kind         InstrumentKind
	ID           int64
	Name         string
	DiscountType string
	Value        decimal.Decimal
	MinAmount    decimal.Decimal
	MaxDiscount  *decimal.Decimal
	ProductIDs   []int64
	SkuIDs       []int64
	StartTime    time.Time
	EndTime      time.Time
	TotalCount   int
	UsedCount    int
	PerUserLimit int
	Active       bool
	Rules        []TierRule
}

// HasTierRules 是否为阶梯类优惠（full_* 系列）
func (rs *RuleSet) HasTierRules() bool {
	switch rs.DiscountType {
	case models.CouponTypeFullReduction, models.CouponTypeFullGift, models.CouponTypeFullDiscount:
		return true
	}
	return false
}

// scopeSpec Scope 字段的结构
type scopeSpec struct {
	ProductIDs []int64 `json:"product_ids"`
	SkuIDs     []int64 `json:"sku_ids"`
}

// NewRuleSetFromCoupon 将优惠券转换为规则快照
func NewRuleSetFromCoupon(c *models.Coupon) (*RuleSet, error) {
	rs := &RuleSet{
		Kind:         InstrumentCoupon,
		ID:           c.ID,
		Name:         c.Name,
		DiscountType: c.Type,
		Value:        decimal.NewFromFloat(c.Value),
		MinAmount:    decimal.NewFromFloat(c.MinAmount),
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		TotalCount:   c.TotalCount,
		UsedCount:    c.UsedCount,
		PerUserLimit: c.PerUserLimit,
		Active:       c.Status == models.CouponStatusActive,
	}
	if c.MaxDiscount != nil {
		max := decimal.NewFromFloat(*c.MaxDiscount)
		rs.MaxDiscount = &max
	}

	var scope scopeSpec
	if err := c.Scope.Unmarshal(&scope); err != nil {
		return nil, fmt.Errorf("解析优惠券适用范围失败: %w", err)
	}
	rs.ProductIDs = scope.ProductIDs
	rs.SkuIDs = scope.SkuIDs

	if rs.HasTierRules() {
		rules, err := parseTierRules(c.Rules, "rules")
		if err != nil {
			return nil, err
		}
		rs.Rules = rules
	}
	return rs, nil
}

// NewRuleSetFromPromotion 将促销活动转换为规则快照。
// 活动的阶梯规则按类型键嵌套在 Rules 中，如 {"full_reduction":[...]}。
func NewRuleSetFromPromotion(p *models.Promotion) (*RuleSet, error) {
	rs := &RuleSet{
		Kind:         InstrumentPromotion,
		ID:           p.ID,
		Name:         p.Name,
		DiscountType: p.Type,
		MinAmount:    decimal.NewFromFloat(p.MinAmount),
		StartTime:    p.StartTime,
		EndTime:      p.EndTime,
		Active:       p.Status == models.PromotionStatusActive,
	}

	var scope scopeSpec
	if err := p.Scope.Unmarshal(&scope); err != nil {
		return nil, fmt.Errorf("解析活动适用范围失败: %w", err)
	}
	rs.ProductIDs = scope.ProductIDs
	rs.SkuIDs = scope.SkuIDs

	if rs.HasTierRules() {
		rules, err := parseTierRules(p.Rules, p.Type)
		if err != nil {
			return nil, err
		}
		rs.Rules = rules
	}
	return rs, nil
}

// parseTierRules 从 jsonb 字段解析阶梯规则数组
func parseTierRules(raw models.JSON, key string) ([]TierRule, error) {
	if raw == nil {
		return nil, nil
	}

	var wrapper map[string][]TierRule
	if err := raw.Unmarshal(&wrapper); err != nil {
		return nil, fmt.Errorf("解析阶梯规则失败: %w", err)
	}
	return wrapper[key], nil
}

// ValidateTierRules 校验阶梯规则配置。
// 在保存优惠配置时调用；运行期遇到非法规则按零优惠处理，不在此报错。
func ValidateTierRules(discountType string, rules []TierRule) error {
	if len(rules) == 0 {
		return fmt.Errorf("阶梯规则不能为空")
	}

	amountSeen := make(map[string]bool)
	quantitySeen := make(map[int]bool)

	for i, r := range rules {
		switch r.ConditionType {
		case ConditionAmount:
			if r.MinAmount <= 0 {
				return fmt.Errorf("规则 %d: 金额门槛必须大于0", i)
			}
			key := decimal.NewFromFloat(r.MinAmount).String()
			if amountSeen[key] {
				return fmt.Errorf("规则 %d: 金额门槛 %s 重复", i, key)
			}
			amountSeen[key] = true
		case ConditionQuantity:
			if r.MinQuantity <= 0 {
				return fmt.Errorf("规则 %d: 数量门槛必须大于0", i)
			}
			if quantitySeen[r.MinQuantity] {
				return fmt.Errorf("规则 %d: 数量门槛 %d 重复", i, r.MinQuantity)
			}
			quantitySeen[r.MinQuantity] = true
		default:
			return fmt.Errorf("规则 %d: 未知门槛类型 %q", i, r.ConditionType)
		}

		switch discountType {
		case models.CouponTypeFullReduction:
			if r.DiscountAmount <= 0 {
				return fmt.Errorf("规则 %d: 满减金额必须大于0", i)
			}
		case models.CouponTypeFullDiscount:
			if r.DiscountRate <= 0 || r.DiscountRate >= 1 {
				return fmt.Errorf("规则 %d: 折扣率必须在 (0,1) 区间", i)
			}
		case models.CouponTypeFullGift:
			if r.Gift == nil || r.Gift.ProductID <= 0 || r.Gift.Quantity <= 0 {
				return fmt.Errorf("规则 %d: 赠品配置无效", i)
			}
		default:
			return fmt.Errorf("优惠类型 %q 不支持阶梯规则", discountType)
		}
	}
	return nil
}

// validRule 运行期快速检查，非法规则按零优惠跳过
func validRule(discountType string, r *TierRule) bool {
	switch r.ConditionType {
	case ConditionAmount:
		if r.MinAmount <= 0 {
			return false
		}
	case ConditionQuantity:
		if r.MinQuantity <= 0 {
			return false
		}
	default:
		return false
	}

	switch discountType {
	case models.CouponTypeFullReduction:
		return r.DiscountAmount > 0
	case models.CouponTypeFullDiscount:
		return r.DiscountRate > 0 && r.DiscountRate < 1
	case models.CouponTypeFullGift:
		return r.Gift != nil && r.Gift.ProductID > 0 && r.Gift.Quantity > 0
	}
	return false
}
