package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// UsageCounter 查询用户对某优惠券的历史核销次数
type UsageCounter interface {
	CountUsedByUser(ctx context.Context, userID, couponID int64) (int64, error)
}

// EligibilityInput 资格检查的上下文
type EligibilityInput struct {
	ProductID   int64
	SkuID       int64
	UserID      int64
	OrderAmount decimal.Decimal
	Now         time.Time
}

// EligibilityFilter 判断优惠券/活动是否可参与计算。
// 任一条件不满足都只是静默排除，不构成错误。
type EligibilityFilter struct {
	usage UsageCounter
}

// NewEligibilityFilter 创建资格过滤器
func NewEligibilityFilter(usage UsageCounter) *EligibilityFilter {
	return &EligibilityFilter{usage: usage}
}

// Eligible 检查规则快照是否适用于当前订单行。
// 返回 error 仅在数据查询失败时；资格不满足返回 (false, nil)。
func (f *EligibilityFilter) Eligible(ctx context.Context, rs *RuleSet, in EligibilityInput) (bool, error) {
	// 1. 状态启用
	if !rs.Active {
		return false, nil
	}

	// 2. 有效期；时间缺失视为配置异常，保守拒绝
	if rs.StartTime.IsZero() || rs.EndTime.IsZero() {
		return false, nil
	}
	if in.Now.Before(rs.StartTime) || in.Now.After(rs.EndTime) {
		return false, nil
	}

	// 3. 商品/SKU 白名单
	if len(rs.ProductIDs) > 0 && !containsID(rs.ProductIDs, in.ProductID) {
		return false, nil
	}
	if in.SkuID > 0 && len(rs.SkuIDs) > 0 && !containsID(rs.SkuIDs, in.SkuID) {
		return false, nil
	}

	// 4. 最低消费门槛预检；阶梯决议时还会做档位级门槛检查
	if rs.MinAmount.IsPositive() && in.OrderAmount.LessThan(rs.MinAmount) {
		return false, nil
	}

	// 5. 优惠券专属：总量上限与单用户核销上限
	if rs.Kind == InstrumentCoupon {
		if rs.TotalCount > 0 && rs.UsedCount >= rs.TotalCount {
			return false, nil
		}
		if rs.PerUserLimit > 0 && in.UserID > 0 {
			used, err := f.usage.CountUsedByUser(ctx, in.UserID, rs.ID)
			if err != nil {
				return false, err
			}
			if used >= int64(rs.PerUserLimit) {
				return false, nil
			}
		}
	}

	return true, nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
