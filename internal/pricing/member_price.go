package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// MemberPriceStore 精确查询会员价配置。
// 未配置时返回 (nil, nil)。
type MemberPriceStore interface {
	GetMemberPrice(ctx context.Context, productID, memberLevelID, skuID int64) (*models.MemberPrice, error)
}

// MemberPriceOverride 会员价查找。
// 命中会员价后该订单行不再参与任何优惠券/活动计算——会员价是终价，
// 这是商品规则而非实现捷径。
type MemberPriceOverride struct {
	store MemberPriceStore
}

// NewMemberPriceOverride 创建会员价查找器
func NewMemberPriceOverride(store MemberPriceStore) *MemberPriceOverride {
	return &MemberPriceOverride{store: store}
}

// Lookup 查找会员价。
// 指定 SKU 时优先匹配 SKU 专属行，未配置则回退到"任意 SKU"行（sku_id=0）。
func (m *MemberPriceOverride) Lookup(ctx context.Context, productID, memberLevelID, skuID int64) (decimal.Decimal, bool, error) {
	if skuID > 0 {
		mp, err := m.store.GetMemberPrice(ctx, productID, memberLevelID, skuID)
		if err != nil {
			return decimal.Zero, false, err
		}
		if mp != nil && mp.Status == models.MemberPriceStatusActive {
			return decimal.NewFromFloat(mp.Price), true, nil
		}
	}

	mp, err := m.store.GetMemberPrice(ctx, productID, memberLevelID, models.MemberPriceAnySku)
	if err != nil {
		return decimal.Zero, false, err
	}
	if mp != nil && mp.Status == models.MemberPriceStatusActive {
		return decimal.NewFromFloat(mp.Price), true, nil
	}

	return decimal.Zero, false, nil
}
