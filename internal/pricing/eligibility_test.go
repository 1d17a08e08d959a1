// Package pricing 资格过滤单元测试
package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUsageCounter 固定核销次数表，键为 userID<<32|couponID
type stubUsageCounter struct {
	used map[int64]int64
}

func (s *stubUsageCounter) CountUsedByUser(_ context.Context, userID, couponID int64) (int64, error) {
	if s.used == nil {
		return 0, nil
	}
	return s.used[userID<<32|couponID], nil
}

func activeRuleSet(opts ...func(*RuleSet)) *RuleSet {
	now := time.Now()
	rs := &RuleSet{
		Kind:      InstrumentCoupon,
		ID:        1,
		Name:      "测试券",
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
		Active:    true,
	}
	for _, opt := range opts {
		opt(rs)
	}
	return rs
}

func eligibilityInput() EligibilityInput {
	return EligibilityInput{
		ProductID:   10,
		SkuID:       100,
		UserID:      1,
		OrderAmount: decimal.NewFromFloat(200),
		Now:         time.Now(),
	}
}

func TestEligibilityFilter(t *testing.T) {
	ctx := context.Background()
	filter := NewEligibilityFilter(&stubUsageCounter{})

	t.Run("全部条件满足", func(t *testing.T) {
		ok, err := filter.Eligible(ctx, activeRuleSet(), eligibilityInput())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("禁用状态排除", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.Active = false })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("有效期缺失保守拒绝", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.StartTime = time.Time{} })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("未到生效时间", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.StartTime = time.Now().Add(time.Hour) })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("已过期", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) {
			rs.StartTime = time.Now().Add(-2 * time.Hour)
			rs.EndTime = time.Now().Add(-time.Hour)
		})
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("商品白名单不含当前商品", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.ProductIDs = []int64{20, 21} })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("商品白名单包含当前商品", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.ProductIDs = []int64{10} })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("SKU白名单不含当前SKU", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.SkuIDs = []int64{200} })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("未指定SKU时跳过SKU白名单", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.SkuIDs = []int64{200} })
		in := eligibilityInput()
		in.SkuID = 0
		ok, err := filter.Eligible(ctx, rs, in)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("未达最低消费门槛", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) { rs.MinAmount = decimal.NewFromFloat(300) })
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("券总量用尽", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) {
			rs.TotalCount = 100
			rs.UsedCount = 100
		})
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("单用户核销次数达到上限", func(t *testing.T) {
		counter := &stubUsageCounter{used: map[int64]int64{1<<32 | 1: 2}}
		f := NewEligibilityFilter(counter)
		rs := activeRuleSet(func(rs *RuleSet) { rs.PerUserLimit = 2 })
		ok, err := f.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("活动不受券量与核销上限约束", func(t *testing.T) {
		rs := activeRuleSet(func(rs *RuleSet) {
			rs.Kind = InstrumentPromotion
			rs.TotalCount = 10
			rs.UsedCount = 10
		})
		ok, err := filter.Eligible(ctx, rs, eligibilityInput())
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
