// Package marketing 营销服务单元测试
package marketing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

func setupMarketingTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MemberLevel{},
		&models.Coupon{},
		&models.UserCoupon{},
		&models.Promotion{},
	))

	db.Create(&models.MemberLevel{ID: 1, Name: "普通会员", Level: 1, MinPoints: 0, Discount: 1.0})

	return db
}

func newCouponService(db *gorm.DB) *CouponService {
	return NewCouponService(db, repository.NewCouponRepository(db), repository.NewUserCouponRepository(db))
}

func createMarketingTestCoupon(t *testing.T, db *gorm.DB, opts ...func(*models.Coupon)) *models.Coupon {
	t.Helper()

	coupon := &models.Coupon{
		Name:         "测试优惠券",
		Code:         fmt.Sprintf("TEST-%d", time.Now().UnixNano()),
		Type:         models.CouponTypeFixed,
		Value:        10.0,
		MinAmount:    50.0,
		TotalCount:   100,
		PerUserLimit: 3,
		StartTime:    time.Now().Add(-time.Hour),
		EndTime:      time.Now().Add(24 * time.Hour),
		Status:       models.CouponStatusActive,
	}

	for _, opt := range opts {
		opt(coupon)
	}

	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestCouponService_ReceiveCoupon(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := newCouponService(db)
	ctx := context.Background()

	t.Run("正常领取", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db)

		uc, err := svc.ReceiveCoupon(ctx, coupon.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, coupon.ID, uc.CouponID)
		assert.Equal(t, int8(models.UserCouponStatusUnused), uc.Status)
		assert.Equal(t, coupon.EndTime.Unix(), uc.ExpiredAt.Unix())

		var found models.Coupon
		db.First(&found, coupon.ID)
		assert.Equal(t, 1, found.IssuedCount)
	})

	t.Run("超过单用户上限", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
			c.PerUserLimit = 1
		})

		_, err := svc.ReceiveCoupon(ctx, coupon.ID, 2)
		require.NoError(t, err)

		_, err = svc.ReceiveCoupon(ctx, coupon.ID, 2)
		assert.ErrorIs(t, err, ErrCouponLimitExceeded)
	})

	t.Run("已领完", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
			c.TotalCount = 1
			c.PerUserLimit = 5
		})

		_, err := svc.ReceiveCoupon(ctx, coupon.ID, 3)
		require.NoError(t, err)

		_, err = svc.ReceiveCoupon(ctx, coupon.ID, 4)
		assert.ErrorIs(t, err, ErrCouponSoldOut)
	})

	t.Run("不限量券", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
			c.TotalCount = 0
			c.PerUserLimit = 10
		})

		for i := 0; i < 3; i++ {
			_, err := svc.ReceiveCoupon(ctx, coupon.ID, 5)
			require.NoError(t, err)
		}
	})

	t.Run("未开始", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
			c.StartTime = time.Now().Add(time.Hour)
		})

		_, err := svc.ReceiveCoupon(ctx, coupon.ID, 6)
		assert.ErrorIs(t, err, ErrCouponNotStarted)
	})

	t.Run("已过期", func(t *testing.T) {
		coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
			c.StartTime = time.Now().Add(-48 * time.Hour)
			c.EndTime = time.Now().Add(-24 * time.Hour)
		})

		_, err := svc.ReceiveCoupon(ctx, coupon.ID, 7)
		assert.ErrorIs(t, err, ErrCouponExpired)
	})

	t.Run("优惠券不存在", func(t *testing.T) {
		_, err := svc.ReceiveCoupon(ctx, 99999, 8)
		assert.ErrorIs(t, err, ErrCouponNotFound)
	})
}

func TestCouponService_CreateCoupon(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := newCouponService(db)
	ctx := context.Background()

	now := time.Now()

	t.Run("创建满减券", func(t *testing.T) {
		coupon, err := svc.CreateCoupon(ctx, &CreateCouponRequest{
			Name: "满200减30",
			Code: "FULL-200-30",
			Type: models.CouponTypeFullReduction,
			Rules: models.JSON{
				"rules": []interface{}{
					map[string]interface{}{"condition_type": "amount", "min_amount": 200.0, "discount_amount": 30.0},
					map[string]interface{}{"condition_type": "amount", "min_amount": 500.0, "discount_amount": 100.0},
				},
			},
			StartTime:  now,
			EndTime:    now.Add(7 * 24 * time.Hour),
			TotalCount: 1000,
		})
		require.NoError(t, err)
		assert.NotZero(t, coupon.ID)
		assert.Equal(t, 1, coupon.PerUserLimit)
	})

	t.Run("阶梯规则为空被拒绝", func(t *testing.T) {
		_, err := svc.CreateCoupon(ctx, &CreateCouponRequest{
			Name:      "空规则券",
			Code:      "EMPTY-RULES",
			Type:      models.CouponTypeFullReduction,
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrCouponRuleInvalid)
	})

	t.Run("重复门槛被拒绝", func(t *testing.T) {
		_, err := svc.CreateCoupon(ctx, &CreateCouponRequest{
			Name: "重复门槛券",
			Code: "DUP-THRESHOLD",
			Type: models.CouponTypeFullReduction,
			Rules: models.JSON{
				"rules": []interface{}{
					map[string]interface{}{"condition_type": "amount", "min_amount": 200.0, "discount_amount": 30.0},
					map[string]interface{}{"condition_type": "amount", "min_amount": 200.0, "discount_amount": 50.0},
				},
			},
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrCouponRuleInvalid)
	})

	t.Run("折扣率越界被拒绝", func(t *testing.T) {
		_, err := svc.CreateCoupon(ctx, &CreateCouponRequest{
			Name: "非法满折券",
			Code: "BAD-DISCOUNT",
			Type: models.CouponTypeFullDiscount,
			Rules: models.JSON{
				"rules": []interface{}{
					map[string]interface{}{"condition_type": "amount", "min_amount": 100.0, "discount_rate": 1.5},
				},
			},
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrCouponRuleInvalid)
	})

	t.Run("普通固定券无需规则", func(t *testing.T) {
		coupon, err := svc.CreateCoupon(ctx, &CreateCouponRequest{
			Name:      "立减10元",
			Code:      "FIXED-10",
			Type:      models.CouponTypeFixed,
			Value:     10,
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
		})
		require.NoError(t, err)
		assert.NotZero(t, coupon.ID)
	})
}

func TestCouponService_GetCouponList(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := newCouponService(db)
	ctx := context.Background()

	coupon := createMarketingTestCoupon(t, db, func(c *models.Coupon) {
		c.PerUserLimit = 1
	})

	resp, err := svc.GetCouponList(ctx, &CouponListRequest{Page: 1, PageSize: 10}, 1)
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Total)
	assert.True(t, resp.List[0].CanReceive)

	_, err = svc.ReceiveCoupon(ctx, coupon.ID, 1)
	require.NoError(t, err)

	resp, err = svc.GetCouponList(ctx, &CouponListRequest{Page: 1, PageSize: 10}, 1)
	require.NoError(t, err)
	assert.False(t, resp.List[0].CanReceive)
	assert.Equal(t, int64(1), resp.List[0].ReceivedByUser)
}

func TestUserCouponService_GetMyCoupons(t *testing.T) {
	db := setupMarketingTestDB(t)
	couponSvc := newCouponService(db)
	svc := NewUserCouponService(repository.NewUserCouponRepository(db))
	ctx := context.Background()

	coupon := createMarketingTestCoupon(t, db)
	uc, err := couponSvc.ReceiveCoupon(ctx, coupon.ID, 1)
	require.NoError(t, err)

	resp, err := svc.GetMyCoupons(ctx, 1, &UserCouponListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, uc.ID, resp.List[0].ID)
	assert.Equal(t, "测试优惠券", resp.List[0].CouponName)
	assert.Equal(t, "未使用", resp.List[0].StatusText)
	assert.True(t, resp.List[0].IsAvailable)

	count, err := svc.CountAvailable(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPromotionService(t *testing.T) {
	db := setupMarketingTestDB(t)
	svc := NewPromotionService(repository.NewPromotionRepository(db))
	ctx := context.Background()

	now := time.Now()

	t.Run("创建满赠活动", func(t *testing.T) {
		promotion, err := svc.CreatePromotion(ctx, &CreatePromotionRequest{
			Name: "买三赠一",
			Type: models.PromotionTypeFullGift,
			Rules: models.JSON{
				"full_gift": []interface{}{
					map[string]interface{}{
						"condition_type": "quantity", "min_quantity": 3.0,
						"gift": map[string]interface{}{"product_id": 9.0, "quantity": 1.0},
					},
				},
			},
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(24 * time.Hour),
		})
		require.NoError(t, err)
		assert.NotZero(t, promotion.ID)
	})

	t.Run("赠品缺失被拒绝", func(t *testing.T) {
		_, err := svc.CreatePromotion(ctx, &CreatePromotionRequest{
			Name: "坏满赠",
			Type: models.PromotionTypeFullGift,
			Rules: models.JSON{
				"full_gift": []interface{}{
					map[string]interface{}{"condition_type": "quantity", "min_quantity": 3.0},
				},
			},
			StartTime: now,
			EndTime:   now.Add(24 * time.Hour),
		})
		assert.ErrorIs(t, err, ErrPromotionRuleInvalid)
	})

	t.Run("生效列表", func(t *testing.T) {
		list, err := svc.GetActivePromotions(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, len(list))
		assert.Equal(t, "买三赠一", list[0].Name)
		assert.Equal(t, "满赠", list[0].TypeText)
		assert.True(t, list[0].IsActive)
	})

	t.Run("活动不存在", func(t *testing.T) {
		_, err := svc.GetPromotionDetail(ctx, 99999)
		assert.ErrorIs(t, err, ErrPromotionNotFound)
	})
}
