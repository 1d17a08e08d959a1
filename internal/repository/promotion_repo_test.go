// Package repository 促销活动仓储单元测试
package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

func setupPromotionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Promotion{})
	require.NoError(t, err)

	return db
}

func newTestPromotion(name, promotionType string) *models.Promotion {
	now := time.Now()
	return &models.Promotion{
		Name:      name,
		Type:      promotionType,
		StartTime: now.Add(-1 * time.Hour),
		EndTime:   now.Add(24 * time.Hour),
		Status:    models.PromotionStatusActive,
	}
}

func TestPromotionRepository_CreateAndGet(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	promotion := newTestPromotion("满减活动", models.PromotionTypeFullReduction)
	promotion.Rules = models.JSON{
		"full_reduction": []interface{}{
			map[string]interface{}{"threshold": 200.0, "discount_amount": 30.0},
		},
	}

	err := repo.Create(ctx, promotion)
	require.NoError(t, err)
	assert.NotZero(t, promotion.ID)

	found, err := repo.GetByID(ctx, promotion.ID)
	require.NoError(t, err)
	assert.Equal(t, "满减活动", found.Name)
	assert.Contains(t, found.Rules, "full_reduction")
}

func TestPromotionRepository_ListByIDs(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	p1 := newTestPromotion("活动1", models.PromotionTypeFullReduction)
	p2 := newTestPromotion("活动2", models.PromotionTypeFullGift)
	db.Create(p1)
	db.Create(p2)

	list, err := repo.ListByIDs(ctx, []int64{p1.ID, p2.ID, 9999})
	require.NoError(t, err)
	assert.Equal(t, 2, len(list))

	list, err = repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPromotionRepository_ListActive(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	now := time.Now()

	db.Create(newTestPromotion("进行中", models.PromotionTypeFullReduction))

	upcoming := newTestPromotion("未开始", models.PromotionTypeFullDiscount)
	upcoming.StartTime = now.Add(1 * time.Hour)
	upcoming.EndTime = now.Add(3 * time.Hour)
	db.Create(upcoming)

	ended := newTestPromotion("已结束", models.PromotionTypeFullGift)
	ended.StartTime = now.Add(-48 * time.Hour)
	ended.EndTime = now.Add(-24 * time.Hour)
	db.Create(ended)

	// GORM 创建时会忽略零值字段，需显式更新为停用
	disabled := newTestPromotion("已停用", models.PromotionTypeFullReduction)
	db.Create(disabled)
	db.Model(disabled).Update("status", models.PromotionStatusDisabled)

	list, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, len(list))
	assert.Equal(t, "进行中", list[0].Name)
}

func TestPromotionRepository_ListActiveByType(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	db.Create(newTestPromotion("满减", models.PromotionTypeFullReduction))
	db.Create(newTestPromotion("满赠", models.PromotionTypeFullGift))

	list, err := repo.ListActiveByType(ctx, models.PromotionTypeFullGift)
	require.NoError(t, err)
	require.Equal(t, 1, len(list))
	assert.Equal(t, "满赠", list[0].Name)
}

func TestPromotionRepository_List(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	db.Create(newTestPromotion("活动1", models.PromotionTypeFullReduction))

	// GORM 创建时会忽略零值字段，需显式更新为停用
	disabled := newTestPromotion("活动2", models.PromotionTypeFullGift)
	db.Create(disabled)
	db.Model(disabled).Update("status", models.PromotionStatusDisabled)

	list, total, err := repo.List(ctx, PromotionListParams{Offset: 0, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 2, len(list))

	status := int8(models.PromotionStatusActive)
	list, total, err = repo.List(ctx, PromotionListParams{Offset: 0, Limit: 10, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, 1, len(list))

	list, total, err = repo.List(ctx, PromotionListParams{Offset: 0, Limit: 10, Type: models.PromotionTypeFullGift})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Equal(t, 1, len(list))
	assert.Equal(t, "活动2", list[0].Name)
}

func TestPromotionRepository_UpdateStatus(t *testing.T) {
	db := setupPromotionTestDB(t)
	repo := NewPromotionRepository(db)
	ctx := context.Background()

	promotion := newTestPromotion("状态活动", models.PromotionTypeFullReduction)
	db.Create(promotion)
	db.Model(promotion).Update("status", models.PromotionStatusDisabled)

	require.NoError(t, repo.UpdateStatus(ctx, promotion.ID, models.PromotionStatusActive))

	var found models.Promotion
	db.First(&found, promotion.ID)
	assert.Equal(t, int8(models.PromotionStatusActive), found.Status)
}
