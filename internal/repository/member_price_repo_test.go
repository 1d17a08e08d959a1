// Package repository 会员价仓储单元测试
package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

func setupMemberPriceTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.MemberPrice{})
	require.NoError(t, err)

	return db
}

func TestMemberPriceRepository_GetMemberPrice(t *testing.T) {
	db := setupMemberPriceTestDB(t)
	repo := NewMemberPriceRepository(db)
	ctx := context.Background()

	// 商品 1 对等级 2 配置了通用行和 SKU 专属行
	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 2, SkuID: models.MemberPriceAnySku, Price: 88, Status: models.MemberPriceStatusActive})
	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 2, SkuID: 10, Price: 85, Status: models.MemberPriceStatusActive})

	t.Run("SKU专属行", func(t *testing.T) {
		price, err := repo.GetMemberPrice(ctx, 1, 2, 10)
		require.NoError(t, err)
		require.NotNil(t, price)
		assert.InDelta(t, 85, price.Price, 1e-9)
	})

	t.Run("通用行", func(t *testing.T) {
		price, err := repo.GetMemberPrice(ctx, 1, 2, models.MemberPriceAnySku)
		require.NoError(t, err)
		require.NotNil(t, price)
		assert.InDelta(t, 88, price.Price, 1e-9)
	})

	t.Run("未配置时返回nil而非错误", func(t *testing.T) {
		price, err := repo.GetMemberPrice(ctx, 1, 3, models.MemberPriceAnySku)
		require.NoError(t, err)
		assert.Nil(t, price)
	})
}

func TestMemberPriceRepository_ListByProductID(t *testing.T) {
	db := setupMemberPriceTestDB(t)
	repo := NewMemberPriceRepository(db)
	ctx := context.Background()

	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 3, SkuID: 0, Price: 80, Status: models.MemberPriceStatusActive})
	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 2, SkuID: 0, Price: 90, Status: models.MemberPriceStatusActive})
	db.Create(&models.MemberPrice{ProductID: 2, MemberLevelID: 2, SkuID: 0, Price: 50, Status: models.MemberPriceStatusActive})

	list, err := repo.ListByProductID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 2, len(list))
	// 按会员等级升序
	assert.Equal(t, int64(2), list[0].MemberLevelID)
	assert.Equal(t, int64(3), list[1].MemberLevelID)
}

func TestMemberPriceRepository_DeleteByProductID(t *testing.T) {
	db := setupMemberPriceTestDB(t)
	repo := NewMemberPriceRepository(db)
	ctx := context.Background()

	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 2, SkuID: 0, Price: 90, Status: models.MemberPriceStatusActive})
	db.Create(&models.MemberPrice{ProductID: 1, MemberLevelID: 3, SkuID: 0, Price: 80, Status: models.MemberPriceStatusActive})

	require.NoError(t, repo.DeleteByProductID(ctx, 1))

	var count int64
	db.Model(&models.MemberPrice{}).Where("product_id = ?", 1).Count(&count)
	assert.Equal(t, int64(0), count)
}
