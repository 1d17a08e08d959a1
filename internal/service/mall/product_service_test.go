// Package mall 商品服务单元测试
package mall

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/cache"
	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

func newProductTestService(t *testing.T, db *gorm.DB, redisClient *redis.Client) *ProductService {
	t.Helper()
	return NewProductService(
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		redisClient,
		zap.NewNop(),
	)
}

func newProductTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})
	return s, client
}

func TestProductService_GetProductDetail(t *testing.T) {
	ctx := context.Background()

	t.Run("无缓存时查库", func(t *testing.T) {
		db := setupMallTestDB(t)
		svc := newProductTestService(t, db, nil)
		product := createOrderTestProduct(t, db, 100, 10)

		info, err := svc.GetProductDetail(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, product.ID, info.ID)
		assert.Equal(t, "测试商品", info.Name)
		assert.InDelta(t, 100.0, info.Price, 0.001)
	})

	t.Run("命中缓存不查库", func(t *testing.T) {
		db := setupMallTestDB(t)
		s, client := newProductTestRedis(t)
		svc := newProductTestService(t, db, client)
		product := createOrderTestProduct(t, db, 100, 10)

		// 第一次查询写入缓存
		_, err := svc.GetProductDetail(ctx, product.ID)
		require.NoError(t, err)
		cacheKey := fmt.Sprintf("%s%d", cache.KeyPrefixProduct, product.ID)
		assert.True(t, s.Exists(cacheKey))

		// 改库不改缓存，读到的仍是缓存值
		require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("name", "改名商品").Error)
		info, err := svc.GetProductDetail(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "测试商品", info.Name)

		// 失效缓存后读到新值
		svc.InvalidateProductCache(ctx, product.ID)
		assert.False(t, s.Exists(cacheKey))
		info, err = svc.GetProductDetail(ctx, product.ID)
		require.NoError(t, err)
		assert.Equal(t, "改名商品", info.Name)
	})

	t.Run("下架商品不可见", func(t *testing.T) {
		db := setupMallTestDB(t)
		svc := newProductTestService(t, db, nil)
		product := createOrderTestProduct(t, db, 100, 10, func(p *models.Product) {
			p.Status = models.ProductStatusOffSale
		})

		_, err := svc.GetProductDetail(ctx, product.ID)
		assert.ErrorIs(t, err, errors.ErrProductOffShelf)
	})

	t.Run("商品不存在", func(t *testing.T) {
		db := setupMallTestDB(t)
		svc := newProductTestService(t, db, nil)

		_, err := svc.GetProductDetail(ctx, 999)
		assert.ErrorIs(t, err, errors.ErrProductNotFound)
	})
}

func TestProductService_GetProductList(t *testing.T) {
	ctx := context.Background()
	db := setupMallTestDB(t)
	svc := newProductTestService(t, db, nil)

	createOrderTestProduct(t, db, 30, 10, func(p *models.Product) {
		p.Name = "便宜货"
		p.TotalSales = 100
	})
	createOrderTestProduct(t, db, 300, 10, func(p *models.Product) {
		p.Name = "贵货"
		p.TotalSales = 5
	})
	// 下架商品不应出现在列表里
	createOrderTestProduct(t, db, 50, 10, func(p *models.Product) {
		p.Name = "下架货"
		p.Status = models.ProductStatusOffSale
	})

	resp, err := svc.GetProductList(ctx, &ProductListRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)
	assert.Len(t, resp.List, 2)

	resp, err = svc.GetProductList(ctx, &ProductListRequest{Page: 1, PageSize: 10, SortBy: "price_asc"})
	require.NoError(t, err)
	require.Len(t, resp.List, 2)
	assert.Equal(t, "便宜货", resp.List[0].Name)

	resp, err = svc.GetProductList(ctx, &ProductListRequest{Page: 1, PageSize: 10, SortBy: "sales_desc"})
	require.NoError(t, err)
	require.Len(t, resp.List, 2)
	assert.Equal(t, "便宜货", resp.List[0].Name)

	resp, err = svc.GetProductList(ctx, &ProductListRequest{Page: 1, PageSize: 10, Keyword: "贵"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
}

func TestProductService_CheckStock(t *testing.T) {
	ctx := context.Background()
	db := setupMallTestDB(t)
	svc := newProductTestService(t, db, nil)
	product := createOrderTestProduct(t, db, 100, 5)
	sku := &models.ProductSku{
		ProductID: product.ID,
		SkuCode:   "CHK-001",
		Name:      "默认规格",
		Price:     100,
		Stock:     2,
		Status:    models.SkuStatusActive,
	}
	require.NoError(t, db.Create(sku).Error)

	assert.NoError(t, svc.CheckStock(ctx, product.ID, 0, 5))
	assert.ErrorIs(t, svc.CheckStock(ctx, product.ID, 0, 6), errors.ErrStockInsufficient)
	assert.NoError(t, svc.CheckStock(ctx, product.ID, sku.ID, 2))
	assert.ErrorIs(t, svc.CheckStock(ctx, product.ID, sku.ID, 3), errors.ErrStockInsufficient)
	assert.ErrorIs(t, svc.CheckStock(ctx, 999, 0, 1), errors.ErrProductNotFound)
	assert.ErrorIs(t, svc.CheckStock(ctx, product.ID, 999, 1), errors.ErrSkuNotFound)
}

func TestProductService_GetCategoryTree(t *testing.T) {
	ctx := context.Background()
	db := setupMallTestDB(t)
	svc := newProductTestService(t, db, nil)

	parent := &models.Category{Name: "饮品", Level: 1, Status: models.CategoryStatusActive}
	require.NoError(t, db.Create(parent).Error)
	child := &models.Category{Name: "咖啡", ParentID: &parent.ID, Level: 2, Status: models.CategoryStatusActive}
	require.NoError(t, db.Create(child).Error)

	tree, err := svc.GetCategoryTree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "饮品", tree[0].Name)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "咖啡", tree[0].Children[0].Name)
}

func TestProductService_GetHotProducts(t *testing.T) {
	ctx := context.Background()
	db := setupMallTestDB(t)
	_, client := newProductTestRedis(t)
	svc := newProductTestService(t, db, client)

	createOrderTestProduct(t, db, 100, 10, func(p *models.Product) {
		p.Name = "爆款"
		p.IsHot = true
	})
	createOrderTestProduct(t, db, 50, 10)

	list, err := svc.GetHotProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "爆款", list[0].Name)

	// 第二次命中缓存，结果一致
	list, err = svc.GetHotProducts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "爆款", list[0].Name)
}
