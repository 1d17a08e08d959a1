// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// ProductRepository 商品仓储
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create 创建商品
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID 根据 ID 获取商品
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDWithSkus 根据 ID 获取商品（包含启用的 SKU）
func (r *ProductRepository) GetByIDWithSkus(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Skus", func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", models.SkuStatusActive).Order("id ASC")
	}).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByIDFull 根据 ID 获取商品（包含分类与 SKU）
func (r *ProductRepository) GetByIDFull(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Skus", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.SkuStatusActive).Order("id ASC")
		}).
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProduct 供定价引擎使用的查询，商品不存在时返回 (nil, nil)
func (r *ProductRepository) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// GetSku 供定价引擎使用的 SKU 查询，不存在时返回 (nil, nil)
func (r *ProductRepository) GetSku(ctx context.Context, id int64) (*models.ProductSku, error) {
	var sku models.ProductSku
	err := r.db.WithContext(ctx).First(&sku, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sku, nil
}

// GetSkuByID 根据 ID 获取 SKU
func (r *ProductRepository) GetSkuByID(ctx context.Context, id int64) (*models.ProductSku, error) {
	var sku models.ProductSku
	err := r.db.WithContext(ctx).First(&sku, id).Error
	if err != nil {
		return nil, err
	}
	return &sku, nil
}

// ListSkusByProductID 获取商品的 SKU 列表
func (r *ProductRepository) ListSkusByProductID(ctx context.Context, productID int64) ([]*models.ProductSku, error) {
	var skus []*models.ProductSku
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id ASC").
		Find(&skus).Error
	return skus, err
}

// Update 更新商品
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// UpdateFields 更新指定字段
func (r *ProductRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields).Error
}

// UpdateStatus 更新商品状态
func (r *ProductRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Update("status", status).Error
}

// Delete 删除商品
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

// ProductListParams 商品列表查询参数
type ProductListParams struct {
	Offset     int
	Limit      int
	CategoryID int64
	Kind       string
	Status     *int8
	Keyword    string
	IsHot      *bool
	IsNew      *bool
	OrderBy    string
}

// List 获取商品列表
func (r *ProductRepository) List(ctx context.Context, params ProductListParams) ([]*models.Product, int64, error) {
	var products []*models.Product
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Product{})

	if params.CategoryID > 0 {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+params.Keyword+"%")
	}
	if params.IsHot != nil {
		query = query.Where("is_hot = ?", *params.IsHot)
	}
	if params.IsNew != nil {
		query = query.Where("is_new = ?", *params.IsNew)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := params.OrderBy
	if orderBy == "" {
		orderBy = "sort DESC, created_at DESC"
	}
	if err := query.Order(orderBy).Offset(params.Offset).Limit(params.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListOnSale 获取上架商品列表（用户端）
func (r *ProductRepository) ListOnSale(ctx context.Context, categoryID int64, offset, limit int) ([]*models.Product, int64, error) {
	status := int8(models.ProductStatusOnSale)
	return r.List(ctx, ProductListParams{
		Offset:     offset,
		Limit:      limit,
		CategoryID: categoryID,
		Status:     &status,
	})
}

// DeductStock 扣减商品库存。库存不足时返回 gorm.ErrRecordNotFound。
func (r *ProductRepository) DeductStock(ctx context.Context, productID int64, quantity int) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND total_stock >= ?", productID, quantity).
		UpdateColumn("total_stock", gorm.Expr("total_stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RestoreStock 恢复商品库存（取消订单/退款）
func (r *ProductRepository) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("total_stock", gorm.Expr("total_stock + ?", quantity)).Error
}

// DeductSkuStock 扣减 SKU 库存。库存不足时返回 gorm.ErrRecordNotFound。
func (r *ProductRepository) DeductSkuStock(ctx context.Context, skuID int64, quantity int) error {
	result := r.db.WithContext(ctx).Model(&models.ProductSku{}).
		Where("id = ? AND stock >= ?", skuID, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RestoreSkuStock 恢复 SKU 库存
func (r *ProductRepository) RestoreSkuStock(ctx context.Context, skuID int64, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.ProductSku{}).
		Where("id = ?", skuID).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}

// IncrementSales 增加销量
func (r *ProductRepository) IncrementSales(ctx context.Context, productID int64, quantity int) error {
	return r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("total_sales", gorm.Expr("total_sales + ?", quantity)).Error
}
