// Package repository 提供数据访问层
package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// MemberPriceRepository 会员价仓储
type MemberPriceRepository struct {
	db *gorm.DB
}

// NewMemberPriceRepository 创建会员价仓储
func NewMemberPriceRepository(db *gorm.DB) *MemberPriceRepository {
	return &MemberPriceRepository{db: db}
}

// Create 创建会员价
func (r *MemberPriceRepository) Create(ctx context.Context, price *models.MemberPrice) error {
	return r.db.WithContext(ctx).Create(price).Error
}

// Update 更新会员价
func (r *MemberPriceRepository) Update(ctx context.Context, price *models.MemberPrice) error {
	return r.db.WithContext(ctx).Save(price).Error
}

// Delete 删除会员价
func (r *MemberPriceRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.MemberPrice{}, id).Error
}

// GetMemberPrice 精确查找会员价（sku_id=0 表示任意 SKU 行）。
// 未配置时返回 (nil, nil)，定价引擎据此回退。
func (r *MemberPriceRepository) GetMemberPrice(ctx context.Context, productID, memberLevelID, skuID int64) (*models.MemberPrice, error) {
	var price models.MemberPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND member_level_id = ? AND sku_id = ?", productID, memberLevelID, skuID).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}

// ListByProductID 获取商品的全部会员价配置
func (r *MemberPriceRepository) ListByProductID(ctx context.Context, productID int64) ([]*models.MemberPrice, error) {
	var prices []*models.MemberPrice
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("member_level_id ASC, sku_id ASC").
		Find(&prices).Error
	return prices, err
}

// DeleteByProductID 删除商品的全部会员价配置
func (r *MemberPriceRepository) DeleteByProductID(ctx context.Context, productID int64) error {
	return r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&models.MemberPrice{}).Error
}
