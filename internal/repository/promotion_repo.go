package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// PromotionRepository 促销活动仓储
type PromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销活动仓储
func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// Create 创建促销活动
func (r *PromotionRepository) Create(ctx context.Context, promotion *models.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

// GetByID 根据 ID 获取促销活动
func (r *PromotionRepository) GetByID(ctx context.Context, id int64) (*models.Promotion, error) {
	var promotion models.Promotion
	err := r.db.WithContext(ctx).First(&promotion, id).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

// ListByIDs 批量获取促销活动
func (r *PromotionRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Promotion, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var promotions []*models.Promotion
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&promotions).Error
	return promotions, err
}

// Update 更新促销活动
func (r *PromotionRepository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// UpdateStatus 更新活动状态
func (r *PromotionRepository) UpdateStatus(ctx context.Context, id int64, status int8) error {
	return r.db.WithContext(ctx).Model(&models.Promotion{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete 删除促销活动
func (r *PromotionRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Promotion{}, id).Error
}

// PromotionListParams 促销活动列表查询参数
type PromotionListParams struct {
	Offset int
	Limit  int
	Type   string
	Status *int8
}

// List 获取促销活动列表
func (r *PromotionRepository) List(ctx context.Context, params PromotionListParams) ([]*models.Promotion, int64, error) {
	var promotions []*models.Promotion
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Promotion{})

	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Offset(params.Offset).Limit(params.Limit).Find(&promotions).Error; err != nil {
		return nil, 0, err
	}

	return promotions, total, nil
}

// ListActive 获取当前生效的促销活动
func (r *PromotionRepository) ListActive(ctx context.Context) ([]*models.Promotion, error) {
	var promotions []*models.Promotion
	now := time.Now()
	err := r.db.WithContext(ctx).
		Where("status = ?", models.PromotionStatusActive).
		Where("start_time <= ? AND end_time > ?", now, now).
		Order("created_at DESC").
		Find(&promotions).Error
	return promotions, err
}

// ListActiveByType 获取当前生效的指定类型促销活动
func (r *PromotionRepository) ListActiveByType(ctx context.Context, promotionType string) ([]*models.Promotion, error) {
	var promotions []*models.Promotion
	now := time.Now()
	err := r.db.WithContext(ctx).
		Where("type = ? AND status = ?", promotionType, models.PromotionStatusActive).
		Where("start_time <= ? AND end_time > ?", now, now).
		Order("created_at DESC").
		Find(&promotions).Error
	return promotions, err
}

// Count 统计促销活动总数
func (r *PromotionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Promotion{}).Count(&count).Error
	return count, err
}
