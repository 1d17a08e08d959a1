// Package repository 提供数据访问层
package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// CouponRepository 优惠券仓储
type CouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository 创建优惠券仓储
func NewCouponRepository(db *gorm.DB) *CouponRepository {
	return &CouponRepository{db: db}
}

// Create 创建优惠券
func (r *CouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// GetByID 根据 ID 获取优惠券
func (r *CouponRepository) GetByID(ctx context.Context, id int64) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).First(&coupon, id).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 根据券码获取优惠券
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// ListByIDs 按 ID 批量获取优惠券，未知 ID 静默缺失
func (r *CouponRepository) ListByIDs(ctx context.Context, ids []int64) ([]*models.Coupon, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var coupons []*models.Coupon
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&coupons).Error
	return coupons, err
}

// Update 更新优惠券
func (r *CouponRepository) Update(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Save(coupon).Error
}

// UpdateFields 更新指定字段
func (r *CouponRepository) UpdateFields(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).Where("id = ?", id).Updates(fields).Error
}

// Delete 删除优惠券
func (r *CouponRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Coupon{}, id).Error
}

// CouponListParams 优惠券列表查询参数
type CouponListParams struct {
	Offset        int
	Limit         int
	Status        *int8
	Type          string
	Keyword       string
	StartTimeFrom *time.Time
	StartTimeTo   *time.Time
	EndTimeFrom   *time.Time
	EndTimeTo     *time.Time
}

// List 获取优惠券列表
func (r *CouponRepository) List(ctx context.Context, params CouponListParams) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Type != "" {
		query = query.Where("type = ?", params.Type)
	}
	if params.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+params.Keyword+"%")
	}
	if params.StartTimeFrom != nil {
		query = query.Where("start_time >= ?", *params.StartTimeFrom)
	}
	if params.StartTimeTo != nil {
		query = query.Where("start_time <= ?", *params.StartTimeTo)
	}
	if params.EndTimeFrom != nil {
		query = query.Where("end_time >= ?", *params.EndTimeFrom)
	}
	if params.EndTimeTo != nil {
		query = query.Where("end_time <= ?", *params.EndTimeTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(params.Offset).Limit(params.Limit).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// ListActive 获取可领取的有效优惠券列表（用户端）
func (r *CouponRepository) ListActive(ctx context.Context, offset, limit int) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64
	now := time.Now()

	query := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("status = ?", models.CouponStatusActive).
		Where("start_time <= ?", now).
		Where("end_time >= ?", now).
		Where("total_count > issued_count")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// ListAvailableForUser 获取用户可领取的优惠券列表（排除已达领取上限的）
func (r *CouponRepository) ListAvailableForUser(ctx context.Context, userID int64, offset, limit int) ([]*models.Coupon, int64, error) {
	var coupons []*models.Coupon
	var total int64
	now := time.Now()

	subQuery := r.db.Model(&models.UserCoupon{}).
		Select("coupon_id, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("coupon_id")

	query := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Joins("LEFT JOIN (?) AS uc ON uc.coupon_id = coupons.id", subQuery).
		Where("coupons.status = ?", models.CouponStatusActive).
		Where("coupons.start_time <= ?", now).
		Where("coupons.end_time >= ?", now).
		Where("coupons.total_count > coupons.issued_count").
		Where("(uc.count IS NULL OR uc.count < coupons.per_user_limit)")

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("coupons.created_at DESC").Offset(offset).Limit(limit).Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}

// IncrementIssuedCount 增加已发放数量。已领完时返回 gorm.ErrRecordNotFound。
func (r *CouponRepository) IncrementIssuedCount(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (total_count = 0 OR issued_count < total_count)", id).
		UpdateColumn("issued_count", gorm.Expr("issued_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementIssuedCount 减少已发放数量（退券）
func (r *CouponRepository) DecrementIssuedCount(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND issued_count > 0", id).
		UpdateColumn("issued_count", gorm.Expr("issued_count - 1")).Error
}

// ConsumeUsage 核销时增加已使用数量。
// 条件更新保证总量上限不被并发突破；已用尽时返回 gorm.ErrRecordNotFound，
// 由订单服务转换为冲突错误并重新计算价格。
func (r *CouponRepository) ConsumeUsage(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND (total_count = 0 OR used_count < total_count)", id).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReleaseUsage 释放已使用数量（取消订单/退款）
func (r *CouponRepository) ReleaseUsage(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Model(&models.Coupon{}).
		Where("id = ? AND used_count > 0", id).
		UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error
}

// GetUserReceivedCount 获取用户已领取该优惠券的数量
func (r *CouponRepository) GetUserReceivedCount(ctx context.Context, userID, couponID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.UserCoupon{}).
		Where("user_id = ? AND coupon_id = ?", userID, couponID).
		Count(&count).Error
	return count, err
}
