package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// PointsLogRepository 积分流水仓储
type PointsLogRepository struct {
	db *gorm.DB
}

// NewPointsLogRepository 创建积分流水仓储
func NewPointsLogRepository(db *gorm.DB) *PointsLogRepository {
	return &PointsLogRepository{db: db}
}

// Create 创建积分流水
func (r *PointsLogRepository) Create(ctx context.Context, log *models.PointsLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// GetByID 根据 ID 获取积分流水
func (r *PointsLogRepository) GetByID(ctx context.Context, id int64) (*models.PointsLog, error) {
	var log models.PointsLog
	err := r.db.WithContext(ctx).First(&log, id).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

// ListByUserID 获取用户的积分流水
func (r *PointsLogRepository) ListByUserID(ctx context.Context, userID int64, offset, limit int) ([]*models.PointsLog, int64, error) {
	var logs []*models.PointsLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PointsLog{}).Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListByUserIDAndType 按类型获取用户的积分流水
func (r *PointsLogRepository) ListByUserIDAndType(ctx context.Context, userID int64, logType string, offset, limit int) ([]*models.PointsLog, int64, error) {
	var logs []*models.PointsLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.PointsLog{}).
		Where("user_id = ? AND type = ?", userID, logType)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Order("created_at DESC").
		Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListByOrderNo 根据订单号获取积分流水
func (r *PointsLogRepository) ListByOrderNo(ctx context.Context, orderNo string) ([]*models.PointsLog, error) {
	var logs []*models.PointsLog
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).Find(&logs).Error
	return logs, err
}
