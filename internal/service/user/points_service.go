package user

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// PointsService 积分服务。
// 积分变动统一走本服务：条件更新余额 + 写流水，消费获取后顺带检查等级升降。
type PointsService struct {
	db              *gorm.DB
	userRepo        *repository.UserRepository
	memberLevelRepo *repository.MemberLevelRepository
	pointsLogRepo   *repository.PointsLogRepository
}

// NewPointsService 创建积分服务
func NewPointsService(
	db *gorm.DB,
	userRepo *repository.UserRepository,
	memberLevelRepo *repository.MemberLevelRepository,
	pointsLogRepo *repository.PointsLogRepository,
) *PointsService {
	return &PointsService{
		db:              db,
		userRepo:        userRepo,
		memberLevelRepo: memberLevelRepo,
		pointsLogRepo:   pointsLogRepo,
	}
}

// PointsRecord 积分流水记录
type PointsRecord struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	TypeText    string    `json:"type_text"`
	Points      int       `json:"points"`
	Balance     int       `json:"balance"`
	OrderNo     *string   `json:"order_no,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// PointsInfo 积分概览
type PointsInfo struct {
	Points            int     `json:"points"`
	MemberLevelID     int64   `json:"member_level_id"`
	MemberLevelName   string  `json:"member_level_name"`
	Discount          float64 `json:"discount"`
	NextLevelName     *string `json:"next_level_name,omitempty"`
	NextLevelPoints   *int    `json:"next_level_points,omitempty"`
	PointsToNextLevel *int    `json:"points_to_next_level,omitempty"`
}

// GetPointsInfo 获取积分概览，附带升级进度
func (s *PointsService) GetPointsInfo(ctx context.Context, userID int64) (*PointsInfo, error) {
	user, err := s.userRepo.GetByIDWithMemberLevel(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	info := &PointsInfo{
		Points:          user.Points,
		MemberLevelID:   user.MemberLevelID,
		MemberLevelName: "普通会员",
		Discount:        1.0,
	}

	if user.MemberLevel != nil {
		info.MemberLevelName = user.MemberLevel.Name
		info.Discount = user.MemberLevel.Discount

		nextLevel, err := s.memberLevelRepo.GetNextLevel(ctx, user.MemberLevel.Level)
		if err == nil && nextLevel != nil {
			info.NextLevelName = &nextLevel.Name
			info.NextLevelPoints = &nextLevel.MinPoints
			if toNext := nextLevel.MinPoints - user.Points; toNext > 0 {
				info.PointsToNextLevel = &toNext
			}
		}
	}

	return info, nil
}

// AddPoints 增加积分并写流水
func (s *PointsService) AddPoints(ctx context.Context, userID int64, points int, logType, description string, orderNo *string) error {
	if points <= 0 {
		return errors.ErrInvalidParams.WithMessage("积分必须大于0")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.AddPointsTx(ctx, tx, userID, points, logType, description, orderNo)
	})
}

// AddPointsTx 在已有事务中增加积分
func (s *PointsService) AddPointsTx(ctx context.Context, tx *gorm.DB, userID int64, points int, logType, description string, orderNo *string) error {
	if points <= 0 {
		return errors.ErrInvalidParams.WithMessage("积分必须大于0")
	}

	if err := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", points)).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	if err := s.writeLogTx(ctx, tx, userID, points, logType, description, orderNo); err != nil {
		return err
	}

	return s.syncMemberLevelTx(ctx, tx, userID)
}

// DeductPoints 扣减积分并写流水，余额不足返回业务错误
func (s *PointsService) DeductPoints(ctx context.Context, userID int64, points int, logType, description string, orderNo *string) error {
	if points <= 0 {
		return errors.ErrInvalidParams.WithMessage("积分必须大于0")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.DeductPointsTx(ctx, tx, userID, points, logType, description, orderNo)
	})
}

// DeductPointsTx 在已有事务中扣减积分
func (s *PointsService) DeductPointsTx(ctx context.Context, tx *gorm.DB, userID int64, points int, logType, description string, orderNo *string) error {
	if points <= 0 {
		return errors.ErrInvalidParams.WithMessage("积分必须大于0")
	}

	result := tx.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, points).
		UpdateColumn("points", gorm.Expr("points - ?", points))
	if result.Error != nil {
		return errors.ErrDatabaseError.WithError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrPointsInsufficient
	}

	return s.writeLogTx(ctx, tx, userID, -points, logType, description, orderNo)
}

// writeLogTx 写积分流水，余额快照取变动后的值
func (s *PointsService) writeLogTx(ctx context.Context, tx *gorm.DB, userID int64, points int, logType, description string, orderNo *string) error {
	var user models.User
	if err := tx.WithContext(ctx).Select("points").First(&user, userID).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	log := &models.PointsLog{
		UserID:      userID,
		Type:        logType,
		Points:      points,
		Balance:     user.Points,
		OrderNo:     orderNo,
		Description: description,
	}
	if err := tx.WithContext(ctx).Create(log).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// syncMemberLevelTx 按当前积分对齐会员等级
func (s *PointsService) syncMemberLevelTx(ctx context.Context, tx *gorm.DB, userID int64) error {
	var user models.User
	if err := tx.WithContext(ctx).Select("id", "points", "member_level_id").First(&user, userID).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	var target models.MemberLevel
	err := tx.WithContext(ctx).
		Where("min_points <= ?", user.Points).
		Order("min_points DESC").
		First(&target).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if target.ID != user.MemberLevelID {
		if err := tx.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).
			Update("member_level_id", target.ID).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
	}
	return nil
}

// GetPointsHistory 获取积分流水，按时间倒序
func (s *PointsService) GetPointsHistory(ctx context.Context, userID int64, logType string, page, pageSize int) ([]*PointsRecord, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	var logs []*models.PointsLog
	var total int64
	var err error

	if logType != "" {
		logs, total, err = s.pointsLogRepo.ListByUserIDAndType(ctx, userID, logType, offset, pageSize)
	} else {
		logs, total, err = s.pointsLogRepo.ListByUserID(ctx, userID, offset, pageSize)
	}
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	records := make([]*PointsRecord, len(logs))
	for i, log := range logs {
		records[i] = &PointsRecord{
			ID:          log.ID,
			Type:        log.Type,
			TypeText:    pointsTypeText(log.Type),
			Points:      log.Points,
			Balance:     log.Balance,
			OrderNo:     log.OrderNo,
			Description: log.Description,
			CreatedAt:   log.CreatedAt,
		}
	}
	return records, total, nil
}

// pointsTypeText 积分流水类型文案
func pointsTypeText(logType string) string {
	switch logType {
	case models.PointsLogTypeConsume:
		return "消费获取"
	case models.PointsLogTypeDeduct:
		return "下单抵扣"
	case models.PointsLogTypeRefund:
		return "退款返还"
	case models.PointsLogTypeActivity:
		return "活动赠送"
	case models.PointsLogTypeAdmin:
		return "管理员调整"
	default:
		return "其他"
	}
}

// CalculatePointsByAmount 按实付金额计算返还积分，每满1元得1分
func (s *PointsService) CalculatePointsByAmount(amount float64) int {
	if amount <= 0 {
		return 0
	}
	return int(amount)
}

// AddConsumePointsTx 订单完成后在事务中返还消费积分
func (s *PointsService) AddConsumePointsTx(ctx context.Context, tx *gorm.DB, userID int64, amount float64, orderNo string) error {
	points := s.CalculatePointsByAmount(amount)
	if points <= 0 {
		return nil
	}
	description := fmt.Sprintf("消费%.2f元获得积分", amount)
	return s.AddPointsTx(ctx, tx, userID, points, models.PointsLogTypeConsume, description, &orderNo)
}
