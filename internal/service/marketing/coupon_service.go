// Package marketing 提供营销相关服务
package marketing

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// CouponService 优惠券服务
type CouponService struct {
	db             *gorm.DB
	couponRepo     *repository.CouponRepository
	userCouponRepo *repository.UserCouponRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(db *gorm.DB, couponRepo *repository.CouponRepository, userCouponRepo *repository.UserCouponRepository) *CouponService {
	return &CouponService{
		db:             db,
		couponRepo:     couponRepo,
		userCouponRepo: userCouponRepo,
	}
}

// CouponListRequest 优惠券列表请求
type CouponListRequest struct {
	Page     int
	PageSize int
}

// CouponListResponse 优惠券列表响应
type CouponListResponse struct {
	List  []*CouponItem `json:"list"`
	Total int64         `json:"total"`
}

// CouponItem 优惠券项
type CouponItem struct {
	ID             int64       `json:"id"`
	Name           string      `json:"name"`
	Code           string      `json:"code"`
	Type           string      `json:"type"`
	Value          float64     `json:"value"`
	MinAmount      float64     `json:"min_amount"`
	MaxDiscount    *float64    `json:"max_discount,omitempty"`
	Scope          models.JSON `json:"scope,omitempty"`
	Rules          models.JSON `json:"rules,omitempty"`
	StartTime      time.Time   `json:"start_time"`
	EndTime        time.Time   `json:"end_time"`
	TotalCount     int         `json:"total_count"`
	IssuedCount    int         `json:"issued_count"`
	RemainCount    int         `json:"remain_count"`
	PerUserLimit   int         `json:"per_user_limit"`
	Description    *string     `json:"description,omitempty"`
	Status         int8        `json:"status"`
	CanReceive     bool        `json:"can_receive"`
	ReceivedByUser int64       `json:"received_by_user"` // 当前用户已领取数量
}

func (s *CouponService) toCouponItem(ctx context.Context, c *models.Coupon, userID int64) *CouponItem {
	var receivedCount int64
	if userID > 0 {
		receivedCount, _ = s.userCouponRepo.CountByUserIDAndCouponID(ctx, userID, c.ID)
	}

	// total_count 为 0 表示不限量
	soldOut := c.TotalCount > 0 && c.IssuedCount >= c.TotalCount
	remain := 0
	if c.TotalCount > 0 {
		remain = c.TotalCount - c.IssuedCount
	}

	now := time.Now()
	canReceive := c.Status == models.CouponStatusActive &&
		!now.Before(c.StartTime) && !now.After(c.EndTime) &&
		!soldOut &&
		receivedCount < int64(c.PerUserLimit)

	return &CouponItem{
		ID:             c.ID,
		Name:           c.Name,
		Code:           c.Code,
		Type:           c.Type,
		Value:          c.Value,
		MinAmount:      c.MinAmount,
		MaxDiscount:    c.MaxDiscount,
		Scope:          c.Scope,
		Rules:          c.Rules,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		TotalCount:     c.TotalCount,
		IssuedCount:    c.IssuedCount,
		RemainCount:    remain,
		PerUserLimit:   c.PerUserLimit,
		Description:    c.Description,
		Status:         c.Status,
		CanReceive:     canReceive,
		ReceivedByUser: receivedCount,
	}
}

// GetCouponList 获取可领取的优惠券列表（用户端）
func (s *CouponService) GetCouponList(ctx context.Context, req *CouponListRequest, userID int64) (*CouponListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	coupons, total, err := s.couponRepo.ListActive(ctx, offset, req.PageSize)
	if err != nil {
		return nil, err
	}

	list := make([]*CouponItem, 0, len(coupons))
	for _, c := range coupons {
		list = append(list, s.toCouponItem(ctx, c, userID))
	}

	return &CouponListResponse{
		List:  list,
		Total: total,
	}, nil
}

// GetCouponDetail 获取优惠券详情
func (s *CouponService) GetCouponDetail(ctx context.Context, couponID, userID int64) (*CouponItem, error) {
	coupon, err := s.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return s.toCouponItem(ctx, coupon, userID), nil
}

// ReceiveCoupon 领取优惠券。
// 发放计数在事务内条件更新，保证总量上限不被并发突破。
func (s *CouponService) ReceiveCoupon(ctx context.Context, couponID, userID int64) (*models.UserCoupon, error) {
	var userCoupon *models.UserCoupon

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var coupon models.Coupon
		if err := tx.First(&coupon, couponID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrCouponNotFound
			}
			return err
		}

		now := time.Now()
		if coupon.Status != models.CouponStatusActive {
			return ErrCouponNotActive
		}
		if now.Before(coupon.StartTime) {
			return ErrCouponNotStarted
		}
		if now.After(coupon.EndTime) {
			return ErrCouponExpired
		}
		if coupon.TotalCount > 0 && coupon.IssuedCount >= coupon.TotalCount {
			return ErrCouponSoldOut
		}

		var receivedCount int64
		if err := tx.Model(&models.UserCoupon{}).
			Where("user_id = ? AND coupon_id = ?", userID, couponID).
			Count(&receivedCount).Error; err != nil {
			return err
		}
		if receivedCount >= int64(coupon.PerUserLimit) {
			return ErrCouponLimitExceeded
		}

		userCoupon = &models.UserCoupon{
			UserID:     userID,
			CouponID:   couponID,
			Status:     models.UserCouponStatusUnused,
			ExpiredAt:  coupon.EndTime,
			ReceivedAt: now,
		}
		if err := tx.Create(userCoupon).Error; err != nil {
			return err
		}

		// 条件更新发放计数，超发时回滚整个事务
		result := tx.Model(&models.Coupon{}).
			Where("id = ? AND (total_count = 0 OR issued_count < total_count)", couponID).
			UpdateColumn("issued_count", gorm.Expr("issued_count + 1"))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrCouponSoldOut
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return userCoupon, nil
}

// CreateCouponRequest 创建优惠券请求（管理端）
type CreateCouponRequest struct {
	Name         string      `json:"name" binding:"required"`
	Code         string      `json:"code" binding:"required"`
	Type         string      `json:"type" binding:"required"`
	Value        float64     `json:"value"`
	MinAmount    float64     `json:"min_amount"`
	MaxDiscount  *float64    `json:"max_discount,omitempty"`
	Scope        models.JSON `json:"scope,omitempty"`
	Rules        models.JSON `json:"rules,omitempty"`
	StartTime    time.Time   `json:"start_time" binding:"required"`
	EndTime      time.Time   `json:"end_time" binding:"required"`
	TotalCount   int         `json:"total_count"`
	PerUserLimit int         `json:"per_user_limit"`
	Description  *string     `json:"description,omitempty"`
}

// CreateCoupon 创建优惠券。
// 阶梯类优惠在保存时严格校验规则，拒绝无法解释的配置。
func (s *CouponService) CreateCoupon(ctx context.Context, req *CreateCouponRequest) (*models.Coupon, error) {
	coupon := &models.Coupon{
		Name:         req.Name,
		Code:         req.Code,
		Type:         req.Type,
		Value:        req.Value,
		MinAmount:    req.MinAmount,
		MaxDiscount:  req.MaxDiscount,
		Scope:        req.Scope,
		Rules:        req.Rules,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TotalCount:   req.TotalCount,
		PerUserLimit: req.PerUserLimit,
		Description:  req.Description,
		Status:       models.CouponStatusActive,
	}
	if coupon.PerUserLimit <= 0 {
		coupon.PerUserLimit = 1
	}

	if err := validateCouponRules(coupon); err != nil {
		return nil, err
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// validateCouponRules 保存前校验阶梯规则配置
func validateCouponRules(c *models.Coupon) error {
	rs, err := pricing.NewRuleSetFromCoupon(c)
	if err != nil {
		return ErrCouponRuleInvalid
	}
	if rs.HasTierRules() {
		if err := pricing.ValidateTierRules(c.Type, rs.Rules); err != nil {
			return ErrCouponRuleInvalid
		}
	}
	return nil
}

// UpdateCouponStatus 启用/停用优惠券
func (s *CouponService) UpdateCouponStatus(ctx context.Context, couponID int64, status int8) error {
	_, err := s.couponRepo.GetByID(ctx, couponID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrCouponNotFound
		}
		return err
	}
	return s.couponRepo.UpdateFields(ctx, couponID, map[string]interface{}{"status": status})
}
