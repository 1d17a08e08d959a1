// Package marketing 提供营销相关服务
package marketing

import (
	"context"
	"time"

	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// UserCouponService 用户优惠券服务
type UserCouponService struct {
	userCouponRepo *repository.UserCouponRepository
}

// NewUserCouponService 创建用户优惠券服务
func NewUserCouponService(userCouponRepo *repository.UserCouponRepository) *UserCouponService {
	return &UserCouponService{
		userCouponRepo: userCouponRepo,
	}
}

// UserCouponListRequest 用户优惠券列表请求
type UserCouponListRequest struct {
	Page     int
	PageSize int
	Status   *int8 // nil: 全部, 0: 未使用, 1: 已使用, 2: 已过期
}

// UserCouponListResponse 用户优惠券列表响应
type UserCouponListResponse struct {
	List  []*UserCouponItem `json:"list"`
	Total int64             `json:"total"`
}

// UserCouponItem 用户优惠券项
type UserCouponItem struct {
	ID          int64       `json:"id"`
	CouponID    int64       `json:"coupon_id"`
	CouponName  string      `json:"coupon_name"`
	CouponType  string      `json:"coupon_type"`
	Value       float64     `json:"value"`
	MinAmount   float64     `json:"min_amount"`
	MaxDiscount *float64    `json:"max_discount,omitempty"`
	Rules       models.JSON `json:"rules,omitempty"`
	Description *string     `json:"description,omitempty"`
	Status      int8        `json:"status"`
	StatusText  string      `json:"status_text"`
	ExpiredAt   time.Time   `json:"expired_at"`
	ReceivedAt  time.Time   `json:"received_at"`
	UsedAt      *time.Time  `json:"used_at,omitempty"`
	OrderID     *int64      `json:"order_id,omitempty"`
	IsAvailable bool        `json:"is_available"`
}

func userCouponStatusText(status int8, expiredAt time.Time) string {
	if status == models.UserCouponStatusUnused && time.Now().After(expiredAt) {
		return "已过期"
	}
	switch status {
	case models.UserCouponStatusUnused:
		return "未使用"
	case models.UserCouponStatusUsed:
		return "已使用"
	case models.UserCouponStatusExpired:
		return "已过期"
	}
	return "未知"
}

func toUserCouponItem(uc *models.UserCoupon) *UserCouponItem {
	item := &UserCouponItem{
		ID:          uc.ID,
		CouponID:    uc.CouponID,
		Status:      uc.Status,
		StatusText:  userCouponStatusText(uc.Status, uc.ExpiredAt),
		ExpiredAt:   uc.ExpiredAt,
		ReceivedAt:  uc.ReceivedAt,
		UsedAt:      uc.UsedAt,
		OrderID:     uc.OrderID,
		IsAvailable: uc.Status == models.UserCouponStatusUnused && time.Now().Before(uc.ExpiredAt),
	}
	if uc.Coupon != nil {
		item.CouponName = uc.Coupon.Name
		item.CouponType = uc.Coupon.Type
		item.Value = uc.Coupon.Value
		item.MinAmount = uc.Coupon.MinAmount
		item.MaxDiscount = uc.Coupon.MaxDiscount
		item.Rules = uc.Coupon.Rules
		item.Description = uc.Coupon.Description
	}
	return item
}

// GetMyCoupons 获取我的优惠券列表
func (s *UserCouponService) GetMyCoupons(ctx context.Context, userID int64, req *UserCouponListRequest) (*UserCouponListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	userCoupons, total, err := s.userCouponRepo.List(ctx, repository.UserCouponListParams{
		UserID: userID,
		Status: req.Status,
		Offset: offset,
		Limit:  req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	list := make([]*UserCouponItem, 0, len(userCoupons))
	for _, uc := range userCoupons {
		list = append(list, toUserCouponItem(uc))
	}

	return &UserCouponListResponse{
		List:  list,
		Total: total,
	}, nil
}

// GetAvailableCoupons 获取结算时可用的优惠券
func (s *UserCouponService) GetAvailableCoupons(ctx context.Context, userID int64, orderAmount float64) ([]*UserCouponItem, error) {
	userCoupons, err := s.userCouponRepo.ListAvailableForAmount(ctx, userID, orderAmount)
	if err != nil {
		return nil, err
	}

	list := make([]*UserCouponItem, 0, len(userCoupons))
	for _, uc := range userCoupons {
		list = append(list, toUserCouponItem(uc))
	}
	return list, nil
}

// CountAvailable 统计用户可用优惠券数量
func (s *UserCouponService) CountAvailable(ctx context.Context, userID int64) (int64, error) {
	return s.userCouponRepo.CountAvailableByUserID(ctx, userID)
}

// ExpireOverdueCoupons 批量过期超时未用的优惠券（定时任务调用）
func (s *UserCouponService) ExpireOverdueCoupons(ctx context.Context) (int64, error) {
	return s.userCouponRepo.BatchMarkAsExpired(ctx)
}
