package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	mallService "github.com/dumeirei/smart-mall-backend/internal/service/mall"
	marketingService "github.com/dumeirei/smart-mall-backend/internal/service/marketing"
	paymentService "github.com/dumeirei/smart-mall-backend/internal/service/payment"
)

// 单批处理的最大记录数
const taskBatchSize = 100

// TaskHandler 任务处理器
type TaskHandler struct {
	orderService      *mallService.OrderService
	paymentService    *paymentService.PaymentService
	userCouponService *marketingService.UserCouponService
	logger            *zap.Logger
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	orderSvc *mallService.OrderService,
	paymentSvc *paymentService.PaymentService,
	userCouponSvc *marketingService.UserCouponService,
	logger *zap.Logger,
) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskHandler{
		orderService:      orderSvc,
		paymentService:    paymentSvc,
		userCouponService: userCouponSvc,
		logger:            logger,
	}
}

// CancelExpiredOrders 取消超时未支付的订单，释放库存、优惠券与积分
func (h *TaskHandler) CancelExpiredOrders(ctx context.Context) error {
	count, err := h.orderService.CancelExpiredOrders(ctx, taskBatchSize)
	if err != nil {
		return err
	}
	if count > 0 {
		h.logger.Info("已取消超时订单", zap.Int("count", count))
	}
	return nil
}

// CloseExpiredPayments 关闭超时未支付的支付单
func (h *TaskHandler) CloseExpiredPayments(ctx context.Context) error {
	count, err := h.paymentService.CloseExpiredPayments(ctx, taskBatchSize)
	if err != nil {
		return err
	}
	if count > 0 {
		h.logger.Info("已关闭超时支付单", zap.Int("count", count))
	}
	return nil
}

// ExpireOverdueCoupons 标记过期的用户优惠券
func (h *TaskHandler) ExpireOverdueCoupons(ctx context.Context) error {
	count, err := h.userCouponService.ExpireOverdueCoupons(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		h.logger.Info("已标记过期优惠券", zap.Int64("count", count))
	}
	return nil
}

// Register 注册全部定时任务
func (h *TaskHandler) Register(s *Scheduler) {
	s.AddTask("cancel_expired_orders", time.Minute, h.CancelExpiredOrders)
	s.AddTask("close_expired_payments", time.Minute, h.CloseExpiredPayments)
	s.AddTask("expire_overdue_coupons", time.Hour, h.ExpireOverdueCoupons)
}
