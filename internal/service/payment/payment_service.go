// Package payment 提供支付服务
package payment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/common/qrcode"
	"github.com/dumeirei/smart-mall-backend/internal/common/utils"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
	"github.com/dumeirei/smart-mall-backend/internal/service/user"
	"github.com/dumeirei/smart-mall-backend/pkg/wechatpay"
)

// PaymentService 支付服务
type PaymentService struct {
	db            *gorm.DB
	paymentRepo   *repository.PaymentRepository
	orderRepo     *repository.OrderRepository
	pointsService *user.PointsService
	wechatPay     *wechatpay.Client
	qrGenerator   *qrcode.Generator
	logger        *zap.Logger
}

// NewPaymentService 创建支付服务
func NewPaymentService(
	db *gorm.DB,
	paymentRepo *repository.PaymentRepository,
	orderRepo *repository.OrderRepository,
	pointsService *user.PointsService,
	wechatPay *wechatpay.Client,
	logger *zap.Logger,
) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		db:            db,
		paymentRepo:   paymentRepo,
		orderRepo:     orderRepo,
		pointsService: pointsService,
		wechatPay:     wechatPay,
		qrGenerator:   qrcode.NewGenerator(),
		logger:        logger,
	}
}

// CreatePaymentRequest 创建支付请求
type CreatePaymentRequest struct {
	OrderNo        string `json:"order_no" binding:"required"`
	PaymentChannel string `json:"payment_channel" binding:"required,oneof=miniprogram h5 native"`
	OpenID         string `json:"openid,omitempty"`
}

// CreatePaymentResponse 创建支付响应
type CreatePaymentResponse struct {
	PaymentNo string                          `json:"payment_no"`
	Amount    float64                         `json:"amount"`
	PayParams *wechatpay.UnifiedOrderResponse `json:"pay_params,omitempty"`
	QRCode    string                          `json:"qr_code,omitempty"`
	ExpiredAt time.Time                       `json:"expired_at"`
}

// CreatePayment 为待支付订单发起微信支付，金额以订单实付金额为准
func (s *PaymentService) CreatePayment(ctx context.Context, userID int64, req *CreatePaymentRequest) (*CreatePaymentResponse, error) {
	order, err := s.orderRepo.GetByOrderNo(ctx, req.OrderNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return nil, errors.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return nil, errors.ErrOrderStatusError
	}

	now := time.Now()
	if order.ExpiredAt != nil && !order.ExpiredAt.After(now) {
		return nil, errors.ErrPaymentExpired
	}

	payment, err := s.ensurePendingPayment(ctx, order, req.PaymentChannel)
	if err != nil {
		return nil, err
	}

	resp := &CreatePaymentResponse{
		PaymentNo: payment.PaymentNo,
		Amount:    payment.Amount,
		ExpiredAt: *payment.ExpiredAt,
	}

	if s.wechatPay == nil {
		return resp, nil
	}

	wechatReq := &wechatpay.UnifiedOrderRequest{
		OutTradeNo:  payment.PaymentNo,
		Description: fmt.Sprintf("订单支付-%s", order.OrderNo),
		Amount:      int64(payment.Amount*100 + 0.5), // 单位转换为分
		OpenID:      req.OpenID,
	}

	var payParams *wechatpay.UnifiedOrderResponse
	switch req.PaymentChannel {
	case models.PaymentChannelNative:
		payParams, err = s.wechatPay.CreateNativeOrder(ctx, wechatReq)
	case models.PaymentChannelH5:
		payParams, err = s.wechatPay.CreateH5Order(ctx, wechatReq)
	default:
		payParams, err = s.wechatPay.CreateOrder(ctx, wechatReq)
	}
	if err != nil {
		return nil, errors.ErrPaymentFailed.WithError(err)
	}
	resp.PayParams = payParams

	// 扫码支付生成二维码图片
	if payParams.CodeURL != "" {
		dataURL, err := s.qrGenerator.GenerateDataURL(payParams.CodeURL)
		if err != nil {
			s.logger.Warn("生成支付二维码失败",
				zap.String("payment_no", payment.PaymentNo),
				zap.Error(err))
		} else {
			resp.QRCode = dataURL
		}
	}

	return resp, nil
}

// ensurePendingPayment 复用已有的待支付记录，没有则新建
func (s *PaymentService) ensurePendingPayment(ctx context.Context, order *models.Order, channel string) (*models.Payment, error) {
	existing, err := s.paymentRepo.GetPendingByOrderID(ctx, order.ID)
	if err == nil && existing.ExpiredAt != nil && existing.ExpiredAt.After(time.Now()) &&
		existing.PaymentChannel == channel {
		return existing, nil
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	expiredAt := time.Now().Add(30 * time.Minute)
	if order.ExpiredAt != nil && order.ExpiredAt.Before(expiredAt) {
		expiredAt = *order.ExpiredAt
	}

	payment := &models.Payment{
		PaymentNo:      utils.GenerateOrderNo("P"),
		OrderID:        order.ID,
		OrderNo:        order.OrderNo,
		UserID:         order.UserID,
		Amount:         order.ActualAmount,
		PaymentMethod:  models.PaymentMethodWechat,
		PaymentChannel: channel,
		Status:         models.PaymentStatusPending,
		ExpiredAt:      &expiredAt,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return payment, nil
}

// HandlePaymentCallback 处理微信支付回调，重复通知幂等
func (s *PaymentService) HandlePaymentCallback(ctx context.Context, payload []byte) error {
	if s.wechatPay == nil {
		return errors.ErrPaymentCallbackError.WithMessage("微信支付客户端未初始化")
	}

	resource, err := s.wechatPay.ParseNotify(payload)
	if err != nil {
		return errors.ErrPaymentCallbackError.WithError(err)
	}

	payment, err := s.paymentRepo.GetByPaymentNo(ctx, resource.OutTradeNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrPaymentNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	// 已处理过的回调直接确认
	if payment.Status != models.PaymentStatusPending {
		return nil
	}

	if resource.TradeState != wechatpay.TradeStateSuccess {
		if err := s.paymentRepo.MarkAsFailed(ctx, payment.ID, resource.TradeState); err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		return nil
	}

	// 验证金额
	callbackAmount := float64(resource.Amount.Total) / 100
	if callbackAmount != payment.Amount {
		return errors.ErrPaymentCallbackError.WithMessage("金额不匹配")
	}

	callbackData := models.JSON{
		"transaction_id": resource.TransactionID,
		"trade_state":    resource.TradeState,
		"success_time":   resource.SuccessTime,
		"payer_openid":   resource.Payer.OpenID,
	}

	if err := s.paymentRepo.MarkAsSuccess(ctx, payment.ID, resource.TransactionID, callbackData); err != nil {
		if err == gorm.ErrRecordNotFound {
			// 并发回调已处理
			return nil
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.markOrderPaidTx(ctx, tx, payment); err != nil {
			return err
		}
		// 支付成功按实付金额返消费积分
		if err := s.pointsService.AddConsumePointsTx(ctx, tx, payment.UserID, payment.Amount, payment.OrderNo); err != nil {
			return err
		}
		return nil
	})
}

// markOrderPaidTx 在事务中将订单置为已支付
func (s *PaymentService) markOrderPaidTx(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	result := tx.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", payment.OrderID, models.OrderStatusPending).
		Updates(map[string]interface{}{
			"status":  models.OrderStatusPaid,
			"paid_at": time.Now(),
		})
	if result.Error != nil {
		return errors.ErrDatabaseError.WithError(result.Error)
	}
	if result.RowsAffected == 0 {
		// 订单已被取消或已支付，记录异常但不回滚支付状态
		s.logger.Warn("支付成功但订单状态异常",
			zap.String("order_no", payment.OrderNo),
			zap.String("payment_no", payment.PaymentNo))
		return errors.ErrOrderStatusError
	}
	return nil
}

// QueryPayment 查询支付状态
func (s *PaymentService) QueryPayment(ctx context.Context, userID int64, paymentNo string) (*PaymentInfo, error) {
	payment, err := s.paymentRepo.GetByPaymentNo(ctx, paymentNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if payment.UserID != userID {
		return nil, errors.ErrPaymentNotFound
	}

	return s.toPaymentInfo(payment), nil
}

// PaymentInfo 支付信息
type PaymentInfo struct {
	ID             int64      `json:"id"`
	PaymentNo      string     `json:"payment_no"`
	OrderNo        string     `json:"order_no"`
	Amount         float64    `json:"amount"`
	PaymentMethod  string     `json:"payment_method"`
	PaymentChannel string     `json:"payment_channel"`
	Status         int8       `json:"status"`
	StatusName     string     `json:"status_name"`
	TransactionID  *string    `json:"transaction_id,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// toPaymentInfo 转换为支付信息
func (s *PaymentService) toPaymentInfo(payment *models.Payment) *PaymentInfo {
	return &PaymentInfo{
		ID:             payment.ID,
		PaymentNo:      payment.PaymentNo,
		OrderNo:        payment.OrderNo,
		Amount:         payment.Amount,
		PaymentMethod:  payment.PaymentMethod,
		PaymentChannel: payment.PaymentChannel,
		Status:         payment.Status,
		StatusName:     s.getStatusName(payment.Status),
		TransactionID:  payment.TransactionID,
		PaidAt:         payment.PaidAt,
		ExpiredAt:      payment.ExpiredAt,
		CreatedAt:      payment.CreatedAt,
	}
}

// getStatusName 获取状态名称
func (s *PaymentService) getStatusName(status int8) string {
	switch status {
	case models.PaymentStatusPending:
		return "待支付"
	case models.PaymentStatusSuccess:
		return "支付成功"
	case models.PaymentStatusFailed:
		return "支付失败"
	case models.PaymentStatusClosed:
		return "已关闭"
	case models.PaymentStatusRefunded:
		return "已退款"
	default:
		return "未知"
	}
}

// RequestRefundRequest 申请退款请求
type RequestRefundRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
	Reason  string `json:"reason" binding:"required"`
}

// RequestRefund 对已支付未发货的订单整单退款。
// 库存与优惠券的恢复由售后流程处理，这里只回退支付与订单用掉的积分。
func (s *PaymentService) RequestRefund(ctx context.Context, userID int64, req *RequestRefundRequest) error {
	order, err := s.orderRepo.GetByOrderNo(ctx, req.OrderNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return errors.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPaid {
		return errors.ErrOrderStatusError.WithMessage("只有已支付未发货的订单可以退款")
	}

	payments, err := s.paymentRepo.ListByOrderID(ctx, order.ID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	var paid *models.Payment
	for _, p := range payments {
		if p.Status == models.PaymentStatusSuccess {
			paid = p
			break
		}
	}
	if paid == nil {
		return errors.ErrPaymentNotFound
	}

	// 先置为退款中，防止并发发货
	if err := s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusPaid, models.OrderStatusRefunding); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderStatusError
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if s.wechatPay != nil {
		refundReq := &wechatpay.RefundRequest{
			OutTradeNo:  paid.PaymentNo,
			OutRefundNo: utils.GenerateOrderNo("RF"),
			Reason:      req.Reason,
			Total:       int64(paid.Amount*100 + 0.5),
			Refund:      int64(paid.Amount*100 + 0.5),
		}
		if _, err := s.wechatPay.Refund(ctx, refundReq); err != nil {
			// 退款下单失败，回滚订单状态
			_ = s.orderRepo.UpdateStatus(ctx, order.ID, models.OrderStatusRefunding, models.OrderStatusPaid)
			return errors.ErrRefundFailed.WithError(err)
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusRefunding).
			Update("status", models.OrderStatusRefunded)
		if result.Error != nil {
			return errors.ErrDatabaseError.WithError(result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.ErrOrderStatusError
		}

		if err := tx.WithContext(ctx).Model(&models.Payment{}).
			Where("id = ? AND status = ?", paid.ID, models.PaymentStatusSuccess).
			Update("status", models.PaymentStatusRefunded).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}

		// 返还下单抵扣的积分
		if order.PointsUsed > 0 {
			if err := s.pointsService.AddPointsTx(ctx, tx, order.UserID, order.PointsUsed,
				models.PointsLogTypeRefund, "订单退款返还积分", &order.OrderNo); err != nil {
				return err
			}
		}
		return nil
	})
}

// CloseExpiredPayments 关闭过期的待支付记录，供定时任务调用
func (s *PaymentService) CloseExpiredPayments(ctx context.Context, limit int) (int, error) {
	payments, err := s.paymentRepo.ListPendingExpired(ctx, time.Now(), limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	closed := 0
	for _, payment := range payments {
		if err := s.paymentRepo.MarkAsClosed(ctx, payment.ID); err != nil {
			s.logger.Warn("关闭过期支付失败",
				zap.String("payment_no", payment.PaymentNo),
				zap.Error(err))
			continue
		}
		closed++
	}
	return closed, nil
}
