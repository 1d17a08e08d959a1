// Package payment 支付服务单元测试
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appErrors "github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
	"github.com/dumeirei/smart-mall-backend/internal/service/user"
	"github.com/dumeirei/smart-mall-backend/pkg/wechatpay"
)

func setupPaymentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.MemberLevel{},
		&models.PointsLog{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
	))

	db.Create(&models.MemberLevel{
		ID:        1,
		Name:      "普通会员",
		Level:     1,
		MinPoints: 0,
		Discount:  1.0,
	})

	return db
}

func newPaymentTestService(t *testing.T, db *gorm.DB) *PaymentService {
	t.Helper()
	userRepo := repository.NewUserRepository(db)
	memberLevelRepo := repository.NewMemberLevelRepository(db)
	pointsLogRepo := repository.NewPointsLogRepository(db)
	pointsService := user.NewPointsService(db, userRepo, memberLevelRepo, pointsLogRepo)

	wechatPay, err := wechatpay.NewClient(&wechatpay.Config{
		AppID: "wx_test",
		MchID: "mch_test",
	})
	require.NoError(t, err)

	return NewPaymentService(
		db,
		repository.NewPaymentRepository(db),
		repository.NewOrderRepository(db),
		pointsService,
		wechatPay,
		zap.NewNop(),
	)
}

func createPaymentTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	phone := fmt.Sprintf("138%08d", time.Now().UnixNano()%100000000)
	u := &models.User{
		Phone:         &phone,
		Nickname:      "支付测试用户",
		MemberLevelID: 1,
		Status:        models.UserStatusActive,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPendingOrder(t *testing.T, db *gorm.DB, userID int64, amount float64) *models.Order {
	t.Helper()
	expiredAt := time.Now().Add(30 * time.Minute)
	order := &models.Order{
		OrderNo:      fmt.Sprintf("M%d", time.Now().UnixNano()),
		UserID:       userID,
		Status:       models.OrderStatusPending,
		TotalAmount:  amount,
		ActualAmount: amount,
		ExpiredAt:    &expiredAt,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

// wechatNotifyPayload 构造微信支付回调报文
func wechatNotifyPayload(t *testing.T, paymentNo, tradeState string, totalFen int64) []byte {
	t.Helper()
	resource, err := json.Marshal(map[string]interface{}{
		"out_trade_no":   paymentNo,
		"transaction_id": "wx_tx_" + paymentNo,
		"trade_state":    tradeState,
		"amount":         map[string]interface{}{"total": totalFen},
	})
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{
		"id":            "EV-TEST",
		"event_type":    "TRANSACTION.SUCCESS",
		"resource_type": "encrypt-resource",
		"resource":      json.RawMessage(resource),
	})
	require.NoError(t, err)
	return payload
}

func TestPaymentService_CreatePayment(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := newPaymentTestService(t, db)
	ctx := context.Background()

	t.Run("小程序渠道创建支付单", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 199.00)

		resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
			OpenID:         "openid_test",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.PaymentNo)
		assert.Equal(t, 199.00, resp.Amount)
		require.NotNil(t, resp.PayParams)
		assert.NotEmpty(t, resp.PayParams.PrepayID)

		var payment models.Payment
		require.NoError(t, db.Where("payment_no = ?", resp.PaymentNo).First(&payment).Error)
		assert.Equal(t, order.ID, payment.OrderID)
		assert.Equal(t, int8(models.PaymentStatusPending), payment.Status)
		assert.Equal(t, 199.00, payment.Amount)
	})

	t.Run("扫码渠道返回二维码", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 88.00)

		resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelNative,
		})
		require.NoError(t, err)
		require.NotNil(t, resp.PayParams)
		assert.NotEmpty(t, resp.PayParams.CodeURL)
		assert.Contains(t, resp.QRCode, "data:image/png;base64,")
	})

	t.Run("重复发起复用待支付单", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 50.00)

		first, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		require.NoError(t, err)

		second, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		require.NoError(t, err)
		assert.Equal(t, first.PaymentNo, second.PaymentNo)

		var count int64
		db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("他人订单不可支付", func(t *testing.T) {
		owner := createPaymentTestUser(t, db)
		other := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, owner.ID, 30.00)

		_, err := svc.CreatePayment(ctx, other.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		assert.ErrorIs(t, err, appErrors.ErrOrderNotFound)
	})

	t.Run("非待支付订单拒绝发起", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 30.00)
		require.NoError(t, db.Model(order).Update("status", models.OrderStatusPaid).Error)

		_, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		assert.ErrorIs(t, err, appErrors.ErrOrderStatusError)
	})

	t.Run("超时订单拒绝发起", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 30.00)
		expired := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(order).Update("expired_at", expired).Error)

		_, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		assert.ErrorIs(t, err, appErrors.ErrPaymentExpired)
	})
}

func TestPaymentService_HandlePaymentCallback(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := newPaymentTestService(t, db)
	ctx := context.Background()

	setup := func(t *testing.T, amount float64) (*models.User, *models.Order, string) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, amount)
		resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		require.NoError(t, err)
		return u, order, resp.PaymentNo
	}

	t.Run("支付成功回调", func(t *testing.T) {
		u, order, paymentNo := setup(t, 100.00)

		payload := wechatNotifyPayload(t, paymentNo, wechatpay.TradeStateSuccess, 10000)
		require.NoError(t, svc.HandlePaymentCallback(ctx, payload))

		var payment models.Payment
		require.NoError(t, db.Where("payment_no = ?", paymentNo).First(&payment).Error)
		assert.Equal(t, int8(models.PaymentStatusSuccess), payment.Status)
		require.NotNil(t, payment.TransactionID)
		assert.Equal(t, "wx_tx_"+paymentNo, *payment.TransactionID)
		require.NotNil(t, payment.PaidAt)

		var updated models.Order
		require.NoError(t, db.First(&updated, order.ID).Error)
		assert.Equal(t, int8(models.OrderStatusPaid), updated.Status)
		require.NotNil(t, updated.PaidAt)

		// 消费返积分：100 元 → 100 分
		var user models.User
		require.NoError(t, db.First(&user, u.ID).Error)
		assert.Equal(t, 100, user.Points)

		var log models.PointsLog
		require.NoError(t, db.Where("user_id = ? AND type = ?", u.ID, models.PointsLogTypeConsume).First(&log).Error)
		assert.Equal(t, 100, log.Points)
		require.NotNil(t, log.OrderNo)
		assert.Equal(t, order.OrderNo, *log.OrderNo)
	})

	t.Run("重复回调幂等", func(t *testing.T) {
		u, _, paymentNo := setup(t, 100.00)

		payload := wechatNotifyPayload(t, paymentNo, wechatpay.TradeStateSuccess, 10000)
		require.NoError(t, svc.HandlePaymentCallback(ctx, payload))
		require.NoError(t, svc.HandlePaymentCallback(ctx, payload))

		// 积分不会重复发放
		var user models.User
		require.NoError(t, db.First(&user, u.ID).Error)
		assert.Equal(t, 100, user.Points)

		var count int64
		db.Model(&models.PointsLog{}).Where("user_id = ?", u.ID).Count(&count)
		assert.Equal(t, int64(1), count)
	})

	t.Run("金额不匹配拒绝", func(t *testing.T) {
		_, order, paymentNo := setup(t, 100.00)

		payload := wechatNotifyPayload(t, paymentNo, wechatpay.TradeStateSuccess, 1)
		err := svc.HandlePaymentCallback(ctx, payload)
		require.Error(t, err)

		var updated models.Order
		require.NoError(t, db.First(&updated, order.ID).Error)
		assert.Equal(t, int8(models.OrderStatusPending), updated.Status)
	})

	t.Run("支付失败回调", func(t *testing.T) {
		_, order, paymentNo := setup(t, 100.00)

		payload := wechatNotifyPayload(t, paymentNo, wechatpay.TradeStateClosed, 10000)
		require.NoError(t, svc.HandlePaymentCallback(ctx, payload))

		var payment models.Payment
		require.NoError(t, db.Where("payment_no = ?", paymentNo).First(&payment).Error)
		assert.Equal(t, int8(models.PaymentStatusFailed), payment.Status)

		var updated models.Order
		require.NoError(t, db.First(&updated, order.ID).Error)
		assert.Equal(t, int8(models.OrderStatusPending), updated.Status)
	})

	t.Run("支付单不存在", func(t *testing.T) {
		payload := wechatNotifyPayload(t, "P_NOT_EXIST", wechatpay.TradeStateSuccess, 100)
		err := svc.HandlePaymentCallback(ctx, payload)
		assert.ErrorIs(t, err, appErrors.ErrPaymentNotFound)
	})
}

func TestPaymentService_QueryPayment(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := newPaymentTestService(t, db)
	ctx := context.Background()

	u := createPaymentTestUser(t, db)
	order := createPendingOrder(t, db, u.ID, 66.00)
	resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
		OrderNo:        order.OrderNo,
		PaymentChannel: models.PaymentChannelMiniProgram,
	})
	require.NoError(t, err)

	t.Run("查询支付状态", func(t *testing.T) {
		info, err := svc.QueryPayment(ctx, u.ID, resp.PaymentNo)
		require.NoError(t, err)
		assert.Equal(t, resp.PaymentNo, info.PaymentNo)
		assert.Equal(t, order.OrderNo, info.OrderNo)
		assert.Equal(t, "待支付", info.StatusName)
	})

	t.Run("他人支付单不可见", func(t *testing.T) {
		other := createPaymentTestUser(t, db)
		_, err := svc.QueryPayment(ctx, other.ID, resp.PaymentNo)
		assert.ErrorIs(t, err, appErrors.ErrPaymentNotFound)
	})

	t.Run("支付单不存在", func(t *testing.T) {
		_, err := svc.QueryPayment(ctx, u.ID, "P_NOT_EXIST")
		assert.ErrorIs(t, err, appErrors.ErrPaymentNotFound)
	})
}

func TestPaymentService_RequestRefund(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := newPaymentTestService(t, db)
	ctx := context.Background()

	payOrder := func(t *testing.T, u *models.User, order *models.Order) string {
		resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
			OrderNo:        order.OrderNo,
			PaymentChannel: models.PaymentChannelMiniProgram,
		})
		require.NoError(t, err)
		payload := wechatNotifyPayload(t, resp.PaymentNo, wechatpay.TradeStateSuccess, int64(order.ActualAmount*100))
		require.NoError(t, svc.HandlePaymentCallback(ctx, payload))
		return resp.PaymentNo
	}

	t.Run("已支付订单整单退款", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 120.00)
		// 订单使用过 300 积分抵扣
		require.NoError(t, db.Model(order).Updates(map[string]interface{}{
			"points_used":     300,
			"points_discount": 3.00,
		}).Error)
		paymentNo := payOrder(t, u, order)

		var before models.User
		require.NoError(t, db.First(&before, u.ID).Error)

		require.NoError(t, svc.RequestRefund(ctx, u.ID, &RequestRefundRequest{
			OrderNo: order.OrderNo,
			Reason:  "不想要了",
		}))

		var updated models.Order
		require.NoError(t, db.First(&updated, order.ID).Error)
		assert.Equal(t, int8(models.OrderStatusRefunded), updated.Status)

		var payment models.Payment
		require.NoError(t, db.Where("payment_no = ?", paymentNo).First(&payment).Error)
		assert.Equal(t, int8(models.PaymentStatusRefunded), payment.Status)

		// 下单抵扣的积分已返还
		var after models.User
		require.NoError(t, db.First(&after, u.ID).Error)
		assert.Equal(t, before.Points+300, after.Points)

		var log models.PointsLog
		require.NoError(t, db.Where("user_id = ? AND type = ?", u.ID, models.PointsLogTypeRefund).First(&log).Error)
		assert.Equal(t, 300, log.Points)
	})

	t.Run("未支付订单不可退款", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 30.00)

		err := svc.RequestRefund(ctx, u.ID, &RequestRefundRequest{
			OrderNo: order.OrderNo,
			Reason:  "reason",
		})
		require.Error(t, err)
		var appErr *appErrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, appErrors.ErrOrderStatusError.Code, appErr.Code)
	})

	t.Run("他人订单不可退款", func(t *testing.T) {
		u := createPaymentTestUser(t, db)
		other := createPaymentTestUser(t, db)
		order := createPendingOrder(t, db, u.ID, 30.00)
		payOrder(t, u, order)

		err := svc.RequestRefund(ctx, other.ID, &RequestRefundRequest{
			OrderNo: order.OrderNo,
			Reason:  "reason",
		})
		assert.ErrorIs(t, err, appErrors.ErrOrderNotFound)
	})
}

func TestPaymentService_CloseExpiredPayments(t *testing.T) {
	db := setupPaymentTestDB(t)
	svc := newPaymentTestService(t, db)
	ctx := context.Background()

	u := createPaymentTestUser(t, db)
	order := createPendingOrder(t, db, u.ID, 45.00)
	resp, err := svc.CreatePayment(ctx, u.ID, &CreatePaymentRequest{
		OrderNo:        order.OrderNo,
		PaymentChannel: models.PaymentChannelMiniProgram,
	})
	require.NoError(t, err)

	// 将支付单置为已过期
	expired := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(&models.Payment{}).
		Where("payment_no = ?", resp.PaymentNo).
		Update("expired_at", expired).Error)

	closed, err := svc.CloseExpiredPayments(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	var payment models.Payment
	require.NoError(t, db.Where("payment_no = ?", resp.PaymentNo).First(&payment).Error)
	assert.Equal(t, int8(models.PaymentStatusClosed), payment.Status)
}
