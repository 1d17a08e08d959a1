// Package errors 定义业务错误码和错误处理
package errors

import (
	"fmt"
)

// AppError 应用错误
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的应用错误
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装错误
func Wrap(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithMessage 修改错误消息
func (e *AppError) WithMessage(message string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: message,
		Err:     e.Err,
	}
}

// WithError 添加原始错误
func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// 通用错误码 (1000-1999)
var (
	ErrUnknown         = New(1000, "未知错误")
	ErrInvalidParams   = New(1001, "参数错误")
	ErrNotFound        = New(1002, "资源不存在")
	ErrAlreadyExists   = New(1003, "资源已存在")
	ErrDatabaseError   = New(1004, "数据库错误")
	ErrCacheError      = New(1005, "缓存错误")
	ErrInternalError   = New(1006, "内部错误")
	ErrExternalService = New(1007, "外部服务错误")
	ErrRateLimitExceed = New(1008, "请求过于频繁")
	ErrOperationFailed = New(1009, "操作失败")
)

// 认证错误码 (2000-2999)
var (
	ErrUnauthorized     = New(2000, "未登录")
	ErrTokenExpired     = New(2001, "登录已过期")
	ErrTokenInvalid     = New(2002, "无效的令牌")
	ErrTokenRefreshFail = New(2003, "刷新令牌失败")
	ErrPermissionDenied = New(2004, "权限不足")
	ErrAccountDisabled  = New(2005, "账号已禁用")
	ErrPasswordError    = New(2006, "密码错误")
	ErrSmsCodeError     = New(2009, "短信验证码错误")
	ErrSmsCodeExpired   = New(2010, "短信验证码已过期")
	ErrSmsSendFail      = New(2011, "短信发送失败")
	ErrSmsSendTooFast   = New(2012, "短信发送过于频繁")
)

// 用户/会员错误码 (3000-3999)
var (
	ErrUserNotFound        = New(3000, "用户不存在")
	ErrUserExists          = New(3001, "用户已存在")
	ErrPhoneExists         = New(3002, "手机号已被注册")
	ErrPhoneInvalid        = New(3003, "无效的手机号")
	ErrMemberLevelNotFound = New(3004, "会员等级不存在")
	ErrAddressNotFound     = New(3005, "收货地址不存在")
	ErrPointsInsufficient  = New(3006, "积分余额不足")
)

// 商品错误码 (4000-4999)
var (
	ErrProductNotFound   = New(4000, "商品不存在")
	ErrProductOffShelf   = New(4001, "商品已下架")
	ErrSkuNotFound       = New(4002, "商品规格不存在")
	ErrSkuOffShelf       = New(4003, "商品规格已停售")
	ErrSkuMismatch       = New(4004, "商品规格不匹配")
	ErrStockInsufficient = New(4005, "库存不足")
	ErrCategoryNotFound  = New(4006, "分类不存在")
)

// 订单错误码 (5000-5999)
var (
	ErrOrderNotFound     = New(5000, "订单不存在")
	ErrOrderStatusError  = New(5001, "订单状态异常")
	ErrOrderExpired      = New(5002, "订单已过期")
	ErrOrderCancelled    = New(5003, "订单已取消")
	ErrOrderPaid         = New(5004, "订单已支付")
	ErrOrderCannotCancel = New(5005, "订单无法取消")
	ErrOrderEmpty        = New(5006, "订单商品为空")
)

// 营销错误码 (6000-6099)
var (
	ErrCouponNotFound      = New(6000, "优惠券不存在")
	ErrCouponExpired       = New(6001, "优惠券已过期")
	ErrCouponUsed          = New(6002, "优惠券已使用")
	ErrCouponNotApplicable = New(6003, "优惠券不适用")
	ErrCouponLimitExceed   = New(6004, "优惠券领取已达上限")
	ErrCouponNotEnough     = New(6005, "优惠券已领完")
	ErrCouponRuleInvalid   = New(6006, "优惠券规则配置无效")
	ErrPromotionNotFound   = New(6007, "活动不存在")
	ErrPromotionExpired    = New(6008, "活动已结束")
	ErrPromotionRuleInvalid = New(6009, "活动规则配置无效")
)

// 定价错误码 (6100-6199)
var (
	ErrPointsNotRedeemable = New(6100, "该商品不支持积分抵扣")
	ErrPointsExceedLimit   = New(6101, "积分使用超出上限")
	ErrPricingConflict     = New(6102, "优惠状态已变更，请重新结算")
)

// 支付错误码 (7000-7999)
var (
	ErrPaymentNotFound      = New(7000, "支付记录不存在")
	ErrPaymentFailed        = New(7001, "支付失败")
	ErrPaymentExpired       = New(7002, "支付已过期")
	ErrRefundNotFound       = New(7003, "退款记录不存在")
	ErrRefundFailed         = New(7004, "退款失败")
	ErrRefundAmountExceed   = New(7005, "退款金额超限")
	ErrPaymentMethodError   = New(7006, "支付方式错误")
	ErrPaymentCallbackError = New(7007, "支付回调错误")
)

// IsAppError 判断是否为应用错误
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetAppError 获取应用错误
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrUnknown.WithError(err)
}
