// Package marketing 提供营销相关的 HTTP Handler
package marketing

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-mall-backend/internal/common/handler"
	"github.com/dumeirei/smart-mall-backend/internal/common/response"
	marketingService "github.com/dumeirei/smart-mall-backend/internal/service/marketing"
)

// CouponHandler 优惠券处理器
type CouponHandler struct {
	couponService     *marketingService.CouponService
	userCouponService *marketingService.UserCouponService
}

// NewCouponHandler 创建优惠券处理器
func NewCouponHandler(couponSvc *marketingService.CouponService, userCouponSvc *marketingService.UserCouponService) *CouponHandler {
	return &CouponHandler{
		couponService:     couponSvc,
		userCouponService: userCouponSvc,
	}
}

// 营销模块的哨兵错误统一按业务错误返回，避免当成内部错误
func handleMarketingError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, marketingService.ErrCouponNotFound),
		errors.Is(err, marketingService.ErrUserCouponNotFound),
		errors.Is(err, marketingService.ErrPromotionNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, marketingService.ErrCouponNotActive),
		errors.Is(err, marketingService.ErrCouponNotStarted),
		errors.Is(err, marketingService.ErrCouponExpired),
		errors.Is(err, marketingService.ErrCouponSoldOut),
		errors.Is(err, marketingService.ErrCouponLimitExceeded),
		errors.Is(err, marketingService.ErrCouponRuleInvalid),
		errors.Is(err, marketingService.ErrUserCouponExpired),
		errors.Is(err, marketingService.ErrUserCouponUsed),
		errors.Is(err, marketingService.ErrPromotionNotActive),
		errors.Is(err, marketingService.ErrPromotionExpired),
		errors.Is(err, marketingService.ErrPromotionRuleInvalid):
		response.BadRequest(c, err.Error())
	default:
		return handler.HandleError(c, err)
	}
	return true
}

// GetCouponList 获取可领取的优惠券列表
// @Summary 获取可领取的优惠券列表
// @Tags 营销-优惠券
// @Produce json
// @Security Bearer
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=marketing.CouponListResponse}
// @Router /api/v1/marketing/coupons [get]
func (h *CouponHandler) GetCouponList(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	req := &marketingService.CouponListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
	}

	result, err := h.couponService.GetCouponList(c.Request.Context(), req, userID)
	if handleMarketingError(c, err) {
		return
	}

	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// GetCouponDetail 获取优惠券详情
// @Summary 获取优惠券详情
// @Tags 营销-优惠券
// @Produce json
// @Security Bearer
// @Param id path int true "优惠券ID"
// @Success 200 {object} response.Response{data=marketing.CouponItem}
// @Router /api/v1/marketing/coupons/{id} [get]
func (h *CouponHandler) GetCouponDetail(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	couponID, ok := handler.ParseID(c, "优惠券")
	if !ok {
		return
	}

	coupon, err := h.couponService.GetCouponDetail(c.Request.Context(), couponID, userID)
	if handleMarketingError(c, err) {
		return
	}

	response.Success(c, coupon)
}

// ReceiveCoupon 领取优惠券
// @Summary 领取优惠券
// @Tags 营销-优惠券
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "优惠券ID"
// @Success 200 {object} response.Response
// @Router /api/v1/marketing/coupons/{id}/receive [post]
func (h *CouponHandler) ReceiveCoupon(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	couponID, ok := handler.ParseID(c, "优惠券")
	if !ok {
		return
	}

	userCoupon, err := h.couponService.ReceiveCoupon(c.Request.Context(), couponID, userID)
	if handleMarketingError(c, err) {
		return
	}

	response.SuccessWithMessage(c, "领取成功", gin.H{
		"user_coupon_id": userCoupon.ID,
		"expired_at":     userCoupon.ExpiredAt,
	})
}

// GetMyCoupons 获取我的优惠券列表
// @Summary 获取我的优惠券列表
// @Tags 营销-用户优惠券
// @Produce json
// @Security Bearer
// @Param status query int false "状态：0-未使用 1-已使用 2-已过期"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=marketing.UserCouponListResponse}
// @Router /api/v1/marketing/user-coupons [get]
func (h *CouponHandler) GetMyCoupons(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	p := handler.BindPagination(c)

	req := &marketingService.UserCouponListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status, err := strconv.ParseInt(statusStr, 10, 8)
		if err != nil {
			response.BadRequest(c, "无效的状态")
			return
		}
		s := int8(status)
		req.Status = &s
	}

	result, err := h.userCouponService.GetMyCoupons(c.Request.Context(), userID, req)
	if handleMarketingError(c, err) {
		return
	}

	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// GetAvailableCoupons 获取指定金额下可用的优惠券
// @Summary 获取指定订单金额下可用的优惠券
// @Tags 营销-用户优惠券
// @Produce json
// @Security Bearer
// @Param order_amount query number true "订单金额"
// @Success 200 {object} response.Response{data=[]marketing.UserCouponItem}
// @Router /api/v1/marketing/user-coupons/available [get]
func (h *CouponHandler) GetAvailableCoupons(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	orderAmount, err := strconv.ParseFloat(c.Query("order_amount"), 64)
	if err != nil || orderAmount <= 0 {
		response.BadRequest(c, "无效的订单金额")
		return
	}

	coupons, err := h.userCouponService.GetAvailableCoupons(c.Request.Context(), userID, orderAmount)
	handler.MustSucceed(c, err, coupons)
}

// CountAvailable 获取可用优惠券数量
// @Summary 获取可用优惠券数量
// @Tags 营销-用户优惠券
// @Produce json
// @Security Bearer
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /api/v1/marketing/user-coupons/count [get]
func (h *CouponHandler) CountAvailable(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	count, err := h.userCouponService.CountAvailable(c.Request.Context(), userID)
	handler.MustSucceed(c, err, gin.H{"available": count})
}

// RegisterRoutes 注册优惠券路由（需认证）
func (h *CouponHandler) RegisterRoutes(r *gin.RouterGroup) {
	coupons := r.Group("/marketing/coupons")
	{
		coupons.GET("", h.GetCouponList)
		coupons.GET("/:id", h.GetCouponDetail)
		coupons.POST("/:id/receive", h.ReceiveCoupon)
	}

	userCoupons := r.Group("/marketing/user-coupons")
	{
		userCoupons.GET("", h.GetMyCoupons)
		userCoupons.GET("/available", h.GetAvailableCoupons)
		userCoupons.GET("/count", h.CountAvailable)
	}
}
