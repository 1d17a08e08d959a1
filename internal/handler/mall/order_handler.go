package mall

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-mall-backend/internal/common/handler"
	"github.com/dumeirei/smart-mall-backend/internal/common/response"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	mallService "github.com/dumeirei/smart-mall-backend/internal/service/mall"
)

// OrderHandler 商城订单处理器
type OrderHandler struct {
	orderService *mallService.OrderService
}

// NewOrderHandler 创建商城订单处理器
func NewOrderHandler(orderSvc *mallService.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderSvc,
	}
}

// PreviewPrice 试算单个商品价格
// @Summary 试算单个商品价格明细
// @Tags 商城订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body pricing.PriceRequest true "请求参数"
// @Success 200 {object} response.Response{data=pricing.PriceBreakdown}
// @Router /api/v1/price/preview [post]
func (h *OrderHandler) PreviewPrice(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req pricing.PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}
	req.UserID = userID

	breakdown, err := h.orderService.PreviewPrice(c.Request.Context(), &req)
	handler.MustSucceed(c, err, breakdown)
}

// PreviewOrder 试算整单价格
// @Summary 试算整单价格，不创建订单
// @Tags 商城订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mall.CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=pricing.OrderPricing}
// @Router /api/v1/orders/preview [post]
func (h *OrderHandler) PreviewOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req mallService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.orderService.PreviewOrder(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, result)
}

// CreateOrder 创建订单
// @Summary 创建订单
// @Tags 商城订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body mall.CreateOrderRequest true "请求参数"
// @Success 200 {object} response.Response{data=mall.OrderInfo}
// @Router /api/v1/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var req mallService.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	handler.MustSucceed(c, err, order)
}

// GetOrders 获取订单列表
// @Summary 获取订单列表
// @Tags 商城订单
// @Produce json
// @Security Bearer
// @Param status query int false "订单状态"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=[]mall.OrderInfo}
// @Router /api/v1/orders [get]
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	var status *int8
	if statusStr := c.Query("status"); statusStr != "" {
		v, err := strconv.ParseInt(statusStr, 10, 8)
		if err != nil {
			response.BadRequest(c, "无效的订单状态")
			return
		}
		s := int8(v)
		status = &s
	}

	p := handler.BindPagination(c)

	orders, total, err := h.orderService.GetOrderList(c.Request.Context(), userID, status, p.Page, p.PageSize)
	handler.MustSucceedPage(c, err, orders, total, p.Page, p.PageSize)
}

// GetOrderDetail 获取订单详情
// @Summary 获取订单详情
// @Tags 商城订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response{data=mall.OrderInfo}
// @Router /api/v1/orders/{id} [get]
func (h *OrderHandler) GetOrderDetail(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrderDetail(c.Request.Context(), userID, orderID)
	handler.MustSucceed(c, err, order)
}

// GetOrderByNo 按订单号获取订单
// @Summary 按订单号获取订单
// @Tags 商城订单
// @Produce json
// @Security Bearer
// @Param order_no path string true "订单号"
// @Success 200 {object} response.Response{data=mall.OrderInfo}
// @Router /api/v1/orders/no/{order_no} [get]
func (h *OrderHandler) GetOrderByNo(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	orderNo := c.Param("order_no")
	if orderNo == "" {
		response.BadRequest(c, "订单号不能为空")
		return
	}

	order, err := h.orderService.GetOrderByNo(c.Request.Context(), userID, orderNo)
	handler.MustSucceed(c, err, order)
}

// CancelOrder 取消订单
// @Summary 取消订单
// @Tags 商城订单
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Param reason query string false "取消原因"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/cancel [post]
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	reason := c.Query("reason")

	handler.MustSucceed(c, h.orderService.CancelOrder(c.Request.Context(), userID, orderID, reason), nil)
}

// ConfirmReceive 确认收货
// @Summary 确认收货
// @Tags 商城订单
// @Produce json
// @Security Bearer
// @Param id path int true "订单ID"
// @Success 200 {object} response.Response
// @Router /api/v1/orders/{id}/confirm [post]
func (h *OrderHandler) ConfirmReceive(c *gin.Context) {
	userID, ok := handler.RequireUserID(c)
	if !ok {
		return
	}

	orderID, ok := handler.ParseID(c, "订单")
	if !ok {
		return
	}

	handler.MustSucceed(c, h.orderService.ConfirmReceive(c.Request.Context(), userID, orderID), nil)
}

// RegisterRoutes 注册订单路由（需认证）
func (h *OrderHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/price/preview", h.PreviewPrice)

	orders := r.Group("/orders")
	{
		orders.POST("/preview", h.PreviewOrder)
		orders.POST("", h.CreateOrder)
		orders.GET("", h.GetOrders)
		orders.GET("/no/:order_no", h.GetOrderByNo)
		orders.GET("/:id", h.GetOrderDetail)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.POST("/:id/confirm", h.ConfirmReceive)
	}
}
