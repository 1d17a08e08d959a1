package marketing

import (
	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-mall-backend/internal/common/handler"
	"github.com/dumeirei/smart-mall-backend/internal/common/response"
	marketingService "github.com/dumeirei/smart-mall-backend/internal/service/marketing"
)

// PromotionHandler 促销活动处理器
type PromotionHandler struct {
	promotionService *marketingService.PromotionService
}

// NewPromotionHandler 创建促销活动处理器
func NewPromotionHandler(promotionSvc *marketingService.PromotionService) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionSvc,
	}
}

// GetActivePromotions 获取进行中的活动
// @Summary 获取进行中的促销活动
// @Tags 营销-促销活动
// @Produce json
// @Success 200 {object} response.Response{data=[]marketing.PromotionItem}
// @Router /api/v1/marketing/promotions/active [get]
func (h *PromotionHandler) GetActivePromotions(c *gin.Context) {
	promotions, err := h.promotionService.GetActivePromotions(c.Request.Context())
	handler.MustSucceed(c, err, promotions)
}

// GetPromotionList 获取活动列表
// @Summary 获取促销活动列表
// @Tags 营销-促销活动
// @Produce json
// @Param type query string false "活动类型：full_reduction/full_gift/full_discount"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页数量" default(10)
// @Success 200 {object} response.Response{data=marketing.PromotionListResponse}
// @Router /api/v1/marketing/promotions [get]
func (h *PromotionHandler) GetPromotionList(c *gin.Context) {
	p := handler.BindPagination(c)

	req := &marketingService.PromotionListRequest{
		Page:     p.Page,
		PageSize: p.PageSize,
		Type:     c.Query("type"),
	}

	result, err := h.promotionService.GetPromotionList(c.Request.Context(), req)
	if handleMarketingError(c, err) {
		return
	}

	response.SuccessPage(c, result.List, result.Total, p.Page, p.PageSize)
}

// GetPromotionDetail 获取活动详情
// @Summary 获取促销活动详情
// @Tags 营销-促销活动
// @Produce json
// @Param id path int true "活动ID"
// @Success 200 {object} response.Response{data=marketing.PromotionItem}
// @Router /api/v1/marketing/promotions/{id} [get]
func (h *PromotionHandler) GetPromotionDetail(c *gin.Context) {
	promotionID, ok := handler.ParseID(c, "活动")
	if !ok {
		return
	}

	promotion, err := h.promotionService.GetPromotionDetail(c.Request.Context(), promotionID)
	if handleMarketingError(c, err) {
		return
	}

	response.Success(c, promotion)
}

// RegisterRoutes 注册促销活动路由（无需认证）
func (h *PromotionHandler) RegisterRoutes(r *gin.RouterGroup) {
	promotions := r.Group("/marketing/promotions")
	{
		promotions.GET("", h.GetPromotionList)
		promotions.GET("/active", h.GetActivePromotions)
		promotions.GET("/:id", h.GetPromotionDetail)
	}
}
