// Package mall 提供商城相关的 HTTP Handler
package mall

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/smart-mall-backend/internal/common/handler"
	"github.com/dumeirei/smart-mall-backend/internal/common/response"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	mallService "github.com/dumeirei/smart-mall-backend/internal/service/mall"
)

// ProductHandler 商品处理器
type ProductHandler struct {
	productService *mallService.ProductService
	orderService   *mallService.OrderService
}

// NewProductHandler 创建商品处理器
func NewProductHandler(productSvc *mallService.ProductService, orderSvc *mallService.OrderService) *ProductHandler {
	return &ProductHandler{
		productService: productSvc,
		orderService:   orderSvc,
	}
}

// GetCategories 获取分类列表
// @Summary 获取分类列表
// @Tags 商品
// @Produce json
// @Success 200 {object} response.Response{data=[]mall.CategoryInfo}
// @Router /api/v1/categories [get]
func (h *ProductHandler) GetCategories(c *gin.Context) {
	categories, err := h.productService.GetCategoryTree(c.Request.Context())
	handler.MustSucceed(c, err, categories)
}

// GetProducts 获取商品列表
// @Summary 获取商品列表
// @Tags 商品
// @Produce json
// @Param category_id query int false "分类ID"
// @Param keyword query string false "搜索关键词"
// @Param sort_by query string false "排序方式：price_asc, price_desc, sales_desc, newest"
// @Param page query int false "页码"
// @Param page_size query int false "每页数量"
// @Success 200 {object} response.Response{data=mall.ProductListResponse}
// @Router /api/v1/products [get]
func (h *ProductHandler) GetProducts(c *gin.Context) {
	req := mallService.ProductListRequest{Page: 1, PageSize: 10}
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "参数错误")
		return
	}

	result, err := h.productService.GetProductList(c.Request.Context(), &req)
	handler.MustSucceed(c, err, result)
}

// GetProductDetail 获取商品详情，已登录用户附带当前会员的到手价预览
// @Summary 获取商品详情
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=mall.ProductInfo}
// @Router /api/v1/products/{id} [get]
func (h *ProductHandler) GetProductDetail(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	product, err := h.productService.GetProductDetail(c.Request.Context(), productID)
	if handler.HandleError(c, err) {
		return
	}

	if userID := handler.GetOptionalUserID(c); userID > 0 {
		preview, err := h.orderService.PreviewPrice(c.Request.Context(), &pricing.PriceRequest{
			ProductID: productID,
			Quantity:  1,
			UserID:    userID,
		})
		// 预览失败不影响详情展示
		if err == nil {
			response.Success(c, gin.H{"product": product, "price_preview": preview})
			return
		}
	}

	response.Success(c, product)
}

// GetProductSkus 获取商品SKU列表
// @Summary 获取商品SKU列表
// @Tags 商品
// @Produce json
// @Param id path int true "商品ID"
// @Success 200 {object} response.Response{data=[]mall.SkuInfo}
// @Router /api/v1/products/{id}/skus [get]
func (h *ProductHandler) GetProductSkus(c *gin.Context) {
	productID, ok := handler.ParseID(c, "商品")
	if !ok {
		return
	}

	skus, err := h.productService.GetSkusByProductID(c.Request.Context(), productID)
	handler.MustSucceed(c, err, skus)
}

// GetHotProducts 获取热销商品
// @Summary 获取热销商品
// @Tags 商品
// @Produce json
// @Param limit query int false "数量，默认10"
// @Success 200 {object} response.Response{data=[]mall.ProductInfo}
// @Router /api/v1/products/hot [get]
func (h *ProductHandler) GetHotProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, err := h.productService.GetHotProducts(c.Request.Context(), limit)
	handler.MustSucceed(c, err, products)
}

// GetNewProducts 获取新品
// @Summary 获取新品
// @Tags 商品
// @Produce json
// @Param limit query int false "数量，默认10"
// @Success 200 {object} response.Response{data=[]mall.ProductInfo}
// @Router /api/v1/products/new [get]
func (h *ProductHandler) GetNewProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, err := h.productService.GetNewProducts(c.Request.Context(), limit)
	handler.MustSucceed(c, err, products)
}

// RegisterRoutes 注册商品路由（无需认证）
func (h *ProductHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/categories", h.GetCategories)

	products := r.Group("/products")
	{
		products.GET("", h.GetProducts)
		products.GET("/hot", h.GetHotProducts)
		products.GET("/new", h.GetNewProducts)
		products.GET("/:id", h.GetProductDetail)
		products.GET("/:id/skus", h.GetProductSkus)
	}
}
