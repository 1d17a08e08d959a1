// Package mall 提供商城服务
package mall

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/cache"
	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// 缓存过期时间
const (
	productDetailTTL = 5 * time.Minute
	hotProductsTTL   = 10 * time.Minute
)

// ProductService 商品服务
type ProductService struct {
	productRepo  *repository.ProductRepository
	categoryRepo *repository.CategoryRepository
	redis        *redis.Client
	logger       *zap.Logger
}

// NewProductService 创建商品服务。redis 为 nil 时不走缓存。
func NewProductService(
	productRepo *repository.ProductRepository,
	categoryRepo *repository.CategoryRepository,
	redisClient *redis.Client,
	logger *zap.Logger,
) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		redis:        redisClient,
		logger:       logger,
	}
}

// ProductInfo 商品信息
type ProductInfo struct {
	ID               int64       `json:"id"`
	CategoryID       int64       `json:"category_id"`
	CategoryName     string      `json:"category_name,omitempty"`
	Name             string      `json:"name"`
	Subtitle         string      `json:"subtitle,omitempty"`
	MainImage        string      `json:"main_image"`
	Images           models.JSON `json:"images,omitempty"`
	Description      string      `json:"description,omitempty"`
	Kind             string      `json:"kind"`
	Price            float64     `json:"price"`
	OriginalPrice    float64     `json:"original_price,omitempty"`
	Stock            int         `json:"stock"`
	Sales            int         `json:"sales"`
	MaxPointsPerUnit int         `json:"max_points_per_unit"`
	MemberPriceFlag  bool        `json:"member_price_enabled"`
	IsHot            bool        `json:"is_hot"`
	IsNew            bool        `json:"is_new"`
	Status           int8        `json:"status"`
	Skus             []*SkuInfo  `json:"skus,omitempty"`
}

// SkuInfo SKU 信息
type SkuInfo struct {
	ID      int64       `json:"id"`
	SkuCode string      `json:"sku_code"`
	Name    string      `json:"name"`
	Specs   models.JSON `json:"specs,omitempty"`
	Price   float64     `json:"price"`
	Stock   int         `json:"stock"`
	Image   string      `json:"image,omitempty"`
}

// CategoryInfo 分类信息
type CategoryInfo struct {
	ID       int64           `json:"id"`
	ParentID *int64          `json:"parent_id,omitempty"`
	Name     string          `json:"name"`
	Icon     string          `json:"icon,omitempty"`
	Level    int             `json:"level"`
	Children []*CategoryInfo `json:"children,omitempty"`
}

// ProductListRequest 商品列表请求
type ProductListRequest struct {
	Page       int    `form:"page" binding:"min=1"`
	PageSize   int    `form:"page_size" binding:"min=1,max=100"`
	CategoryID int64  `form:"category_id"`
	Keyword    string `form:"keyword"`
	IsHot      *bool  `form:"is_hot"`
	IsNew      *bool  `form:"is_new"`
	SortBy     string `form:"sort_by"` // price_asc, price_desc, sales_desc, newest
}

// ProductListResponse 商品列表响应
type ProductListResponse struct {
	List       []*ProductInfo `json:"list"`
	Total      int64          `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
}

// GetCategoryTree 获取分类树
func (s *ProductService) GetCategoryTree(ctx context.Context) ([]*CategoryInfo, error) {
	categories, err := s.categoryRepo.ListTree(ctx)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return buildCategoryTree(categories), nil
}

func buildCategoryTree(categories []*models.Category) []*CategoryInfo {
	var result []*CategoryInfo
	for _, cat := range categories {
		info := &CategoryInfo{
			ID:       cat.ID,
			ParentID: cat.ParentID,
			Name:     cat.Name,
			Level:    cat.Level,
		}
		if cat.Icon != nil {
			info.Icon = *cat.Icon
		}
		if len(cat.Children) > 0 {
			children := make([]*models.Category, len(cat.Children))
			for i := range cat.Children {
				children[i] = &cat.Children[i]
			}
			info.Children = buildCategoryTree(children)
		}
		result = append(result, info)
	}
	return result
}

// GetProductList 获取上架商品列表
func (s *ProductService) GetProductList(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	offset := (req.Page - 1) * req.PageSize
	status := int8(models.ProductStatusOnSale)

	params := repository.ProductListParams{
		Offset:     offset,
		Limit:      req.PageSize,
		CategoryID: req.CategoryID,
		Keyword:    req.Keyword,
		Status:     &status,
		IsHot:      req.IsHot,
		IsNew:      req.IsNew,
		OrderBy:    sortByToOrder(req.SortBy),
	}

	products, total, err := s.productRepo.List(ctx, params)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*ProductInfo, len(products))
	for i, p := range products {
		list[i] = toProductInfo(p)
	}

	totalPages := int(total) / req.PageSize
	if int(total)%req.PageSize > 0 {
		totalPages++
	}

	return &ProductListResponse{
		List:       list,
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

func sortByToOrder(sortBy string) string {
	switch sortBy {
	case "price_asc":
		return "price ASC"
	case "price_desc":
		return "price DESC"
	case "sales_desc":
		return "total_sales DESC"
	case "newest":
		return "created_at DESC"
	}
	return ""
}

// GetProductDetail 获取商品详情，带缓存旁路
func (s *ProductService) GetProductDetail(ctx context.Context, productID int64) (*ProductInfo, error) {
	cacheKey := fmt.Sprintf("%s%d", cache.KeyPrefixProduct, productID)

	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var info ProductInfo
			if err := json.Unmarshal([]byte(raw), &info); err == nil {
				return &info, nil
			}
		}
	}

	product, err := s.productRepo.GetByIDFull(ctx, productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrProductNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if product.Status != models.ProductStatusOnSale {
		return nil, errors.ErrProductOffShelf
	}

	info := toProductInfo(product)
	if product.Category != nil {
		info.CategoryName = product.Category.Name
	}
	if len(product.Skus) > 0 {
		info.Skus = make([]*SkuInfo, len(product.Skus))
		for i := range product.Skus {
			info.Skus[i] = toSkuInfo(&product.Skus[i])
		}
	}

	if s.redis != nil {
		if raw, err := json.Marshal(info); err == nil {
			if err := s.redis.Set(ctx, cacheKey, raw, productDetailTTL).Err(); err != nil {
				s.logger.Warn("商品详情写缓存失败", zap.Int64("product_id", productID), zap.Error(err))
			}
		}
	}

	return info, nil
}

// InvalidateProductCache 商品变更后清除缓存
func (s *ProductService) InvalidateProductCache(ctx context.Context, productID int64) {
	if s.redis == nil {
		return
	}
	cacheKey := fmt.Sprintf("%s%d", cache.KeyPrefixProduct, productID)
	if err := s.redis.Del(ctx, cacheKey, cache.KeyPrefixHotSale+"list").Err(); err != nil {
		s.logger.Warn("清除商品缓存失败", zap.Int64("product_id", productID), zap.Error(err))
	}
}

// GetHotProducts 获取热销商品，带缓存旁路
func (s *ProductService) GetHotProducts(ctx context.Context, limit int) ([]*ProductInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := cache.KeyPrefixHotSale + "list"
	if s.redis != nil {
		if raw, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var list []*ProductInfo
			if err := json.Unmarshal([]byte(raw), &list); err == nil && len(list) >= limit {
				return list[:limit], nil
			}
		}
	}

	isHot := true
	status := int8(models.ProductStatusOnSale)
	products, _, err := s.productRepo.List(ctx, repository.ProductListParams{
		Offset:  0,
		Limit:   limit,
		Status:  &status,
		IsHot:   &isHot,
		OrderBy: "total_sales DESC",
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*ProductInfo, len(products))
	for i, p := range products {
		list[i] = toProductInfo(p)
	}

	if s.redis != nil {
		if raw, err := json.Marshal(list); err == nil {
			_ = s.redis.Set(ctx, cacheKey, raw, hotProductsTTL).Err()
		}
	}

	return list, nil
}

// GetNewProducts 获取新品列表
func (s *ProductService) GetNewProducts(ctx context.Context, limit int) ([]*ProductInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	isNew := true
	status := int8(models.ProductStatusOnSale)
	products, _, err := s.productRepo.List(ctx, repository.ProductListParams{
		Offset:  0,
		Limit:   limit,
		Status:  &status,
		IsNew:   &isNew,
		OrderBy: "created_at DESC",
	})
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*ProductInfo, len(products))
	for i, p := range products {
		list[i] = toProductInfo(p)
	}
	return list, nil
}

// GetSkusByProductID 获取商品的 SKU 列表
func (s *ProductService) GetSkusByProductID(ctx context.Context, productID int64) ([]*SkuInfo, error) {
	skus, err := s.productRepo.ListSkusByProductID(ctx, productID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	list := make([]*SkuInfo, len(skus))
	for i, sku := range skus {
		list[i] = toSkuInfo(sku)
	}
	return list, nil
}

// CheckStock 检查库存
func (s *ProductService) CheckStock(ctx context.Context, productID, skuID int64, quantity int) error {
	if skuID > 0 {
		sku, err := s.productRepo.GetSku(ctx, skuID)
		if err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		if sku == nil {
			return errors.ErrSkuNotFound
		}
		if sku.Stock < quantity {
			return errors.ErrStockInsufficient
		}
		return nil
	}

	product, err := s.productRepo.GetProduct(ctx, productID)
	if err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	if product == nil {
		return errors.ErrProductNotFound
	}
	if product.TotalStock < quantity {
		return errors.ErrStockInsufficient
	}
	return nil
}

func toProductInfo(p *models.Product) *ProductInfo {
	info := &ProductInfo{
		ID:               p.ID,
		CategoryID:       p.CategoryID,
		Name:             p.Name,
		MainImage:        p.MainImage,
		Images:           p.Images,
		Kind:             p.Kind,
		Price:            p.Price,
		Stock:            p.TotalStock,
		Sales:            p.TotalSales,
		MaxPointsPerUnit: p.MaxPointsPerUnit,
		MemberPriceFlag:  p.MemberPriceFlag,
		IsHot:            p.IsHot,
		IsNew:            p.IsNew,
		Status:           p.Status,
	}

	if p.Subtitle != nil {
		info.Subtitle = *p.Subtitle
	}
	if p.Description != nil {
		info.Description = *p.Description
	}
	if p.OriginalPrice != nil {
		info.OriginalPrice = *p.OriginalPrice
	}

	return info
}

func toSkuInfo(sku *models.ProductSku) *SkuInfo {
	info := &SkuInfo{
		ID:      sku.ID,
		SkuCode: sku.SkuCode,
		Name:    sku.Name,
		Specs:   sku.Specs,
		Price:   sku.Price,
		Stock:   sku.Stock,
	}
	if sku.Image != nil {
		info.Image = *sku.Image
	}
	return info
}
