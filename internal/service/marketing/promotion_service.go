// Package marketing 提供营销相关服务
package marketing

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// PromotionService 促销活动服务
type PromotionService struct {
	promotionRepo *repository.PromotionRepository
}

// NewPromotionService 创建促销活动服务
func NewPromotionService(promotionRepo *repository.PromotionRepository) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
	}
}

// PromotionListRequest 活动列表请求
type PromotionListRequest struct {
	Page     int
	PageSize int
	Type     string
}

// PromotionListResponse 活动列表响应
type PromotionListResponse struct {
	List  []*PromotionItem `json:"list"`
	Total int64            `json:"total"`
}

// PromotionItem 活动项
type PromotionItem struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	TypeText    string      `json:"type_text"`
	Description *string     `json:"description,omitempty"`
	Image       *string     `json:"image,omitempty"`
	Scope       models.JSON `json:"scope,omitempty"`
	Rules       models.JSON `json:"rules,omitempty"`
	MinAmount   float64     `json:"min_amount"`
	StartTime   time.Time   `json:"start_time"`
	EndTime     time.Time   `json:"end_time"`
	Status      int8        `json:"status"`
	IsActive    bool        `json:"is_active"`
}

func promotionTypeText(promotionType string) string {
	switch promotionType {
	case models.PromotionTypeFullReduction:
		return "满减"
	case models.PromotionTypeFullGift:
		return "满赠"
	case models.PromotionTypeFullDiscount:
		return "满折"
	case models.PromotionTypeFlashSale:
		return "限时秒杀"
	case models.PromotionTypeGroupBuy:
		return "团购"
	case models.PromotionTypeBundle:
		return "套装优惠"
	case models.PromotionTypeFreeShipping:
		return "包邮"
	}
	return promotionType
}

func toPromotionItem(p *models.Promotion) *PromotionItem {
	now := time.Now()
	return &PromotionItem{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		TypeText:    promotionTypeText(p.Type),
		Description: p.Description,
		Image:       p.Image,
		Scope:       p.Scope,
		Rules:       p.Rules,
		MinAmount:   p.MinAmount,
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Status:      p.Status,
		IsActive: p.Status == models.PromotionStatusActive &&
			!now.Before(p.StartTime) && now.Before(p.EndTime),
	}
}

// GetActivePromotions 获取当前生效的活动列表（用户端）
func (s *PromotionService) GetActivePromotions(ctx context.Context) ([]*PromotionItem, error) {
	promotions, err := s.promotionRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	list := make([]*PromotionItem, 0, len(promotions))
	for _, p := range promotions {
		list = append(list, toPromotionItem(p))
	}
	return list, nil
}

// GetPromotionList 获取活动列表（管理端）
func (s *PromotionService) GetPromotionList(ctx context.Context, req *PromotionListRequest) (*PromotionListResponse, error) {
	offset := (req.Page - 1) * req.PageSize

	promotions, total, err := s.promotionRepo.List(ctx, repository.PromotionListParams{
		Offset: offset,
		Limit:  req.PageSize,
		Type:   req.Type,
	})
	if err != nil {
		return nil, err
	}

	list := make([]*PromotionItem, 0, len(promotions))
	for _, p := range promotions {
		list = append(list, toPromotionItem(p))
	}

	return &PromotionListResponse{
		List:  list,
		Total: total,
	}, nil
}

// GetPromotionDetail 获取活动详情
func (s *PromotionService) GetPromotionDetail(ctx context.Context, promotionID int64) (*PromotionItem, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrPromotionNotFound
		}
		return nil, err
	}
	return toPromotionItem(promotion), nil
}

// CreatePromotionRequest 创建活动请求（管理端）
type CreatePromotionRequest struct {
	Name        string      `json:"name" binding:"required"`
	Type        string      `json:"type" binding:"required"`
	Description *string     `json:"description,omitempty"`
	Image       *string     `json:"image,omitempty"`
	Scope       models.JSON `json:"scope,omitempty"`
	Rules       models.JSON `json:"rules,omitempty"`
	MinAmount   float64     `json:"min_amount"`
	StartTime   time.Time   `json:"start_time" binding:"required"`
	EndTime     time.Time   `json:"end_time" binding:"required"`
}

// CreatePromotion 创建促销活动。阶梯类活动在保存时严格校验规则。
func (s *PromotionService) CreatePromotion(ctx context.Context, req *CreatePromotionRequest) (*models.Promotion, error) {
	promotion := &models.Promotion{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Image:       req.Image,
		Scope:       req.Scope,
		Rules:       req.Rules,
		MinAmount:   req.MinAmount,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      models.PromotionStatusActive,
	}

	rs, err := pricing.NewRuleSetFromPromotion(promotion)
	if err != nil {
		return nil, ErrPromotionRuleInvalid
	}
	if rs.HasTierRules() {
		if err := pricing.ValidateTierRules(promotion.Type, rs.Rules); err != nil {
			return nil, ErrPromotionRuleInvalid
		}
	}

	if err := s.promotionRepo.Create(ctx, promotion); err != nil {
		return nil, err
	}
	return promotion, nil
}

// UpdatePromotionStatus 启用/停用活动
func (s *PromotionService) UpdatePromotionStatus(ctx context.Context, promotionID int64, status int8) error {
	_, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrPromotionNotFound
		}
		return err
	}
	return s.promotionRepo.UpdateStatus(ctx, promotionID, status)
}
