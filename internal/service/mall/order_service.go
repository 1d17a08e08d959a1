package mall

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/smart-mall-backend/internal/common/errors"
	"github.com/dumeirei/smart-mall-backend/internal/common/utils"
	"github.com/dumeirei/smart-mall-backend/internal/models"
	"github.com/dumeirei/smart-mall-backend/internal/pricing"
	"github.com/dumeirei/smart-mall-backend/internal/repository"
)

// 下单阶段优惠券并发冲突的最大重试次数
const maxPricingRetries = 3

// OrderService 订单服务。
// 价格计算完全委托给定价引擎；本服务负责把计算结果
// （订单行、赠品行、优惠券核销、积分扣减、库存扣减）在一个事务内落库。
type OrderService struct {
	db                *gorm.DB
	resolver          *pricing.Resolver
	orderRepo         *repository.OrderRepository
	productRepo       *repository.ProductRepository
	couponRepo        *repository.CouponRepository
	userCouponRepo    *repository.UserCouponRepository
	userRepo          *repository.UserRepository
	pointsLogRepo     *repository.PointsLogRepository
	addressRepo       *repository.AddressRepository
	payTimeoutMinutes int
	logger            *zap.Logger
}

// NewOrderService 创建订单服务
func NewOrderService(
	db *gorm.DB,
	resolver *pricing.Resolver,
	orderRepo *repository.OrderRepository,
	productRepo *repository.ProductRepository,
	couponRepo *repository.CouponRepository,
	userCouponRepo *repository.UserCouponRepository,
	userRepo *repository.UserRepository,
	pointsLogRepo *repository.PointsLogRepository,
	addressRepo *repository.AddressRepository,
	payTimeoutMinutes int,
	logger *zap.Logger,
) *OrderService {
	if payTimeoutMinutes <= 0 {
		payTimeoutMinutes = 30
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		db:                db,
		resolver:          resolver,
		orderRepo:         orderRepo,
		productRepo:       productRepo,
		couponRepo:        couponRepo,
		userCouponRepo:    userCouponRepo,
		userRepo:          userRepo,
		pointsLogRepo:     pointsLogRepo,
		addressRepo:       addressRepo,
		payTimeoutMinutes: payTimeoutMinutes,
		logger:            logger,
	}
}

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	Items        []pricing.LineItem `json:"items" binding:"required,min=1,dive"`
	CouponIDs    []int64            `json:"coupon_ids"`
	PromotionIDs []int64            `json:"promotion_ids"`
	PointsUsage  int                `json:"points_usage"`
	AddressID    *int64             `json:"address_id"`
	Remark       string             `json:"remark"`
}

// OrderInfo 订单信息
type OrderInfo struct {
	ID             int64            `json:"id"`
	OrderNo        string           `json:"order_no"`
	Status         int8             `json:"status"`
	StatusText     string           `json:"status_text"`
	TotalAmount    float64          `json:"total_amount"`
	DiscountAmount float64          `json:"discount_amount"`
	PointsUsed     int              `json:"points_used,omitempty"`
	PointsDiscount float64          `json:"points_discount,omitempty"`
	ActualAmount   float64          `json:"actual_amount"`
	Items          []*OrderItemInfo `json:"items"`
	Remark         string           `json:"remark,omitempty"`
	CreatedAt      string           `json:"created_at"`
	PaidAt         string           `json:"paid_at,omitempty"`
	ExpiredAt      string           `json:"expired_at,omitempty"`
}

// OrderItemInfo 订单项信息
type OrderItemInfo struct {
	ProductID      int64   `json:"product_id"`
	SkuID          int64   `json:"sku_id,omitempty"`
	ProductName    string  `json:"product_name"`
	SkuName        string  `json:"sku_name,omitempty"`
	ProductImage   string  `json:"product_image,omitempty"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	TotalAmount    float64 `json:"total_amount"`
	DiscountAmount float64 `json:"discount_amount"`
	ActualAmount   float64 `json:"actual_amount"`
	IsMemberPrice  bool    `json:"is_member_price,omitempty"`
	IsGift         bool    `json:"is_gift,omitempty"`
}

// couponConflict 优惠券在落库阶段被并发用尽或用掉
type couponConflict struct {
	couponID int64
}

func (e *couponConflict) Error() string {
	return fmt.Sprintf("优惠券 %d 状态已变更", e.couponID)
}

// PreviewOrder 试算整单价格，不产生任何写入
func (s *OrderService) PreviewOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*pricing.OrderPricing, error) {
	if len(req.Items) == 0 {
		return nil, errors.ErrOrderEmpty
	}
	result, err := s.resolver.ApplyPricingToOrder(ctx, req.Items, userID, req.CouponIDs, req.PromotionIDs, req.PointsUsage)
	if err != nil {
		return nil, mapPricingError(err)
	}
	return result, nil
}

// PreviewPrice 试算单个商品的价格明细
func (s *OrderService) PreviewPrice(ctx context.Context, req *pricing.PriceRequest) (*pricing.PriceBreakdown, error) {
	breakdown, err := s.resolver.PreviewPrice(ctx, req)
	if err != nil {
		return nil, mapPricingError(err)
	}
	return breakdown, nil
}

// CreateOrder 创建订单。
// 先由定价引擎计算整单明细，再在一个事务内创建订单、核销优惠券、
// 扣减积分与库存。某张优惠券在落库时被并发用掉的话，剔除该券重新计价重试。
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*OrderInfo, error) {
	if len(req.Items) == 0 {
		return nil, errors.ErrOrderEmpty
	}

	if req.AddressID != nil {
		if _, err := s.addressRepo.GetByIDAndUserID(ctx, *req.AddressID, userID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, errors.ErrAddressNotFound
			}
			return nil, errors.ErrDatabaseError.WithError(err)
		}
	}

	couponIDs := append([]int64(nil), req.CouponIDs...)

	for attempt := 0; ; attempt++ {
		result, err := s.resolver.ApplyPricingToOrder(ctx, req.Items, userID, couponIDs, req.PromotionIDs, req.PointsUsage)
		if err != nil {
			return nil, mapPricingError(err)
		}

		order, items, err := s.placeOrder(ctx, userID, req, result)
		if err == nil {
			return s.toOrderInfo(order, items), nil
		}

		if conflict, ok := err.(*couponConflict); ok {
			if attempt >= maxPricingRetries {
				return nil, errors.ErrPricingConflict
			}
			s.logger.Warn("优惠券核销冲突，剔除后重新计价",
				zap.Int64("user_id", userID),
				zap.Int64("coupon_id", conflict.couponID))
			couponIDs = removeID(couponIDs, conflict.couponID)
			continue
		}

		return nil, err
	}
}

// placeOrder 按定价结果落库，整个流程在一个事务内
func (s *OrderService) placeOrder(
	ctx context.Context,
	userID int64,
	req *CreateOrderRequest,
	result *pricing.OrderPricing,
) (*models.Order, []*models.OrderItem, error) {
	now := time.Now()
	expiredAt := now.Add(time.Duration(s.payTimeoutMinutes) * time.Minute)

	order := &models.Order{
		OrderNo:        utils.GenerateOrderNo("M"),
		UserID:         userID,
		Status:         models.OrderStatusPending,
		TotalAmount:    result.OriginalTotal,
		DiscountAmount: result.TotalDiscount - result.PointsDiscount,
		PointsUsed:     result.PointsUsed,
		PointsDiscount: result.PointsDiscount,
		ActualAmount:   result.OrderTotal,
		AddressID:      req.AddressID,
		ExpiredAt:      &expiredAt,
	}
	if req.Remark != "" {
		order.Remark = &req.Remark
	}

	items, giftQuantities, err := s.buildOrderItems(ctx, result)
	if err != nil {
		return nil, nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		for _, item := range items {
			item.OrderID = order.ID
			if err := tx.Create(item).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		if err := s.consumeCoupons(tx, userID, order.ID, result.ConsumedCoupons); err != nil {
			return err
		}

		if result.PointsUsed > 0 {
			if err := s.deductPoints(tx, userID, order.OrderNo, result.PointsUsed); err != nil {
				return err
			}
		}

		return s.deductStock(tx, result, giftQuantities)
	})
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// buildOrderItems 根据定价明细生成订单行与赠品行快照
func (s *OrderService) buildOrderItems(
	ctx context.Context,
	result *pricing.OrderPricing,
) ([]*models.OrderItem, map[int64]int, error) {
	items := make([]*models.OrderItem, 0, len(result.Lines))
	giftQuantities := make(map[int64]int)

	for _, line := range result.Lines {
		product, err := s.productRepo.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, nil, errors.ErrDatabaseError.WithError(err)
		}
		if product == nil {
			return nil, nil, errors.ErrProductNotFound
		}

		item := &models.OrderItem{
			ProductID:      line.ProductID,
			SkuID:          line.SkuID,
			ProductName:    product.Name,
			Price:          line.UnitPrice,
			Quantity:       line.Quantity,
			TotalAmount:    line.OriginalAmount,
			DiscountAmount: line.Savings,
			ActualAmount:   line.FinalPrice,
			IsMemberPrice:  line.IsMemberPrice,
		}
		image := product.MainImage
		if line.SkuID > 0 {
			sku, err := s.productRepo.GetSku(ctx, line.SkuID)
			if err != nil {
				return nil, nil, errors.ErrDatabaseError.WithError(err)
			}
			if sku == nil {
				return nil, nil, errors.ErrSkuNotFound
			}
			item.SkuName = &sku.Name
			if sku.Image != nil {
				image = *sku.Image
			}
		}
		if image != "" {
			item.ProductImage = &image
		}
		items = append(items, item)

		// 满赠产生的赠品行：零价入单，标记来源商品行之后统一扣库存
		for _, gift := range line.Gifts {
			giftProduct, err := s.productRepo.GetProduct(ctx, gift.ProductID)
			if err != nil {
				return nil, nil, errors.ErrDatabaseError.WithError(err)
			}
			if giftProduct == nil || giftProduct.Status != models.ProductStatusOnSale {
				s.logger.Warn("赠品商品不可用，已跳过",
					zap.Int64("gift_product_id", gift.ProductID),
					zap.Int64("source_id", gift.SourceID))
				continue
			}
			giftItem := &models.OrderItem{
				ProductID:    gift.ProductID,
				ProductName:  giftProduct.Name,
				Price:        0,
				Quantity:     gift.Quantity,
				TotalAmount:  0,
				ActualAmount: 0,
				IsGift:       true,
			}
			if giftProduct.MainImage != "" {
				img := giftProduct.MainImage
				giftItem.ProductImage = &img
			}
			items = append(items, giftItem)
			giftQuantities[gift.ProductID] += gift.Quantity
		}
	}

	return items, giftQuantities, nil
}

// consumeCoupons 核销定价结果实际使用的优惠券。
// 用户券标记已用、券总用量加一都是条件更新；任何一步零行命中
// 说明该券在计价与落库之间被并发用掉，返回冲突交给上层重新计价。
func (s *OrderService) consumeCoupons(tx *gorm.DB, userID, orderID int64, couponIDs []int64) error {
	now := time.Now()
	for _, couponID := range couponIDs {
		var userCoupon models.UserCoupon
		err := tx.
			Where("user_id = ? AND coupon_id = ? AND status = ? AND expired_at > ?",
				userID, couponID, models.UserCouponStatusUnused, now).
			Order("expired_at ASC").
			First(&userCoupon).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return &couponConflict{couponID: couponID}
			}
			return errors.ErrDatabaseError.WithError(err)
		}

		marked := tx.Model(&models.UserCoupon{}).
			Where("id = ? AND status = ?", userCoupon.ID, models.UserCouponStatusUnused).
			Updates(map[string]interface{}{
				"status":   models.UserCouponStatusUsed,
				"order_id": orderID,
				"used_at":  now,
			})
		if marked.Error != nil {
			return errors.ErrDatabaseError.WithError(marked.Error)
		}
		if marked.RowsAffected == 0 {
			return &couponConflict{couponID: couponID}
		}

		consumed := tx.Model(&models.Coupon{}).
			Where("id = ? AND (total_count = 0 OR used_count < total_count)", couponID).
			UpdateColumn("used_count", gorm.Expr("used_count + 1"))
		if consumed.Error != nil {
			return errors.ErrDatabaseError.WithError(consumed.Error)
		}
		if consumed.RowsAffected == 0 {
			return &couponConflict{couponID: couponID}
		}
	}
	return nil
}

// deductPoints 扣减积分并写流水，余额快照取扣减后的值
func (s *OrderService) deductPoints(tx *gorm.DB, userID int64, orderNo string, points int) error {
	result := tx.Model(&models.User{}).
		Where("id = ? AND points >= ?", userID, points).
		UpdateColumn("points", gorm.Expr("points - ?", points))
	if result.Error != nil {
		return errors.ErrDatabaseError.WithError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.ErrPointsInsufficient
	}

	var user models.User
	if err := tx.Select("points").First(&user, userID).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	log := &models.PointsLog{
		UserID:      userID,
		Type:        models.PointsLogTypeDeduct,
		Points:      -points,
		Balance:     user.Points,
		OrderNo:     &orderNo,
		Description: "下单积分抵扣",
	}
	if err := tx.Create(log).Error; err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// deductStock 扣减商品与 SKU 库存并累计销量。赠品只扣商品总库存。
func (s *OrderService) deductStock(tx *gorm.DB, result *pricing.OrderPricing, giftQuantities map[int64]int) error {
	for _, line := range result.Lines {
		if line.SkuID > 0 {
			deducted := tx.Model(&models.ProductSku{}).
				Where("id = ? AND stock >= ?", line.SkuID, line.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", line.Quantity))
			if deducted.Error != nil {
				return errors.ErrDatabaseError.WithError(deducted.Error)
			}
			if deducted.RowsAffected == 0 {
				return errors.ErrStockInsufficient
			}
		}

		deducted := tx.Model(&models.Product{}).
			Where("id = ? AND total_stock >= ?", line.ProductID, line.Quantity).
			UpdateColumn("total_stock", gorm.Expr("total_stock - ?", line.Quantity))
		if deducted.Error != nil {
			return errors.ErrDatabaseError.WithError(deducted.Error)
		}
		if deducted.RowsAffected == 0 {
			return errors.ErrStockInsufficient
		}

		if err := tx.Model(&models.Product{}).
			Where("id = ?", line.ProductID).
			UpdateColumn("total_sales", gorm.Expr("total_sales + ?", line.Quantity)).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
	}

	for productID, quantity := range giftQuantities {
		deducted := tx.Model(&models.Product{}).
			Where("id = ? AND total_stock >= ?", productID, quantity).
			UpdateColumn("total_stock", gorm.Expr("total_stock - ?", quantity))
		if deducted.Error != nil {
			return errors.ErrDatabaseError.WithError(deducted.Error)
		}
		if deducted.RowsAffected == 0 {
			return errors.ErrStockInsufficient
		}
	}
	return nil
}

// GetOrderDetail 获取订单详情
func (s *OrderService) GetOrderDetail(ctx context.Context, userID, orderID int64) (*OrderInfo, error) {
	order, err := s.orderRepo.GetByIDWithItems(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return nil, errors.ErrOrderNotFound
	}

	items := make([]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		items[i] = &order.Items[i]
	}
	return s.toOrderInfo(order, items), nil
}

// GetOrderByNo 按订单号获取订单详情
func (s *OrderService) GetOrderByNo(ctx context.Context, userID int64, orderNo string) (*OrderInfo, error) {
	order, err := s.orderRepo.GetByOrderNoWithItems(ctx, orderNo)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return nil, errors.ErrOrderNotFound
	}

	items := make([]*models.OrderItem, len(order.Items))
	for i := range order.Items {
		items[i] = &order.Items[i]
	}
	return s.toOrderInfo(order, items), nil
}

// GetOrderList 获取用户订单列表
func (s *OrderService) GetOrderList(ctx context.Context, userID int64, status *int8, page, pageSize int) ([]*OrderInfo, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}

	orders, total, err := s.orderRepo.List(ctx, repository.OrderListParams{
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
		UserID: userID,
		Status: status,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}

	result := make([]*OrderInfo, len(orders))
	for i, order := range orders {
		items := make([]*models.OrderItem, len(order.Items))
		for j := range order.Items {
			items[j] = &order.Items[j]
		}
		result[i] = s.toOrderInfo(order, items)
	}
	return result, total, nil
}

// CancelOrder 取消待支付订单，恢复库存、优惠券与积分
func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID int64, reason string) error {
	order, err := s.orderRepo.GetByIDWithItems(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return errors.ErrOrderNotFound
	}
	if order.Status != models.OrderStatusPending {
		return errors.ErrOrderCannotCancel
	}

	return s.cancelAndRestore(ctx, order, reason)
}

// CancelExpiredOrders 批量取消超时未支付订单，由调度器定时触发
func (s *OrderService) CancelExpiredOrders(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	orders, err := s.orderRepo.ListExpired(ctx, limit)
	if err != nil {
		return 0, errors.ErrDatabaseError.WithError(err)
	}

	cancelled := 0
	for _, order := range orders {
		full, err := s.orderRepo.GetByIDWithItems(ctx, order.ID)
		if err != nil {
			s.logger.Warn("加载超时订单失败", zap.Int64("order_id", order.ID), zap.Error(err))
			continue
		}
		if err := s.cancelAndRestore(ctx, full, "支付超时自动取消"); err != nil {
			s.logger.Warn("取消超时订单失败", zap.Int64("order_id", order.ID), zap.Error(err))
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// cancelAndRestore 取消订单并回滚库存、优惠券与积分。
// 状态流转是条件更新：并发取消/支付时只有一方生效，另一方静默退出。
func (s *OrderService) cancelAndRestore(ctx context.Context, order *models.Order, reason string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updated := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.OrderStatusPending).
			Updates(map[string]interface{}{
				"status":        models.OrderStatusCancelled,
				"cancelled_at":  now,
				"cancel_reason": reason,
			})
		if updated.Error != nil {
			return errors.ErrDatabaseError.WithError(updated.Error)
		}
		if updated.RowsAffected == 0 {
			return nil
		}

		// 恢复库存
		for i := range order.Items {
			item := &order.Items[i]
			if item.SkuID > 0 {
				if err := tx.Model(&models.ProductSku{}).
					Where("id = ?", item.SkuID).
					UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return errors.ErrDatabaseError.WithError(err)
				}
			}
			if err := tx.Model(&models.Product{}).
				Where("id = ?", item.ProductID).
				UpdateColumn("total_stock", gorm.Expr("total_stock + ?", item.Quantity)).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if !item.IsGift {
				if err := tx.Model(&models.Product{}).
					Where("id = ? AND total_sales >= ?", item.ProductID, item.Quantity).
					UpdateColumn("total_sales", gorm.Expr("total_sales - ?", item.Quantity)).Error; err != nil {
					return errors.ErrDatabaseError.WithError(err)
				}
			}
		}

		// 回退优惠券
		var userCoupons []*models.UserCoupon
		if err := tx.
			Where("order_id = ? AND status = ?", order.ID, models.UserCouponStatusUsed).
			Find(&userCoupons).Error; err != nil {
			return errors.ErrDatabaseError.WithError(err)
		}
		for _, uc := range userCoupons {
			if err := tx.Model(&models.UserCoupon{}).
				Where("id = ?", uc.ID).
				Updates(map[string]interface{}{
					"status":   models.UserCouponStatusUnused,
					"order_id": nil,
					"used_at":  nil,
				}).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			if err := tx.Model(&models.Coupon{}).
				Where("id = ? AND used_count > 0", uc.CouponID).
				UpdateColumn("used_count", gorm.Expr("used_count - 1")).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		// 返还积分
		if order.PointsUsed > 0 {
			if err := tx.Model(&models.User{}).
				Where("id = ?", order.UserID).
				UpdateColumn("points", gorm.Expr("points + ?", order.PointsUsed)).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			var user models.User
			if err := tx.Select("points").First(&user, order.UserID).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
			log := &models.PointsLog{
				UserID:      order.UserID,
				Type:        models.PointsLogTypeRefund,
				Points:      order.PointsUsed,
				Balance:     user.Points,
				OrderNo:     &order.OrderNo,
				Description: "订单取消返还积分",
			}
			if err := tx.Create(log).Error; err != nil {
				return errors.ErrDatabaseError.WithError(err)
			}
		}

		return nil
	})
}

// ConfirmReceive 确认收货
func (s *OrderService) ConfirmReceive(ctx context.Context, userID, orderID int64) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if order.UserID != userID {
		return errors.ErrOrderNotFound
	}

	if err := s.orderRepo.MarkAsCompleted(ctx, orderID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrOrderStatusError.WithMessage("订单状态不允许确认收货")
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	return nil
}

// toOrderInfo 转换为订单信息
func (s *OrderService) toOrderInfo(order *models.Order, items []*models.OrderItem) *OrderInfo {
	info := &OrderInfo{
		ID:             order.ID,
		OrderNo:        order.OrderNo,
		Status:         order.Status,
		StatusText:     orderStatusText(order.Status),
		TotalAmount:    order.TotalAmount,
		DiscountAmount: order.DiscountAmount,
		PointsUsed:     order.PointsUsed,
		PointsDiscount: order.PointsDiscount,
		ActualAmount:   order.ActualAmount,
		Items:          make([]*OrderItemInfo, 0, len(items)),
		CreatedAt:      order.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if order.Remark != nil {
		info.Remark = *order.Remark
	}
	if order.PaidAt != nil {
		info.PaidAt = order.PaidAt.Format("2006-01-02 15:04:05")
	}
	if order.ExpiredAt != nil {
		info.ExpiredAt = order.ExpiredAt.Format("2006-01-02 15:04:05")
	}

	for _, item := range items {
		itemInfo := &OrderItemInfo{
			ProductID:      item.ProductID,
			SkuID:          item.SkuID,
			ProductName:    item.ProductName,
			Price:          item.Price,
			Quantity:       item.Quantity,
			TotalAmount:    item.TotalAmount,
			DiscountAmount: item.DiscountAmount,
			ActualAmount:   item.ActualAmount,
			IsMemberPrice:  item.IsMemberPrice,
			IsGift:         item.IsGift,
		}
		if item.SkuName != nil {
			itemInfo.SkuName = *item.SkuName
		}
		if item.ProductImage != nil {
			itemInfo.ProductImage = *item.ProductImage
		}
		info.Items = append(info.Items, itemInfo)
	}
	return info
}

// orderStatusText 订单状态文案
func orderStatusText(status int8) string {
	switch status {
	case models.OrderStatusPending:
		return "待支付"
	case models.OrderStatusPaid:
		return "已支付"
	case models.OrderStatusShipping:
		return "配送中"
	case models.OrderStatusDelivered:
		return "已送达"
	case models.OrderStatusCompleted:
		return "已完成"
	case models.OrderStatusCancelled:
		return "已取消"
	case models.OrderStatusRefunding:
		return "退款中"
	case models.OrderStatusRefunded:
		return "已退款"
	default:
		return "未知状态"
	}
}

// mapPricingError 将定价引擎错误映射为带错误码的业务错误
func mapPricingError(err error) error {
	switch err {
	case pricing.ErrProductNotFound:
		return errors.ErrProductNotFound
	case pricing.ErrProductUnavailable:
		return errors.ErrProductOffShelf
	case pricing.ErrSkuNotFound:
		return errors.ErrSkuNotFound
	case pricing.ErrSkuUnavailable:
		return errors.ErrSkuOffShelf
	case pricing.ErrSkuMismatch:
		return errors.ErrSkuMismatch
	case pricing.ErrUserNotFound:
		return errors.ErrUserNotFound
	case pricing.ErrInvalidQuantity:
		return errors.ErrInvalidParams.WithMessage("购买数量无效")
	case pricing.ErrPointsNotRedeemable:
		return errors.ErrPointsNotRedeemable
	case pricing.ErrInsufficientPoints:
		return errors.ErrPointsInsufficient
	case pricing.ErrPointsExceedLimit:
		return errors.ErrPointsExceedLimit
	default:
		return errors.ErrDatabaseError.WithError(err)
	}
}

// removeID 从 ID 列表中剔除指定值
func removeID(ids []int64, target int64) []int64 {
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id != target {
			result = append(result, id)
		}
	}
	return result
}
