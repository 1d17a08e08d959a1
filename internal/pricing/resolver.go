package pricing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dumeirei/smart-mall-backend/internal/models"
)

// CatalogStore 商品目录查询。实体不存在时返回 (nil, nil)。
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetSku(ctx context.Context, id int64) (*models.ProductSku, error)
}

// MemberStore 会员查询（带等级预加载）。用户不存在时返回 (nil, nil)。
type MemberStore interface {
	GetUserWithLevel(ctx context.Context, id int64) (*models.User, error)
}

// CouponStore 按 ID 批量查询优惠券，未知 ID 静默缺失
type CouponStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Coupon, error)
}

// PromotionStore 按 ID 批量查询促销活动，未知 ID 静默缺失
type PromotionStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]*models.Promotion, error)
}

// Config 引擎配置
type Config struct {
	// PointUnitValue 单个积分抵扣的金额（元）
	PointUnitValue float64
}

// Resolver 价格决议器：引擎对外的唯一入口。
// PreviewPrice 是纯只读计算，可在并发请求间安全复用；
// 写入（优惠券核销、积分扣减）由调用方在下单事务中完成。
type Resolver struct {
	catalog      CatalogStore
	members      MemberStore
	coupons      CouponStore
	promotions   PromotionStore
	memberPrices *MemberPriceOverride
	eligibility  *EligibilityFilter
	pointUnit    decimal.Decimal
	logger       *zap.Logger
}

// NewResolver 创建价格决议器
func NewResolver(
	catalog CatalogStore,
	members MemberStore,
	coupons CouponStore,
	promotions PromotionStore,
	memberPrices MemberPriceStore,
	usage UsageCounter,
	cfg Config,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		catalog:      catalog,
		members:      members,
		coupons:      coupons,
		promotions:   promotions,
		memberPrices: NewMemberPriceOverride(memberPrices),
		eligibility:  NewEligibilityFilter(usage),
		pointUnit:    decimal.NewFromFloat(cfg.PointUnitValue),
		logger:       logger,
	}
}

// PriceRequest 单行定价请求
type PriceRequest struct {
	ProductID    int64   `json:"product_id" binding:"required"`
	SkuID        int64   `json:"sku_id"`
	Quantity     int     `json:"quantity" binding:"required,min=1"`
	UserID       int64   `json:"-"`
	CouponIDs    []int64 `json:"coupon_ids"`
	PromotionIDs []int64 `json:"promotion_ids"`
	PointsUsage  int     `json:"points_usage"`
}

// LineItem 订单定价中的一个商品行
type LineItem struct {
	ProductID int64 `json:"product_id" binding:"required"`
	SkuID     int64 `json:"sku_id"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// DiscountEntry 一条已应用的优惠
type DiscountEntry struct {
	Type        string  `json:"type"` // coupon/promotion/member/points
	ID          int64   `json:"id,omitempty"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// GiftEntry 满赠产生的赠品行
type GiftEntry struct {
	ProductID  int64  `json:"product_id"`
	Quantity   int    `json:"quantity"`
	SourceType string `json:"source_type"`
	SourceID   int64  `json:"source_id"`
	SourceName string `json:"source_name"`
}

// PriceBreakdown 单行价格明细
type PriceBreakdown struct {
	ProductID      int64            `json:"product_id"`
	SkuID          int64            `json:"sku_id,omitempty"`
	Quantity       int              `json:"quantity"`
	UnitPrice      float64          `json:"unit_price"`
	OriginalAmount float64          `json:"original_amount"`
	Discounts      []*DiscountEntry `json:"discounts"`
	Gifts          []*GiftEntry     `json:"gifts,omitempty"`
	FinalPrice     float64          `json:"final_price"`
	Savings        float64          `json:"savings"`
	SavingsRate    float64          `json:"savings_rate"` // 百分比，保留两位小数
	IsMemberPrice  bool             `json:"is_member_price"`
	PointsUsed     int              `json:"points_used,omitempty"`

	// AppliedCouponIDs 实际产生优惠的优惠券，下单时据此核销
	AppliedCouponIDs []int64 `json:"-"`
}

// OrderPricing 整单定价结果
type OrderPricing struct {
	Lines           []*PriceBreakdown `json:"lines"`
	OrderTotal      float64           `json:"order_total"`
	OriginalTotal   float64           `json:"original_total"`
	TotalDiscount   float64           `json:"total_discount"`
	PointsUsed      int               `json:"points_used,omitempty"`
	PointsDiscount  float64           `json:"points_discount,omitempty"`
	ConsumedCoupons []int64           `json:"-"`
}

// GiftUnitPrice 实现 GiftPricer：赠品价值按商品基础价计
func (r *Resolver) GiftUnitPrice(ctx context.Context, productID int64) (decimal.Decimal, error) {
	product, err := r.catalog.GetProduct(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	if product == nil || product.Status != models.ProductStatusOnSale {
		return decimal.Zero, nil
	}
	return decimal.NewFromFloat(product.Price), nil
}

// PreviewPrice 计算单行价格明细。只读，可重复调用。
func (r *Resolver) PreviewPrice(ctx context.Context, req *PriceRequest) (*PriceBreakdown, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	line, err := r.loadLine(ctx, LineItem{ProductID: req.ProductID, SkuID: req.SkuID, Quantity: req.Quantity})
	if err != nil {
		return nil, err
	}

	user, err := r.loadUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	couponSets, promotionSets, err := r.loadRuleSets(ctx, req.CouponIDs, req.PromotionIDs)
	if err != nil {
		return nil, err
	}

	breakdown, running, err := r.priceLine(ctx, line, user, couponSets, promotionSets, nil)
	if err != nil {
		return nil, err
	}

	// 积分抵扣基于其他优惠之后的剩余应付金额
	if req.PointsUsage > 0 {
		if user == nil {
			return nil, ErrUserNotFound
		}
		redemption, err := ValidatePointRedemption(
			req.PointsUsage, user.Points, line.product.MaxPointsPerUnit,
			req.Quantity, r.pointUnit, running,
		)
		if err != nil {
			return nil, err
		}
		if redemption.Discount.IsPositive() {
			breakdown.Discounts = append(breakdown.Discounts, &DiscountEntry{
				Type:        "points",
				Name:        "积分抵扣",
				Amount:      round2(redemption.Discount),
				Description: describePoints(redemption.PointsUsage),
			})
			running = running.Sub(redemption.Discount)
			breakdown.PointsUsed = redemption.PointsUsage
		}
	}

	finalize(breakdown, decimal.NewFromFloat(breakdown.OriginalAmount), running)
	return breakdown, nil
}

// ApplyPricingToOrder 对整单逐行定价。
// 每张优惠券整单只生效一次（作用于首个符合条件的商品行）；
// 积分抵扣作用于全部行优惠之后的整单剩余应付金额。
// 本方法仍是只读计算；优惠券核销与积分扣减由调用方随订单持久化一并提交。
func (r *Resolver) ApplyPricingToOrder(
	ctx context.Context,
	items []LineItem,
	userID int64,
	couponIDs []int64,
	promotionIDs []int64,
	pointsUsage int,
) (*OrderPricing, error) {
	if len(items) == 0 {
		return nil, ErrInvalidQuantity
	}

	user, err := r.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	couponSets, promotionSets, err := r.loadRuleSets(ctx, couponIDs, promotionIDs)
	if err != nil {
		return nil, err
	}

	result := &OrderPricing{}
	appliedCoupons := make(map[int64]bool)

	originalTotal := decimal.Zero
	runningTotal := decimal.Zero
	pointsCap := 0
	availableForPoints := false

	lines := make([]*lineState, 0, len(items))
	for _, item := range items {
		line, err := r.loadLine(ctx, item)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	for _, line := range lines {
		breakdown, running, err := r.priceLine(ctx, line, user, couponSets, promotionSets, appliedCoupons)
		if err != nil {
			return nil, err
		}
		originalD := decimal.NewFromFloat(breakdown.OriginalAmount)
		finalize(breakdown, originalD, running)

		result.Lines = append(result.Lines, breakdown)
		result.ConsumedCoupons = append(result.ConsumedCoupons, breakdown.AppliedCouponIDs...)
		originalTotal = originalTotal.Add(originalD)
		runningTotal = runningTotal.Add(running)
		if line.product.MaxPointsPerUnit > 0 {
			availableForPoints = true
			pointsCap += line.product.MaxPointsPerUnit * line.quantity
		}
	}

	if runningTotal.IsNegative() {
		runningTotal = decimal.Zero
	}

	if pointsUsage > 0 {
		if user == nil {
			return nil, ErrUserNotFound
		}
		if !availableForPoints {
			return nil, ErrPointsNotRedeemable
		}
		redemption, err := ValidatePointRedemption(
			pointsUsage, user.Points, pointsCap, 1, r.pointUnit, runningTotal,
		)
		if err != nil {
			return nil, err
		}
		result.PointsUsed = redemption.PointsUsage
		result.PointsDiscount = round2(redemption.Discount)
		runningTotal = runningTotal.Sub(redemption.Discount)
	}

	if runningTotal.IsNegative() {
		runningTotal = decimal.Zero
	}

	result.OriginalTotal = round2(originalTotal)
	result.OrderTotal = round2(runningTotal)
	result.TotalDiscount = round2(originalTotal.Sub(runningTotal))
	return result, nil
}

// lineState 一个商品行的加载结果
type lineState struct {
	product  *models.Product
	sku      *models.ProductSku
	quantity int
}

// loadLine 加载并校验商品行
func (r *Resolver) loadLine(ctx context.Context, item LineItem) (*lineState, error) {
	if item.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	product, err := r.catalog.GetProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if product.Status != models.ProductStatusOnSale {
		return nil, ErrProductUnavailable
	}

	line := &lineState{product: product, quantity: item.Quantity}

	if item.SkuID > 0 {
		sku, err := r.catalog.GetSku(ctx, item.SkuID)
		if err != nil {
			return nil, err
		}
		if sku == nil {
			return nil, ErrSkuNotFound
		}
		if sku.ProductID != product.ID {
			return nil, ErrSkuMismatch
		}
		if sku.Status != models.SkuStatusActive {
			return nil, ErrSkuUnavailable
		}
		line.sku = sku
	}

	return line, nil
}

// loadUser 加载会员；userID 为 0 表示游客
func (r *Resolver) loadUser(ctx context.Context, userID int64) (*models.User, error) {
	if userID <= 0 {
		return nil, nil
	}
	user, err := r.members.GetUserWithLevel(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// loadRuleSets 加载候选优惠券/活动并解析为规则快照。
// 未知 ID 与解析失败的配置静默排除（后者记录告警，按零优惠处理）。
func (r *Resolver) loadRuleSets(ctx context.Context, couponIDs, promotionIDs []int64) ([]*RuleSet, []*RuleSet, error) {
	var couponSets, promotionSets []*RuleSet

	if len(couponIDs) > 0 {
		coupons, err := r.coupons.ListByIDs(ctx, couponIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, c := range coupons {
			rs, err := NewRuleSetFromCoupon(c)
			if err != nil {
				r.logger.Warn("优惠券规则配置异常，已跳过",
					zap.Int64("coupon_id", c.ID), zap.Error(err))
				continue
			}
			couponSets = append(couponSets, rs)
		}
	}

	if len(promotionIDs) > 0 {
		promotions, err := r.promotions.ListByIDs(ctx, promotionIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, p := range promotions {
			rs, err := NewRuleSetFromPromotion(p)
			if err != nil {
				r.logger.Warn("活动规则配置异常，已跳过",
					zap.Int64("promotion_id", p.ID), zap.Error(err))
				continue
			}
			promotionSets = append(promotionSets, rs)
		}
	}

	return couponSets, promotionSets, nil
}

// priceLine 计算单个商品行的优惠明细，返回未收尾的明细与剩余应付金额（未钳制）。
// skipCoupons 非 nil 时用于整单范围内的优惠券去重，命中的券会登记进去。
func (r *Resolver) priceLine(
	ctx context.Context,
	line *lineState,
	user *models.User,
	couponSets, promotionSets []*RuleSet,
	skipCoupons map[int64]bool,
) (*PriceBreakdown, decimal.Decimal, error) {
	unitPrice := decimal.NewFromFloat(line.product.Price)
	skuID := int64(0)
	if line.sku != nil {
		unitPrice = decimal.NewFromFloat(line.sku.Price)
		skuID = line.sku.ID
	}
	quantity := decimal.NewFromInt(int64(line.quantity))
	originalAmount := unitPrice.Mul(quantity)

	breakdown := &PriceBreakdown{
		ProductID: line.product.ID,
		SkuID:     skuID,
		Quantity:  line.quantity,
		Discounts: make([]*DiscountEntry, 0),
	}

	// 会员价命中时直接定价，跳过全部优惠券/活动/会员折扣
	if user != nil && line.product.MemberPriceFlag {
		price, ok, err := r.memberPrices.Lookup(ctx, line.product.ID, user.MemberLevelID, skuID)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if ok {
			unitPrice = price
			originalAmount = unitPrice.Mul(quantity)
			breakdown.IsMemberPrice = true
			breakdown.UnitPrice = round2(unitPrice)
			breakdown.OriginalAmount = round2(originalAmount)
			return breakdown, originalAmount, nil
		}
	}

	breakdown.UnitPrice = round2(unitPrice)
	breakdown.OriginalAmount = round2(originalAmount)

	now := time.Now()
	userID := int64(0)
	if user != nil {
		userID = user.ID
	}
	in := EligibilityInput{
		ProductID:   line.product.ID,
		SkuID:       skuID,
		UserID:      userID,
		OrderAmount: originalAmount,
		Now:         now,
	}

	running := originalAmount

	for _, rs := range couponSets {
		if skipCoupons != nil && skipCoupons[rs.ID] {
			continue
		}
		applied, err := r.applyInstrument(ctx, rs, in, line.quantity, breakdown, &running)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if applied {
			breakdown.AppliedCouponIDs = append(breakdown.AppliedCouponIDs, rs.ID)
			if skipCoupons != nil {
				skipCoupons[rs.ID] = true
			}
		}
	}

	for _, rs := range promotionSets {
		if _, err := r.applyInstrument(ctx, rs, in, line.quantity, breakdown, &running); err != nil {
			return nil, decimal.Zero, err
		}
	}

	// 会员等级折扣：按原始金额计算的一口价折扣，追加在优惠券/活动之后
	if user != nil && user.MemberLevel != nil && user.MemberLevel.Discount > 0 && user.MemberLevel.Discount < 1 {
		rate := decimal.NewFromFloat(user.MemberLevel.Discount)
		memberDiscount := originalAmount.Mul(decimal.NewFromInt(1).Sub(rate))
		memberDiscount = clampTo(memberDiscount, running)
		if memberDiscount.IsPositive() {
			breakdown.Discounts = append(breakdown.Discounts, &DiscountEntry{
				Type:        "member",
				ID:          user.MemberLevel.ID,
				Name:        user.MemberLevel.Name,
				Amount:      round2(memberDiscount),
				Description: describeMemberRate(user.MemberLevel),
			})
			running = running.Sub(memberDiscount)
		}
	}

	return breakdown, running, nil
}

// applyInstrument 将单个优惠券/活动作用于商品行，返回是否产生了优惠
func (r *Resolver) applyInstrument(
	ctx context.Context,
	rs *RuleSet,
	in EligibilityInput,
	quantity int,
	breakdown *PriceBreakdown,
	running *decimal.Decimal,
) (bool, error) {
	eligible, err := r.eligibility.Eligible(ctx, rs, in)
	if err != nil {
		return false, err
	}
	if !eligible {
		return false, nil
	}

	if rs.HasTierRules() {
		outcome, err := ResolveTierRules(ctx, rs.DiscountType, rs.Rules, in.OrderAmount, quantity, r)
		if err != nil {
			return false, err
		}
		if outcome.Empty() {
			return false, nil
		}

		if len(outcome.Gifts) > 0 {
			for _, g := range outcome.Gifts {
				breakdown.Gifts = append(breakdown.Gifts, &GiftEntry{
					ProductID:  g.ProductID,
					Quantity:   g.Quantity,
					SourceType: string(rs.Kind),
					SourceID:   rs.ID,
					SourceName: rs.Name,
				})
			}
			breakdown.Discounts = append(breakdown.Discounts, &DiscountEntry{
				Type:        string(rs.Kind),
				ID:          rs.ID,
				Name:        rs.Name,
				Amount:      0,
				Description: outcome.Description,
			})
			return true, nil
		}

		discount := outcome.DiscountAmount
		if rs.MaxDiscount != nil && discount.GreaterThan(*rs.MaxDiscount) {
			discount = *rs.MaxDiscount
		}
		discount = clampTo(discount, *running)
		if !discount.IsPositive() {
			return false, nil
		}
		breakdown.Discounts = append(breakdown.Discounts, &DiscountEntry{
			Type:        string(rs.Kind),
			ID:          rs.ID,
			Name:        rs.Name,
			Amount:      round2(discount),
			Description: outcome.Description,
		})
		*running = running.Sub(discount)
		return true, nil
	}

	discount := flatDiscount(rs, in.OrderAmount)
	discount = clampTo(discount, *running)
	if !discount.IsPositive() {
		return false, nil
	}
	breakdown.Discounts = append(breakdown.Discounts, &DiscountEntry{
		Type:        string(rs.Kind),
		ID:          rs.ID,
		Name:        rs.Name,
		Amount:      round2(discount),
		Description: describeFlat(rs),
	})
	*running = running.Sub(discount)
	return true, nil
}

// flatDiscount 计算非阶梯类（固定金额/百分比）优惠
func flatDiscount(rs *RuleSet, orderAmount decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal
	switch rs.DiscountType {
	case models.CouponTypeFixed:
		discount = rs.Value
	case models.CouponTypePercent:
		// value 为优惠比例，如 0.1 表示优惠10%
		discount = orderAmount.Mul(rs.Value)
	default:
		return decimal.Zero
	}

	if rs.MaxDiscount != nil && discount.GreaterThan(*rs.MaxDiscount) {
		discount = *rs.MaxDiscount
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	return discount
}

// finalize 收尾：钳制最终价并计算节省金额与比例
func finalize(b *PriceBreakdown, originalAmount, running decimal.Decimal) {
	if running.IsNegative() {
		running = decimal.Zero
	}
	final := running.Round(2)
	b.FinalPrice = final.InexactFloat64()

	savings := originalAmount.Sub(final)
	b.Savings = round2(savings)

	if originalAmount.IsPositive() {
		rate := savings.Div(originalAmount).Mul(decimal.NewFromInt(100))
		b.SavingsRate = round2(rate)
	}
}

// clampTo 单条优惠不超过剩余应付金额
func clampTo(discount, remaining decimal.Decimal) decimal.Decimal {
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	if discount.GreaterThan(remaining) {
		return remaining
	}
	return discount
}

func round2(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
