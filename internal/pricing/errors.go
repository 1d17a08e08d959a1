package pricing

import "errors"

// 定价引擎错误定义。
// 商品/用户等必选实体缺失会使整个定价请求失败；
// 候选优惠券/活动不可用只是静默排除，不产生错误。
var (
	ErrProductNotFound     = errors.New("商品不存在")
	ErrProductUnavailable  = errors.New("商品已下架")
	ErrSkuNotFound         = errors.New("SKU不存在")
	ErrSkuUnavailable      = errors.New("SKU已禁用")
	ErrSkuMismatch         = errors.New("SKU不属于该商品")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrInvalidQuantity     = errors.New("购买数量无效")
	ErrPointsNotRedeemable = errors.New("该商品不支持积分抵扣")
	ErrInsufficientPoints  = errors.New("积分不足")
	ErrPointsExceedLimit   = errors.New("超出积分抵扣上限")
)
