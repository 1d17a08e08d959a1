package models

import (
	"time"
)

// Coupon 优惠券模型
// Rules 字段仅对 full_* 类型有意义，存放阶梯规则数组：{"rules":[...]}，
// 规则结构由 pricing 包在边界处解析校验。
type Coupon struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Code         string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`
	Type         string    `gorm:"type:varchar(20);not null" json:"type"`
	Value        float64   `gorm:"type:decimal(10,2);not null;default:0" json:"value"`
	MinAmount    float64   `gorm:"type:decimal(10,2);not null;default:0" json:"min_amount"`
	MaxDiscount  *float64  `gorm:"type:decimal(10,2)" json:"max_discount,omitempty"`
	Scope        JSON      `gorm:"type:jsonb" json:"scope,omitempty"`
	Rules        JSON      `gorm:"type:jsonb" json:"rules,omitempty"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	TotalCount   int       `gorm:"not null" json:"total_count"`
	UsedCount    int       `gorm:"not null;default:0" json:"used_count"`
	IssuedCount  int       `gorm:"not null;default:0" json:"issued_count"`
	PerUserLimit int       `gorm:"not null;default:1" json:"per_user_limit"`
	Description  *string   `gorm:"type:varchar(255)" json:"description,omitempty"`
	Status       int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	UserCoupons []UserCoupon `gorm:"foreignKey:CouponID" json:"user_coupons,omitempty"`
}

// TableName 表名
func (Coupon) TableName() string {
	return "coupons"
}

// CouponType 优惠券类型
const (
	CouponTypeFixed         = "fixed"          // 固定金额
	CouponTypePercent       = "percentage"     // 百分比折扣
	CouponTypeFullReduction = "full_reduction" // 满减
	CouponTypeFullGift      = "full_gift"      // 满赠
	CouponTypeFullDiscount  = "full_discount"  // 满折
)

// CouponStatus 优惠券状态
const (
	CouponStatusDisabled = 0 // 禁用
	CouponStatusActive   = 1 // 启用
)

// CouponScope Scope 字段里的键名
const (
	CouponScopeProductKey = "product_ids" // 商品白名单
	CouponScopeSkuKey     = "sku_ids"     // SKU 白名单
)

// UserCoupon 用户优惠券
type UserCoupon struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64      `gorm:"index;not null" json:"user_id"`
	CouponID   int64      `gorm:"index;not null" json:"coupon_id"`
	OrderID    *int64     `json:"order_id,omitempty"`
	Status     int8       `gorm:"type:smallint;not null;default:0" json:"status"`
	ExpiredAt  time.Time  `gorm:"not null" json:"expired_at"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	ReceivedAt time.Time  `gorm:"autoCreateTime" json:"received_at"`

	// 关联
	User   *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Coupon *Coupon `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	Order  *Order  `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

// TableName 表名
func (UserCoupon) TableName() string {
	return "user_coupons"
}

// UserCouponStatus 用户优惠券状态
const (
	UserCouponStatusUnused  = 0 // 未使用
	UserCouponStatusUsed    = 1 // 已使用
	UserCouponStatusExpired = 2 // 已过期
)

// Promotion 促销活动模型
// Rules 按活动类型嵌套阶梯规则数组，例如 {"full_reduction":[...]}。
type Promotion struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	Image       *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	Scope       JSON      `gorm:"type:jsonb" json:"scope,omitempty"`
	Rules       JSON      `gorm:"type:jsonb" json:"rules,omitempty"`
	MinAmount   float64   `gorm:"type:decimal(10,2);not null;default:0" json:"min_amount"`
	StartTime   time.Time `gorm:"not null" json:"start_time"`
	EndTime     time.Time `gorm:"not null" json:"end_time"`
	Status      int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 表名
func (Promotion) TableName() string {
	return "promotions"
}

// PromotionType 活动类型
const (
	PromotionTypeFullReduction = "full_reduction" // 满减
	PromotionTypeFullGift      = "full_gift"      // 满赠
	PromotionTypeFullDiscount  = "full_discount"  // 满折
	PromotionTypeFlashSale     = "flash_sale"     // 秒杀
	PromotionTypeGroupBuy      = "group_buy"      // 团购
	PromotionTypeBundle        = "bundle"         // 套装
	PromotionTypeFreeShipping  = "free_shipping"  // 包邮
)

// PromotionStatus 活动状态
const (
	PromotionStatusDisabled = 0 // 禁用
	PromotionStatusActive   = 1 // 启用
)
