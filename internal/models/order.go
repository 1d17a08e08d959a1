package models

import (
	"time"
)

// Order 订单模型
type Order struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNo        string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"order_no"`
	UserID         int64      `gorm:"index;not null" json:"user_id"`
	Status         int8       `gorm:"type:smallint;not null;default:0" json:"status"`
	TotalAmount    float64    `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountAmount float64    `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	PointsUsed     int        `gorm:"not null;default:0" json:"points_used"`
	PointsDiscount float64    `gorm:"type:decimal(12,2);not null;default:0" json:"points_discount"`
	ActualAmount   float64    `gorm:"type:decimal(12,2);not null" json:"actual_amount"`
	AddressID      *int64     `json:"address_id,omitempty"`
	Remark         *string    `gorm:"type:varchar(255)" json:"remark,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   *string    `gorm:"type:varchar(255)" json:"cancel_reason,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User     *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Address  *Address    `gorm:"foreignKey:AddressID" json:"address,omitempty"`
	Items    []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Payments []Payment   `gorm:"foreignKey:OrderID" json:"payments,omitempty"`
}

// TableName 表名
func (Order) TableName() string {
	return "orders"
}

// OrderStatus 订单状态
const (
	OrderStatusPending   = 0 // 待支付
	OrderStatusPaid      = 1 // 已支付
	OrderStatusShipping  = 2 // 配送中
	OrderStatusDelivered = 3 // 已送达
	OrderStatusCompleted = 4 // 已完成
	OrderStatusCancelled = 5 // 已取消
	OrderStatusRefunding = 6 // 退款中
	OrderStatusRefunded  = 7 // 已退款
)

// OrderItem 订单项
type OrderItem struct {
	ID             int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64   `gorm:"index;not null" json:"order_id"`
	ProductID      int64   `gorm:"not null" json:"product_id"`
	SkuID          int64   `gorm:"not null;default:0" json:"sku_id"`
	ProductName    string  `gorm:"type:varchar(200);not null" json:"product_name"`
	SkuName        *string `gorm:"type:varchar(100)" json:"sku_name,omitempty"`
	ProductImage   *string `gorm:"type:varchar(255)" json:"product_image,omitempty"`
	Price          float64 `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity       int     `gorm:"not null" json:"quantity"`
	TotalAmount    float64 `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	DiscountAmount float64 `gorm:"type:decimal(12,2);not null;default:0" json:"discount_amount"`
	ActualAmount   float64 `gorm:"type:decimal(12,2);not null" json:"actual_amount"`
	IsMemberPrice  bool    `gorm:"not null;default:false" json:"is_member_price"`
	IsGift         bool    `gorm:"not null;default:false" json:"is_gift"`

	// 关联
	Order   *Order      `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	Product *Product    `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Sku     *ProductSku `gorm:"foreignKey:SkuID" json:"sku,omitempty"`
}

// TableName 表名
func (OrderItem) TableName() string {
	return "order_items"
}

// Payment 支付记录
type Payment struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentNo      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"payment_no"`
	OrderID        int64      `gorm:"index;not null" json:"order_id"`
	OrderNo        string     `gorm:"type:varchar(64);not null" json:"order_no"`
	UserID         int64      `gorm:"index;not null" json:"user_id"`
	Amount         float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod  string     `gorm:"type:varchar(20);not null" json:"payment_method"`
	PaymentChannel string     `gorm:"type:varchar(20);not null" json:"payment_channel"`
	TransactionID  *string    `gorm:"type:varchar(64)" json:"transaction_id,omitempty"`
	Status         int8       `gorm:"type:smallint;not null;default:0" json:"status"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
	ExpiredAt      *time.Time `json:"expired_at,omitempty"`
	CallbackData   JSON       `gorm:"type:jsonb" json:"callback_data,omitempty"`
	ErrorMessage   *string    `gorm:"type:varchar(255)" json:"error_message,omitempty"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Order *Order `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	User  *User  `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Payment) TableName() string {
	return "payments"
}

// PaymentMethod 支付方式
const (
	PaymentMethodWechat = "wechat" // 微信支付
)

// PaymentChannel 支付渠道
const (
	PaymentChannelMiniProgram = "miniprogram" // 小程序
	PaymentChannelH5          = "h5"          // H5
	PaymentChannelNative      = "native"      // 扫码
)

// PaymentStatus 支付状态
const (
	PaymentStatusPending  = 0 // 待支付
	PaymentStatusSuccess  = 1 // 支付成功
	PaymentStatusFailed   = 2 // 支付失败
	PaymentStatusClosed   = 3 // 已关闭
	PaymentStatusRefunded = 4 // 已退款
)
