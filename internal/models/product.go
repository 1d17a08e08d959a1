package models

import (
	"time"
)

// Category 商品分类
type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ParentID  *int64    `gorm:"index" json:"parent_id,omitempty"`
	Name      string    `gorm:"type:varchar(50);not null" json:"name"`
	Icon      *string   `gorm:"type:varchar(255)" json:"icon,omitempty"`
	Sort      int       `gorm:"not null;default:0" json:"sort"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	Status    int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
	Products []Product  `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

// TableName 表名
func (Category) TableName() string {
	return "categories"
}

// CategoryStatus 分类状态
const (
	CategoryStatusDisabled = 0 // 禁用
	CategoryStatusActive   = 1 // 启用
)

// Product 商品模型
type Product struct {
	ID               int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID       int64      `gorm:"index;not null" json:"category_id"`
	Name             string     `gorm:"type:varchar(200);not null" json:"name"`
	Subtitle         *string    `gorm:"type:varchar(255)" json:"subtitle,omitempty"`
	MainImage        string     `gorm:"type:varchar(255);not null" json:"main_image"`
	Images           JSON       `gorm:"type:jsonb" json:"images,omitempty"`
	Description      *string    `gorm:"type:text" json:"description,omitempty"`
	Detail           *string    `gorm:"type:text" json:"detail,omitempty"`
	Kind             string     `gorm:"type:varchar(20);not null;default:'physical'" json:"kind"`
	Price            float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice    *float64   `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	TotalStock       int        `gorm:"not null;default:0" json:"total_stock"`
	TotalSales       int        `gorm:"not null;default:0" json:"total_sales"`
	MaxPointsPerUnit int        `gorm:"not null;default:0" json:"max_points_per_unit"`
	MemberPriceFlag  bool       `gorm:"column:member_price_enabled;not null;default:false" json:"member_price_enabled"`
	IsHot            bool       `gorm:"not null;default:false" json:"is_hot"`
	IsNew            bool       `gorm:"not null;default:false" json:"is_new"`
	Sort             int        `gorm:"not null;default:0" json:"sort"`
	Status           int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Category     *Category     `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Skus         []ProductSku  `gorm:"foreignKey:ProductID" json:"skus,omitempty"`
	MemberPrices []MemberPrice `gorm:"foreignKey:ProductID" json:"member_prices,omitempty"`
}

// TableName 表名
func (Product) TableName() string {
	return "products"
}

// ProductKind 商品类型
const (
	ProductKindPhysical = "physical" // 实物商品
	ProductKindService  = "service"  // 服务商品
)

// ProductStatus 商品状态
const (
	ProductStatusDraft   = 0 // 草稿
	ProductStatusOnSale  = 1 // 上架
	ProductStatusOffSale = 2 // 下架
)

// ProductSku SKU 模型
type ProductSku struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64     `gorm:"index;not null" json:"product_id"`
	SkuCode       string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku_code"`
	Name          string    `gorm:"type:varchar(100);not null" json:"name"`
	Image         *string   `gorm:"type:varchar(255)" json:"image,omitempty"`
	Specs         JSON      `gorm:"type:jsonb" json:"specs,omitempty"`
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	OriginalPrice *float64  `gorm:"type:decimal(10,2)" json:"original_price,omitempty"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	Sales         int       `gorm:"not null;default:0" json:"sales"`
	Status        int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName 表名
func (ProductSku) TableName() string {
	return "product_skus"
}

// SkuStatus SKU状态
const (
	SkuStatusDisabled = 0 // 禁用
	SkuStatusActive   = 1 // 启用
)

// MemberPrice 会员价
// 指定会员等级购买指定商品时的固定价格；sku_id 为 0 表示适用于任意 SKU。
// 同一 (product_id, member_level_id, sku_id) 组合至多一行。
type MemberPrice struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID     int64     `gorm:"uniqueIndex:uk_member_price,priority:1;not null" json:"product_id"`
	MemberLevelID int64     `gorm:"uniqueIndex:uk_member_price,priority:2;not null" json:"member_level_id"`
	SkuID         int64     `gorm:"uniqueIndex:uk_member_price,priority:3;not null;default:0" json:"sku_id"`
	Price         float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Status        int8      `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	Product     *Product     `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	MemberLevel *MemberLevel `gorm:"foreignKey:MemberLevelID" json:"member_level,omitempty"`
}

// TableName 表名
func (MemberPrice) TableName() string {
	return "member_prices"
}

// MemberPriceStatus 会员价状态
const (
	MemberPriceStatusDisabled = 0 // 禁用
	MemberPriceStatusActive   = 1 // 启用
)

// MemberPriceAnySku 表示会员价适用于任意 SKU 的占位值
const MemberPriceAnySku = int64(0)
