// Package models 定义数据模型
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// User 用户模型
type User struct {
	ID            int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Phone         *string    `gorm:"type:varchar(20);uniqueIndex" json:"phone,omitempty"`
	OpenID        *string    `gorm:"column:openid;type:varchar(64);uniqueIndex" json:"openid,omitempty"`
	Nickname      string     `gorm:"type:varchar(50);not null;default:''" json:"nickname"`
	Avatar        *string    `gorm:"type:varchar(255)" json:"avatar,omitempty"`
	PasswordHash  *string    `gorm:"type:varchar(100)" json:"-"`
	Gender        int8       `gorm:"type:smallint;not null;default:0" json:"gender"`
	Birthday      *time.Time `gorm:"type:date" json:"birthday,omitempty"`
	MemberLevelID int64      `gorm:"not null;default:1" json:"member_level_id"`
	Points        int        `gorm:"not null;default:0" json:"points"`
	Status        int8       `gorm:"type:smallint;not null;default:1" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	MemberLevel *MemberLevel `gorm:"foreignKey:MemberLevelID" json:"member_level,omitempty"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// UserStatus 用户状态
const (
	UserStatusDisabled = 0 // 禁用
	UserStatusActive   = 1 // 正常
)

// Gender 性别
const (
	GenderUnknown = 0 // 未知
	GenderMale    = 1 // 男
	GenderFemale  = 2 // 女
)

// MemberLevel 会员等级
type MemberLevel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:varchar(50);not null" json:"name"`
	Level      int       `gorm:"uniqueIndex;not null" json:"level"`
	MinPoints  int       `gorm:"not null;default:0" json:"min_points"`
	Discount   float64   `gorm:"type:decimal(3,2);not null;default:1.00" json:"discount"`
	PointsRate float64   `gorm:"type:decimal(4,2);not null;default:1.00" json:"points_rate"`
	Benefits   JSON      `gorm:"type:jsonb" json:"benefits,omitempty"`
	Icon       *string   `gorm:"type:varchar(255)" json:"icon,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 表名
func (MemberLevel) TableName() string {
	return "member_levels"
}

// PointsLog 积分流水
type PointsLog struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"user_id"`
	Type        string    `gorm:"type:varchar(20);not null" json:"type"`
	Points      int       `gorm:"not null" json:"points"`
	Balance     int       `gorm:"not null" json:"balance"`
	OrderNo     *string   `gorm:"type:varchar(64)" json:"order_no,omitempty"`
	Description string    `gorm:"type:varchar(255);not null;default:''" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (PointsLog) TableName() string {
	return "points_logs"
}

// PointsLogType 积分流水类型
const (
	PointsLogTypeConsume  = "consume"  // 消费获取
	PointsLogTypeDeduct   = "deduct"   // 下单抵扣
	PointsLogTypeRefund   = "refund"   // 退款返还
	PointsLogTypeActivity = "activity" // 活动赠送
	PointsLogTypeAdmin    = "admin"    // 管理员调整
)

// Address 用户收货地址
type Address struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"index;not null" json:"user_id"`
	ReceiverName  string    `gorm:"type:varchar(50);not null" json:"receiver_name"`
	ReceiverPhone string    `gorm:"type:varchar(20);not null" json:"receiver_phone"`
	Province      string    `gorm:"type:varchar(50);not null" json:"province"`
	City          string    `gorm:"type:varchar(50);not null" json:"city"`
	District      string    `gorm:"type:varchar(50);not null" json:"district"`
	Detail        string    `gorm:"type:varchar(255);not null" json:"detail"`
	IsDefault     bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName 表名
func (Address) TableName() string {
	return "addresses"
}

// JSON 自定义 JSON 类型
type JSON map[string]interface{}

// Scan 实现 sql.Scanner 接口
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现 driver.Valuer 接口
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Unmarshal 将 JSON 值反序列化到目标结构（便于业务层使用）
func (j JSON) Unmarshal(target interface{}) error {
	if j == nil {
		return nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}
