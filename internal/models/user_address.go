package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAddress 用户收货地址
type UserAddress struct {
	ID           uint           `gorm:"primarykey" json:"id"`                             // 主键
	UserID       uint           `gorm:"index;not null" json:"user_id"`                    // 用户ID
	Recipient    string         `gorm:"type:varchar(128);not null" json:"recipient"`      // 收件人
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`                    // 电话
	AddressLine1 string         `gorm:"type:varchar(255);not null" json:"address_line1"`  // 地址
	AddressLine2 string         `gorm:"type:varchar(255)" json:"address_line2,omitempty"` // 地址补充
	City         string         `gorm:"type:varchar(128)" json:"city"`                    // 城市
	PostalCode   string         `gorm:"type:varchar(32)" json:"postal_code"`              // 邮编
	Country      string         `gorm:"type:varchar(64)" json:"country"`                  // 国家
	IsDefault    bool           `gorm:"not null;default:false" json:"is_default"`         // 是否默认
	CreatedAt    time.Time      `json:"created_at"`                                       // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                       // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                                   // 软删除时间
}

// TableName 指定表名
func (UserAddress) TableName() string {
	return "user_addresses"
}
