package models

import (
	"time"

	"gorm.io/gorm"
)

// Coupon 优惠券
type Coupon struct {
	ID                    uint           `gorm:"primarykey" json:"id"`                                        // 主键
	Code                  string         `gorm:"uniqueIndex;not null" json:"code"`                            // 优惠码
	DiscountType          string         `gorm:"type:varchar(20);not null" json:"discount_type"`              // 类型（fixed_amount/percentage）
	Value                 Money          `gorm:"type:decimal(20,2);not null" json:"value"`                    // 数值（固定金额或百分比）
	MinimumOrderAmount    *Money         `gorm:"type:decimal(20,2)" json:"minimum_order_amount,omitempty"`    // 使用门槛
	MaximumDiscountAmount *Money         `gorm:"type:decimal(20,2)" json:"maximum_discount_amount,omitempty"` // 百分比优惠上限
	UsageLimit            int            `gorm:"not null;default:1" json:"usage_limit"`                       // 总使用上限
	UsageCount            int            `gorm:"not null;default:0" json:"usage_count"`                       // 已使用次数
	UsageLimitPerUser     int            `gorm:"not null;default:1" json:"usage_limit_per_user"`              // 每人使用上限
	ExpiresAt             time.Time      `gorm:"index;not null" json:"expires_at"`                            // 失效时间
	IsActive              bool           `gorm:"not null" json:"is_active"`                                   // 是否启用
	Status                string         `gorm:"type:varchar(20);not null;default:'active'" json:"status"`    // 状态（active/expired/disabled）
	CreatedAt             time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt             time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (Coupon) TableName() string {
	return "coupons"
}
