package models

import (
	"time"
)

// CouponUsage 优惠券使用记录
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	CouponID       uint      `gorm:"index:idx_coupon_usage_user;not null" json:"coupon_id"`        // 优惠券ID
	UserID         uint      `gorm:"index:idx_coupon_usage_user;not null" json:"user_id"`          // 用户ID
	OrderID        *uint     `gorm:"index" json:"order_id,omitempty"`                              // 订单ID
	OrderAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"order_amount"`    // 订单金额
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 优惠金额
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (CouponUsage) TableName() string {
	return "coupon_usages"
}
