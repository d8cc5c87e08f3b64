package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                   uint           `gorm:"primarykey" json:"id"`                                                // 主键
	OrderNo              string         `gorm:"uniqueIndex;not null" json:"order_no"`                                // 订单编号
	UserID               uint           `gorm:"index;not null" json:"user_id"`                                       // 用户ID
	Status               string         `gorm:"index;not null" json:"status"`                                        // 订单状态
	PaymentStatus        string         `gorm:"index;not null" json:"payment_status"`                                // 支付状态
	PaymentMethod        string         `gorm:"type:varchar(32);not null" json:"payment_method"`                     // 支付方式
	ShippingAddressID    *uint          `gorm:"index" json:"shipping_address_id,omitempty"`                          // 收货地址ID
	Subtotal             Money          `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`               // 商品小计
	ShippingCost         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"shipping_cost"`          // 运费
	TaxAmount            Money          `gorm:"type:decimal(20,2);not null;default:0" json:"tax_amount"`             // 税费
	CouponDiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"coupon_discount_amount"` // 优惠券优惠
	RewardDiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"reward_discount_amount"` // 积分奖励优惠
	DiscountAmount       Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`        // 优惠合计
	TotalAmount          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`           // 实付金额
	CouponUsageID        *uint          `gorm:"index" json:"coupon_usage_id,omitempty"`                              // 优惠券使用记录ID
	LoyaltyRewardID      *uint          `gorm:"index" json:"loyalty_reward_id,omitempty"`                            // 兑换奖励ID
	PointsEarned         int64          `gorm:"not null;default:0" json:"points_earned"`                             // 本单获得积分
	TrackingNumber       string         `gorm:"type:varchar(128)" json:"tracking_number,omitempty"`                  // 物流单号
	Carrier              string         `gorm:"type:varchar(64)" json:"carrier,omitempty"`                           // 承运商
	Notes                string         `gorm:"type:text" json:"notes,omitempty"`                                    // 备注
	ConfirmedAt          *time.Time     `gorm:"index" json:"confirmed_at"`                                           // 确认时间
	ShippedAt            *time.Time     `gorm:"index" json:"shipped_at"`                                             // 发货时间
	DeliveredAt          *time.Time     `gorm:"index" json:"delivered_at"`                                           // 送达时间
	CancelledAt          *time.Time     `gorm:"index" json:"cancelled_at"`                                           // 取消时间
	IsActive             bool           `gorm:"not null;default:true" json:"is_active"`                              // 是否有效
	CreatedAt            time.Time      `gorm:"index" json:"created_at"`                                             // 创建时间
	UpdatedAt            time.Time      `gorm:"index" json:"updated_at"`                                             // 更新时间
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`                                                      // 软删除时间

	Items []OrderItem `gorm:"-" json:"items,omitempty"` // 订单项（通过显式查询填充）
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
