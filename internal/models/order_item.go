package models

import (
	"time"
)

// OrderItem 订单项表（下单后不可修改）
type OrderItem struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	OrderID        uint      `gorm:"index;not null" json:"order_id"`                               // 订单ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                             // 商品ID
	VariantID      uint      `gorm:"index;not null" json:"variant_id"`                             // 规格ID
	ProductName    string    `gorm:"type:varchar(255);not null" json:"product_name"`               // 商品名称快照
	VariantName    string    `gorm:"type:varchar(255)" json:"variant_name"`                        // 规格名称快照
	UnitPrice      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`      // 单价快照
	Quantity       int       `gorm:"not null" json:"quantity"`                                     // 数量
	TotalPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_price"`     // 小计
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 行优惠
	FinalPrice     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"final_price"`     // 行实付
	IsRewardItem   bool      `gorm:"not null;default:false" json:"is_reward_item"`                 // 是否奖励赠品
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`                             // 备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}
