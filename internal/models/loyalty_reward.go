package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoyaltyReward 积分奖励目录
type LoyaltyReward struct {
	ID                    uint             `gorm:"primarykey" json:"id"`                                        // 主键
	Name                  string           `gorm:"type:varchar(128);not null" json:"name"`                      // 名称
	Description           string           `gorm:"type:text" json:"description,omitempty"`                      // 描述
	Type                  string           `gorm:"type:varchar(32);index;not null" json:"type"`                 // 奖励类型
	PointsCost            int64            `gorm:"not null" json:"points_cost"`                                 // 所需积分
	DiscountAmount        *Money           `gorm:"type:decimal(20,2)" json:"discount_amount,omitempty"`         // 固定优惠金额
	DiscountPercentage    *decimal.Decimal `gorm:"type:decimal(5,2)" json:"discount_percentage,omitempty"`      // 百分比优惠
	MaximumDiscountAmount *Money           `gorm:"type:decimal(20,2)" json:"maximum_discount_amount,omitempty"` // 优惠上限
	MinimumOrderAmount    *Money           `gorm:"type:decimal(20,2)" json:"minimum_order_amount,omitempty"`    // 使用门槛
	FreeProductID         *uint            `json:"free_product_id,omitempty"`                                   // 赠品商品ID
	FreeVariantID         *uint            `json:"free_variant_id,omitempty"`                                   // 赠品规格ID
	FreeProductQuantity   int              `gorm:"not null;default:1" json:"free_product_quantity"`             // 赠品数量
	UsageLimit            int              `gorm:"not null;default:0" json:"usage_limit"`                       // 总兑换上限（0 表示不限制）
	UsageCount            int              `gorm:"not null;default:0" json:"usage_count"`                       // 已兑换次数
	UsageLimitPerUser     int              `gorm:"not null;default:0" json:"usage_limit_per_user"`              // 每人兑换上限（0 表示不限制）
	ValidFrom             *time.Time       `gorm:"index" json:"valid_from,omitempty"`                           // 生效时间
	ValidUntil            *time.Time       `gorm:"index" json:"valid_until,omitempty"`                          // 失效时间
	EligibleTiers         UintArray        `gorm:"type:json" json:"eligible_tiers"`                             // 可兑换等级（空表示全部）
	Status                string           `gorm:"type:varchar(20);not null;default:'active'" json:"status"`    // 状态
	IsActive              bool             `gorm:"not null" json:"is_active"`                                   // 是否启用
	CreatedAt             time.Time        `json:"created_at"`                                                  // 创建时间
	UpdatedAt             time.Time        `json:"updated_at"`                                                  // 更新时间
	DeletedAt             gorm.DeletedAt   `gorm:"index" json:"-"`                                              // 软删除时间
}

// TableName 指定表名
func (LoyaltyReward) TableName() string {
	return "loyalty_rewards"
}
