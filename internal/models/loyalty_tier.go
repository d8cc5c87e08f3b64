package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoyaltyTier 会员等级定义
type LoyaltyTier struct {
	ID                 uint            `gorm:"primarykey" json:"id"`                                            // 主键
	Name               string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`               // 等级标识
	DisplayName        string          `gorm:"type:varchar(128);not null" json:"display_name"`                  // 展示名称
	MinPoints          int64           `gorm:"not null;default:0" json:"min_points"`                            // 最低积分（含）
	MaxPoints          int64           `gorm:"not null;default:0" json:"max_points"`                            // 最高积分（不含，0 表示无上限）
	EarningRate        decimal.Decimal `gorm:"type:decimal(10,4);not null;default:1" json:"earning_rate"`       // 积分获取倍率（每单位金额）
	RedemptionRate     decimal.Decimal `gorm:"type:decimal(10,4);not null;default:1" json:"redemption_rate"`    // 积分兑换倍率
	DiscountPercentage decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percentage"` // 等级折扣
	Perks              StringArray     `gorm:"type:json" json:"perks"`                                          // 等级权益
	PointsExpiryDays   int             `gorm:"not null;default:0" json:"points_expiry_days"`                    // 积分有效天数（0 表示不过期）
	SortOrder          int             `gorm:"not null;default:0;index" json:"sort_order"`                      // 等级排序
	IsActive           bool            `gorm:"not null" json:"is_active"`                                       // 是否启用
	CreatedAt          time.Time       `json:"created_at"`                                                      // 创建时间
	UpdatedAt          time.Time       `json:"updated_at"`                                                      // 更新时间
	DeletedAt          gorm.DeletedAt  `gorm:"index" json:"-"`                                                  // 软删除时间
}

// TableName 指定表名
func (LoyaltyTier) TableName() string {
	return "loyalty_tiers"
}

// Contains 判断积分是否落在 [MinPoints, MaxPoints) 区间
func (t LoyaltyTier) Contains(points int64) bool {
	if points < t.MinPoints {
		return false
	}
	return t.MaxPoints == 0 || points < t.MaxPoints
}

// LoyaltyUserTier 用户等级记录，同一用户同时最多一条有效记录
type LoyaltyUserTier struct {
	ID               uint       `gorm:"primarykey" json:"id"`                      // 主键
	UserID           uint       `gorm:"index;not null" json:"user_id"`             // 用户ID
	TierID           uint       `gorm:"index;not null" json:"tier_id"`             // 等级ID
	CurrentPoints    int64      `gorm:"not null;default:0" json:"current_points"`  // 当前积分
	LifetimePoints   int64      `gorm:"not null;default:0" json:"lifetime_points"` // 累计积分
	TierStartDate    time.Time  `gorm:"not null" json:"tier_start_date"`           // 等级开始时间
	TierEndDate      *time.Time `json:"tier_end_date,omitempty"`                   // 等级结束时间
	LastActivityDate time.Time  `gorm:"not null" json:"last_activity_date"`        // 最近活跃时间
	IsActive         bool       `gorm:"not null;index" json:"is_active"`           // 是否当前等级
	CreatedAt        time.Time  `json:"created_at"`                                // 创建时间
	UpdatedAt        time.Time  `json:"updated_at"`                                // 更新时间
}

// TableName 指定表名
func (LoyaltyUserTier) TableName() string {
	return "loyalty_user_tiers"
}
