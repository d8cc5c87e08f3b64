package models

import "time"

// LoyaltyPointsTransaction 积分流水（只追加；仅 IsActive 可被置为 false，下单兑换流水在同一事务内回填 OrderID）
type LoyaltyPointsTransaction struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                    // 主键
	UserID          uint       `gorm:"index;not null" json:"user_id"`                           // 用户ID
	Points          int64      `gorm:"not null" json:"points"`                                  // 积分变动（正数入账，负数扣减）
	TransactionType string     `gorm:"type:varchar(20);index;not null" json:"transaction_type"` // 流水类型
	Source          string     `gorm:"type:varchar(20);not null" json:"source"`                 // 来源
	BalanceAfter    int64      `gorm:"not null" json:"balance_after"`                           // 变动后余额
	OrderID         *uint      `gorm:"index" json:"order_id,omitempty"`                         // 关联订单
	RewardID        *uint      `gorm:"index" json:"reward_id,omitempty"`                        // 关联奖励
	RelatedTxnID    *uint      `gorm:"index" json:"related_transaction_id,omitempty"`           // 被冲正的流水
	OrderAmount     *Money     `gorm:"type:decimal(20,2)" json:"order_amount,omitempty"`        // 订单金额
	Description     string     `gorm:"type:varchar(255)" json:"description,omitempty"`          // 描述
	ExpiresAt       *time.Time `gorm:"index" json:"expires_at,omitempty"`                       // 过期时间
	IsActive        bool       `gorm:"not null;index" json:"is_active"`                         // 是否计入余额
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                 // 创建时间
}

// TableName 指定表名
func (LoyaltyPointsTransaction) TableName() string {
	return "loyalty_points_transactions"
}

// LoyaltyAccount 用户积分账户锚点，写积分流水前对其加行锁以串行化同一用户的写入
type LoyaltyAccount struct {
	ID        uint      `gorm:"primarykey" json:"id"`                // 主键
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"` // 用户ID
	CreatedAt time.Time `json:"created_at"`                          // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                          // 最近写入时间
}

// TableName 指定表名
func (LoyaltyAccount) TableName() string {
	return "loyalty_accounts"
}
