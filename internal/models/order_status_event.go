package models

import "time"

// OrderStatusEvent 订单状态变更记录（只追加）
type OrderStatusEvent struct {
	ID              uint      `gorm:"primarykey" json:"id"`                             // 主键
	OrderID         uint      `gorm:"index;not null" json:"order_id"`                   // 订单ID
	PreviousStatus  string    `gorm:"type:varchar(32)" json:"previous_status"`          // 变更前状态
	NewStatus       string    `gorm:"type:varchar(32);not null" json:"new_status"`      // 变更后状态
	ChangedBy       *uint     `gorm:"index" json:"changed_by,omitempty"`                // 操作人ID
	ChangedByRole   string    `gorm:"type:varchar(32)" json:"changed_by_role"`          // 操作人角色
	ChangeReason    string    `gorm:"type:varchar(255)" json:"change_reason,omitempty"` // 变更原因
	Notes           string    `gorm:"type:text" json:"notes,omitempty"`                 // 备注
	IsAutoGenerated bool      `gorm:"not null;default:false" json:"is_auto_generated"`  // 是否自动补齐
	CreatedAt       time.Time `gorm:"index" json:"created_at"`                          // 创建时间
}

// TableName 指定表名
func (OrderStatusEvent) TableName() string {
	return "order_status_events"
}
