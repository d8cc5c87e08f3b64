package models

import "time"

// UserPushToken 用户推送令牌
type UserPushToken struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                // 主键
	UserID    uint      `gorm:"index;not null" json:"user_id"`                       // 用户ID
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"` // 推送令牌
	Platform  string    `gorm:"type:varchar(20)" json:"platform"`                    // 平台（ios/android/web）
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`              // 是否有效
	CreatedAt time.Time `json:"created_at"`                                          // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                          // 更新时间
}

// TableName 指定表名
func (UserPushToken) TableName() string {
	return "user_push_tokens"
}
