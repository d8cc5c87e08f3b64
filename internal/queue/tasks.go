package queue

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotification 订单推送通知任务
	TaskOrderNotification = "order:notification"
	// TaskLoyaltyExpireSweep 积分过期清理任务
	TaskLoyaltyExpireSweep = "loyalty:expire_sweep"
)

// 订单通知事件
const (
	OrderEventCreated       = "order_created"
	OrderEventStatusChanged = "order_status_changed"
)

// OrderNotificationPayload 订单通知任务载荷
type OrderNotificationPayload struct {
	EventID string `json:"event_id"`
	Event   string `json:"event"`
	OrderID uint   `json:"order_id"`
	UserID  uint   `json:"user_id"`
	Status  string `json:"status,omitempty"`
}

// LoyaltyExpireSweepPayload 积分过期清理任务载荷
type LoyaltyExpireSweepPayload struct {
	BatchSize   int    `json:"batch_size,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// NewOrderNotificationTask 创建订单通知任务
func NewOrderNotificationTask(payload OrderNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotification, body), nil
}

// NewLoyaltyExpireSweepTask 创建积分过期清理任务
func NewLoyaltyExpireSweepTask(payload LoyaltyExpireSweepPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLoyaltyExpireSweep, body), nil
}
