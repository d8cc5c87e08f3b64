package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotification, c.handleOrderNotification)
	mux.HandleFunc(queue.TaskLoyaltyExpireSweep, c.handleLoyaltyExpireSweep)
}

func (c *Consumer) handleOrderNotification(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_notification_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_order_notification_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	ctx = logger.WithContext(ctx, "event_id", payload.EventID, "order_id", payload.OrderID)
	if err := c.NotificationService.Dispatch(ctx, payload); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_order_notification_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_notification_failed",
			"order_id", payload.OrderID,
			"event", payload.Event,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleLoyaltyExpireSweep(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_loyalty_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.LoyaltyExpireSweepPayload
	if len(task.Payload()) > 0 {
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			logger.Warnw("worker_loyalty_expire_unmarshal_failed", "error", err)
			return err
		}
	}
	return c.runExpireSweep(ctx, payload.BatchSize, payload.RequestedBy)
}

// runExpireSweep 执行一次积分过期清理，单条失败只计数不中断
func (c *Consumer) runExpireSweep(ctx context.Context, batchSize int, requestedBy string) error {
	if c.LoyaltyService == nil {
		logger.Warnw("worker_loyalty_expire_skip_service_nil")
		return nil
	}
	if batchSize <= 0 && c.Config != nil {
		batchSize = c.Config.Loyalty.ExpireSweepBatchSize
	}
	if requestedBy == "" {
		requestedBy = "schedule"
	}
	ctx = logger.WithContext(ctx, "requested_by", requestedBy)
	result, err := c.LoyaltyService.ExpireDue(ctx, time.Now(), batchSize)
	if err != nil {
		logger.Warnw("worker_loyalty_expire_failed", "requested_by", requestedBy, "error", err)
		return err
	}
	if result.Failed > 0 {
		logger.Warnw("worker_loyalty_expire_partial",
			"requested_by", requestedBy,
			"scanned", result.Scanned,
			"expired", result.Expired,
			"failed", result.Failed,
		)
	}
	return nil
}
