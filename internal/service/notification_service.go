package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/push"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"

	"github.com/google/uuid"
)

// NotificationService 订单推送通知服务，发送失败只记录日志
type NotificationService struct {
	queueClient *queue.Client
	orderRepo   repository.OrderRepository
	tokens      PushTokenReader
	notifier    Notifier
	dedupeTTL   time.Duration
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	queueClient *queue.Client,
	orderRepo repository.OrderRepository,
	tokens PushTokenReader,
	notifier Notifier,
	dedupeTTL time.Duration,
) *NotificationService {
	if dedupeTTL <= 0 {
		dedupeTTL = 5 * time.Minute
	}
	return &NotificationService{
		queueClient: queueClient,
		orderRepo:   orderRepo,
		tokens:      tokens,
		notifier:    notifier,
		dedupeTTL:   dedupeTTL,
	}
}

// NotifyOrderCreated 投递下单通知
func (s *NotificationService) NotifyOrderCreated(order *models.Order) {
	if s == nil || order == nil {
		return
	}
	s.enqueue(queue.OrderNotificationPayload{
		Event:   queue.OrderEventCreated,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
	})
}

// NotifyOrderStatusChanged 投递状态变更通知
func (s *NotificationService) NotifyOrderStatusChanged(order *models.Order) {
	if s == nil || order == nil {
		return
	}
	s.enqueue(queue.OrderNotificationPayload{
		Event:   queue.OrderEventStatusChanged,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
	})
}

func (s *NotificationService) enqueue(payload queue.OrderNotificationPayload) {
	payload.EventID = uuid.NewString()
	if s.queueClient.Enabled() {
		if err := s.queueClient.EnqueueOrderNotification(payload); err != nil {
			logger.Warnw("order_notification_enqueue_failed",
				"order_id", payload.OrderID,
				"event", payload.Event,
				"error", err,
			)
		}
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorw("order_notification_dispatch_panic", "order_id", payload.OrderID, "panic", r)
			}
		}()
		if err := s.Dispatch(context.Background(), payload); err != nil {
			logger.Warnw("order_notification_dispatch_failed",
				"order_id", payload.OrderID,
				"event", payload.Event,
				"error", err,
			)
		}
	}()
}

// Dispatch 发送订单通知：去重后查询用户推送令牌并调用推送协作方
func (s *NotificationService) Dispatch(ctx context.Context, payload queue.OrderNotificationPayload) error {
	if s == nil || s.notifier == nil {
		return nil
	}
	ok, err := cache.SetNX(ctx, buildOrderNotificationDedupeKey(payload), "1", s.dedupeTTL)
	if err != nil {
		logger.Warnw("order_notification_dedupe_failed", "order_id", payload.OrderID, "error", err)
	} else if !ok {
		return nil
	}

	order, err := s.orderRepo.GetByID(payload.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	tokens, err := s.tokens.GetPushTokens(order.UserID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}
	return s.notifier.Notify(ctx, tokens, composeOrderNotification(payload.Event, order, payload.Status))
}

func buildOrderNotificationDedupeKey(payload queue.OrderNotificationPayload) string {
	signature := fmt.Sprintf("%s|%d|%s",
		strings.ToLower(strings.TrimSpace(payload.Event)),
		payload.OrderID,
		strings.ToLower(strings.TrimSpace(payload.Status)),
	)
	hash := sha1.Sum([]byte(signature))
	return "notification:order:" + hex.EncodeToString(hash[:])
}

var orderStatusTitles = map[string]string{
	constants.OrderStatusPending:    "Order received",
	constants.OrderStatusConfirmed:  "Order confirmed",
	constants.OrderStatusProcessing: "Order is being prepared",
	constants.OrderStatusShipped:    "Order shipped",
	constants.OrderStatusDelivered:  "Order delivered",
	constants.OrderStatusCancelled:  "Order cancelled",
	constants.OrderStatusRefunded:   "Order refunded",
}

func composeOrderNotification(event string, order *models.Order, status string) push.Notification {
	if status == "" {
		status = order.Status
	}
	title := orderStatusTitles[status]
	if title == "" {
		title = "Order updated"
	}
	body := fmt.Sprintf("Your order %s is now %s.", order.OrderNo, status)
	if event == queue.OrderEventCreated {
		title = "Order placed"
		body = fmt.Sprintf("Thanks! Order %s totaling %s has been placed.", order.OrderNo, order.TotalAmount.String())
	}
	data := map[string]string{
		"event":    event,
		"order_id": fmt.Sprintf("%d", order.ID),
		"order_no": order.OrderNo,
		"status":   status,
	}
	if status == constants.OrderStatusShipped && order.TrackingNumber != "" {
		data["tracking_number"] = order.TrackingNumber
		data["carrier"] = order.Carrier
	}
	return push.Notification{Title: title, Body: body, Data: data}
}
