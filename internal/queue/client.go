package queue

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 普通任务队列
	DefaultQueue = "default"
	// CriticalQueue 积分清理等后台维护任务
	CriticalQueue = "critical"

	// 同一窗口内重复的清理请求只入队一次
	expireSweepUniqueWindow = 5 * time.Minute
)

// Client 任务入队端；未启用时所有入队操作直接返回 nil
type Client struct {
	inner *asynq.Client
}

// NewClient 按队列配置创建入队端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	return &Client{inner: asynq.NewClient(redisOpt(cfg))}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.inner != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.inner.Close()
}

// EnqueueOrderNotification 投递订单通知；EventID 作为任务 ID，重复投递视为成功
func (c *Client) EnqueueOrderNotification(payload OrderNotificationPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewOrderNotificationTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{asynq.Queue(DefaultQueue), asynq.MaxRetry(3)}
	if id := strings.TrimSpace(payload.EventID); id != "" {
		base = append(base, asynq.TaskID(id))
	}
	return c.enqueue(task, base, opts)
}

// EnqueueLoyaltyExpireSweep 投递积分过期清理
func (c *Client) EnqueueLoyaltyExpireSweep(payload LoyaltyExpireSweepPayload, opts ...asynq.Option) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewLoyaltyExpireSweepTask(payload)
	if err != nil {
		return err
	}
	base := []asynq.Option{
		asynq.Queue(CriticalQueue),
		asynq.MaxRetry(1),
		asynq.Unique(expireSweepUniqueWindow),
	}
	return c.enqueue(task, base, opts)
}

func (c *Client) enqueue(task *asynq.Task, base, extra []asynq.Option) error {
	info, err := c.inner.Enqueue(task, append(base, extra...)...)
	switch {
	case errors.Is(err, asynq.ErrTaskIDConflict), errors.Is(err, asynq.ErrDuplicateTask):
		logger.Debugw("queue_enqueue_duplicate", "type", task.Type())
		return nil
	case err != nil:
		return err
	}
	logger.Debugw("queue_enqueued", "type", task.Type(), "id", info.ID, "queue", info.Queue)
	return nil
}

// BuildServerConfig 生成消费端连接与并发配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency:  10,
		Queues:       map[string]int{DefaultQueue: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(logTaskError),
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func logTaskError(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	logger.FromContext(ctx).Warnw("queue_task_failed",
		"type", task.Type(),
		"retried", retried,
		"max_retry", maxRetry,
		"error", err,
	)
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	opt := asynq.RedisClientOpt{Addr: "127.0.0.1:6379"}
	if cfg == nil {
		return opt
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	opt.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	opt.Password = cfg.Password
	opt.DB = cfg.DB
	return opt
}
