package worker

import (
	"context"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
)

const defaultExpireSweepInterval = time.Hour

// Sweeper 周期性积分过期清理；队列关闭时作为独立服务运行
type Sweeper struct {
	consumer *Consumer
	interval time.Duration
	stop     chan struct{}
}

// NewSweeper 创建过期清理器
func NewSweeper(cfg *config.Config, consumer *Consumer) *Sweeper {
	minutes := 0
	if cfg != nil {
		minutes = cfg.Loyalty.ExpireSweepIntervalMinutes
	}
	return &Sweeper{
		consumer: consumer,
		interval: resolveSweepInterval(minutes),
		stop:     make(chan struct{}),
	}
}

func resolveSweepInterval(minutes int) time.Duration {
	if minutes <= 0 {
		return defaultExpireSweepInterval
	}
	return time.Duration(minutes) * time.Minute
}

// Name 服务名称
func (s *Sweeper) Name() string {
	return "loyalty-sweeper"
}

// Start 阻塞运行直到 ctx 结束或 Stop
func (s *Sweeper) Start(ctx context.Context) error {
	s.loop(ctx)
	return nil
}

// Stop 停止清理循环
func (s *Sweeper) Stop(_ context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	return nil
}

func (s *Sweeper) loop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.LoyaltyService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.runExpireSweep(ctx, 0, "schedule"); err != nil {
			logger.Warnw("worker_loyalty_expire_loop_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
