package worker

import (
	"context"
	"errors"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/queue"

	"github.com/hibiken/asynq"
)

// Service asynq 消费端，同时托管周期性的积分过期清理
type Service struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper *Sweeper
}

// NewService 队列未启用时返回错误
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		server:  asynq.NewServer(opt, serverCfg),
		mux:     mux,
		sweeper: NewSweeper(cfg, consumer),
	}, nil
}

func (s *Service) Name() string { return "worker" }

// Start 启动消费者后阻塞到 ctx 结束；信号由 Runner 统一处理
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil {
		return errors.New("worker not initialized")
	}
	if err := s.server.Start(s.mux); err != nil {
		return err
	}
	logger.Infow("worker_started")
	if s.sweeper != nil {
		go s.sweeper.loop(ctx)
	}
	<-ctx.Done()
	return nil
}

// Stop 等待进行中的任务完成后退出
func (s *Service) Stop(context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	s.server.Shutdown()
	return nil
}
