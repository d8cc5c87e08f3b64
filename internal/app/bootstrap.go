package app

import (
	"errors"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/router"
	"github.com/bazaar-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 初始化 Worker 服务；队列关闭时 all 模式退化为进程内定时清理
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		switch {
		case cfg.Queue.Enabled:
			workerService, err := worker.NewService(cfg, consumer)
			if err != nil {
				container.Close()
				return nil, err
			}
			services = append(services, workerService)
		case mode == ModeWorker:
			container.Close()
			return nil, errors.New("worker mode requires queue.enabled")
		default:
			logger.Warnw("app_queue_disabled_inline_sweeper")
			services = append(services, worker.NewSweeper(cfg, consumer))
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...).WithCloser(container.Close), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
