package main

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/bazaar-next/internal/app"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	mode, err := app.ParseMode(mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer func() { _ = logger.Z().Sync() }()
	log := logger.S()

	log.Infow("bazaar_boot", "mode", mode, "server_mode", cfg.Server.Mode)

	for name, jwtCfg := range map[string]config.JWTConfig{"jwt": cfg.JWT, "user_jwt": cfg.UserJWT} {
		if !jwtCfg.WeakSecret() {
			continue
		}
		if cfg.Server.Mode == "release" {
			log.Fatalw("jwt_secret_weak", "key", name)
		}
		log.Warnw("jwt_secret_weak_dev", "key", name)
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.ToPoolConfig(), cfg.Server.Mode != "release"); err != nil {
		log.Fatalw("database_init_failed", "error", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("database_migrate_failed", "error", err)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  log,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		log.Fatalw("app_run_failed", "error", err)
	}
}
