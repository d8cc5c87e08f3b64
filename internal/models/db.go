package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	applog "github.com/bazaar-next/internal/logger"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

const slowQueryThreshold = 300 * time.Millisecond

// DBPoolConfig 数据库连接池配置，零值表示沿用驱动默认
type DBPoolConfig struct {
	MaxOpenConns           int
	MaxIdleConns           int
	ConnMaxLifetimeSeconds int
	ConnMaxIdleTimeSeconds int
}

// InitDB 打开数据库并校验连通性；debug 为 true 时记录全部 SQL
func InitDB(driver, dsn string, pool DBPoolConfig, debug bool) error {
	dialector, err := openDialector(driver, dsn)
	if err != nil {
		return err
	}

	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	gormLog := gormlogger.New(zapWriter{}, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if pool.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetimeSeconds > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(pool.ConnMaxLifetimeSeconds) * time.Second)
	}
	if pool.ConnMaxIdleTimeSeconds > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(pool.ConnMaxIdleTimeSeconds) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	DB = db
	return nil
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres", "postgresql":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver: %s", driver)
}

// zapWriter 将 gorm 日志转入全局 zap 日志
type zapWriter struct{}

func (zapWriter) Printf(format string, args ...any) {
	applog.S().Named("gorm").Infof(format, args...)
}

// AutoMigrate 迁移全部业务表
func AutoMigrate() error {
	return DB.AutoMigrate(
		&Product{},
		&ProductVariant{},
		&UserAddress{},
		&UserPushToken{},
		&Order{},
		&OrderItem{},
		&OrderStatusEvent{},
		&Coupon{},
		&CouponUsage{},
		&LoyaltyAccount{},
		&LoyaltyPointsTransaction{},
		&LoyaltyTier{},
		&LoyaltyUserTier{},
		&LoyaltyReward{},
	)
}
