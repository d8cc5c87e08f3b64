package config

import (
	"fmt"
	"strings"

	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	JWT          JWTConfig          `mapstructure:"jwt"`
	UserJWT      JWTConfig          `mapstructure:"user_jwt"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Queue        QueueConfig        `mapstructure:"queue"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Order        OrderConfig        `mapstructure:"order"`
	Loyalty      LoyaltyConfig      `mapstructure:"loyalty"`
	Notification NotificationConfig `mapstructure:"notification"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Stdout     bool   `mapstructure:"stdout"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Stdout:     c.Stdout,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// ToPoolConfig 转换为 models 连接池配置
func (c DatabaseConfig) ToPoolConfig() models.DBPoolConfig {
	return models.DBPoolConfig{
		MaxOpenConns:           c.Pool.MaxOpenConns,
		MaxIdleConns:           c.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: c.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: c.Pool.ConnMaxIdleTimeSeconds,
	}
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// placeholderSecrets 示例配置中的占位密钥片段
var placeholderSecrets = []string{"change-me", "change-in-production", "your-secret-key"}

// WeakSecret 密钥过短或仍是示例占位值
func (c JWTConfig) WeakSecret() bool {
	if len(c.SecretKey) < 32 {
		return true
	}
	lower := strings.ToLower(c.SecretKey)
	for _, fragment := range placeholderSecrets {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// OrderConfig 订单配置
type OrderConfig struct {
	DefaultShippingCost string `mapstructure:"default_shipping_cost"`
	NumberPrefix        string `mapstructure:"number_prefix"`
}

// ShippingCost 解析默认运费，非法值按 0 处理
func (c OrderConfig) ShippingCost() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.DefaultShippingCost))
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// LoyaltyConfig 积分配置
type LoyaltyConfig struct {
	DefaultEarningRate         string `mapstructure:"default_earning_rate"`
	ExpireSweepIntervalMinutes int    `mapstructure:"expire_sweep_interval_minutes"`
	ExpireSweepBatchSize       int    `mapstructure:"expire_sweep_batch_size"`
	TierCacheTTLSeconds        int    `mapstructure:"tier_cache_ttl_seconds"`
}

// EarningRate 解析默认积分倍率，非法值按 1 处理
func (c LoyaltyConfig) EarningRate() decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(c.DefaultEarningRate))
	if err != nil || d.IsNegative() {
		return decimal.NewFromInt(1)
	}
	return d
}

// NotificationConfig 推送通知配置
type NotificationConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	GatewayURL       string `mapstructure:"gateway_url"`
	APIKey           string `mapstructure:"api_key"`
	TimeoutMS        int    `mapstructure:"timeout_ms"`
	DedupeTTLSeconds int    `mapstructure:"dedupe_ttl_seconds"`
}

// RateLimitRuleConfig 单条限流规则
type RateLimitRuleConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// RateLimitConfig 接口限流配置，依赖 Redis，未启用 Redis 时不限流
type RateLimitConfig struct {
	OrderCreate    RateLimitRuleConfig `mapstructure:"order_create"`
	CouponValidate RateLimitRuleConfig `mapstructure:"coupon_validate"`
}

// EnvPrefix 环境变量前缀，例如 BAZAAR_SERVER_PORT 覆盖 server.port
const EnvPrefix = "BAZAAR"

// Load 依次读取默认值、config.yml 与环境变量，配置文件缺失时继续使用默认值
func Load() *Config {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range []string{".", "../", "./etc"} {
		v.AddConfigPath(dir)
	}

	cfg, err := load(v)
	if err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}
	return cfg
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed", "error", err, "fallback", "env_or_defaults")
	} else {
		logger.Infow("config_file_loaded", "file", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.stdout", false)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "bazaar.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/bazaar.db")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("user_jwt.secret", "user-change-me-in-production")
	v.SetDefault("user_jwt.expire_hours", 168)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "bz")
	v.SetDefault("queue.enabled", true)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)
	v.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", true)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("order.default_shipping_cost", "0")
	v.SetDefault("order.number_prefix", "ORD")
	v.SetDefault("loyalty.default_earning_rate", "1")
	v.SetDefault("loyalty.expire_sweep_interval_minutes", 60)
	v.SetDefault("loyalty.expire_sweep_batch_size", 500)
	v.SetDefault("loyalty.tier_cache_ttl_seconds", 300)
	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.gateway_url", "")
	v.SetDefault("notification.api_key", "")
	v.SetDefault("notification.timeout_ms", 3000)
	v.SetDefault("notification.dedupe_ttl_seconds", 300)
	v.SetDefault("rate_limit.order_create.window_seconds", 60)
	v.SetDefault("rate_limit.order_create.max_requests", 10)
	v.SetDefault("rate_limit.coupon_validate.window_seconds", 60)
	v.SetDefault("rate_limit.coupon_validate.max_requests", 30)
}
