package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "bz"
	pingTimeout      = 3 * time.Second
)

// store 进程内唯一的缓存句柄，rdb 为空表示缓存关闭
type store struct {
	rdb    *redis.Client
	prefix string
}

var current = &store{prefix: defaultKeyPrefix}

// redisPrefix 供测试覆盖
var redisPrefix = defaultKeyPrefix

// InitRedis 按配置连接 Redis；连接失败时保持关闭状态并返回错误，调用方可选择降级
func InitRedis(cfg *config.RedisConfig) error {
	if cfg == nil || !cfg.Enabled {
		current = &store{prefix: defaultKeyPrefix}
		return nil
	}

	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port <= 0 {
		port = 6379
	}
	prefix := strings.TrimSpace(cfg.Prefix)
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		current = &store{prefix: prefix}
		return err
	}

	redisPrefix = prefix
	current = &store{rdb: rdb, prefix: prefix}
	return nil
}

// Enabled 缓存是否可用
func Enabled() bool {
	return current.rdb != nil
}

// Client 返回底层客户端，关闭时为 nil
func Client() *redis.Client {
	return current.rdb
}

// GetJSON 读取并反序列化，未命中返回 false
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if !Enabled() {
		return false, nil
	}
	raw, err := current.rdb.Get(ctx, buildKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 序列化后写入
func SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !Enabled() {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return current.rdb.Set(ctx, buildKey(key), raw, ttl).Err()
}

func Del(ctx context.Context, key string) error {
	if !Enabled() {
		return nil
	}
	return current.rdb.Del(ctx, buildKey(key)).Err()
}

// SetNX 仅在键不存在时写入；缓存关闭时总是返回 true，即不做去重
func SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if !Enabled() {
		return true, nil
	}
	return current.rdb.SetNX(ctx, buildKey(key), value, ttl).Result()
}

// Close 关闭连接并回到关闭状态
func Close() error {
	rdb := current.rdb
	if rdb == nil {
		return nil
	}
	current = &store{prefix: current.prefix}
	return rdb.Close()
}

func buildKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return redisPrefix
	}
	return redisPrefix + ":" + key
}
