package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/config"
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Name          string
	WindowSeconds int
	MaxRequests   int
}

// NewRateLimitRule 由配置生成规则
func NewRateLimitRule(name string, cfg config.RateLimitRuleConfig) RateLimitRule {
	return RateLimitRule{Name: name, WindowSeconds: cfg.WindowSeconds, MaxRequests: cfg.MaxRequests}
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// 返回 {当前窗口计数, 剩余 TTL}
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// RateLimiter 基于 Redis 的限流器，client 为空时全部放行
type RateLimiter struct {
	client *redis.Client
	prefix string
}

// NewRateLimiter 创建限流器
func NewRateLimiter(client *redis.Client, prefix string) *RateLimiter {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "bz"
	}
	return &RateLimiter{client: client, prefix: prefix}
}

func (l *RateLimiter) key(rule RateLimitRule, subject string) string {
	return fmt.Sprintf("%s:rate:%s:%s", l.prefix, rule.Name, subject)
}

// hit 计数一次，返回窗口内计数与剩余秒数
func (l *RateLimiter) hit(ctx context.Context, key string, rule RateLimitRule) (int64, int64, error) {
	values, err := fixedWindowScript.Run(ctx, l.client, []string{key}, rule.WindowSeconds).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(values) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit reply: %v", values)
	}
	return values[0], values[1], nil
}

// Middleware 生成限流中间件；Redis 故障时放行
func (l *RateLimiter) Middleware(rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.client == nil || !rule.enabled() {
			c.Next()
			return
		}

		subject := ""
		if keyFunc != nil {
			subject = strings.TrimSpace(keyFunc(c))
		}
		if subject == "" {
			subject = c.ClientIP()
		}
		key := l.key(rule, subject)

		count, ttl, err := l.hit(c.Request.Context(), key, rule)
		if err != nil {
			logger.Warnw("rate_limit_unavailable", "rule", rule.Name, "key", key, "error", err)
			c.Next()
			return
		}

		remaining := int64(rule.MaxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.MaxRequests) {
			wait := retryAfterSeconds(ttl, rule.WindowSeconds)
			c.Header("Retry-After", strconv.Itoa(wait))
			handlershared.RequestLog(c).Infow("rate_limited", "rule", rule.Name, "subject", subject, "count", count)
			response.Error(c, response.CodeTooManyRequests, fmt.Sprintf("too many requests, retry in %d seconds", wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

func retryAfterSeconds(ttl int64, window int) int {
	if ttl >= 1 {
		return int(ttl)
	}
	if window >= 1 {
		return window
	}
	return 1
}

// KeyByUserID 使用登录用户 ID 作为限流 key，未登录时回退到 IP
func KeyByUserID(c *gin.Context) string {
	if id := c.GetUint(handlershared.ContextUserID); id != 0 {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，读取后恢复请求体
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(peekJSONString(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

func peekJSONString(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
