package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/config"

	"github.com/gin-gonic/gin"
)

// corsPolicy 预先计算好的跨域响应头
type corsPolicy struct {
	origins     []string
	wildcard    bool
	credentials bool
	methods     string
	headers     string
	maxAge      string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	p := corsPolicy{
		credentials: cfg.AllowCredentials,
		methods:     strings.Join(orDefault(cfg.AllowedMethods, "GET", "POST", "PUT", "DELETE", "OPTIONS"), ", "),
		headers:     strings.Join(orDefault(cfg.AllowedHeaders, "Content-Type", "Authorization", requestIDHeader), ", "),
	}
	for _, origin := range orDefault(cfg.AllowedOrigins, "*") {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			p.wildcard = true
			continue
		}
		if origin != "" {
			p.origins = append(p.origins, origin)
		}
	}
	if cfg.MaxAge > 0 {
		p.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

func orDefault(values []string, fallback ...string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// allowOrigin 返回应写入 Access-Control-Allow-Origin 的值，空串表示不放行。
// 携带凭证时浏览器不接受 *，此时回显请求来源
func (p corsPolicy) allowOrigin(origin string) string {
	if p.wildcard {
		if p.credentials && origin != "" {
			return origin
		}
		return "*"
	}
	for _, allowed := range p.origins {
		if origin != "" && strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		h := c.Writer.Header()
		if allowed := policy.allowOrigin(c.GetHeader("Origin")); allowed != "" {
			h.Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
		}
		if policy.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		h.Set("Access-Control-Allow-Methods", policy.methods)
		h.Set("Access-Control-Allow-Headers", policy.headers)
		h.Set("Access-Control-Expose-Headers", requestIDHeader+", Retry-After")
		if policy.maxAge != "" {
			h.Set("Access-Control-Max-Age", policy.maxAge)
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
