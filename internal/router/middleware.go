package router

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/authz"
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware 沿用上游 X-Request-ID，缺失时生成 UUID，并挂到请求 context 的日志上
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(response.RequestIDKey, id)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), "request_id", id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware 每个请求一条 http_request 日志，/health 不记录
func LoggerMiddleware(base *zap.Logger) gin.HandlerFunc {
	if base == nil {
		base = zap.L()
	}
	log := base.Sugar()
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []any{
			"request_id", response.RequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if id := c.GetUint(handlershared.ContextUserID); id != 0 {
			kv = append(kv, "user_id", id)
		}
		if id := c.GetUint(handlershared.ContextAdminID); id != 0 {
			kv = append(kv, "admin_id", id)
		}

		switch {
		case len(c.Errors) > 0:
			log.Errorw("http_request", append(kv, "errors", c.Errors.String())...)
		case status >= 500:
			log.Warnw("http_request", kv...)
		default:
			log.Infow("http_request", kv...)
		}
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

// bearerToken 提取 Authorization: Bearer <token>
func bearerToken(c *gin.Context) (string, string) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", "authorization header missing"
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || scheme != "Bearer" || token == "" {
		return "", "authorization header invalid"
	}
	return token, ""
}

// jwtAuth 校验令牌并由 bind 写入身份信息
func jwtAuth(parse func(token string, c *gin.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, problem := bearerToken(c)
		if problem != "" {
			abortUnauthorized(c, problem)
			return
		}
		if err := parse(token, c); err != nil {
			abortUnauthorized(c, "token invalid")
			return
		}
		c.Next()
	}
}

// UserJWTAuthMiddleware 用户端鉴权，成功后写入 user_id
func UserJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return jwtAuth(func(token string, c *gin.Context) error {
		if authService == nil {
			return service.ErrTokenInvalid
		}
		claims, err := authService.ParseUserJWT(token)
		if err != nil {
			return err
		}
		c.Set(handlershared.ContextUserID, claims.UserID)
		return nil
	})
}

// AdminJWTAuthMiddleware 管理端鉴权，成功后写入 admin_id 与角色
func AdminJWTAuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return jwtAuth(func(token string, c *gin.Context) error {
		if authService == nil {
			return service.ErrTokenInvalid
		}
		claims, err := authService.ParseAdminJWT(token)
		if err != nil {
			return err
		}
		c.Set(handlershared.ContextAdminID, claims.AdminID)
		c.Set(handlershared.ContextAdminRole, strings.ToLower(strings.TrimSpace(claims.Role)))
		return nil
	})
}

// AdminRBACMiddleware 按角色校验当前路由与方法
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(handlershared.ContextAdminRole)
		if authzService == nil || role == "" {
			if authzService == nil {
				logger.Errorw("admin_rbac_service_unavailable")
			}
			abortUnauthorized(c, "unauthorized")
			return
		}

		resource := c.FullPath()
		if resource == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceRole(role, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed", "role", role, "resource", resource, "method", c.Request.Method, "error", err)
			abortUnauthorized(c, "unauthorized")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", c.GetUint(handlershared.ContextAdminID),
				"role", role,
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}
