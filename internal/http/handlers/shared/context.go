package shared

import (
	"strconv"
	"strings"

	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// 中间件写入上下文的键
const (
	ContextUserID    = "user_id"
	ContextAdminID   = "admin_id"
	ContextAdminRole = "admin_role"
)

// GetContextUint 从上下文读取 uint 值，缺失或类型异常时直接写出错误响应。
func GetContextUint(c *gin.Context, key string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		if v == 0 {
			RespondError(c, response.CodeUnauthorized, "unauthorized", nil)
			return 0, false
		}
		return v, true
	case int:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, key+" invalid", nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v <= 0 {
			RespondError(c, response.CodeBadRequest, key+" invalid", nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, key+" type invalid", nil)
		return 0, false
	}
}

// GetUserID 读取当前用户 ID
func GetUserID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextUserID)
}

// GetAdminID 读取当前管理员 ID
func GetAdminID(c *gin.Context) (uint, bool) {
	return GetContextUint(c, ContextAdminID)
}

// GetAdminRole 读取当前管理员角色
func GetAdminRole(c *gin.Context) string {
	return c.GetString(ContextAdminRole)
}

// ParseParamUint 解析路径参数中的正整数 ID
func ParseParamUint(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		RespondError(c, response.CodeBadRequest, name+" invalid", nil)
		return 0, false
	}
	return uint(id), true
}
