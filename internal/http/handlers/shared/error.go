package shared

import (
	"errors"

	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if id := response.RequestID(c); id != "" {
		return logger.SW("request_id", id)
	}
	return logger.S()
}

// RespondError 返回错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, msg string, err error) {
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"code", code,
			"message", msg,
			"path", c.FullPath(),
			"error", err,
		)
	}
	response.Error(c, code, msg)
}

// MappedError 定义业务错误到接口错误码的映射关系。
type MappedError struct {
	Target error
	Code   int
}

// KindErrorRules 按错误类别映射，放在各接口专用规则之后兜底。
var KindErrorRules = []MappedError{
	{Target: service.ErrKindNotFound, Code: response.CodeNotFound},
	{Target: service.ErrKindForbidden, Code: response.CodeForbidden},
	{Target: service.ErrKindConflict, Code: response.CodeConflict},
	{Target: service.ErrKindInvalidStateTransition, Code: response.CodeConflict},
	{Target: service.ErrKindInvalidInput, Code: response.CodeBadRequest},
	{Target: service.ErrKindCouponInvalid, Code: response.CodeBadRequest},
	{Target: service.ErrKindInsufficientStock, Code: response.CodeBadRequest},
	{Target: service.ErrKindInsufficientBalance, Code: response.CodeBadRequest},
}

// RespondMappedError 命中规则时以业务消息返回，未命中时记录原始错误并返回兜底消息。
func RespondMappedError(c *gin.Context, err error, rules []MappedError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, err.Error(), nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, fallbackMsg, err)
}

// ConcatMappedErrors 合并多组映射规则，靠前的优先。
func ConcatMappedErrors(groups ...[]MappedError) []MappedError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]MappedError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
