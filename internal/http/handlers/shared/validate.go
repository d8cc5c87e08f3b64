package shared

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/bazaar-next/internal/http/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator 返回按 validate 标签校验、以 json 字段名报错的校验器。
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate = v
	})
	return validate
}

// FieldError 单个字段的校验失败信息
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BindJSON 解析请求体并执行字段校验，失败时写出 400 响应。
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, response.CodeBadRequest, "invalid request body", nil)
		RequestLog(c).Debugw("request_bind_failed", "error", err)
		return false
	}
	if err := Validator().Struct(dst); err != nil {
		details := FormatValidationErrors(err)
		response.ErrorWithData(c, response.CodeBadRequest, "request validation failed", gin.H{"errors": details})
		return false
	}
	return true
}

// FormatValidationErrors 将 validator 错误转换为字段级提示
func FormatValidationErrors(err error) []FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []FieldError{{Message: err.Error()}}
	}
	details := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		details = append(details, FieldError{
			Field:   strings.TrimPrefix(e.Namespace(), strings.SplitN(e.Namespace(), ".", 2)[0]+"."),
			Message: validationMessage(e),
		})
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "this field is required"
	case "min":
		if e.Kind() == reflect.String {
			return "must be at least " + e.Param() + " characters"
		}
		if e.Kind() == reflect.Slice {
			return "must contain at least " + e.Param() + " item(s)"
		}
		return "must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "must be at most " + e.Param() + " characters"
		}
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "invalid value"
	}
}
