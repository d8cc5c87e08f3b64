package public

import (
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError = handlershared.MappedError

// 下单请求体引用的资源不存在属于请求错误
var orderCreateErrorRules = []mappedHandlerError{
	{Target: service.ErrProductNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrVariantNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrAddressNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrCouponNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrRewardNotFound, Code: response.CodeBadRequest},
	{Target: service.ErrRewardFreeProductAbsent, Code: response.CodeBadRequest},
}

var orderErrorRules = handlershared.KindErrorRules

var loyaltyErrorRules = handlershared.KindErrorRules

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func respondOrderCreateError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, handlershared.ConcatMappedErrors(orderCreateErrorRules, orderErrorRules), "order create failed")
}

func respondOrderQueryError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, orderErrorRules, "order query failed")
}

func respondOrderCancelError(c *gin.Context, err error) {
	handlershared.RespondMappedError(c, err, orderErrorRules, "order cancel failed")
}

func respondLoyaltyError(c *gin.Context, err error, fallback string) {
	handlershared.RespondMappedError(c, err, loyaltyErrorRules, fallback)
}
