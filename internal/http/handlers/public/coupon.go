package public

import (
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ValidateCouponRequest 优惠券校验请求
type ValidateCouponRequest struct {
	Code        string       `json:"code" validate:"required,max=64"`
	OrderAmount models.Money `json:"order_amount"`
}

// ValidateCoupon 校验优惠券并返回优惠金额；业务校验失败以 is_valid=false 返回
func (h *Handler) ValidateCoupon(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	var req ValidateCouponRequest
	if !handlershared.BindJSON(c, &req) {
		return
	}
	if req.OrderAmount.Decimal.IsNegative() {
		respondError(c, response.CodeBadRequest, "order_amount must not be negative", nil)
		return
	}

	result, err := h.CouponService.Validate(req.Code, req.OrderAmount.Decimal, uid)
	if err != nil && (result == nil || service.ErrorKind(err) == nil) {
		handlershared.RespondMappedError(c, err, handlershared.KindErrorRules, "coupon validate failed")
		return
	}
	response.Success(c, result)
}
