package public

import (
	"strings"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// CancelOrderRequest 取消订单请求
type CancelOrderRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	var req service.CreateOrderInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	req.UserID = uid

	order, err := h.OrderService.CreateOrder(req)
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}
	response.Success(c, order)
}

// ListOrders 当前用户订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	page, limit := handlershared.ParsePagination(c)
	result, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:          page,
		PageSize:      limit,
		UserID:        uid,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
	})
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	response.Success(c, result)
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrder(orderID, uid)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	response.Success(c, order)
}

// GetOrderHistory 订单状态历史
func (h *Handler) GetOrderHistory(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	events, err := h.OrderService.ListStatusHistory(orderID, uid)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}
	response.Success(c, events)
}

// CancelOrder 用户取消未支付的待处理订单
func (h *Handler) CancelOrder(c *gin.Context) {
	uid, ok := handlershared.GetUserID(c)
	if !ok {
		return
	}
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req CancelOrderRequest
	if c.Request.ContentLength > 0 && !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.CancelOrder(orderID, uid, req.Reason)
	if err != nil {
		respondOrderCancelError(c, err)
		return
	}
	response.SuccessWithMsg(c, "order cancelled", order)
}
