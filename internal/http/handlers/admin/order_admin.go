package admin

import (
	"strings"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders 管理端订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, limit := handlershared.ParsePagination(c)
	userID, ok := parseQueryUint(c, "user_id")
	if !ok {
		return
	}
	createdFrom, err := parseTimeNullable(c.Query("created_from"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_from invalid", nil)
		return
	}
	createdTo, err := parseTimeNullable(c.Query("created_to"))
	if err != nil {
		respondError(c, response.CodeBadRequest, "created_to invalid", nil)
		return
	}

	result, err := h.OrderService.ListOrdersAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      limit,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		PaymentStatus: strings.TrimSpace(c.Query("payment_status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
	})
	if err != nil {
		respondServiceError(c, err, "order query failed")
		return
	}
	response.Success(c, result)
}

// GetOrder 管理端订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderAdmin(orderID)
	if err != nil {
		respondServiceError(c, err, "order query failed")
		return
	}
	response.Success(c, order)
}

// GetOrderHistory 管理端订单状态历史
func (h *Handler) GetOrderHistory(c *gin.Context) {
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	events, err := h.OrderService.ListStatusHistory(orderID, 0)
	if err != nil {
		respondServiceError(c, err, "order history query failed")
		return
	}
	response.Success(c, events)
}

// UpdateOrderStatus 变更订单状态，跳过的中间状态自动补齐
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req service.UpdateStatusInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	order, err := h.OrderService.UpdateStatus(orderID, req, actor)
	if err != nil {
		respondServiceError(c, err, "order status update failed")
		return
	}
	response.Success(c, order)
}

// MarkOrderPaid 标记订单已支付
func (h *Handler) MarkOrderPaid(c *gin.Context) {
	orderID, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	order, err := h.OrderService.MarkPaid(orderID, actor)
	if err != nil {
		respondServiceError(c, err, "order mark paid failed")
		return
	}
	response.Success(c, order)
}

func currentActor(c *gin.Context) (service.Actor, bool) {
	adminID, ok := handlershared.GetAdminID(c)
	if !ok {
		return service.Actor{}, false
	}
	return service.Actor{ID: &adminID, Role: handlershared.GetAdminRole(c)}, true
}
