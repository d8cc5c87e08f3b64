package admin

import (
	"strings"

	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCoupons 优惠券列表
func (h *Handler) ListCoupons(c *gin.Context) {
	page, limit := handlershared.ParsePagination(c)
	coupons, total, err := h.CouponService.ListCoupons(repository.CouponListFilter{
		Code:     strings.TrimSpace(c.Query("code")),
		Status:   strings.TrimSpace(c.Query("status")),
		IsActive: parseQueryBool(c, "is_active"),
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		respondServiceError(c, err, "coupon query failed")
		return
	}
	response.Success(c, service.NewPage(coupons, total, page, limit))
}

// CreateCoupon 创建优惠券
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req service.CouponInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	coupon, err := h.CouponService.CreateCoupon(req)
	if err != nil {
		respondServiceError(c, err, "coupon create failed")
		return
	}
	response.Success(c, coupon)
}

// GetCoupon 优惠券详情
func (h *Handler) GetCoupon(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponService.GetCoupon(id)
	if err != nil {
		respondServiceError(c, err, "coupon query failed")
		return
	}
	response.Success(c, coupon)
}

// UpdateCoupon 更新优惠券
func (h *Handler) UpdateCoupon(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	var req service.CouponInput
	if !handlershared.BindJSON(c, &req) {
		return
	}
	coupon, err := h.CouponService.UpdateCoupon(id, req)
	if err != nil {
		respondServiceError(c, err, "coupon update failed")
		return
	}
	response.Success(c, coupon)
}

// DisableCoupon 停用优惠券
func (h *Handler) DisableCoupon(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	coupon, err := h.CouponService.DisableCoupon(id)
	if err != nil {
		respondServiceError(c, err, "coupon disable failed")
		return
	}
	response.Success(c, coupon)
}

// ListCouponUsages 优惠券使用记录
func (h *Handler) ListCouponUsages(c *gin.Context) {
	id, ok := handlershared.ParseParamUint(c, "id")
	if !ok {
		return
	}
	userID, ok := parseQueryUint(c, "user_id")
	if !ok {
		return
	}
	page, limit := handlershared.ParsePagination(c)
	usages, total, err := h.CouponService.ListUsages(repository.CouponUsageListFilter{
		Page:     page,
		PageSize: limit,
		UserID:   userID,
		CouponID: id,
	})
	if err != nil {
		respondServiceError(c, err, "coupon usage query failed")
		return
	}
	response.Success(c, service.NewPage(usages, total, page, limit))
}
