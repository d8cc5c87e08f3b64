package service

import (
	"errors"
)

// 错误类别，HTTP 层按类别映射状态码
var (
	ErrKindNotFound               = errors.New("not found")
	ErrKindInvalidInput           = errors.New("invalid input")
	ErrKindInsufficientStock      = errors.New("insufficient stock")
	ErrKindInsufficientBalance    = errors.New("insufficient balance")
	ErrKindCouponInvalid          = errors.New("coupon invalid")
	ErrKindConflict               = errors.New("conflict")
	ErrKindForbidden              = errors.New("forbidden")
	ErrKindInvalidStateTransition = errors.New("invalid state transition")
)

// kindedError 带类别的业务错误，Error 只输出业务消息
type kindedError struct {
	kind    error
	message string
}

func (e *kindedError) Error() string {
	return e.message
}

func (e *kindedError) Unwrap() error {
	return e.kind
}

func kindError(kind error, message string) error {
	return &kindedError{kind: kind, message: message}
}

// ErrorKind 返回错误所属类别，未归类时返回 nil
func ErrorKind(err error) error {
	for _, kind := range []error{
		ErrKindNotFound,
		ErrKindInvalidInput,
		ErrKindInsufficientStock,
		ErrKindInsufficientBalance,
		ErrKindCouponInvalid,
		ErrKindConflict,
		ErrKindForbidden,
		ErrKindInvalidStateTransition,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// 订单
var (
	ErrOrderNotFound          = kindError(ErrKindNotFound, "order not found")
	ErrOrderItemsEmpty        = kindError(ErrKindInvalidInput, "order items empty")
	ErrOrderItemInvalid       = kindError(ErrKindInvalidInput, "order item invalid")
	ErrInvalidQuantity        = kindError(ErrKindInvalidInput, "quantity must be at least 1")
	ErrVariantRequired        = kindError(ErrKindInvalidInput, "variant id required")
	ErrPaymentMethodInvalid   = kindError(ErrKindInvalidInput, "payment method invalid")
	ErrOrderStatusInvalid     = kindError(ErrKindInvalidInput, "order status invalid")
	ErrProductNotFound        = kindError(ErrKindNotFound, "product not found")
	ErrVariantNotFound        = kindError(ErrKindNotFound, "variant not found")
	ErrAddressNotFound        = kindError(ErrKindNotFound, "shipping address not found")
	ErrInsufficientStock      = kindError(ErrKindInsufficientStock, "insufficient stock")
	ErrOrderForbidden         = kindError(ErrKindForbidden, "order does not belong to user")
	ErrInvalidStateTransition = kindError(ErrKindInvalidStateTransition, "invalid order status transition")
	ErrOrderNotCancellable    = kindError(ErrKindInvalidStateTransition, "order cannot be cancelled")
	ErrOrderAlreadyPaid       = kindError(ErrKindInvalidStateTransition, "order already paid")
)

// ErrInvalidOrderAmount 订单金额为负，属于计算错误，不映射为用户输入错误
var ErrInvalidOrderAmount = errors.New("invalid order amount")

// 优惠券
var (
	ErrCouponNotFound      = kindError(ErrKindNotFound, "coupon not found")
	ErrCouponInactive      = kindError(ErrKindCouponInvalid, "coupon is not active")
	ErrCouponExpired       = kindError(ErrKindCouponInvalid, "coupon has expired")
	ErrCouponUsageLimit    = kindError(ErrKindCouponInvalid, "coupon usage limit reached")
	ErrCouponMinAmount     = kindError(ErrKindCouponInvalid, "order amount below coupon minimum")
	ErrCouponPerUserLimit  = kindError(ErrKindCouponInvalid, "coupon per-user limit reached")
	ErrCouponInvalid       = kindError(ErrKindCouponInvalid, "coupon invalid")
	ErrCouponCodeExists    = kindError(ErrKindConflict, "coupon code already exists")
	ErrCouponInvalidConfig = kindError(ErrKindInvalidInput, "coupon configuration invalid")
)

// 积分与等级
var (
	ErrPointsInvalid           = kindError(ErrKindInvalidInput, "points must be positive")
	ErrInsufficientPoints      = kindError(ErrKindInsufficientBalance, "insufficient points balance")
	ErrUserRequired            = kindError(ErrKindInvalidInput, "user id required")
	ErrTierNotFound            = kindError(ErrKindNotFound, "loyalty tier not found")
	ErrTierNameExists          = kindError(ErrKindConflict, "loyalty tier name already exists")
	ErrTierInvalid             = kindError(ErrKindInvalidInput, "loyalty tier invalid")
	ErrTierPartitionInvalid    = kindError(ErrKindInvalidInput, "loyalty tiers overlap or leave gaps")
	ErrRewardNotFound          = kindError(ErrKindNotFound, "reward not found")
	ErrRewardUnavailable       = kindError(ErrKindInvalidInput, "reward is not available")
	ErrRewardTierIneligible    = kindError(ErrKindForbidden, "reward not available for user tier")
	ErrRewardUsageLimit        = kindError(ErrKindInvalidInput, "reward usage limit reached")
	ErrRewardPerUserLimit      = kindError(ErrKindInvalidInput, "reward per-user limit reached")
	ErrRewardMinAmount         = kindError(ErrKindInvalidInput, "order amount below reward minimum")
	ErrRewardInvalid           = kindError(ErrKindInvalidInput, "reward configuration invalid")
	ErrRewardFreeProductAbsent = kindError(ErrKindNotFound, "reward free product not found")
)
