package service

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponInput 创建/更新优惠券输入
type CouponInput struct {
	Code                  string        `json:"code" validate:"required,max=64"`
	DiscountType          string        `json:"discount_type" validate:"required,oneof=fixed_amount percentage"`
	Value                 models.Money  `json:"value"`
	MinimumOrderAmount    *models.Money `json:"minimum_order_amount"`
	MaximumDiscountAmount *models.Money `json:"maximum_discount_amount"`
	UsageLimit            int           `json:"usage_limit" validate:"min=1"`
	UsageLimitPerUser     int           `json:"usage_limit_per_user" validate:"min=1"`
	ExpiresAt             time.Time     `json:"expires_at" validate:"required"`
	IsActive              *bool         `json:"is_active"`
}

// CreateCoupon 创建优惠券
func (s *CouponService) CreateCoupon(input CouponInput) (*models.Coupon, error) {
	code, err := normalizeCouponInput(&input)
	if err != nil {
		return nil, err
	}
	exist, err := s.couponRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrCouponCodeExists
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:                  code,
		DiscountType:          input.DiscountType,
		Value:                 input.Value,
		MinimumOrderAmount:    input.MinimumOrderAmount,
		MaximumDiscountAmount: input.MaximumDiscountAmount,
		UsageLimit:            input.UsageLimit,
		UsageCount:            0,
		UsageLimitPerUser:     input.UsageLimitPerUser,
		ExpiresAt:             input.ExpiresAt,
		IsActive:              isActive,
		Status:                constants.CouponStatusActive,
	}
	if !isActive {
		coupon.Status = constants.CouponStatusDisabled
	}
	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// UpdateCoupon 更新优惠券
func (s *CouponService) UpdateCoupon(id uint, input CouponInput) (*models.Coupon, error) {
	existing, err := s.GetCoupon(id)
	if err != nil {
		return nil, err
	}
	code, err := normalizeCouponInput(&input)
	if err != nil {
		return nil, err
	}
	if code != existing.Code {
		dup, err := s.couponRepo.GetByCode(code)
		if err != nil {
			return nil, err
		}
		if dup != nil {
			return nil, ErrCouponCodeExists
		}
	}
	if input.UsageLimit < existing.UsageCount {
		return nil, ErrCouponInvalidConfig
	}

	existing.Code = code
	existing.DiscountType = input.DiscountType
	existing.Value = input.Value
	existing.MinimumOrderAmount = input.MinimumOrderAmount
	existing.MaximumDiscountAmount = input.MaximumDiscountAmount
	existing.UsageLimit = input.UsageLimit
	existing.UsageLimitPerUser = input.UsageLimitPerUser
	existing.ExpiresAt = input.ExpiresAt
	if input.IsActive != nil {
		existing.IsActive = *input.IsActive
		if existing.IsActive {
			existing.Status = constants.CouponStatusActive
		} else {
			existing.Status = constants.CouponStatusDisabled
		}
	}
	if err := s.couponRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DisableCoupon 停用优惠券，已有使用记录保留
func (s *CouponService) DisableCoupon(id uint) (*models.Coupon, error) {
	existing, err := s.GetCoupon(id)
	if err != nil {
		return nil, err
	}
	existing.IsActive = false
	existing.Status = constants.CouponStatusDisabled
	if err := s.couponRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// GetCoupon 获取优惠券
func (s *CouponService) GetCoupon(id uint) (*models.Coupon, error) {
	if id == 0 {
		return nil, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return coupon, nil
}

// ListCoupons 分页查询优惠券
func (s *CouponService) ListCoupons(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// ListUsages 分页查询优惠券使用记录
func (s *CouponService) ListUsages(filter repository.CouponUsageListFilter) ([]models.CouponUsage, int64, error) {
	return s.usageRepo.List(filter)
}

func normalizeCouponInput(input *CouponInput) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return "", ErrCouponInvalidConfig
	}
	input.DiscountType = strings.ToLower(strings.TrimSpace(input.DiscountType))
	switch input.DiscountType {
	case constants.CouponTypeFixedAmount:
	case constants.CouponTypePercentage:
		if input.Value.Decimal.GreaterThan(decimal.NewFromInt(100)) {
			return "", ErrCouponInvalidConfig
		}
	default:
		return "", ErrCouponInvalidConfig
	}
	if input.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return "", ErrCouponInvalidConfig
	}
	if input.UsageLimit < 1 || input.UsageLimitPerUser < 1 {
		return "", ErrCouponInvalidConfig
	}
	if input.ExpiresAt.IsZero() {
		return "", ErrCouponInvalidConfig
	}
	return code, nil
}
