package service

import (
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
	usageRepo  repository.CouponUsageRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository, usageRepo repository.CouponUsageRepository) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		usageRepo:  usageRepo,
	}
}

// CouponValidation 优惠券校验结果
type CouponValidation struct {
	IsValid        bool           `json:"is_valid"`
	DiscountAmount models.Money   `json:"discount_amount"`
	FinalAmount    models.Money   `json:"final_amount"`
	Message        string         `json:"message,omitempty"`
	Coupon         *models.Coupon `json:"-"`
}

// Validate 按顺序校验优惠券并计算优惠，失败时同时返回 IsValid=false 的结果与具体错误
func (s *CouponService) Validate(code string, orderAmount decimal.Decimal, userID uint) (*CouponValidation, error) {
	result := &CouponValidation{
		DiscountAmount: models.ZeroMoney(),
		FinalAmount:    models.NewMoneyFromDecimal(orderAmount),
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		result.Message = ErrCouponNotFound.Error()
		return result, ErrCouponNotFound
	}
	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		result.Message = ErrCouponNotFound.Error()
		return result, ErrCouponNotFound
	}
	result.Coupon = coupon

	discount, err := evaluateCoupon(s.usageRepo, coupon, orderAmount, userID, time.Now())
	if err != nil {
		if ErrorKind(err) == nil {
			return nil, err
		}
		result.Message = err.Error()
		return result, err
	}
	result.IsValid = true
	result.DiscountAmount = models.NewMoneyFromDecimal(discount)
	result.FinalAmount = models.NewMoneyFromDecimal(orderAmount.Sub(discount))
	return result, nil
}

// ApplyByCode 在事务内按优惠码使用优惠券
func (s *CouponService) ApplyByCode(tx *gorm.DB, code string, userID uint, orderAmount decimal.Decimal, orderID *uint) (*models.CouponUsage, error) {
	coupon, err := s.couponRepo.WithTx(tx).GetByCode(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	return s.Apply(tx, coupon.ID, userID, orderAmount, orderID)
}

// Apply 在事务内锁定优惠券、重新校验、写入使用记录并累加使用次数
func (s *CouponService) Apply(tx *gorm.DB, couponID, userID uint, orderAmount decimal.Decimal, orderID *uint) (*models.CouponUsage, error) {
	if tx == nil {
		return nil, ErrCouponInvalid
	}
	couponRepo := s.couponRepo.WithTx(tx)
	usageRepo := s.usageRepo.WithTx(tx)

	coupon, err := couponRepo.GetByIDForUpdate(couponID)
	if err != nil {
		return nil, err
	}
	if coupon == nil {
		return nil, ErrCouponNotFound
	}
	discount, err := evaluateCoupon(usageRepo, coupon, orderAmount, userID, time.Now())
	if err != nil {
		return nil, err
	}

	usage := &models.CouponUsage{
		CouponID:       coupon.ID,
		UserID:         userID,
		OrderID:        orderID,
		OrderAmount:    models.NewMoneyFromDecimal(orderAmount),
		DiscountAmount: models.NewMoneyFromDecimal(discount),
	}
	if err := usageRepo.Create(usage); err != nil {
		return nil, err
	}
	ok, err := couponRepo.IncrementUsageCount(coupon.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCouponUsageLimit
	}
	logger.Debugw("coupon_applied",
		"coupon_id", coupon.ID,
		"user_id", userID,
		"discount", usage.DiscountAmount.String(),
	)
	return usage, nil
}

// evaluateCoupon 依次校验：启用状态、有效期、总次数、门槛金额、个人次数，通过后计算优惠
func evaluateCoupon(usageRepo repository.CouponUsageRepository, coupon *models.Coupon, orderAmount decimal.Decimal, userID uint, now time.Time) (decimal.Decimal, error) {
	if !coupon.IsActive || coupon.Status != constants.CouponStatusActive {
		return decimal.Zero, ErrCouponInactive
	}
	if !coupon.ExpiresAt.IsZero() && !now.Before(coupon.ExpiresAt) {
		return decimal.Zero, ErrCouponExpired
	}
	if coupon.UsageCount >= coupon.UsageLimit {
		return decimal.Zero, ErrCouponUsageLimit
	}
	if coupon.MinimumOrderAmount != nil && orderAmount.LessThan(coupon.MinimumOrderAmount.Decimal) {
		return decimal.Zero, ErrCouponMinAmount
	}
	if userID != 0 {
		count, err := usageRepo.CountByUser(coupon.ID, userID)
		if err != nil {
			return decimal.Zero, err
		}
		if count >= int64(coupon.UsageLimitPerUser) {
			return decimal.Zero, ErrCouponPerUserLimit
		}
	}
	return calculateCouponDiscount(coupon, orderAmount)
}

// calculateCouponDiscount 固定金额直接抵扣；百分比按金额计算并受上限约束，优惠不超过订单金额
func calculateCouponDiscount(coupon *models.Coupon, orderAmount decimal.Decimal) (decimal.Decimal, error) {
	if coupon.Value.Decimal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrCouponInvalid
	}
	var discount decimal.Decimal
	switch coupon.DiscountType {
	case constants.CouponTypeFixedAmount:
		discount = coupon.Value.Decimal
	case constants.CouponTypePercentage:
		discount = orderAmount.Mul(coupon.Value.Decimal).Div(decimal.NewFromInt(100))
		if coupon.MaximumDiscountAmount != nil && coupon.MaximumDiscountAmount.Decimal.GreaterThan(decimal.Zero) &&
			discount.GreaterThan(coupon.MaximumDiscountAmount.Decimal) {
			discount = coupon.MaximumDiscountAmount.Decimal
		}
	default:
		return decimal.Zero, ErrCouponInvalid
	}
	if discount.GreaterThan(orderAmount) {
		discount = orderAmount
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2), nil
}
