package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RewardService 积分奖励服务
type RewardService struct {
	rewardRepo  repository.LoyaltyRewardRepository
	loyaltyRepo repository.LoyaltyRepository
	loyaltySvc  *LoyaltyService
	tierSvc     *TierService
}

// NewRewardService 创建积分奖励服务
func NewRewardService(
	rewardRepo repository.LoyaltyRewardRepository,
	loyaltyRepo repository.LoyaltyRepository,
	loyaltySvc *LoyaltyService,
	tierSvc *TierService,
) *RewardService {
	return &RewardService{
		rewardRepo:  rewardRepo,
		loyaltyRepo: loyaltyRepo,
		loyaltySvc:  loyaltySvc,
		tierSvc:     tierSvc,
	}
}

// RewardInput 创建/更新奖励输入
type RewardInput struct {
	Name                  string           `json:"name" validate:"required,max=128"`
	Description           string           `json:"description"`
	Type                  string           `json:"type" validate:"required,oneof=discount free_shipping free_product cashback birthday_gift exclusive_access"`
	PointsCost            int64            `json:"points_cost" validate:"min=1"`
	DiscountAmount        *models.Money    `json:"discount_amount"`
	DiscountPercentage    *decimal.Decimal `json:"discount_percentage"`
	MaximumDiscountAmount *models.Money    `json:"maximum_discount_amount"`
	MinimumOrderAmount    *models.Money    `json:"minimum_order_amount"`
	FreeProductID         *uint            `json:"free_product_id"`
	FreeVariantID         *uint            `json:"free_variant_id"`
	FreeProductQuantity   int              `json:"free_product_quantity" validate:"min=0"`
	UsageLimit            int              `json:"usage_limit" validate:"min=0"`
	UsageLimitPerUser     int              `json:"usage_limit_per_user" validate:"min=0"`
	ValidFrom             *time.Time       `json:"valid_from"`
	ValidUntil            *time.Time       `json:"valid_until"`
	EligibleTiers         []uint           `json:"eligible_tiers"`
	IsActive              *bool            `json:"is_active"`
}

// RewardEffect 奖励在订单上的履约效果
type RewardEffect struct {
	Discount     decimal.Decimal
	FreeShipping bool
	FreeProduct  *FreeProductLine
}

// FreeProductLine 赠品行
type FreeProductLine struct {
	ProductID uint
	VariantID uint
	Quantity  int
}

// ListAvailable 返回用户当前可兑换的奖励
func (s *RewardService) ListAvailable(userID uint) ([]models.LoyaltyReward, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	balance, err := s.loyaltySvc.Balance(userID)
	if err != nil {
		return nil, err
	}
	tier, _, err := s.tierSvc.CurrentTier(nil, userID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.rewardRepo.ListRedeemable(balance)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	result := make([]models.LoyaltyReward, 0, len(candidates))
	for _, reward := range candidates {
		if checkRewardAvailable(&reward, now) != nil {
			continue
		}
		if !rewardEligibleForTier(&reward, tier) {
			continue
		}
		result = append(result, reward)
	}
	return result, nil
}

// RedeemReward 兑换奖励
func (s *RewardService) RedeemReward(userID, rewardID uint) (*models.LoyaltyPointsTransaction, error) {
	var txn *models.LoyaltyPointsTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, _, err = s.Redeem(tx, userID, rewardID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Redeem 在事务内重新校验奖励可用性与个人兑换次数，扣减积分后累加奖励兑换次数
func (s *RewardService) Redeem(tx *gorm.DB, userID, rewardID uint) (*models.LoyaltyPointsTransaction, *models.LoyaltyReward, error) {
	if userID == 0 {
		return nil, nil, ErrUserRequired
	}
	rewardRepo := s.rewardRepo.WithTx(tx)
	reward, err := rewardRepo.GetByIDForUpdate(rewardID)
	if err != nil {
		return nil, nil, err
	}
	if reward == nil {
		return nil, nil, ErrRewardNotFound
	}
	if err := checkRewardAvailable(reward, time.Now()); err != nil {
		return nil, nil, err
	}
	tier, _, err := s.tierSvc.CurrentTier(tx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !rewardEligibleForTier(reward, tier) {
		return nil, nil, ErrRewardTierIneligible
	}
	if reward.UsageLimitPerUser > 0 {
		count, err := s.loyaltyRepo.WithTx(tx).CountRewardRedemptions(userID, reward.ID)
		if err != nil {
			return nil, nil, err
		}
		if count >= int64(reward.UsageLimitPerUser) {
			return nil, nil, ErrRewardPerUserLimit
		}
	}

	id := reward.ID
	txn, err := s.loyaltySvc.RedeemInTx(tx, RedeemPointsInput{
		UserID:      userID,
		Points:      reward.PointsCost,
		Source:      constants.PointsSourceReward,
		RewardID:    &id,
		Description: "redeemed " + reward.Name,
	})
	if err != nil {
		return nil, nil, err
	}
	ok, err := rewardRepo.IncrementUsageCount(reward.ID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrRewardUsageLimit
	}
	reward.UsageCount++
	logger.Infow("loyalty_reward_redeemed",
		"user_id", userID,
		"reward_id", reward.ID,
		"points", reward.PointsCost,
		"transaction_id", txn.ID,
	)
	return txn, reward, nil
}

// ReleaseForOrderInTx 订单取消时冲正下单兑换的奖励：返还积分并释放总次数与个人次数
func (s *RewardService) ReleaseForOrderInTx(tx *gorm.DB, order *models.Order) error {
	if order == nil || order.LoyaltyRewardID == nil {
		return nil
	}
	rewardID := *order.LoyaltyRewardID
	redemption, err := s.loyaltyRepo.WithTx(tx).GetOrderRedemption(order.ID, rewardID)
	if err != nil {
		return err
	}
	if redemption == nil {
		return nil
	}
	restored, err := s.loyaltySvc.RestoreRedemptionInTx(tx, redemption, fmt.Sprintf("reward of order %s released", order.OrderNo))
	if err != nil {
		return err
	}
	if err := s.rewardRepo.WithTx(tx).DecrementUsageCount(rewardID); err != nil {
		return err
	}
	logger.Infow("loyalty_reward_released",
		"user_id", order.UserID,
		"order_id", order.ID,
		"reward_id", rewardID,
		"points", restored.Points,
	)
	return nil
}

// checkRewardAvailable 校验启用状态、有效期与总兑换上限
func checkRewardAvailable(reward *models.LoyaltyReward, now time.Time) error {
	if !reward.IsActive || reward.Status != constants.RewardStatusActive {
		return ErrRewardUnavailable
	}
	if reward.ValidFrom != nil && now.Before(*reward.ValidFrom) {
		return ErrRewardUnavailable
	}
	if reward.ValidUntil != nil && !now.Before(*reward.ValidUntil) {
		return ErrRewardUnavailable
	}
	if reward.UsageLimit > 0 && reward.UsageCount >= reward.UsageLimit {
		return ErrRewardUsageLimit
	}
	return nil
}

// rewardEligibleForTier 可兑换等级为空表示全部等级可兑换
func rewardEligibleForTier(reward *models.LoyaltyReward, tier *models.LoyaltyTier) bool {
	if len(reward.EligibleTiers) == 0 {
		return true
	}
	if tier == nil {
		return false
	}
	return reward.EligibleTiers.Contains(tier.ID)
}

// resolveRewardEffect 按奖励类型解析订单履约效果
func resolveRewardEffect(reward *models.LoyaltyReward, subtotal decimal.Decimal) (RewardEffect, error) {
	effect := RewardEffect{Discount: decimal.Zero}
	if reward.MinimumOrderAmount != nil && subtotal.LessThan(reward.MinimumOrderAmount.Decimal) {
		return effect, ErrRewardMinAmount
	}
	switch reward.Type {
	case constants.RewardTypeFreeShipping:
		effect.FreeShipping = true
	case constants.RewardTypeDiscount, constants.RewardTypeCashback, constants.RewardTypeBirthdayGift:
		discount, err := calculateRewardDiscount(reward, subtotal)
		if err != nil {
			return effect, err
		}
		effect.Discount = discount
	case constants.RewardTypeFreeProduct:
		if reward.FreeProductID == nil || reward.FreeVariantID == nil {
			return effect, ErrRewardInvalid
		}
		quantity := reward.FreeProductQuantity
		if quantity < 1 {
			quantity = 1
		}
		effect.FreeProduct = &FreeProductLine{
			ProductID: *reward.FreeProductID,
			VariantID: *reward.FreeVariantID,
			Quantity:  quantity,
		}
	default:
		return effect, ErrRewardInvalid
	}
	return effect, nil
}

func calculateRewardDiscount(reward *models.LoyaltyReward, subtotal decimal.Decimal) (decimal.Decimal, error) {
	var discount decimal.Decimal
	switch {
	case reward.DiscountPercentage != nil && reward.DiscountPercentage.GreaterThan(decimal.Zero):
		discount = subtotal.Mul(*reward.DiscountPercentage).Div(decimal.NewFromInt(100))
		if reward.MaximumDiscountAmount != nil && reward.MaximumDiscountAmount.Decimal.GreaterThan(decimal.Zero) &&
			discount.GreaterThan(reward.MaximumDiscountAmount.Decimal) {
			discount = reward.MaximumDiscountAmount.Decimal
		}
	case reward.DiscountAmount != nil && reward.DiscountAmount.Decimal.GreaterThan(decimal.Zero):
		discount = reward.DiscountAmount.Decimal
	default:
		return decimal.Zero, ErrRewardInvalid
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2), nil
}

// GetReward 获取奖励
func (s *RewardService) GetReward(id uint) (*models.LoyaltyReward, error) {
	reward, err := s.rewardRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, ErrRewardNotFound
	}
	return reward, nil
}

// ListRewards 管理端分页查询奖励
func (s *RewardService) ListRewards(filter repository.RewardListFilter) ([]models.LoyaltyReward, int64, error) {
	return s.rewardRepo.List(filter)
}

// CreateReward 创建奖励
func (s *RewardService) CreateReward(input RewardInput) (*models.LoyaltyReward, error) {
	reward := &models.LoyaltyReward{IsActive: true, Status: constants.RewardStatusActive}
	if err := applyRewardInput(reward, input); err != nil {
		return nil, err
	}
	if err := s.rewardRepo.Create(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// UpdateReward 更新奖励
func (s *RewardService) UpdateReward(id uint, input RewardInput) (*models.LoyaltyReward, error) {
	reward, err := s.GetReward(id)
	if err != nil {
		return nil, err
	}
	if err := applyRewardInput(reward, input); err != nil {
		return nil, err
	}
	if err := s.rewardRepo.Update(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

func applyRewardInput(reward *models.LoyaltyReward, input RewardInput) error {
	name := strings.TrimSpace(input.Name)
	rewardType := strings.ToLower(strings.TrimSpace(input.Type))
	if name == "" || input.PointsCost <= 0 {
		return ErrRewardInvalid
	}
	if input.UsageLimit < 0 || input.UsageLimitPerUser < 0 || input.FreeProductQuantity < 0 {
		return ErrRewardInvalid
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && !input.ValidUntil.After(*input.ValidFrom) {
		return ErrRewardInvalid
	}
	if input.DiscountPercentage != nil &&
		(input.DiscountPercentage.IsNegative() || input.DiscountPercentage.GreaterThan(decimal.NewFromInt(100))) {
		return ErrRewardInvalid
	}
	switch rewardType {
	case constants.RewardTypeDiscount, constants.RewardTypeCashback, constants.RewardTypeBirthdayGift:
		hasPercent := input.DiscountPercentage != nil && input.DiscountPercentage.GreaterThan(decimal.Zero)
		hasAmount := input.DiscountAmount != nil && input.DiscountAmount.Decimal.GreaterThan(decimal.Zero)
		if !hasPercent && !hasAmount {
			return ErrRewardInvalid
		}
	case constants.RewardTypeFreeProduct:
		if input.FreeProductID == nil || input.FreeVariantID == nil {
			return ErrRewardInvalid
		}
	case constants.RewardTypeFreeShipping, constants.RewardTypeExclusiveAccess:
	default:
		return ErrRewardInvalid
	}

	quantity := input.FreeProductQuantity
	if quantity == 0 {
		quantity = 1
	}
	reward.Name = name
	reward.Description = strings.TrimSpace(input.Description)
	reward.Type = rewardType
	reward.PointsCost = input.PointsCost
	reward.DiscountAmount = input.DiscountAmount
	reward.DiscountPercentage = input.DiscountPercentage
	reward.MaximumDiscountAmount = input.MaximumDiscountAmount
	reward.MinimumOrderAmount = input.MinimumOrderAmount
	reward.FreeProductID = input.FreeProductID
	reward.FreeVariantID = input.FreeVariantID
	reward.FreeProductQuantity = quantity
	reward.UsageLimit = input.UsageLimit
	reward.UsageLimitPerUser = input.UsageLimitPerUser
	reward.ValidFrom = input.ValidFrom
	reward.ValidUntil = input.ValidUntil
	reward.EligibleTiers = models.UintArray(input.EligibleTiers)
	if input.IsActive != nil {
		reward.IsActive = *input.IsActive
		if reward.IsActive {
			reward.Status = constants.RewardStatusActive
		} else {
			reward.Status = constants.RewardStatusInactive
		}
	}
	return nil
}
