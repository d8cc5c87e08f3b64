package service

import (
	"context"
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

const defaultExpireBatchSize = 500

// LoyaltyService 积分账本服务
type LoyaltyService struct {
	loyaltyRepo        repository.LoyaltyRepository
	tierSvc            *TierService
	defaultEarningRate decimal.Decimal
}

// NewLoyaltyService 创建积分账本服务
func NewLoyaltyService(loyaltyRepo repository.LoyaltyRepository, tierSvc *TierService, defaultEarningRate decimal.Decimal) *LoyaltyService {
	if defaultEarningRate.IsNegative() {
		defaultEarningRate = decimal.NewFromInt(1)
	}
	return &LoyaltyService{
		loyaltyRepo:        loyaltyRepo,
		tierSvc:            tierSvc,
		defaultEarningRate: defaultEarningRate,
	}
}

// EarnInput 积分入账输入
type EarnInput struct {
	UserID          uint
	Points          int64
	Source          string
	TransactionType string
	OrderID         *uint
	OrderAmount     *models.Money
	Description     string
}

// RedeemPointsInput 积分扣减输入
type RedeemPointsInput struct {
	UserID      uint
	Points      int64
	Source      string
	RewardID    *uint
	OrderID     *uint
	Description string
}

// AdjustInput 管理员调整积分输入（正数加、负数减）
type AdjustInput struct {
	UserID      uint   `json:"user_id" validate:"required"`
	Points      int64  `json:"points" validate:"required"`
	Description string `json:"description" validate:"max=255"`
}

// LoyaltySummary 用户积分概览
type LoyaltySummary struct {
	UserID            uint                `json:"user_id"`
	Balance           int64               `json:"balance"`
	LifetimePoints    int64               `json:"lifetime_points"`
	CurrentTier       *models.LoyaltyTier `json:"current_tier"`
	NextTier          *models.LoyaltyTier `json:"next_tier"`
	PointsToNextTier  int64               `json:"points_to_next_tier"`
	TierSince         *time.Time          `json:"tier_since,omitempty"`
	LastActivityDate  *time.Time          `json:"last_activity_date,omitempty"`
	ActiveEarningRate decimal.Decimal     `json:"active_earning_rate"`
}

// ExpireResult 过期清理结果
type ExpireResult struct {
	Scanned int `json:"scanned"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

// Balance 计算有效且未过期流水之和
func (s *LoyaltyService) Balance(userID uint) (int64, error) {
	return s.loyaltyRepo.SumActiveBalance(userID, time.Now())
}

// LifetimePoints 累计获得积分，不受过期影响
func (s *LoyaltyService) LifetimePoints(userID uint) (int64, error) {
	return s.loyaltyRepo.SumLifetimePoints(userID)
}

// ListTransactions 分页查询积分流水
func (s *LoyaltyService) ListTransactions(filter repository.PointsTransactionListFilter) ([]models.LoyaltyPointsTransaction, int64, error) {
	return s.loyaltyRepo.ListTransactions(filter)
}

// EarningRate 返回用户当前等级的积分倍率，无等级时使用默认倍率
func (s *LoyaltyService) EarningRate(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	tier, _, err := s.tierSvc.CurrentTier(tx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if tier == nil {
		return s.defaultEarningRate, nil
	}
	return tier.EarningRate, nil
}

// PointsForAmount 按倍率计算积分，向下取整
func PointsForAmount(amount, rate decimal.Decimal) int64 {
	if amount.LessThanOrEqual(decimal.Zero) || rate.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	return amount.Mul(rate).Floor().IntPart()
}

// Earn 积分入账
func (s *LoyaltyService) Earn(input EarnInput) (*models.LoyaltyPointsTransaction, error) {
	var txn *models.LoyaltyPointsTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.EarnInTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// EarnInTx 在事务内积分入账，按当前等级设置过期时间并重新评定等级
func (s *LoyaltyService) EarnInTx(tx *gorm.DB, input EarnInput) (*models.LoyaltyPointsTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrUserRequired
	}
	if input.Points <= 0 {
		return nil, ErrPointsInvalid
	}
	repo := s.loyaltyRepo.WithTx(tx)
	if _, err := repo.LockAccount(input.UserID); err != nil {
		return nil, err
	}
	now := time.Now()
	balance, err := repo.SumActiveBalance(input.UserID, now)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	tier, _, err := s.tierSvc.CurrentTier(tx, input.UserID)
	if err != nil {
		return nil, err
	}
	if tier != nil && tier.PointsExpiryDays > 0 {
		at := now.AddDate(0, 0, tier.PointsExpiryDays)
		expiresAt = &at
	}

	txnType := strings.TrimSpace(input.TransactionType)
	if txnType == "" {
		txnType = constants.PointsTxnTypeEarned
	}
	txn := &models.LoyaltyPointsTransaction{
		UserID:          input.UserID,
		Points:          input.Points,
		TransactionType: txnType,
		Source:          normalizePointsSource(input.Source),
		BalanceAfter:    balance + input.Points,
		OrderID:         input.OrderID,
		OrderAmount:     input.OrderAmount,
		Description:     strings.TrimSpace(input.Description),
		ExpiresAt:       expiresAt,
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.tierSvc.Reevaluate(tx, input.UserID); err != nil {
		return nil, err
	}
	return txn, nil
}

// Redeem 积分扣减
func (s *LoyaltyService) Redeem(input RedeemPointsInput) (*models.LoyaltyPointsTransaction, error) {
	var txn *models.LoyaltyPointsTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		txn, err = s.RedeemInTx(tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// RedeemInTx 在事务内扣减积分，余额不足时不写入流水
func (s *LoyaltyService) RedeemInTx(tx *gorm.DB, input RedeemPointsInput) (*models.LoyaltyPointsTransaction, error) {
	return s.debitInTx(tx, input, constants.PointsTxnTypeRedeemed)
}

func (s *LoyaltyService) debitInTx(tx *gorm.DB, input RedeemPointsInput, txnType string) (*models.LoyaltyPointsTransaction, error) {
	if input.UserID == 0 {
		return nil, ErrUserRequired
	}
	if input.Points <= 0 {
		return nil, ErrPointsInvalid
	}
	repo := s.loyaltyRepo.WithTx(tx)
	if _, err := repo.LockAccount(input.UserID); err != nil {
		return nil, err
	}
	now := time.Now()
	balance, err := repo.SumActiveBalance(input.UserID, now)
	if err != nil {
		return nil, err
	}
	if balance < input.Points {
		return nil, ErrInsufficientPoints
	}
	txn := &models.LoyaltyPointsTransaction{
		UserID:          input.UserID,
		Points:          -input.Points,
		TransactionType: txnType,
		Source:          normalizePointsSource(input.Source),
		BalanceAfter:    balance - input.Points,
		OrderID:         input.OrderID,
		RewardID:        input.RewardID,
		Description:     strings.TrimSpace(input.Description),
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.tierSvc.Reevaluate(tx, input.UserID); err != nil {
		return nil, err
	}
	return txn, nil
}

// AdminAdjust 管理员调整积分，扣减不得超过当前余额
func (s *LoyaltyService) AdminAdjust(input AdjustInput) (*models.LoyaltyPointsTransaction, error) {
	if input.Points == 0 {
		return nil, ErrPointsInvalid
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = "admin adjustment"
	}
	var txn *models.LoyaltyPointsTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if input.Points > 0 {
			txn, err = s.EarnInTx(tx, EarnInput{
				UserID:          input.UserID,
				Points:          input.Points,
				Source:          constants.PointsSourceAdmin,
				TransactionType: constants.PointsTxnTypeAdjusted,
				Description:     description,
			})
			return err
		}
		txn, err = s.debitInTx(tx, RedeemPointsInput{
			UserID:      input.UserID,
			Points:      -input.Points,
			Source:      constants.PointsSourceAdmin,
			Description: description,
		}, constants.PointsTxnTypeAdjusted)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("loyalty_admin_adjusted", "user_id", input.UserID, "points", input.Points, "transaction_id", txn.ID)
	return txn, nil
}

// RetractOrderPointsInTx 订单取消时冲回该订单获得的积分（不超过当前余额），返回冲回流水
func (s *LoyaltyService) RetractOrderPointsInTx(tx *gorm.DB, userID, orderID uint) (*models.LoyaltyPointsTransaction, error) {
	repo := s.loyaltyRepo.WithTx(tx)
	earned, err := repo.SumOrderPoints(orderID)
	if err != nil {
		return nil, err
	}
	if earned <= 0 {
		return nil, nil
	}
	if _, err := repo.LockAccount(userID); err != nil {
		return nil, err
	}
	balance, err := repo.SumActiveBalance(userID, time.Now())
	if err != nil {
		return nil, err
	}
	points := earned
	if points > balance {
		points = balance
	}
	if points <= 0 {
		return nil, nil
	}
	id := orderID
	return s.debitInTx(tx, RedeemPointsInput{
		UserID:      userID,
		Points:      points,
		Source:      constants.PointsSourceOrder,
		OrderID:     &id,
		Description: fmt.Sprintf("points of order %d retracted", orderID),
	}, constants.PointsTxnTypeAdjusted)
}

// RestoreRedemptionInTx 冲正一笔兑换流水，按原扣减额返还积分，返还部分不设过期时间
func (s *LoyaltyService) RestoreRedemptionInTx(tx *gorm.DB, redemption *models.LoyaltyPointsTransaction, description string) (*models.LoyaltyPointsTransaction, error) {
	if redemption == nil || redemption.Points >= 0 {
		return nil, ErrPointsInvalid
	}
	repo := s.loyaltyRepo.WithTx(tx)
	if _, err := repo.LockAccount(redemption.UserID); err != nil {
		return nil, err
	}
	now := time.Now()
	balance, err := repo.SumActiveBalance(redemption.UserID, now)
	if err != nil {
		return nil, err
	}
	relatedID := redemption.ID
	txn := &models.LoyaltyPointsTransaction{
		UserID:          redemption.UserID,
		Points:          -redemption.Points,
		TransactionType: constants.PointsTxnTypeAdjusted,
		Source:          constants.PointsSourceReward,
		BalanceAfter:    balance - redemption.Points,
		OrderID:         redemption.OrderID,
		RewardID:        redemption.RewardID,
		RelatedTxnID:    &relatedID,
		Description:     strings.TrimSpace(description),
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := repo.CreateTransaction(txn); err != nil {
		return nil, err
	}
	if err := s.tierSvc.Reevaluate(tx, redemption.UserID); err != nil {
		return nil, err
	}
	return txn, nil
}

// ExpireDue 清理已到期的入账流水：按批次游标推进直到取尽，逐条在独立事务内失效原流水并追加一条仅用于审计的过期流水，单条失败不影响其余
func (s *LoyaltyService) ExpireDue(ctx context.Context, now time.Time, batchSize int) (ExpireResult, error) {
	if batchSize <= 0 {
		batchSize = defaultExpireBatchSize
	}
	result := ExpireResult{}
	log := logger.FromContext(ctx)
	var cursor uint
	for {
		ids, err := s.loyaltyRepo.ListExpirableIDs(now, cursor, batchSize)
		if err != nil {
			return result, err
		}
		result.Scanned += len(ids)
		for _, id := range ids {
			if ctx != nil && ctx.Err() != nil {
				return result, ctx.Err()
			}
			cursor = id
			expired, err := s.expireOne(id, now)
			if err != nil {
				result.Failed++
				log.Warnw("loyalty_expire_failed", "transaction_id", id, "error", err)
				continue
			}
			if expired {
				result.Expired++
			}
		}
		if len(ids) < batchSize {
			break
		}
	}
	if result.Scanned > 0 {
		log.Infow("loyalty_expire_sweep_done",
			"scanned", result.Scanned,
			"expired", result.Expired,
			"failed", result.Failed,
		)
	}
	return result, nil
}

func (s *LoyaltyService) expireOne(id uint, now time.Time) (bool, error) {
	expired := false
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.loyaltyRepo.WithTx(tx)
		original, err := repo.GetTransactionForUpdate(id)
		if err != nil {
			return err
		}
		if original == nil || !original.IsActive || original.Points <= 0 {
			return nil
		}
		if _, err := repo.LockAccount(original.UserID); err != nil {
			return err
		}
		changed, err := repo.DeactivateTransaction(original.ID)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		balance, err := repo.SumActiveBalance(original.UserID, now)
		if err != nil {
			return err
		}
		relatedID := original.ID
		offset := &models.LoyaltyPointsTransaction{
			UserID:          original.UserID,
			Points:          -original.Points,
			TransactionType: constants.PointsTxnTypeExpired,
			Source:          constants.PointsSourceExpiry,
			BalanceAfter:    balance,
			OrderID:         original.OrderID,
			RelatedTxnID:    &relatedID,
			Description:     fmt.Sprintf("points from transaction %d expired", original.ID),
			IsActive:        false,
			CreatedAt:       now,
		}
		if err := repo.CreateTransaction(offset); err != nil {
			return err
		}
		if err := s.tierSvc.Reevaluate(tx, original.UserID); err != nil {
			return err
		}
		expired = true
		return nil
	})
	return expired, err
}

// Summary 用户积分概览：余额、累计、当前等级与下一等级差值
func (s *LoyaltyService) Summary(userID uint) (*LoyaltySummary, error) {
	if userID == 0 {
		return nil, ErrUserRequired
	}
	balance, err := s.Balance(userID)
	if err != nil {
		return nil, err
	}
	lifetime, err := s.LifetimePoints(userID)
	if err != nil {
		return nil, err
	}
	tier, userTier, err := s.tierSvc.CurrentTier(nil, userID)
	if err != nil {
		return nil, err
	}
	tiers, err := s.tierSvc.ActiveTiers()
	if err != nil {
		return nil, err
	}
	summary := &LoyaltySummary{
		UserID:            userID,
		Balance:           balance,
		LifetimePoints:    lifetime,
		CurrentTier:       tier,
		ActiveEarningRate: s.defaultEarningRate,
	}
	if tier != nil {
		summary.ActiveEarningRate = tier.EarningRate
	}
	if userTier != nil {
		since := userTier.TierStartDate
		activity := userTier.LastActivityDate
		summary.TierSince = &since
		summary.LastActivityDate = &activity
	}
	if next := nextTier(tiers, balance); next != nil {
		summary.NextTier = next
		summary.PointsToNextTier = next.MinPoints - balance
	}
	return summary, nil
}

func normalizePointsSource(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	switch source {
	case constants.PointsSourceOrder,
		constants.PointsSourceReward,
		constants.PointsSourceReferral,
		constants.PointsSourceAdmin,
		constants.PointsSourceExpiry:
		return source
	default:
		return constants.PointsSourceAdmin
	}
}
