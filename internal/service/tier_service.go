package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TierService 会员等级服务
type TierService struct {
	tierRepo    repository.LoyaltyTierRepository
	loyaltyRepo repository.LoyaltyRepository
	cacheTTL    time.Duration
}

// NewTierService 创建会员等级服务
func NewTierService(tierRepo repository.LoyaltyTierRepository, loyaltyRepo repository.LoyaltyRepository, cacheTTL time.Duration) *TierService {
	return &TierService{
		tierRepo:    tierRepo,
		loyaltyRepo: loyaltyRepo,
		cacheTTL:    cacheTTL,
	}
}

// TierInput 创建/更新等级输入
type TierInput struct {
	Name               string          `json:"name" validate:"required,max=64"`
	DisplayName        string          `json:"display_name" validate:"required,max=128"`
	MinPoints          int64           `json:"min_points" validate:"min=0"`
	MaxPoints          int64           `json:"max_points" validate:"min=0"`
	EarningRate        decimal.Decimal `json:"earning_rate"`
	RedemptionRate     decimal.Decimal `json:"redemption_rate"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Perks              []string        `json:"perks"`
	PointsExpiryDays   int             `json:"points_expiry_days" validate:"min=0"`
	SortOrder          int             `json:"sort_order" validate:"min=0"`
	IsActive           *bool           `json:"is_active"`
}

// Reevaluate 按当前余额重新评定用户等级：等级变化时关闭旧记录并新建，否则原地刷新积分
func (s *TierService) Reevaluate(tx *gorm.DB, userID uint) error {
	if userID == 0 {
		return ErrUserRequired
	}
	tierRepo := s.tierRepo.WithTx(tx)
	ledger := s.loyaltyRepo.WithTx(tx)
	now := time.Now()

	balance, err := ledger.SumActiveBalance(userID, now)
	if err != nil {
		return err
	}
	lifetime, err := ledger.SumLifetimePoints(userID)
	if err != nil {
		return err
	}
	tiers, err := s.activeTiers(tierRepo)
	if err != nil {
		return err
	}
	chosen := selectTier(tiers, balance)
	if chosen == nil {
		logger.Warnw("loyalty_tier_unresolved", "user_id", userID, "balance", balance, "tier_count", len(tiers))
		return nil
	}

	current, err := tierRepo.GetActiveUserTierForUpdate(userID)
	if err != nil {
		return err
	}
	if current != nil && current.TierID == chosen.ID {
		return tierRepo.RefreshUserTier(current.ID, balance, lifetime, now)
	}
	if current != nil {
		if err := tierRepo.CloseUserTier(current.ID, now); err != nil {
			return err
		}
	}
	row := &models.LoyaltyUserTier{
		UserID:           userID,
		TierID:           chosen.ID,
		CurrentPoints:    balance,
		LifetimePoints:   lifetime,
		TierStartDate:    now,
		LastActivityDate: now,
		IsActive:         true,
	}
	if err := tierRepo.CreateUserTier(row); err != nil {
		return err
	}
	previousTierID := uint(0)
	if current != nil {
		previousTierID = current.TierID
	}
	logger.Infow("loyalty_tier_changed",
		"user_id", userID,
		"from_tier_id", previousTierID,
		"to_tier_id", chosen.ID,
		"balance", balance,
	)
	return nil
}

// selectTier 选出区间包含积分的等级，多个命中时取排序最高者；无命中时回退到排序为 0 的等级
func selectTier(tiers []models.LoyaltyTier, points int64) *models.LoyaltyTier {
	var chosen *models.LoyaltyTier
	var fallback *models.LoyaltyTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.SortOrder == 0 && fallback == nil {
			fallback = tier
		}
		if !tier.Contains(points) {
			continue
		}
		if chosen == nil || tier.SortOrder > chosen.SortOrder {
			chosen = tier
		}
	}
	if chosen != nil {
		return chosen
	}
	return fallback
}

// nextTier 返回起始积分高于当前积分的最近等级
func nextTier(tiers []models.LoyaltyTier, points int64) *models.LoyaltyTier {
	var next *models.LoyaltyTier
	for i := range tiers {
		tier := &tiers[i]
		if tier.MinPoints <= points {
			continue
		}
		if next == nil || tier.MinPoints < next.MinPoints {
			next = tier
		}
	}
	return next
}

// CurrentTier 获取用户当前等级定义，没有等级记录时返回 nil
func (s *TierService) CurrentTier(tx *gorm.DB, userID uint) (*models.LoyaltyTier, *models.LoyaltyUserTier, error) {
	tierRepo := s.tierRepo.WithTx(tx)
	userTier, err := tierRepo.GetActiveUserTier(userID)
	if err != nil {
		return nil, nil, err
	}
	if userTier == nil {
		return nil, nil, nil
	}
	tier, err := tierRepo.GetByID(userTier.TierID)
	if err != nil {
		return nil, nil, err
	}
	return tier, userTier, nil
}

// ActiveTiers 获取启用的等级定义（优先读缓存）
func (s *TierService) ActiveTiers() ([]models.LoyaltyTier, error) {
	return s.activeTiers(s.tierRepo)
}

func (s *TierService) activeTiers(repo repository.LoyaltyTierRepository) ([]models.LoyaltyTier, error) {
	ctx := context.Background()
	tiers, hit, err := cache.GetLoyaltyTiers(ctx)
	if err != nil {
		logger.Warnw("loyalty_tier_cache_read_failed", "error", err)
	}
	if hit {
		return tiers, nil
	}
	tiers, err = repo.ListActive()
	if err != nil {
		return nil, err
	}
	if err := cache.SetLoyaltyTiers(ctx, tiers, s.cacheTTL); err != nil {
		logger.Warnw("loyalty_tier_cache_write_failed", "error", err)
	}
	return tiers, nil
}

// ListTiers 管理端查询全部等级
func (s *TierService) ListTiers() ([]models.LoyaltyTier, error) {
	return s.tierRepo.ListAll()
}

// UserTierHistory 查询用户等级变更历史
func (s *TierService) UserTierHistory(userID uint) ([]models.LoyaltyUserTier, error) {
	return s.tierRepo.ListUserTierHistory(userID)
}

// CreateTier 创建等级
func (s *TierService) CreateTier(input TierInput) (*models.LoyaltyTier, error) {
	tier := &models.LoyaltyTier{IsActive: true}
	if err := applyTierInput(tier, input); err != nil {
		return nil, err
	}
	exist, err := s.tierRepo.GetByName(tier.Name)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrTierNameExists
	}
	if err := s.checkPartition(tier); err != nil {
		return nil, err
	}
	if err := s.tierRepo.Create(tier); err != nil {
		return nil, err
	}
	s.invalidateTierCache()
	return tier, nil
}

// UpdateTier 更新等级
func (s *TierService) UpdateTier(id uint, input TierInput) (*models.LoyaltyTier, error) {
	existing, err := s.tierRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrTierNotFound
	}
	previousName := existing.Name
	if err := applyTierInput(existing, input); err != nil {
		return nil, err
	}
	if existing.Name != previousName {
		dup, err := s.tierRepo.GetByName(existing.Name)
		if err != nil {
			return nil, err
		}
		if dup != nil && dup.ID != existing.ID {
			return nil, ErrTierNameExists
		}
	}
	if err := s.checkPartition(existing); err != nil {
		return nil, err
	}
	if err := s.tierRepo.Update(existing); err != nil {
		return nil, err
	}
	s.invalidateTierCache()
	return existing, nil
}

func (s *TierService) checkPartition(candidate *models.LoyaltyTier) error {
	current, err := s.tierRepo.ListActive()
	if err != nil {
		return err
	}
	merged := make([]models.LoyaltyTier, 0, len(current)+1)
	for _, tier := range current {
		if candidate.ID != 0 && tier.ID == candidate.ID {
			continue
		}
		merged = append(merged, tier)
	}
	if candidate.IsActive {
		merged = append(merged, *candidate)
	}
	return validateTierPartition(merged)
}

func (s *TierService) invalidateTierCache() {
	if err := cache.DelLoyaltyTiers(context.Background()); err != nil {
		logger.Warnw("loyalty_tier_cache_invalidate_failed", "error", err)
	}
}

// validateTierPartition 校验启用等级的积分区间首尾相接、互不重叠，仅最高等级可无上限
func validateTierPartition(tiers []models.LoyaltyTier) error {
	if len(tiers) == 0 {
		return nil
	}
	sorted := make([]models.LoyaltyTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MinPoints < sorted[j].MinPoints
	})
	for i, tier := range sorted {
		if tier.MaxPoints != 0 && tier.MaxPoints <= tier.MinPoints {
			return ErrTierInvalid
		}
		if i == len(sorted)-1 {
			break
		}
		next := sorted[i+1]
		if tier.MaxPoints == 0 || tier.MaxPoints != next.MinPoints {
			return ErrTierPartitionInvalid
		}
	}
	return nil
}

func applyTierInput(tier *models.LoyaltyTier, input TierInput) error {
	name := strings.ToLower(strings.TrimSpace(input.Name))
	displayName := strings.TrimSpace(input.DisplayName)
	if name == "" || displayName == "" {
		return ErrTierInvalid
	}
	if input.MinPoints < 0 || input.MaxPoints < 0 || input.PointsExpiryDays < 0 {
		return ErrTierInvalid
	}
	if input.EarningRate.IsNegative() || input.RedemptionRate.IsNegative() {
		return ErrTierInvalid
	}
	if input.DiscountPercentage.IsNegative() || input.DiscountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrTierInvalid
	}
	earningRate := input.EarningRate
	if earningRate.IsZero() {
		earningRate = decimal.NewFromInt(1)
	}
	redemptionRate := input.RedemptionRate
	if redemptionRate.IsZero() {
		redemptionRate = decimal.NewFromInt(1)
	}
	tier.Name = name
	tier.DisplayName = displayName
	tier.MinPoints = input.MinPoints
	tier.MaxPoints = input.MaxPoints
	tier.EarningRate = earningRate
	tier.RedemptionRate = redemptionRate
	tier.DiscountPercentage = input.DiscountPercentage
	tier.Perks = models.StringArray(input.Perks)
	tier.PointsExpiryDays = input.PointsExpiryDays
	tier.SortOrder = input.SortOrder
	if input.IsActive != nil {
		tier.IsActive = *input.IsActive
	}
	return nil
}
