package repository

import (
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// LoyaltyRewardRepository 积分奖励数据访问接口
type LoyaltyRewardRepository interface {
	GetByID(id uint) (*models.LoyaltyReward, error)
	GetByIDForUpdate(id uint) (*models.LoyaltyReward, error)
	ListRedeemable(maxPointsCost int64) ([]models.LoyaltyReward, error)
	List(filter RewardListFilter) ([]models.LoyaltyReward, int64, error)
	Create(reward *models.LoyaltyReward) error
	Update(reward *models.LoyaltyReward) error
	IncrementUsageCount(id uint) (bool, error)
	DecrementUsageCount(id uint) error
	WithTx(tx *gorm.DB) *GormLoyaltyRewardRepository
}

// GormLoyaltyRewardRepository GORM 实现
type GormLoyaltyRewardRepository struct {
	db *gorm.DB
}

// NewLoyaltyRewardRepository 创建积分奖励仓库
func NewLoyaltyRewardRepository(db *gorm.DB) *GormLoyaltyRewardRepository {
	return &GormLoyaltyRewardRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRewardRepository) WithTx(tx *gorm.DB) *GormLoyaltyRewardRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRewardRepository{db: tx}
}

// GetByID 根据ID获取奖励
func (r *GormLoyaltyRewardRepository) GetByID(id uint) (*models.LoyaltyReward, error) {
	return firstOrNil[models.LoyaltyReward](r.db, id)
}

// GetByIDForUpdate 加锁获取奖励
func (r *GormLoyaltyRewardRepository) GetByIDForUpdate(id uint) (*models.LoyaltyReward, error) {
	return firstOrNil[models.LoyaltyReward](forUpdate(r.db), id)
}

// ListRedeemable 获取启用且积分成本不超过给定值的奖励，时间窗与等级由服务层判断
func (r *GormLoyaltyRewardRepository) ListRedeemable(maxPointsCost int64) ([]models.LoyaltyReward, error) {
	var rewards []models.LoyaltyReward
	if err := r.db.Where("is_active = ? AND status = ? AND points_cost <= ?", true, constants.RewardStatusActive, maxPointsCost).
		Order("points_cost asc, id asc").
		Find(&rewards).Error; err != nil {
		return nil, err
	}
	return rewards, nil
}

// List 获取奖励列表
func (r *GormLoyaltyRewardRepository) List(filter RewardListFilter) ([]models.LoyaltyReward, int64, error) {
	query := r.db.Model(&models.LoyaltyReward{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	return listPage[models.LoyaltyReward](query, filter.Page, filter.PageSize, "id desc")
}

// Create 创建奖励
func (r *GormLoyaltyRewardRepository) Create(reward *models.LoyaltyReward) error {
	return r.db.Create(reward).Error
}

// Update 更新奖励
func (r *GormLoyaltyRewardRepository) Update(reward *models.LoyaltyReward) error {
	return r.db.Save(reward).Error
}

// IncrementUsageCount 在未达上限时增加兑换次数（usage_limit 为 0 表示不限制）
func (r *GormLoyaltyRewardRepository) IncrementUsageCount(id uint) (bool, error) {
	result := r.db.Model(&models.LoyaltyReward{}).
		Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementUsageCount 释放一次兑换名额
func (r *GormLoyaltyRewardRepository) DecrementUsageCount(id uint) error {
	return r.db.Model(&models.LoyaltyReward{}).
		Where("id = ? AND usage_count > 0", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count - ?", 1)).Error
}
