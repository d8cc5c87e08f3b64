package repository

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// LoyaltyTierRepository 会员等级数据访问接口
type LoyaltyTierRepository interface {
	ListActive() ([]models.LoyaltyTier, error)
	ListAll() ([]models.LoyaltyTier, error)
	GetByID(id uint) (*models.LoyaltyTier, error)
	GetByName(name string) (*models.LoyaltyTier, error)
	Create(tier *models.LoyaltyTier) error
	Update(tier *models.LoyaltyTier) error
	GetActiveUserTier(userID uint) (*models.LoyaltyUserTier, error)
	GetActiveUserTierForUpdate(userID uint) (*models.LoyaltyUserTier, error)
	CreateUserTier(row *models.LoyaltyUserTier) error
	CloseUserTier(id uint, endAt time.Time) error
	RefreshUserTier(id uint, currentPoints, lifetimePoints int64, activityAt time.Time) error
	ListUserTierHistory(userID uint) ([]models.LoyaltyUserTier, error)
	WithTx(tx *gorm.DB) *GormLoyaltyTierRepository
}

// GormLoyaltyTierRepository GORM 实现
type GormLoyaltyTierRepository struct {
	db *gorm.DB
}

// NewLoyaltyTierRepository 创建会员等级仓库
func NewLoyaltyTierRepository(db *gorm.DB) *GormLoyaltyTierRepository {
	return &GormLoyaltyTierRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyTierRepository) WithTx(tx *gorm.DB) *GormLoyaltyTierRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyTierRepository{db: tx}
}

// ListActive 获取启用的等级（按 sort_order 升序）
func (r *GormLoyaltyTierRepository) ListActive() ([]models.LoyaltyTier, error) {
	var tiers []models.LoyaltyTier
	if err := r.db.Where("is_active = ?", true).Order("sort_order asc, id asc").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// ListAll 获取全部等级
func (r *GormLoyaltyTierRepository) ListAll() ([]models.LoyaltyTier, error) {
	var tiers []models.LoyaltyTier
	if err := r.db.Order("sort_order asc, id asc").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}

// GetByID 根据ID获取等级
func (r *GormLoyaltyTierRepository) GetByID(id uint) (*models.LoyaltyTier, error) {
	return firstOrNil[models.LoyaltyTier](r.db, id)
}

// GetByName 根据标识获取等级
func (r *GormLoyaltyTierRepository) GetByName(name string) (*models.LoyaltyTier, error) {
	return firstOrNil[models.LoyaltyTier](r.db.Where("name = ?", name))
}

// Create 创建等级
func (r *GormLoyaltyTierRepository) Create(tier *models.LoyaltyTier) error {
	return r.db.Create(tier).Error
}

// Update 更新等级
func (r *GormLoyaltyTierRepository) Update(tier *models.LoyaltyTier) error {
	return r.db.Save(tier).Error
}

// GetActiveUserTier 获取用户当前有效等级记录
func (r *GormLoyaltyTierRepository) GetActiveUserTier(userID uint) (*models.LoyaltyUserTier, error) {
	return r.getActiveUserTier(r.db, userID)
}

// GetActiveUserTierForUpdate 加锁获取用户当前有效等级记录
func (r *GormLoyaltyTierRepository) GetActiveUserTierForUpdate(userID uint) (*models.LoyaltyUserTier, error) {
	return r.getActiveUserTier(forUpdate(r.db), userID)
}

func (r *GormLoyaltyTierRepository) getActiveUserTier(query *gorm.DB, userID uint) (*models.LoyaltyUserTier, error) {
	if userID == 0 {
		return nil, nil
	}
	active := query.Where("user_id = ? AND is_active = ?", userID, true).Order("id desc")
	return firstOrNil[models.LoyaltyUserTier](active)
}

// CreateUserTier 写入新的等级记录
func (r *GormLoyaltyTierRepository) CreateUserTier(row *models.LoyaltyUserTier) error {
	return r.db.Create(row).Error
}

// CloseUserTier 结束等级记录
func (r *GormLoyaltyTierRepository) CloseUserTier(id uint, endAt time.Time) error {
	return r.db.Model(&models.LoyaltyUserTier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active":     false,
			"tier_end_date": endAt,
			"updated_at":    endAt,
		}).Error
}

// RefreshUserTier 原地刷新积分快照
func (r *GormLoyaltyTierRepository) RefreshUserTier(id uint, currentPoints, lifetimePoints int64, activityAt time.Time) error {
	return r.db.Model(&models.LoyaltyUserTier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_points":     currentPoints,
			"lifetime_points":    lifetimePoints,
			"last_activity_date": activityAt,
			"updated_at":         activityAt,
		}).Error
}

// ListUserTierHistory 获取用户等级历史
func (r *GormLoyaltyTierRepository) ListUserTierHistory(userID uint) ([]models.LoyaltyUserTier, error) {
	var rows []models.LoyaltyUserTier
	if err := r.db.Where("user_id = ?", userID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
