package repository

import (

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// UserAddressRepository 收货地址只读访问
type UserAddressRepository interface {
	GetUserAddress(id, userID uint) (*models.UserAddress, error)
	WithTx(tx *gorm.DB) *GormUserAddressRepository
}

// GormUserAddressRepository GORM 实现
type GormUserAddressRepository struct {
	db *gorm.DB
}

// NewUserAddressRepository 创建收货地址仓库
func NewUserAddressRepository(db *gorm.DB) *GormUserAddressRepository {
	return &GormUserAddressRepository{db: db}
}

// WithTx 绑定事务
func (r *GormUserAddressRepository) WithTx(tx *gorm.DB) *GormUserAddressRepository {
	if tx == nil {
		return r
	}
	return &GormUserAddressRepository{db: tx}
}

// GetUserAddress 获取用户本人的收货地址
func (r *GormUserAddressRepository) GetUserAddress(id, userID uint) (*models.UserAddress, error) {
	if id == 0 || userID == 0 {
		return nil, nil
	}
	return firstOrNil[models.UserAddress](r.db.Where("id = ? AND user_id = ?", id, userID))
}

// PushTokenRepository 推送令牌只读访问
type PushTokenRepository interface {
	GetPushTokens(userID uint) ([]string, error)
}

// GormPushTokenRepository GORM 实现
type GormPushTokenRepository struct {
	db *gorm.DB
}

// NewPushTokenRepository 创建推送令牌仓库
func NewPushTokenRepository(db *gorm.DB) *GormPushTokenRepository {
	return &GormPushTokenRepository{db: db}
}

// GetPushTokens 获取用户有效推送令牌
func (r *GormPushTokenRepository) GetPushTokens(userID uint) ([]string, error) {
	if userID == 0 {
		return []string{}, nil
	}
	var tokens []string
	if err := r.db.Model(&models.UserPushToken{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("id desc").
		Pluck("token", &tokens).Error; err != nil {
		return nil, err
	}
	return tokens, nil
}
