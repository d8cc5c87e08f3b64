package repository

import (
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoyaltyRepository 积分账本数据访问接口
type LoyaltyRepository interface {
	LockAccount(userID uint) (*models.LoyaltyAccount, error)
	CreateTransaction(txn *models.LoyaltyPointsTransaction) error
	GetTransactionForUpdate(id uint) (*models.LoyaltyPointsTransaction, error)
	DeactivateTransaction(id uint) (bool, error)
	SumActiveBalance(userID uint, now time.Time) (int64, error)
	SumLifetimePoints(userID uint) (int64, error)
	ListTransactions(filter PointsTransactionListFilter) ([]models.LoyaltyPointsTransaction, int64, error)
	ListExpirableIDs(now time.Time, afterID uint, limit int) ([]uint, error)
	CountRewardRedemptions(userID, rewardID uint) (int64, error)
	GetOrderRedemption(orderID, rewardID uint) (*models.LoyaltyPointsTransaction, error)
	AttachOrder(txnID, orderID uint) error
	SumOrderPoints(orderID uint) (int64, error)
	WithTx(tx *gorm.DB) *GormLoyaltyRepository
}

// GormLoyaltyRepository GORM 实现
type GormLoyaltyRepository struct {
	db *gorm.DB
}

// NewLoyaltyRepository 创建积分账本仓库
func NewLoyaltyRepository(db *gorm.DB) *GormLoyaltyRepository {
	return &GormLoyaltyRepository{db: db}
}

// WithTx 绑定事务
func (r *GormLoyaltyRepository) WithTx(tx *gorm.DB) *GormLoyaltyRepository {
	if tx == nil {
		return r
	}
	return &GormLoyaltyRepository{db: tx}
}

// LockAccount 获取（不存在则创建）用户积分账户并加行锁
func (r *GormLoyaltyRepository) LockAccount(userID uint) (*models.LoyaltyAccount, error) {
	if userID == 0 {
		return nil, nil
	}
	seed := models.LoyaltyAccount{UserID: userID}
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, err
	}

	var account models.LoyaltyAccount
	if err := forUpdate(r.db).
		Where("user_id = ?", userID).
		First(&account).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&account).UpdateColumn("updated_at", time.Now()).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateTransaction 追加积分流水
func (r *GormLoyaltyRepository) CreateTransaction(txn *models.LoyaltyPointsTransaction) error {
	return r.db.Create(txn).Error
}

// GetTransactionForUpdate 加锁获取积分流水
func (r *GormLoyaltyRepository) GetTransactionForUpdate(id uint) (*models.LoyaltyPointsTransaction, error) {
	return firstOrNil[models.LoyaltyPointsTransaction](forUpdate(r.db), id)
}

// DeactivateTransaction 将流水标记为不计入余额，返回是否发生变更
func (r *GormLoyaltyRepository) DeactivateTransaction(id uint) (bool, error) {
	result := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn("is_active", false)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SumActiveBalance 计算有效且未过期流水的积分合计
func (r *GormLoyaltyRepository) SumActiveBalance(userID uint, now time.Time) (int64, error) {
	var sum int64
	if err := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND is_active = ?", userID, true).
		Where("(expires_at IS NULL OR expires_at > ?)", now).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// SumLifetimePoints 计算累计获得积分（仅正数，不受有效期影响，冲正返还不计入）
func (r *GormLoyaltyRepository) SumLifetimePoints(userID uint) (int64, error) {
	var sum int64
	if err := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ? AND points > 0 AND related_txn_id IS NULL", userID).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// ListTransactions 分页查询积分流水
func (r *GormLoyaltyRepository) ListTransactions(filter PointsTransactionListFilter) ([]models.LoyaltyPointsTransaction, int64, error) {
	query := r.db.Model(&models.LoyaltyPointsTransaction{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.TransactionType != "" {
		query = query.Where("transaction_type = ?", filter.TransactionType)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}

	return listPage[models.LoyaltyPointsTransaction](query, filter.Page, filter.PageSize, "id desc")
}

// ListExpirableIDs 按 ID 游标获取已到期但仍有效的入账流水
func (r *GormLoyaltyRepository) ListExpirableIDs(now time.Time, afterID uint, limit int) ([]uint, error) {
	query := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Where("is_active = ? AND points > 0 AND id > ?", true, afterID).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// reversedRedemptionIDs 已被冲正返还的兑换流水 ID 子查询
func (r *GormLoyaltyRepository) reversedRedemptionIDs() *gorm.DB {
	return r.db.Model(&models.LoyaltyPointsTransaction{}).
		Select("related_txn_id").
		Where("related_txn_id IS NOT NULL AND transaction_type = ? AND points > 0", constants.PointsTxnTypeAdjusted)
}

// CountRewardRedemptions 统计用户兑换某奖励的有效次数，已冲正的兑换不计入
func (r *GormLoyaltyRepository) CountRewardRedemptions(userID, rewardID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Where("user_id = ? AND reward_id = ? AND transaction_type = ?", userID, rewardID, constants.PointsTxnTypeRedeemed).
		Where("id NOT IN (?)", r.reversedRedemptionIDs()).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// GetOrderRedemption 获取订单下单时兑换奖励且尚未冲正的流水
func (r *GormLoyaltyRepository) GetOrderRedemption(orderID, rewardID uint) (*models.LoyaltyPointsTransaction, error) {
	return firstOrNil[models.LoyaltyPointsTransaction](r.db.
		Where("order_id = ? AND reward_id = ? AND transaction_type = ?", orderID, rewardID, constants.PointsTxnTypeRedeemed).
		Where("id NOT IN (?)", r.reversedRedemptionIDs()))
}

// AttachOrder 回填兑换流水关联的订单
func (r *GormLoyaltyRepository) AttachOrder(txnID, orderID uint) error {
	return r.db.Model(&models.LoyaltyPointsTransaction{}).
		Where("id = ?", txnID).
		UpdateColumn("order_id", orderID).Error
}

// SumOrderPoints 计算订单来源的有效积分净额
func (r *GormLoyaltyRepository) SumOrderPoints(orderID uint) (int64, error) {
	var sum int64
	if err := r.db.Model(&models.LoyaltyPointsTransaction{}).
		Select("COALESCE(SUM(points), 0)").
		Where("order_id = ? AND source = ? AND is_active = ?", orderID, constants.PointsSourceOrder, true).
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}
