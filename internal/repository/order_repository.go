package repository

import (
	"time"

	"github.com/bazaar-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetWithItems(id uint) (*models.Order, error)
	ListItems(orderID uint) ([]models.OrderItem, error)
	ListItemsByOrderIDs(orderIDs []uint) ([]models.OrderItem, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	CountCreatedBetween(from, to time.Time) (int64, error)
	Update(id uint, updates map[string]interface{}) error
	CreateStatusEvents(events []models.OrderStatusEvent) error
	ListStatusEvents(orderID uint) ([]models.OrderStatusEvent, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单（不含订单项）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	return firstOrNil[models.Order](r.db, id)
}

// GetByIDForUpdate 加锁获取订单
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	return firstOrNil[models.Order](forUpdate(r.db), id)
}

// GetWithItems 获取订单并显式加载订单项
func (r *GormOrderRepository) GetWithItems(id uint) (*models.Order, error) {
	order, err := firstOrNil[models.Order](r.db, id)
	if err != nil || order == nil {
		return order, err
	}
	items, err := r.ListItems(order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListItems 获取订单项
func (r *GormOrderRepository) ListItems(orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListItemsByOrderIDs 批量获取订单项
func (r *GormOrderRepository) ListItemsByOrderIDs(orderIDs []uint) ([]models.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []models.OrderItem{}, nil
	}
	var items []models.OrderItem
	if err := r.db.Where("order_id IN ?", orderIDs).Order("order_id asc, id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormOrderRepository) applyListFilter(query *gorm.DB, filter OrderListFilter) *gorm.DB {
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	query = query.Scopes(containsText(filter.OrderNo, "order_no"))
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return query
}

// ListByUser 获取用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	if filter.UserID == 0 {
		return []models.Order{}, 0, nil
	}
	return r.list(filter)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	return r.list(filter)
}

func (r *GormOrderRepository) list(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.applyListFilter(r.db.Model(&models.Order{}), filter)
	return listPage[models.Order](query, filter.Page, filter.PageSize, "id desc")
}

// CountCreatedBetween 统计时间区间内创建的订单数（含软删除，保证编号不回退）
func (r *GormOrderRepository) CountCreatedBetween(from, to time.Time) (int64, error) {
	var count int64
	if err := r.db.Unscoped().Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update 更新订单字段
func (r *GormOrderRepository) Update(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// CreateStatusEvents 按顺序追加状态记录
func (r *GormOrderRepository) CreateStatusEvents(events []models.OrderStatusEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.Create(&events).Error
}

// ListStatusEvents 获取订单状态历史（按创建时间、ID 升序）
func (r *GormOrderRepository) ListStatusEvents(orderID uint) ([]models.OrderStatusEvent, error) {
	var events []models.OrderStatusEvent
	if err := r.db.Where("order_id = ?", orderID).
		Order("created_at asc, id asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
