package service

import (
	"strings"

	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page 分页结果
type Page[T any] struct {
	Data            []T   `json:"data"`
	Total           int64 `json:"total"`
	Page            int   `json:"page"`
	TotalPages      int   `json:"total_pages"`
	Limit           int   `json:"limit"`
	HasNextPage     bool  `json:"has_next_page"`
	HasPreviousPage bool  `json:"has_previous_page"`
}

// NormalizePage 修正页码与每页数量
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// NewPage 组装分页结果
func NewPage[T any](data []T, total int64, page, pageSize int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Page[T]{
		Data:            data,
		Total:           total,
		Page:            page,
		TotalPages:      totalPages,
		Limit:           pageSize,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}

// GetOrder 获取用户自己的订单详情（含订单项）
func (s *OrderService) GetOrder(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrOrderForbidden
	}
	return order, nil
}

// GetOrderAdmin 管理端获取订单详情
func (s *OrderService) GetOrderAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetWithItems(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) (Page[models.Order], error) {
	if filter.UserID == 0 {
		return Page[models.Order]{}, ErrUserRequired
	}
	return s.listOrders(filter, s.orderRepo.ListByUser)
}

// ListOrdersAdmin 管理端订单列表
func (s *OrderService) ListOrdersAdmin(filter repository.OrderListFilter) (Page[models.Order], error) {
	return s.listOrders(filter, s.orderRepo.ListAdmin)
}

func (s *OrderService) listOrders(filter repository.OrderListFilter, list func(repository.OrderListFilter) ([]models.Order, int64, error)) (Page[models.Order], error) {
	filter.Page, filter.PageSize = NormalizePage(filter.Page, filter.PageSize)
	if filter.Status != "" {
		filter.Status = normalizeOrderStatus(filter.Status)
		if !isKnownOrderStatus(filter.Status) {
			return Page[models.Order]{}, ErrOrderStatusInvalid
		}
	}
	filter.PaymentStatus = strings.ToLower(strings.TrimSpace(filter.PaymentStatus))
	orders, total, err := list(filter)
	if err != nil {
		return Page[models.Order]{}, err
	}
	if err := s.fillItemsBatch(orders); err != nil {
		return Page[models.Order]{}, err
	}
	return NewPage(orders, total, filter.Page, filter.PageSize), nil
}

// ListStatusHistory 订单状态历史；userID 非 0 时校验归属
func (s *OrderService) ListStatusHistory(orderID, userID uint) ([]models.OrderStatusEvent, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if userID != 0 && order.UserID != userID {
		return nil, ErrOrderForbidden
	}
	return s.orderRepo.ListStatusEvents(order.ID)
}

func (s *OrderService) fillItemsBatch(orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	items, err := s.orderRepo.ListItemsByOrderIDs(ids)
	if err != nil {
		return err
	}
	grouped := make(map[uint][]models.OrderItem, len(orders))
	for _, item := range items {
		grouped[item.OrderID] = append(grouped[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = grouped[orders[i].ID]
	}
	return nil
}
