package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	PaymentStatus string
	OrderNo       string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// CouponUsageListFilter 查询优惠券使用记录列表的过滤条件
type CouponUsageListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	CouponID uint
}

// PointsTransactionListFilter 查询积分流水列表的过滤条件
type PointsTransactionListFilter struct {
	Page            int
	PageSize        int
	UserID          uint
	TransactionType string
	Source          string
	OrderID         uint
	OnlyActive      bool
}

// RewardListFilter 查询奖励列表的过滤条件
type RewardListFilter struct {
	Page     int
	PageSize int
	Type     string
	Status   string
	IsActive *bool
}
