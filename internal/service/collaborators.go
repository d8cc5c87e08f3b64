package service

import (
	"context"

	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/push"
)

// CatalogReader 商品目录只读协作方
type CatalogReader interface {
	GetActiveProduct(id uint) (*models.Product, error)
	GetActiveVariant(id, productID uint) (*models.ProductVariant, error)
}

// AddressReader 收货地址协作方（带归属校验）
type AddressReader interface {
	GetUserAddress(id, userID uint) (*models.UserAddress, error)
}

// PushTokenReader 用户推送令牌查询
type PushTokenReader interface {
	GetPushTokens(userID uint) ([]string, error)
}

// Notifier 推送发送协作方，调用方不关心失败
type Notifier interface {
	Notify(ctx context.Context, tokens []string, notification push.Notification) error
}
