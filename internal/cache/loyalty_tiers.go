package cache

import (
	"context"
	"time"

	"github.com/bazaar-next/internal/models"
)

const loyaltyTiersKey = "loyalty:tiers"

// GetLoyaltyTiers 读取启用等级定义缓存
func GetLoyaltyTiers(ctx context.Context) ([]models.LoyaltyTier, bool, error) {
	var tiers []models.LoyaltyTier
	hit, err := GetJSON(ctx, loyaltyTiersKey, &tiers)
	if err != nil || !hit {
		return nil, false, err
	}
	return tiers, true, nil
}

// SetLoyaltyTiers 写入启用等级定义缓存
func SetLoyaltyTiers(ctx context.Context, tiers []models.LoyaltyTier, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return SetJSON(ctx, loyaltyTiersKey, tiers, ttl)
}

// DelLoyaltyTiers 等级定义变更后失效缓存
func DelLoyaltyTiers(ctx context.Context) error {
	return Del(ctx, loyaltyTiersKey)
}
