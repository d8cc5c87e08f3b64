package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServices struct {
	db      *gorm.DB
	orders  *OrderService
	coupons *CouponService
	loyalty *LoyaltyService
	tiers   *TierService
	rewards *RewardService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	dsn := fmt.Sprintf("file:service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.UserAddress{},
		&models.UserPushToken{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
		&models.Coupon{},
		&models.CouponUsage{},
		&models.LoyaltyAccount{},
		&models.LoyaltyPointsTransaction{},
		&models.LoyaltyTier{},
		&models.LoyaltyUserTier{},
		&models.LoyaltyReward{},
	))
	models.DB = db

	loyaltyRepo := repository.NewLoyaltyRepository(db)
	tierRepo := repository.NewLoyaltyTierRepository(db)
	couponSvc := NewCouponService(repository.NewCouponRepository(db), repository.NewCouponUsageRepository(db))
	tierSvc := NewTierService(tierRepo, loyaltyRepo, time.Minute)
	loyaltySvc := NewLoyaltyService(loyaltyRepo, tierSvc, decimal.NewFromInt(1))
	rewardSvc := NewRewardService(repository.NewLoyaltyRewardRepository(db), loyaltyRepo, loyaltySvc, tierSvc)
	orderSvc := NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewCatalogRepository(db),
		repository.NewUserAddressRepository(db),
		couponSvc,
		loyaltySvc,
		rewardSvc,
		nil,
		decimal.Zero,
		"ORD",
	)
	return &testServices{
		db:      db,
		orders:  orderSvc,
		coupons: couponSvc,
		loyalty: loyaltySvc,
		tiers:   tierSvc,
		rewards: rewardSvc,
	}
}

func seedVariant(t *testing.T, db *gorm.DB, price string, stock int) (*models.Product, *models.ProductVariant) {
	t.Helper()
	suffix := time.Now().UnixNano()
	product := &models.Product{Slug: fmt.Sprintf("product-%d", suffix), Name: "Tea Set", IsActive: true}
	require.NoError(t, db.Create(product).Error)
	variant := &models.ProductVariant{
		ProductID: product.ID,
		SKU:       fmt.Sprintf("SKU-%d", suffix),
		Name:      "Default",
		Price:     models.MustMoney(price),
		Stock:     stock,
		IsActive:  true,
	}
	require.NoError(t, db.Create(variant).Error)
	return product, variant
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.ExpiresAt.IsZero() {
		coupon.ExpiresAt = time.Now().Add(24 * time.Hour)
	}
	if coupon.Status == "" {
		coupon.Status = constants.CouponStatusActive
	}
	if coupon.UsageLimit == 0 {
		coupon.UsageLimit = 100
	}
	if coupon.UsageLimitPerUser == 0 {
		coupon.UsageLimitPerUser = 1
	}
	coupon.IsActive = true
	require.NoError(t, db.Create(&coupon).Error)
	return &coupon
}

func seedStandardTiers(t *testing.T, db *gorm.DB) map[string]*models.LoyaltyTier {
	t.Helper()
	defs := []models.LoyaltyTier{
		{Name: "bronze", DisplayName: "Bronze", MinPoints: 0, MaxPoints: 1000, SortOrder: 0},
		{Name: "silver", DisplayName: "Silver", MinPoints: 1000, MaxPoints: 5000, SortOrder: 1},
		{Name: "gold", DisplayName: "Gold", MinPoints: 5000, MaxPoints: 15000, SortOrder: 2},
		{Name: "platinum", DisplayName: "Platinum", MinPoints: 15000, MaxPoints: 0, SortOrder: 3},
	}
	result := make(map[string]*models.LoyaltyTier, len(defs))
	for i := range defs {
		tier := defs[i]
		tier.EarningRate = decimal.NewFromInt(1)
		tier.RedemptionRate = decimal.NewFromInt(1)
		tier.IsActive = true
		require.NoError(t, db.Create(&tier).Error)
		result[tier.Name] = &tier
	}
	return result
}

func grantPoints(t *testing.T, svc *LoyaltyService, userID uint, points int64) {
	t.Helper()
	_, err := svc.Earn(EarnInput{UserID: userID, Points: points, Source: constants.PointsSourceAdmin, TransactionType: constants.PointsTxnTypeBonus})
	require.NoError(t, err)
}
