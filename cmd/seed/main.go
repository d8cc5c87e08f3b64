package main

import (
	"flag"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	var demoUserID uint
	flag.UintVar(&demoUserID, "demo-user", 1, "演示用户ID，为其生成地址与令牌；0 表示跳过")
	flag.Parse()

	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	log := logger.S()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.ToPoolConfig(), false); err != nil {
		log.Fatalw("seed_database_connect_failed", "error", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		log.Fatalw("seed_database_migrate_failed", "error", err)
	}

	seedTiers(log)
	variantIDs := seedCatalog(log)
	seedCoupons(log)
	seedRewards(log, variantIDs)

	if demoUserID > 0 {
		seedDemoUser(log, cfg, demoUserID)
	}
	log.Infow("seed_done")
}

func money(raw string) models.Money {
	return models.NewMoneyFromDecimal(decimal.RequireFromString(raw))
}

func moneyPtr(raw string) *models.Money {
	m := money(raw)
	return &m
}

func seedTiers(log *zap.SugaredLogger) {
	tiers := []models.LoyaltyTier{
		{
			Name:               "bronze",
			DisplayName:        "Bronze",
			MinPoints:          0,
			MaxPoints:          1000,
			EarningRate:        decimal.NewFromInt(1),
			RedemptionRate:     decimal.NewFromInt(1),
			DiscountPercentage: decimal.Zero,
			Perks:              models.StringArray{"Member pricing"},
			PointsExpiryDays:   365,
			SortOrder:          1,
			IsActive:           true,
		},
		{
			Name:               "silver",
			DisplayName:        "Silver",
			MinPoints:          1000,
			MaxPoints:          5000,
			EarningRate:        decimal.RequireFromString("1.25"),
			RedemptionRate:     decimal.NewFromInt(1),
			DiscountPercentage: decimal.NewFromInt(2),
			Perks:              models.StringArray{"Member pricing", "Birthday gift"},
			PointsExpiryDays:   365,
			SortOrder:          2,
			IsActive:           true,
		},
		{
			Name:               "gold",
			DisplayName:        "Gold",
			MinPoints:          5000,
			MaxPoints:          20000,
			EarningRate:        decimal.RequireFromString("1.5"),
			RedemptionRate:     decimal.RequireFromString("1.1"),
			DiscountPercentage: decimal.NewFromInt(5),
			Perks:              models.StringArray{"Member pricing", "Birthday gift", "Free shipping"},
			PointsExpiryDays:   540,
			SortOrder:          3,
			IsActive:           true,
		},
		{
			Name:               "platinum",
			DisplayName:        "Platinum",
			MinPoints:          20000,
			MaxPoints:          0,
			EarningRate:        decimal.NewFromInt(2),
			RedemptionRate:     decimal.RequireFromString("1.25"),
			DiscountPercentage: decimal.NewFromInt(8),
			Perks:              models.StringArray{"Member pricing", "Birthday gift", "Free shipping", "Early access"},
			PointsExpiryDays:   0,
			SortOrder:          4,
			IsActive:           true,
		},
	}
	for _, tier := range tiers {
		var existing models.LoyaltyTier
		if err := models.DB.Where("name = ?", tier.Name).First(&existing).Error; err == nil {
			log.Infow("seed_tier_exists", "name", tier.Name)
			continue
		}
		if err := models.DB.Create(&tier).Error; err != nil {
			log.Warnw("seed_tier_create_failed", "name", tier.Name, "error", err)
			continue
		}
		log.Infow("seed_tier_created", "name", tier.Name, "id", tier.ID)
	}
}

type productSeed struct {
	product  models.Product
	variants []models.ProductVariant
}

// seedCatalog 返回 sku -> variant id
func seedCatalog(log *zap.SugaredLogger) map[string]uint {
	seeds := []productSeed{
		{
			product: models.Product{Slug: "pour-over-kettle", Name: "Pour-over Kettle", Description: "Gooseneck kettle with temperature dial.", SortOrder: 1, IsActive: true},
			variants: []models.ProductVariant{
				{SKU: "KETTLE-MATTE", Name: "Matte Black", Price: money("59.00"), Stock: 40, IsActive: true},
				{SKU: "KETTLE-STEEL", Name: "Brushed Steel", Price: money("64.00"), Stock: 25, IsActive: true},
			},
		},
		{
			product: models.Product{Slug: "ceramic-dripper", Name: "Ceramic Dripper", Description: "Single-cup dripper, size 02.", SortOrder: 2, IsActive: true},
			variants: []models.ProductVariant{
				{SKU: "DRIPPER-WHITE", Name: "White", Price: money("24.50"), Stock: 100, IsActive: true},
			},
		},
		{
			product: models.Product{Slug: "paper-filters", Name: "Paper Filters", Description: "100 count, unbleached.", SortOrder: 3, IsActive: true},
			variants: []models.ProductVariant{
				{SKU: "FILTER-100", Name: "100 pack", Price: money("6.90"), Stock: 500, IsActive: true},
			},
		},
	}

	skuIDs := make(map[string]uint)
	for _, seed := range seeds {
		product := seed.product
		var existing models.Product
		if err := models.DB.Where("slug = ?", product.Slug).First(&existing).Error; err == nil {
			product = existing
			log.Infow("seed_product_exists", "slug", product.Slug)
		} else if err := models.DB.Create(&product).Error; err != nil {
			log.Warnw("seed_product_create_failed", "slug", product.Slug, "error", err)
			continue
		} else {
			log.Infow("seed_product_created", "slug", product.Slug, "id", product.ID)
		}

		for _, variant := range seed.variants {
			variant.ProductID = product.ID
			var existingVariant models.ProductVariant
			if err := models.DB.Where("product_id = ? AND sku = ?", product.ID, variant.SKU).First(&existingVariant).Error; err == nil {
				skuIDs[variant.SKU] = existingVariant.ID
				continue
			}
			if err := models.DB.Create(&variant).Error; err != nil {
				log.Warnw("seed_variant_create_failed", "sku", variant.SKU, "error", err)
				continue
			}
			skuIDs[variant.SKU] = variant.ID
		}
	}
	return skuIDs
}

func seedCoupons(log *zap.SugaredLogger) {
	expiresAt := time.Now().AddDate(0, 6, 0)
	coupons := []models.Coupon{
		{
			Code:               "WELCOME10",
			DiscountType:       constants.CouponTypeFixedAmount,
			Value:              money("10.00"),
			MinimumOrderAmount: moneyPtr("50.00"),
			UsageLimit:         1000,
			UsageLimitPerUser:  1,
			ExpiresAt:          expiresAt,
			IsActive:           true,
			Status:             constants.CouponStatusActive,
		},
		{
			Code:                  "SAVE20",
			DiscountType:          constants.CouponTypePercentage,
			Value:                 money("20"),
			MaximumDiscountAmount: moneyPtr("30.00"),
			UsageLimit:            200,
			UsageLimitPerUser:     2,
			ExpiresAt:             expiresAt,
			IsActive:              true,
			Status:                constants.CouponStatusActive,
		},
	}
	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err == nil {
			log.Infow("seed_coupon_exists", "code", coupon.Code)
			continue
		}
		if err := models.DB.Create(&coupon).Error; err != nil {
			log.Warnw("seed_coupon_create_failed", "code", coupon.Code, "error", err)
			continue
		}
		log.Infow("seed_coupon_created", "code", coupon.Code)
	}
}

func seedRewards(log *zap.SugaredLogger, skuIDs map[string]uint) {
	fivePercent := decimal.NewFromInt(5)
	rewards := []models.LoyaltyReward{
		{
			Name:               "$5 off",
			Description:        "Five dollars off any order over $25.",
			Type:               constants.RewardTypeDiscount,
			PointsCost:         500,
			DiscountAmount:     moneyPtr("5.00"),
			MinimumOrderAmount: moneyPtr("25.00"),
			Status:             constants.RewardStatusActive,
			IsActive:           true,
		},
		{
			Name:                  "5% off",
			Type:                  constants.RewardTypeDiscount,
			PointsCost:            800,
			DiscountPercentage:    &fivePercent,
			MaximumDiscountAmount: moneyPtr("20.00"),
			Status:                constants.RewardStatusActive,
			IsActive:              true,
		},
		{
			Name:       "Free shipping",
			Type:       constants.RewardTypeFreeShipping,
			PointsCost: 300,
			Status:     constants.RewardStatusActive,
			IsActive:   true,
		},
	}
	if variantID, ok := skuIDs["FILTER-100"]; ok {
		var variant models.ProductVariant
		if err := models.DB.First(&variant, variantID).Error; err == nil {
			rewards = append(rewards, models.LoyaltyReward{
				Name:                "Free filter pack",
				Type:                constants.RewardTypeFreeProduct,
				PointsCost:          400,
				FreeProductID:       &variant.ProductID,
				FreeVariantID:       &variant.ID,
				FreeProductQuantity: 1,
				UsageLimitPerUser:   3,
				Status:              constants.RewardStatusActive,
				IsActive:            true,
			})
		}
	}
	for _, reward := range rewards {
		var existing models.LoyaltyReward
		if err := models.DB.Where("name = ?", reward.Name).First(&existing).Error; err == nil {
			log.Infow("seed_reward_exists", "name", reward.Name)
			continue
		}
		if err := models.DB.Create(&reward).Error; err != nil {
			log.Warnw("seed_reward_create_failed", "name", reward.Name, "error", err)
			continue
		}
		log.Infow("seed_reward_created", "name", reward.Name, "id", reward.ID)
	}
}

// seedDemoUser 为演示用户写入默认地址并打印用户/管理员令牌
func seedDemoUser(log *zap.SugaredLogger, cfg *config.Config, userID uint) {
	var count int64
	models.DB.Model(&models.UserAddress{}).Where("user_id = ?", userID).Count(&count)
	if count == 0 {
		address := models.UserAddress{
			UserID:       userID,
			Recipient:    "Demo Customer",
			Phone:        "+1-555-0100",
			AddressLine1: "100 Market Street",
			City:         "San Francisco",
			PostalCode:   "94105",
			Country:      "US",
			IsDefault:    true,
		}
		if err := models.DB.Create(&address).Error; err != nil {
			log.Warnw("seed_address_create_failed", "user_id", userID, "error", err)
		} else {
			log.Infow("seed_address_created", "user_id", userID, "address_id", address.ID)
		}
	}

	authService := service.NewAuthService(cfg.JWT, cfg.UserJWT)
	userToken, userExp, err := authService.GenerateUserJWT(userID)
	if err != nil {
		log.Warnw("seed_user_token_failed", "error", err)
		return
	}
	adminToken, adminExp, err := authService.GenerateAdminJWT(1, constants.ActorRoleAdmin)
	if err != nil {
		log.Warnw("seed_admin_token_failed", "error", err)
		return
	}
	log.Infow("seed_demo_tokens",
		"user_id", userID,
		"user_token", userToken,
		"user_token_expires_at", userExp,
		"admin_token", adminToken,
		"admin_token_expires_at", adminExp,
	)
}
