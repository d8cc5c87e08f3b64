package router

import (
	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	adminhandlers "github.com/bazaar-next/internal/http/handlers/admin"
	publichandlers "github.com/bazaar-next/internal/http/handlers/public"
	"github.com/bazaar-next/internal/http/response"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	limiter := NewRateLimiter(cache.Client(), cfg.Redis.Prefix)
	orderCreateRule := NewRateLimitRule("order_create", cfg.RateLimit.OrderCreate)
	couponValidateRule := NewRateLimitRule("coupon_validate", cfg.RateLimit.CouponValidate)

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.Z()))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", healthCheck)

	apiV1 := r.Group("/api/v1")
	{
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(c.AuthService))
		{
			user.POST("/orders", limiter.Middleware(orderCreateRule, KeyByUserID), publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.GET("/orders/:id/history", publicHandler.GetOrderHistory)
			user.POST("/orders/:id/cancel", publicHandler.CancelOrder)

			user.POST("/coupons/validate", limiter.Middleware(couponValidateRule, KeyByIPAndJSONField("code")), publicHandler.ValidateCoupon)

			user.GET("/loyalty/summary", publicHandler.GetLoyaltySummary)
			user.GET("/loyalty/transactions", publicHandler.ListLoyaltyTransactions)
			user.GET("/loyalty/rewards", publicHandler.ListAvailableRewards)
			user.POST("/loyalty/rewards/:id/redeem", publicHandler.RedeemReward)
		}

		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(c.AuthService), AdminRBACMiddleware(c.AuthzService))
		{
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.GET("/orders/:id/history", adminHandler.GetOrderHistory)
			admin.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/mark-paid", adminHandler.MarkOrderPaid)

			admin.GET("/coupons", adminHandler.ListCoupons)
			admin.POST("/coupons", adminHandler.CreateCoupon)
			admin.GET("/coupons/:id", adminHandler.GetCoupon)
			admin.PUT("/coupons/:id", adminHandler.UpdateCoupon)
			admin.POST("/coupons/:id/disable", adminHandler.DisableCoupon)
			admin.GET("/coupons/:id/usages", adminHandler.ListCouponUsages)

			loyalty := admin.Group("/loyalty")
			{
				loyalty.GET("/tiers", adminHandler.ListTiers)
				loyalty.POST("/tiers", adminHandler.CreateTier)
				loyalty.PUT("/tiers/:id", adminHandler.UpdateTier)
				loyalty.GET("/rewards", adminHandler.ListRewards)
				loyalty.POST("/rewards", adminHandler.CreateReward)
				loyalty.PUT("/rewards/:id", adminHandler.UpdateReward)
				loyalty.POST("/adjust", adminHandler.AdjustPoints)
				loyalty.POST("/expire", adminHandler.ExpirePoints)
				loyalty.GET("/users/:id", adminHandler.GetUserLoyalty)
			}

			authzGroup := admin.Group("/authz")
			{
				authzGroup.GET("/roles", adminHandler.ListRoles)
				authzGroup.GET("/roles/:role/policies", adminHandler.GetRolePolicies)
				authzGroup.POST("/roles/:role/policies", adminHandler.GrantRolePolicy)
				authzGroup.DELETE("/roles/:role/policies", adminHandler.RevokeRolePolicy)
			}
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	status := gin.H{"database": "ok", "redis": "disabled"}
	if models.DB == nil {
		status["database"] = "unavailable"
	} else if sqlDB, err := models.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status["database"] = "unavailable"
	}
	if client := cache.Client(); client != nil {
		status["redis"] = "ok"
		if err := client.Ping(c.Request.Context()).Err(); err != nil {
			status["redis"] = "unavailable"
		}
	}
	if status["database"] != "ok" {
		response.ErrorWithData(c, response.CodeInternal, "unhealthy", status)
		return
	}
	response.Success(c, status)
}
