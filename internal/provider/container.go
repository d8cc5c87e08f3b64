package provider

import (
	"time"

	"github.com/bazaar-next/internal/authz"
	"github.com/bazaar-next/internal/cache"
	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/push"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OrderRepo       repository.OrderRepository
	CatalogRepo     repository.CatalogRepository
	AddressRepo     repository.UserAddressRepository
	PushTokenRepo   repository.PushTokenRepository
	CouponRepo      repository.CouponRepository
	CouponUsageRepo repository.CouponUsageRepository
	LoyaltyRepo     repository.LoyaltyRepository
	TierRepo        repository.LoyaltyTierRepository
	RewardRepo      repository.LoyaltyRewardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	NotificationService *service.NotificationService
	CouponService       *service.CouponService
	TierService         *service.TierService
	LoyaltyService      *service.LoyaltyService
	RewardService       *service.RewardService
	OrderService        *service.OrderService
}

// NewContainer 初始化容器，依赖 models.DB 已就绪
func NewContainer(cfg *config.Config) *Container {
	// 缓存不可用时各服务直接回源数据库
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
		queueClient = nil
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}
	c.initRepositories()
	c.initServices()
	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.AddressRepo = repository.NewUserAddressRepository(db)
	c.PushTokenRepo = repository.NewPushTokenRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponUsageRepo = repository.NewCouponUsageRepository(db)
	c.LoyaltyRepo = repository.NewLoyaltyRepository(db)
	c.TierRepo = repository.NewLoyaltyTierRepository(db)
	c.RewardRepo = repository.NewLoyaltyRewardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config.JWT, c.Config.UserJWT)
	c.NotificationService = service.NewNotificationService(
		c.QueueClient,
		c.OrderRepo,
		c.PushTokenRepo,
		push.New(&c.Config.Notification),
		time.Duration(c.Config.Notification.DedupeTTLSeconds)*time.Second,
	)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponUsageRepo)
	c.TierService = service.NewTierService(c.TierRepo, c.LoyaltyRepo, time.Duration(c.Config.Loyalty.TierCacheTTLSeconds)*time.Second)
	c.LoyaltyService = service.NewLoyaltyService(c.LoyaltyRepo, c.TierService, c.Config.Loyalty.EarningRate())
	c.RewardService = service.NewRewardService(c.RewardRepo, c.LoyaltyRepo, c.LoyaltyService, c.TierService)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.CatalogRepo,
		c.AddressRepo,
		c.CouponService,
		c.LoyaltyService,
		c.RewardService,
		c.NotificationService,
		c.Config.Order.ShippingCost(),
		c.Config.Order.NumberPrefix,
	)
}

// Close 释放队列与缓存连接
func (c *Container) Close() {
	if c == nil {
		return
	}
	if err := c.QueueClient.Close(); err != nil {
		logger.Warnw("provider_close_queue_client_failed", "error", err)
	}
	if err := cache.Close(); err != nil {
		logger.Warnw("provider_close_redis_failed", "error", err)
	}
}
