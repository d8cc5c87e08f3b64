package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/queue"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupConsumer(t *testing.T) (*Consumer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Order{},
		&models.OrderItem{},
		&models.UserPushToken{},
		&models.LoyaltyAccount{},
		&models.LoyaltyPointsTransaction{},
		&models.LoyaltyTier{},
		&models.LoyaltyUserTier{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	loyaltyRepo := repository.NewLoyaltyRepository(db)
	tierSvc := service.NewTierService(repository.NewLoyaltyTierRepository(db), loyaltyRepo, time.Minute)
	cfg := &config.Config{}
	cfg.Loyalty.ExpireSweepBatchSize = 50

	return NewConsumer(&provider.Container{
		Config:         cfg,
		LoyaltyService: service.NewLoyaltyService(loyaltyRepo, tierSvc, decimal.NewFromInt(1)),
	}), db
}

func TestLoyaltyExpireSweepTask(t *testing.T) {
	consumer, db := setupConsumer(t)

	past := time.Now().Add(-2 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	rows := []models.LoyaltyPointsTransaction{
		{UserID: 5, Points: 40, TransactionType: "earned", Source: "order", ExpiresAt: &past, IsActive: true},
		{UserID: 5, Points: 60, TransactionType: "earned", Source: "order", ExpiresAt: &future, IsActive: true},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed transactions failed: %v", err)
	}

	task, err := queue.NewLoyaltyExpireSweepTask(queue.LoyaltyExpireSweepPayload{RequestedBy: "test"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleLoyaltyExpireSweep(context.Background(), task); err != nil {
		t.Fatalf("handle task failed: %v", err)
	}

	var expired models.LoyaltyPointsTransaction
	if err := db.First(&expired, rows[0].ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if expired.IsActive {
		t.Fatalf("expected past-due transaction to be inactive")
	}
	var live models.LoyaltyPointsTransaction
	if err := db.First(&live, rows[1].ID).Error; err != nil {
		t.Fatalf("reload transaction failed: %v", err)
	}
	if !live.IsActive {
		t.Fatalf("expected future transaction to stay active")
	}
}

func TestLoyaltyExpireSweepEmptyPayload(t *testing.T) {
	consumer, _ := setupConsumer(t)
	task := asynq.NewTask(queue.TaskLoyaltyExpireSweep, nil)
	if err := consumer.handleLoyaltyExpireSweep(context.Background(), task); err != nil {
		t.Fatalf("empty payload should run with defaults, got %v", err)
	}
}

func TestOrderNotificationInvalidPayload(t *testing.T) {
	consumer, _ := setupConsumer(t)

	task := asynq.NewTask(queue.TaskOrderNotification, []byte("{bad"))
	if err := consumer.handleOrderNotification(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}

	body, _ := json.Marshal(queue.OrderNotificationPayload{Event: queue.OrderEventCreated})
	task = asynq.NewTask(queue.TaskOrderNotification, body)
	if err := consumer.handleOrderNotification(context.Background(), task); err != nil {
		t.Fatalf("zero order id should be skipped, got %v", err)
	}
}

func TestResolveSweepInterval(t *testing.T) {
	if got := resolveSweepInterval(0); got != defaultExpireSweepInterval {
		t.Fatalf("default interval want %s got %s", defaultExpireSweepInterval, got)
	}
	if got := resolveSweepInterval(15); got != 15*time.Minute {
		t.Fatalf("interval want 15m got %s", got)
	}
}
