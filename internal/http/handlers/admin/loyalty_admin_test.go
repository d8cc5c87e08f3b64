package admin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bazaar-next/internal/config"
	handlershared "github.com/bazaar-next/internal/http/handlers/shared"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/provider"
	"github.com/bazaar-next/internal/repository"
	"github.com/bazaar-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Msg        string          `json:"msg"`
	Data       json.RawMessage `json:"data"`
}

func setupAdminLoyaltyHandlerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:admin_loyalty_handler_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
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
	tierSvc := service.NewTierService(tierRepo, loyaltyRepo, time.Minute)
	loyaltySvc := service.NewLoyaltyService(loyaltyRepo, tierSvc, decimal.NewFromInt(1))

	cfg := &config.Config{}
	cfg.Loyalty.ExpireSweepBatchSize = 100

	h := New(&provider.Container{
		Config:         cfg,
		LoyaltyRepo:    loyaltyRepo,
		TierRepo:       tierRepo,
		TierService:    tierSvc,
		LoyaltyService: loyaltySvc,
		CouponService: service.NewCouponService(
			repository.NewCouponRepository(db),
			repository.NewCouponUsageRepository(db),
		),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(handlershared.ContextAdminID, uint(7))
		c.Set(handlershared.ContextAdminRole, "admin")
		c.Next()
	})
	r.GET("/admin/loyalty/tiers", h.ListTiers)
	r.POST("/admin/loyalty/tiers", h.CreateTier)
	r.POST("/admin/loyalty/adjust", h.AdjustPoints)
	r.POST("/admin/loyalty/expire", h.ExpirePoints)
	r.GET("/admin/loyalty/users/:id", h.GetUserLoyalty)
	r.GET("/admin/coupons", h.ListCoupons)
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestAdjustPointsThenUserLoyalty(t *testing.T) {
	r, _ := setupAdminLoyaltyHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/admin/loyalty/adjust", gin.H{
		"user_id":     42,
		"points":      150,
		"description": "goodwill",
	})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var txn models.LoyaltyPointsTransaction
	require.NoError(t, json.Unmarshal(resp.Data, &txn))
	assert.Equal(t, int64(150), txn.Points)
	assert.Equal(t, uint(42), txn.UserID)

	resp = doJSON(t, r, http.MethodGet, "/admin/loyalty/users/42", nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var detail struct {
		Summary struct {
			Balance        int64 `json:"balance"`
			LifetimePoints int64 `json:"lifetime_points"`
		} `json:"summary"`
		TierHistory []models.LoyaltyUserTier `json:"tier_history"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, int64(150), detail.Summary.Balance)
	assert.Equal(t, int64(150), detail.Summary.LifetimePoints)
	assert.NotNil(t, detail.TierHistory)
}

func TestAdjustPointsRejectsOverdraw(t *testing.T) {
	r, _ := setupAdminLoyaltyHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/admin/loyalty/adjust", gin.H{
		"user_id": 9,
		"points":  -10,
	})
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, service.ErrInsufficientPoints.Error(), resp.Msg)
}

func TestAdjustPointsValidationErrors(t *testing.T) {
	r, _ := setupAdminLoyaltyHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/admin/loyalty/adjust", gin.H{"points": 5})
	assert.Equal(t, 400, resp.StatusCode)

	var data struct {
		Errors []handlershared.FieldError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NotEmpty(t, data.Errors)
	assert.Equal(t, "user_id", data.Errors[0].Field)
}

func TestCreateTierAndList(t *testing.T) {
	r, _ := setupAdminLoyaltyHandlerTest(t)

	resp := doJSON(t, r, http.MethodPost, "/admin/loyalty/tiers", gin.H{
		"name":         "bronze",
		"display_name": "Bronze",
		"min_points":   0,
		"max_points":   0,
		"earning_rate": "1",
	})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	resp = doJSON(t, r, http.MethodGet, "/admin/loyalty/tiers", nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var tiers []models.LoyaltyTier
	require.NoError(t, json.Unmarshal(resp.Data, &tiers))
	require.Len(t, tiers, 1)
	assert.Equal(t, "bronze", tiers[0].Name)
}

func TestExpirePointsRunsInline(t *testing.T) {
	r, db := setupAdminLoyaltyHandlerTest(t)

	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.LoyaltyPointsTransaction{
		UserID:          3,
		Points:          80,
		TransactionType: "earned",
		Source:          "order",
		ExpiresAt:       &past,
		IsActive:        true,
	}).Error)

	resp := doJSON(t, r, http.MethodPost, "/admin/loyalty/expire", gin.H{"batch_size": 10})
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var result service.ExpireResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 0, result.Failed)
}

func TestListCouponsEmptyPage(t *testing.T) {
	r, _ := setupAdminLoyaltyHandlerTest(t)

	resp := doJSON(t, r, http.MethodGet, "/admin/coupons?page=1&limit=5", nil)
	require.Equal(t, 0, resp.StatusCode, resp.Msg)

	var page struct {
		Total int64 `json:"total"`
		Page  int   `json:"page"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &page))
	assert.Equal(t, int64(0), page.Total)
	assert.Equal(t, 1, page.Page)
}
