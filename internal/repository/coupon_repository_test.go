package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/bazaar-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openRepositoryTestDB(t *testing.T, tables ...any) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repository_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(tables...))
	return db
}

func seedCoupon(t *testing.T, repo *GormCouponRepository, code string, limit int) *models.Coupon {
	t.Helper()
	coupon := &models.Coupon{
		Code:              code,
		DiscountType:      "fixed_amount",
		Value:             models.MustMoney("5"),
		UsageLimit:        limit,
		UsageLimitPerUser: 1,
		ExpiresAt:         time.Now().Add(24 * time.Hour),
		IsActive:          true,
		Status:            "active",
	}
	require.NoError(t, repo.Create(coupon))
	return coupon
}

func TestCouponRepositoryLookup(t *testing.T) {
	repo := NewCouponRepository(openRepositoryTestDB(t, &models.Coupon{}))
	created := seedCoupon(t, repo, "SPRING5", 10)

	got, err := repo.GetByCode(" spring5 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	missing, err := repo.GetByCode("NOPE")
	require.NoError(t, err)
	assert.Nil(t, missing)

	missing, err = repo.GetByID(created.ID + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCouponRepositoryListFiltersAndPages(t *testing.T) {
	repo := NewCouponRepository(openRepositoryTestDB(t, &models.Coupon{}))
	for i := 1; i <= 5; i++ {
		seedCoupon(t, repo, fmt.Sprintf("SUMMER%d", i), 10)
	}
	seedCoupon(t, repo, "WINTER1", 10)

	rows, total, err := repo.List(CouponListFilter{Code: "summer", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, rows, 2)
	assert.Equal(t, "SUMMER3", rows[0].Code)

	rows, total, err = repo.List(CouponListFilter{Code: "autumn"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestCouponRepositoryIncrementUsageCountStopsAtLimit(t *testing.T) {
	repo := NewCouponRepository(openRepositoryTestDB(t, &models.Coupon{}))
	coupon := seedCoupon(t, repo, "ONCE", 1)

	ok, err := repo.IncrementUsageCount(coupon.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementUsageCount(coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
