package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newPostgresMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock, mockDB
}

func TestCatalogDecrementStockPostgres(t *testing.T) {
	t.Run("sufficient stock", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "product_variants" SET "stock"=stock - \$1 WHERE \(id = \$2 AND stock >= \$3\)`).
			WithArgs(2, 7, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := NewCatalogRepository(db).DecrementStock(7, 2)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient stock", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		mock.ExpectExec(`UPDATE "product_variants" SET "stock"=stock - \$1`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := NewCatalogRepository(db).DecrementStock(7, 5)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive quantity skips the write", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		ok, err := NewCatalogRepository(db).DecrementStock(7, 0)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCouponGetByIDForUpdatePostgres(t *testing.T) {
	db, mock, mockDB := newPostgresMock(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT \* FROM "coupons" WHERE "coupons"\."id" = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	coupon, err := NewCouponRepository(db).GetByIDForUpdate(3)
	require.NoError(t, err)
	assert.Nil(t, coupon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponListUsesILikeOnPostgres(t *testing.T) {
	db, mock, mockDB := newPostgresMock(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "coupons" WHERE code ILIKE \$1 ESCAPE`).
		WithArgs("%SUMMER%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	rows, total, err := NewCouponRepository(db).List(CouponListFilter{Code: "summer"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCouponIncrementUsageCountPostgres(t *testing.T) {
	db, mock, mockDB := newPostgresMock(t)
	defer mockDB.Close()

	mock.ExpectExec(`UPDATE "coupons" SET "usage_count"=usage_count \+ \$1 WHERE \(id = \$2 AND usage_count < usage_limit\)`).
		WithArgs(1, 9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := NewCouponRepository(db).IncrementUsageCount(9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoyaltyLockAccountPostgres(t *testing.T) {
	t.Run("seeds then locks the anchor row", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		now := time.Now()
		mock.ExpectQuery(`INSERT INTO "loyalty_accounts" .* ON CONFLICT \("user_id"\) DO NOTHING`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`SELECT \* FROM "loyalty_accounts" WHERE user_id = \$1 .*FOR UPDATE`).
			WithArgs(12, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "created_at", "updated_at"}).
				AddRow(4, 12, now, now))
		mock.ExpectExec(`UPDATE "loyalty_accounts" SET "updated_at"=\$1 WHERE .*"id" = \$2`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		account, err := NewLoyaltyRepository(db).LockAccount(12)
		require.NoError(t, err)
		require.NotNil(t, account)
		assert.EqualValues(t, 4, account.ID)
		assert.EqualValues(t, 12, account.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock failure is returned", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		lockErr := errors.New("lock timeout")
		mock.ExpectQuery(`INSERT INTO "loyalty_accounts"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectQuery(`FOR UPDATE`).WillReturnError(lockErr)

		account, err := NewLoyaltyRepository(db).LockAccount(12)
		assert.ErrorIs(t, err, lockErr)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero user skips the database", func(t *testing.T) {
		db, mock, mockDB := newPostgresMock(t)
		defer mockDB.Close()

		account, err := NewLoyaltyRepository(db).LockAccount(0)
		require.NoError(t, err)
		assert.Nil(t, account)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountRewardRedemptionsExcludesReversals(t *testing.T) {
	db, mock, mockDB := newPostgresMock(t)
	defer mockDB.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "loyalty_points_transactions" WHERE .*reward_id = \$2.* AND id NOT IN \(SELECT related_txn_id FROM "loyalty_points_transactions" WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err := NewLoyaltyRepository(db).CountRewardRedemptions(3, 8)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
