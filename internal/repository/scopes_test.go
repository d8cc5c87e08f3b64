package repository

import (
	"testing"

	"github.com/bazaar-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPaginateScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)

	render := func(page, pageSize int) string {
		var coupons []models.Coupon
		stmt := db.Model(&models.Coupon{}).Scopes(paginate(page, pageSize)).Find(&coupons).Statement
		return stmt.SQL.String()
	}

	assert.Contains(t, render(3, 10), "LIMIT 10 OFFSET 20")
	assert.Contains(t, render(0, 5), "LIMIT 5")
	assert.NotContains(t, render(0, 5), "OFFSET 5")
	assert.Contains(t, render(1, 500), "LIMIT 100")
	assert.NotContains(t, render(2, 0), "LIMIT")
}

func TestContainsTextScope(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{DryRun: true})
	require.NoError(t, err)

	var coupons []models.Coupon
	stmt := db.Model(&models.Coupon{}).Scopes(containsText(" 50%_off ", "code", "status")).Find(&coupons).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "code LIKE ? ESCAPE")
	assert.Contains(t, sql, " OR status LIKE ?")
	require.Len(t, stmt.Vars, 2)
	assert.Equal(t, `%50\%\_off%`, stmt.Vars[0])

	stmt = db.Model(&models.Coupon{}).Scopes(containsText("  ", "code")).Find(&coupons).Statement
	assert.NotContains(t, stmt.SQL.String(), "LIKE")
}
