package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDBSQLiteAndMigrate(t *testing.T) {
	old := DB
	t.Cleanup(func() { DB = old })

	require.NoError(t, InitDB("SQLite", "file:models_init?mode=memory&cache=shared", DBPoolConfig{MaxOpenConns: 1}, false))
	require.NotNil(t, DB)
	require.NoError(t, AutoMigrate())
	assert.True(t, DB.Migrator().HasTable(&LoyaltyPointsTransaction{}))
	assert.True(t, DB.Migrator().HasTable(&OrderStatusEvent{}))
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	old := DB
	t.Cleanup(func() { DB = old })

	err := InitDB("mysql", "", DBPoolConfig{}, false)
	assert.EqualError(t, err, "unsupported database driver: mysql")
	assert.Same(t, old, DB)
}
