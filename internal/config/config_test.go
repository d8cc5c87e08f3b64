package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaultsUnmarshal(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "ORD", cfg.Order.NumberPrefix)
	assert.Equal(t, 60, cfg.Loyalty.ExpireSweepIntervalMinutes)
	assert.Equal(t, 500, cfg.Loyalty.ExpireSweepBatchSize)
	assert.True(t, cfg.Queue.Enabled)
	assert.Equal(t, 10, cfg.Queue.Queues["default"])
	assert.False(t, cfg.Notification.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.OrderCreate.MaxRequests)
	assert.Equal(t, 60, cfg.RateLimit.CouponValidate.WindowSeconds)
}

func TestLoadReadsPrefixedEnv(t *testing.T) {
	t.Setenv("BAZAAR_SERVER_PORT", "9090")
	t.Setenv("BAZAAR_LOYALTY_EXPIRE_SWEEP_BATCH_SIZE", "50")

	v := viper.New()
	v.AddConfigPath(t.TempDir())
	cfg, err := load(v)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Loyalty.ExpireSweepBatchSize)
	assert.Equal(t, "bazaar.log", cfg.Log.Filename)
}

func TestLoyaltyEarningRate(t *testing.T) {
	assert.True(t, LoyaltyConfig{DefaultEarningRate: "1.5"}.EarningRate().Equal(decimal.RequireFromString("1.5")))
	assert.True(t, LoyaltyConfig{DefaultEarningRate: "abc"}.EarningRate().Equal(decimal.NewFromInt(1)))
	assert.True(t, LoyaltyConfig{DefaultEarningRate: "-2"}.EarningRate().Equal(decimal.NewFromInt(1)))
}

func TestOrderShippingCost(t *testing.T) {
	assert.True(t, OrderConfig{DefaultShippingCost: " 12.50 "}.ShippingCost().Equal(decimal.RequireFromString("12.5")))
	assert.True(t, OrderConfig{DefaultShippingCost: ""}.ShippingCost().IsZero())
	assert.True(t, OrderConfig{DefaultShippingCost: "-1"}.ShippingCost().IsZero())
}

func TestJWTWeakSecret(t *testing.T) {
	assert.True(t, JWTConfig{SecretKey: "short"}.WeakSecret())
	assert.True(t, JWTConfig{SecretKey: "user-change-me-in-production-000000000"}.WeakSecret())
	assert.False(t, JWTConfig{SecretKey: "9f1c2e7a4b8d3f6a0c5e9b2d7f4a1c8e"}.WeakSecret())
}
