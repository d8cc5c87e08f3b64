package service

import (
	"testing"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReward(t *testing.T, env *testServices, input RewardInput) *models.LoyaltyReward {
	t.Helper()
	reward, err := env.rewards.CreateReward(input)
	require.NoError(t, err)
	return reward
}

func TestRedeemRewardInsufficientPointsLeavesStateUntouched(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	grantPoints(t, env.loyalty, 5, 500)
	amount := models.MustMoney("10")
	reward := seedReward(t, env, RewardInput{
		Name:           "Ten off",
		Type:           constants.RewardTypeDiscount,
		PointsCost:     600,
		DiscountAmount: &amount,
	})

	_, err := env.rewards.RedeemReward(5, reward.ID)
	assert.ErrorIs(t, err, ErrInsufficientPoints)

	balance, err := env.loyalty.Balance(5)
	require.NoError(t, err)
	assert.EqualValues(t, 500, balance)

	reloaded, err := env.rewards.GetReward(reward.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.UsageCount)
}

func TestRedeemRewardPerUserLimitAndTier(t *testing.T) {
	env := setupServices(t)
	tiers := seedStandardTiers(t, env.db)
	grantPoints(t, env.loyalty, 6, 800)
	amount := models.MustMoney("5")
	reward := seedReward(t, env, RewardInput{
		Name:              "Five off",
		Type:              constants.RewardTypeDiscount,
		PointsCost:        100,
		DiscountAmount:    &amount,
		UsageLimitPerUser: 1,
	})
	goldOnly := seedReward(t, env, RewardInput{
		Name:          "Lounge",
		Type:          constants.RewardTypeFreeShipping,
		PointsCost:    10,
		EligibleTiers: []uint{tiers["gold"].ID},
	})

	txn, err := env.rewards.RedeemReward(6, reward.ID)
	require.NoError(t, err)
	assert.EqualValues(t, -100, txn.Points)
	assert.EqualValues(t, 700, txn.BalanceAfter)
	require.NotNil(t, txn.RewardID)
	assert.Equal(t, reward.ID, *txn.RewardID)

	_, err = env.rewards.RedeemReward(6, reward.ID)
	assert.ErrorIs(t, err, ErrRewardPerUserLimit)

	_, err = env.rewards.RedeemReward(6, goldOnly.ID)
	assert.ErrorIs(t, err, ErrRewardTierIneligible)
	assert.ErrorIs(t, err, ErrKindForbidden)

	available, err := env.rewards.ListAvailable(6)
	require.NoError(t, err)
	for _, item := range available {
		assert.NotEqual(t, goldOnly.ID, item.ID)
	}
}

func TestResolveRewardEffect(t *testing.T) {
	percent := decimal.NewFromInt(10)
	maxCap := models.MustMoney("15")
	minimum := models.MustMoney("100")
	productID, variantID := uint(3), uint(4)

	effect, err := resolveRewardEffect(&models.LoyaltyReward{
		Type:                  constants.RewardTypeDiscount,
		DiscountPercentage:    &percent,
		MaximumDiscountAmount: &maxCap,
	}, decimal.NewFromInt(300))
	require.NoError(t, err)
	assert.True(t, effect.Discount.Equal(decimal.NewFromInt(15)))

	effect, err = resolveRewardEffect(&models.LoyaltyReward{Type: constants.RewardTypeFreeShipping}, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, effect.FreeShipping)
	assert.True(t, effect.Discount.IsZero())

	effect, err = resolveRewardEffect(&models.LoyaltyReward{
		Type:          constants.RewardTypeFreeProduct,
		FreeProductID: &productID,
		FreeVariantID: &variantID,
	}, decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NotNil(t, effect.FreeProduct)
	assert.Equal(t, 1, effect.FreeProduct.Quantity)

	_, err = resolveRewardEffect(&models.LoyaltyReward{
		Type:               constants.RewardTypeFreeShipping,
		MinimumOrderAmount: &minimum,
	}, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrRewardMinAmount)

	_, err = resolveRewardEffect(&models.LoyaltyReward{Type: constants.RewardTypeExclusiveAccess}, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrRewardInvalid)
}
