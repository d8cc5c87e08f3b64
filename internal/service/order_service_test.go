package service

import (
	"testing"

	"github.com/bazaar-next/internal/constants"
	"github.com/bazaar-next/internal/models"
	"github.com/bazaar-next/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeOrder(t *testing.T, env *testServices, userID uint, variant *models.ProductVariant, quantity int) *models.Order {
	t.Helper()
	order, err := env.orders.CreateOrder(CreateOrderInput{
		UserID:        userID,
		PaymentMethod: constants.PaymentMethodCard,
		Items:         []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: quantity}},
	})
	require.NoError(t, err)
	return order
}

func TestFormatOrderNo(t *testing.T) {
	assert.Equal(t, "ORD-2026-001", formatOrderNo("ORD", 2026, 1))
	assert.Equal(t, "ORD-2026-1234", formatOrderNo("ORD", 2026, 1234))
}

func TestCreateOrderWithCouponAndPoints(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "250.00", 10)
	minimum := models.MustMoney("50")
	maxCap := models.MustMoney("50")
	seedCoupon(t, env.db, models.Coupon{
		Code:                  "SAVE20",
		DiscountType:          constants.CouponTypePercentage,
		Value:                 models.MustMoney("20"),
		MinimumOrderAmount:    &minimum,
		MaximumDiscountAmount: &maxCap,
	})
	shipping := models.MustMoney("15")

	order, err := env.orders.CreateOrder(CreateOrderInput{
		UserID:        21,
		PaymentMethod: "CARD",
		Items:         []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 4}},
		CouponCode:    "save20",
		ShippingCost:  &shipping,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusPending, order.Status)
	assert.Equal(t, constants.PaymentStatusPending, order.PaymentStatus)
	assert.Regexp(t, `^ORD-\d{4}-001$`, order.OrderNo)
	assert.Equal(t, "1000.00", order.Subtotal.String())
	assert.Equal(t, "50.00", order.CouponDiscountAmount.String())
	assert.Equal(t, "965.00", order.TotalAmount.String())
	assert.EqualValues(t, 1000, order.PointsEarned)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.CouponUsageID)

	var stock models.ProductVariant
	require.NoError(t, env.db.First(&stock, variant.ID).Error)
	assert.Equal(t, 6, stock.Stock)

	var usage models.CouponUsage
	require.NoError(t, env.db.First(&usage, *order.CouponUsageID).Error)
	require.NotNil(t, usage.OrderID)
	assert.Equal(t, order.ID, *usage.OrderID)

	history, err := env.orders.ListStatusHistory(order.ID, 21)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, constants.OrderStatusPending, history[0].NewStatus)

	balance, err := env.loyalty.Balance(21)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, balance)

	second := placeOrder(t, env, 21, variant, 1)
	assert.Regexp(t, `^ORD-\d{4}-002$`, second.OrderNo)
}

func TestCreateOrderRejectsInvalidInput(t *testing.T) {
	env := setupServices(t)
	_, variant := seedVariant(t, env.db, "10.00", 2)

	_, err := env.orders.CreateOrder(CreateOrderInput{UserID: 1, PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrOrderItemsEmpty)

	_, err = env.orders.CreateOrder(CreateOrderInput{UserID: 1, PaymentMethod: "bitcoin", Items: []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrPaymentMethodInvalid)

	_, err = env.orders.CreateOrder(CreateOrderInput{UserID: 1, PaymentMethod: "card", Items: []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 3}}})
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.ErrorIs(t, err, ErrKindInsufficientStock)

	missing := uint(999)
	_, err = env.orders.CreateOrder(CreateOrderInput{UserID: 1, PaymentMethod: "card", ShippingAddressID: &missing, Items: []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrAddressNotFound)

	var count int64
	require.NoError(t, env.db.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOrderNegativeTotalFails(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "100.00", 5)
	seedCoupon(t, env.db, models.Coupon{
		Code:         "FULL",
		DiscountType: constants.CouponTypeFixedAmount,
		Value:        models.MustMoney("100"),
	})
	grantPoints(t, env.loyalty, 30, 1000)
	amount := models.MustMoney("100")
	reward := seedReward(t, env, RewardInput{
		Name:           "Hundred off",
		Type:           constants.RewardTypeDiscount,
		PointsCost:     200,
		DiscountAmount: &amount,
	})

	_, err := env.orders.CreateOrder(CreateOrderInput{
		UserID:          30,
		PaymentMethod:   constants.PaymentMethodWallet,
		Items:           []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}},
		CouponCode:      "FULL",
		LoyaltyRewardID: &reward.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidOrderAmount)
	assert.Nil(t, ErrorKind(err))

	balance, err := env.loyalty.Balance(30)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, balance)

	var usages int64
	require.NoError(t, env.db.Model(&models.CouponUsage{}).Count(&usages).Error)
	assert.Zero(t, usages)
}

func TestCreateOrderWithFreeProductReward(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "40.00", 5)
	gift, giftVariant := seedVariant(t, env.db, "12.00", 1)
	grantPoints(t, env.loyalty, 31, 300)
	reward := seedReward(t, env, RewardInput{
		Name:          "Free mug",
		Type:          constants.RewardTypeFreeProduct,
		PointsCost:    100,
		FreeProductID: &gift.ID,
		FreeVariantID: &giftVariant.ID,
	})

	order, err := env.orders.CreateOrder(CreateOrderInput{
		UserID:          31,
		PaymentMethod:   constants.PaymentMethodCashOnDelivery,
		Items:           []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}},
		LoyaltyRewardID: &reward.ID,
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.True(t, order.Items[1].IsRewardItem)
	assert.True(t, order.Items[1].FinalPrice.IsZero())
	assert.Equal(t, "40.00", order.TotalAmount.String())

	var stock models.ProductVariant
	require.NoError(t, env.db.First(&stock, giftVariant.ID).Error)
	assert.Zero(t, stock.Stock)
}

func TestUpdateStatusBackfillsProgression(t *testing.T) {
	env := setupServices(t)
	_, variant := seedVariant(t, env.db, "20.00", 5)
	order := placeOrder(t, env, 40, variant, 1)
	adminID := uint(1)

	updated, err := env.orders.UpdateStatus(order.ID, UpdateStatusInput{
		Status:       constants.OrderStatusDelivered,
		ChangeReason: "courier confirmed",
	}, Actor{ID: &adminID, Role: constants.ActorRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusDelivered, updated.Status)
	assert.NotNil(t, updated.ConfirmedAt)
	assert.NotNil(t, updated.ShippedAt)
	assert.NotNil(t, updated.DeliveredAt)
	assert.Nil(t, updated.CancelledAt)

	history, err := env.orders.ListStatusHistory(order.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 5)
	want := []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	}
	for i, event := range history {
		assert.Equal(t, want[i], event.NewStatus)
	}
	assert.False(t, history[0].IsAutoGenerated)
	assert.True(t, history[1].IsAutoGenerated)
	assert.True(t, history[2].IsAutoGenerated)
	assert.True(t, history[3].IsAutoGenerated)
	assert.False(t, history[4].IsAutoGenerated)
	assert.Equal(t, "courier confirmed", history[4].ChangeReason)
	assert.Equal(t, constants.OrderStatusShipped, history[4].PreviousStatus)

	same, err := env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusDelivered}, SystemActor())
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusDelivered, same.Status)
	history, err = env.orders.ListStatusHistory(order.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	_, err = env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusPending}, SystemActor())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusCancelled}, SystemActor())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: "lost"}, SystemActor())
	assert.ErrorIs(t, err, ErrOrderStatusInvalid)
}

func TestShippedStoresTracking(t *testing.T) {
	env := setupServices(t)
	_, variant := seedVariant(t, env.db, "20.00", 5)
	order := placeOrder(t, env, 41, variant, 1)

	updated, err := env.orders.UpdateStatus(order.ID, UpdateStatusInput{
		Status:         constants.OrderStatusShipped,
		TrackingNumber: "1Z999",
		Carrier:        "UPS",
	}, SystemActor())
	require.NoError(t, err)
	assert.Equal(t, "1Z999", updated.TrackingNumber)
	assert.Equal(t, "UPS", updated.Carrier)
}

func TestCancelOrderRules(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "50.00", 10)

	order := placeOrder(t, env, 50, variant, 2)
	_, err := env.orders.CancelOrder(order.ID, 51, "")
	assert.ErrorIs(t, err, ErrOrderForbidden)

	cancelled, err := env.orders.CancelOrder(order.ID, 50, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, constants.OrderStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	var stock models.ProductVariant
	require.NoError(t, env.db.First(&stock, variant.ID).Error)
	assert.Equal(t, 10, stock.Stock)

	balance, err := env.loyalty.Balance(50)
	require.NoError(t, err)
	assert.Zero(t, balance)

	confirmed := placeOrder(t, env, 50, variant, 1)
	_, err = env.orders.UpdateStatus(confirmed.ID, UpdateStatusInput{Status: constants.OrderStatusConfirmed}, SystemActor())
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(confirmed.ID, 50, "")
	assert.ErrorIs(t, err, ErrOrderNotCancellable)

	paid := placeOrder(t, env, 50, variant, 1)
	_, err = env.orders.MarkPaid(paid.ID, SystemActor())
	require.NoError(t, err)
	_, err = env.orders.CancelOrder(paid.ID, 50, "")
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestCancelOrderReleasesRedeemedReward(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "40.00", 5)
	grantPoints(t, env.loyalty, 52, 300)
	amount := models.MustMoney("5")
	reward := seedReward(t, env, RewardInput{
		Name:              "Five off",
		Type:              constants.RewardTypeDiscount,
		PointsCost:        200,
		DiscountAmount:    &amount,
		UsageLimitPerUser: 1,
	})

	order, err := env.orders.CreateOrder(CreateOrderInput{
		UserID:          52,
		PaymentMethod:   constants.PaymentMethodCard,
		Items:           []OrderItemInput{{ProductID: variant.ProductID, VariantID: variant.ID, Quantity: 1}},
		LoyaltyRewardID: &reward.ID,
	})
	require.NoError(t, err)
	balance, err := env.loyalty.Balance(52)
	require.NoError(t, err)
	assert.EqualValues(t, 140, balance)

	_, err = env.orders.CancelOrder(order.ID, 52, "")
	require.NoError(t, err)

	balance, err = env.loyalty.Balance(52)
	require.NoError(t, err)
	assert.EqualValues(t, 300, balance)

	reloaded, err := env.rewards.GetReward(reward.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.UsageCount)

	var restored models.LoyaltyPointsTransaction
	require.NoError(t, env.db.Where("order_id = ? AND reward_id = ? AND transaction_type = ?",
		order.ID, reward.ID, constants.PointsTxnTypeAdjusted).First(&restored).Error)
	assert.EqualValues(t, 200, restored.Points)
	assert.NotNil(t, restored.RelatedTxnID)

	lifetime, err := env.loyalty.LifetimePoints(52)
	require.NoError(t, err)
	assert.EqualValues(t, 340, lifetime)

	txn, err := env.rewards.RedeemReward(52, reward.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 100, txn.BalanceAfter)
}

func TestRefundRetractsPointsAndMarksPayment(t *testing.T) {
	env := setupServices(t)
	seedStandardTiers(t, env.db)
	_, variant := seedVariant(t, env.db, "80.00", 3)
	order := placeOrder(t, env, 60, variant, 1)
	_, err := env.orders.MarkPaid(order.ID, SystemActor())
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusRefunded}, SystemActor())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	_, err = env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusConfirmed}, SystemActor())
	require.NoError(t, err)

	refunded, err := env.orders.UpdateStatus(order.ID, UpdateStatusInput{Status: constants.OrderStatusRefunded}, SystemActor())
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusRefunded, refunded.PaymentStatus)

	balance, err := env.loyalty.Balance(60)
	require.NoError(t, err)
	assert.Zero(t, balance)

	var stock models.ProductVariant
	require.NoError(t, env.db.First(&stock, variant.ID).Error)
	assert.Equal(t, 2, stock.Stock)

	_, err = env.orders.MarkPaid(order.ID, SystemActor())
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestOrderQueries(t *testing.T) {
	env := setupServices(t)
	_, variant := seedVariant(t, env.db, "5.00", 50)
	for i := 0; i < 3; i++ {
		placeOrder(t, env, 70, variant, 1)
	}
	other := placeOrder(t, env, 71, variant, 1)

	page, err := env.orders.ListOrdersByUser(repository.OrderListFilter{UserID: 70, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.True(t, page.HasNextPage)
	assert.False(t, page.HasPreviousPage)
	require.Len(t, page.Data, 2)
	assert.Len(t, page.Data[0].Items, 1)

	_, err = env.orders.GetOrder(other.ID, 70)
	assert.ErrorIs(t, err, ErrOrderForbidden)
	_, err = env.orders.GetOrder(9999, 70)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	adminPage, err := env.orders.ListOrdersAdmin(repository.OrderListFilter{Status: "PENDING"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, adminPage.Total)
	assert.Equal(t, defaultPageSize, adminPage.Limit)

	_, err = env.orders.ListOrdersAdmin(repository.OrderListFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrOrderStatusInvalid)
}

func TestNewPageEmpty(t *testing.T) {
	page := NewPage[models.Order](nil, 0, 1, 20)
	assert.NotNil(t, page.Data)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNextPage)
}
