package service

import (
	"testing"
	"time"

	"github.com/bazaar-next/internal/constants"

	"github.com/stretchr/testify/assert"
)

func TestMissingStatusesBackfill(t *testing.T) {
	cases := []struct {
		name   string
		last   string
		target string
		want   []string
	}{
		{
			name:   "pending to delivered fills every gap",
			last:   constants.OrderStatusPending,
			target: constants.OrderStatusDelivered,
			want: []string{
				constants.OrderStatusConfirmed,
				constants.OrderStatusProcessing,
				constants.OrderStatusShipped,
				constants.OrderStatusDelivered,
			},
		},
		{
			name:   "empty history starts at pending",
			last:   "",
			target: constants.OrderStatusConfirmed,
			want:   []string{constants.OrderStatusPending, constants.OrderStatusConfirmed},
		},
		{
			name:   "adjacent step",
			last:   constants.OrderStatusShipped,
			target: constants.OrderStatusDelivered,
			want:   []string{constants.OrderStatusDelivered},
		},
		{
			name:   "cancelled is recorded directly",
			last:   constants.OrderStatusConfirmed,
			target: constants.OrderStatusCancelled,
			want:   []string{constants.OrderStatusCancelled},
		},
		{
			name:   "refunded is recorded directly",
			last:   constants.OrderStatusDelivered,
			target: constants.OrderStatusRefunded,
			want:   []string{constants.OrderStatusRefunded},
		},
		{
			name:   "already recorded",
			last:   constants.OrderStatusShipped,
			target: constants.OrderStatusConfirmed,
			want:   nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, missingStatuses(tc.last, tc.target))
		})
	}
}

func TestAllowedTransitions(t *testing.T) {
	assert.True(t, isTransitionAllowed(constants.OrderStatusPending, constants.OrderStatusShipped))
	assert.True(t, isTransitionAllowed(constants.OrderStatusPending, constants.OrderStatusCancelled))
	assert.True(t, isTransitionAllowed(constants.OrderStatusDelivered, constants.OrderStatusRefunded))
	assert.False(t, isTransitionAllowed(constants.OrderStatusPending, constants.OrderStatusRefunded))
	assert.False(t, isTransitionAllowed(constants.OrderStatusShipped, constants.OrderStatusCancelled))
	assert.False(t, isTransitionAllowed(constants.OrderStatusShipped, constants.OrderStatusConfirmed))
	assert.False(t, isTransitionAllowed(constants.OrderStatusCancelled, constants.OrderStatusConfirmed))
	assert.False(t, isTransitionAllowed(constants.OrderStatusRefunded, constants.OrderStatusDelivered))
	assert.False(t, isTransitionAllowed("unknown", constants.OrderStatusConfirmed))
}

func TestHighestRecordedStatusIgnoresSideBranches(t *testing.T) {
	history := []string{
		constants.OrderStatusPending,
		constants.OrderStatusConfirmed,
		constants.OrderStatusCancelled,
	}
	assert.Equal(t, constants.OrderStatusConfirmed, highestRecordedStatus(history))
	assert.Equal(t, "", highestRecordedStatus(nil))
}

func TestApplyStatusSideEffects(t *testing.T) {
	now := time.Now()
	updates := map[string]interface{}{}
	applyStatusSideEffects(updates, constants.OrderStatusShipped, now)
	assert.Equal(t, now, updates["shipped_at"])
	assert.Contains(t, updates, "cancelled_at")
	assert.Nil(t, updates["cancelled_at"])

	updates = map[string]interface{}{}
	applyStatusSideEffects(updates, constants.OrderStatusCancelled, now)
	assert.Equal(t, now, updates["cancelled_at"])

	updates = map[string]interface{}{}
	applyStatusSideEffects(updates, constants.OrderStatusProcessing, now)
	assert.Empty(t, updates)
}
