package queue

import (
	"encoding/json"
	"testing"

	"github.com/bazaar-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.EnqueueOrderNotification(OrderNotificationPayload{OrderID: 1, Event: OrderEventCreated}))
	assert.NoError(t, client.EnqueueLoyaltyExpireSweep(LoyaltyExpireSweepPayload{}))
	assert.NoError(t, client.Close())

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
}

func TestNewOrderNotificationTaskPayload(t *testing.T) {
	task, err := NewOrderNotificationTask(OrderNotificationPayload{
		EventID: "evt-1",
		Event:   OrderEventStatusChanged,
		OrderID: 7,
		UserID:  3,
		Status:  "shipped",
	})
	require.NoError(t, err)
	assert.Equal(t, TaskOrderNotification, task.Type())

	var decoded OrderNotificationPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, uint(7), decoded.OrderID)
	assert.Equal(t, "shipped", decoded.Status)
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	assert.Equal(t, "127.0.0.1:6379", opt.Addr)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, map[string]int{DefaultQueue: 1}, cfg.Queues)

	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: " redis ", Port: 6380, DB: 2, Concurrency: 4, Queues: map[string]int{"critical": 5}})
	assert.Equal(t, "redis:6380", opt.Addr)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 5, cfg.Queues["critical"])
}
