package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bazaar-next/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFallsBackToLogNotifier(t *testing.T) {
	assert.IsType(t, LogNotifier{}, New(nil))
	assert.IsType(t, LogNotifier{}, New(&config.NotificationConfig{Enabled: true}))
	assert.IsType(t, &GatewayNotifier{}, New(&config.NotificationConfig{Enabled: true, GatewayURL: "http://push.local"}))
}

func TestGatewayNotifierSendsDedupedTokens(t *testing.T) {
	var received gatewayRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	notifier := NewGatewayNotifier(server.URL, "secret", 0)
	err := notifier.Notify(context.Background(), []string{"a", " a ", "", "b"}, Notification{
		Title: "Order shipped",
		Body:  "ORD-2026-001",
		Data:  map[string]string{"order_id": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, []string{"a", "b"}, received.Tokens)
	assert.Equal(t, "Order shipped", received.Notification.Title)
}

func TestGatewayNotifierSkipsWithoutTokens(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	require.NoError(t, NewGatewayNotifier(server.URL, "", 0).Notify(context.Background(), nil, Notification{}))
	assert.False(t, called)
}

func TestGatewayNotifierReportsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := NewGatewayNotifier(server.URL, "", 0).Notify(context.Background(), []string{"t"}, Notification{Title: "x"})
	assert.True(t, errors.Is(err, ErrResponseFailed))

	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"invalid token"}`))
	}))
	defer rejecting.Close()
	err = NewGatewayNotifier(rejecting.URL, "", 0).Notify(context.Background(), []string{"t"}, Notification{Title: "x"})
	assert.True(t, errors.Is(err, ErrResponseFailed))
}
