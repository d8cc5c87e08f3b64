package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bazaar-next/internal/config"
	"github.com/bazaar-next/internal/logger"
)

var (
	ErrConfigInvalid  = errors.New("push gateway config invalid")
	ErrRequestFailed  = errors.New("push gateway request failed")
	ErrResponseFailed = errors.New("push gateway rejected notification")
)

const defaultTimeout = 3 * time.Second

// Notification 推送内容
type Notification struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Notifier 推送发送接口
type Notifier interface {
	Notify(ctx context.Context, tokens []string, notification Notification) error
}

// New 根据配置创建推送发送器，未启用或未配置网关时仅记录日志
func New(cfg *config.NotificationConfig) Notifier {
	if cfg == nil || !cfg.Enabled || strings.TrimSpace(cfg.GatewayURL) == "" {
		return LogNotifier{}
	}
	return NewGatewayNotifier(cfg.GatewayURL, cfg.APIKey, time.Duration(cfg.TimeoutMS)*time.Millisecond)
}

// GatewayNotifier 通过 HTTP 推送网关发送通知
type GatewayNotifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewGatewayNotifier 创建网关推送发送器
func NewGatewayNotifier(endpoint, apiKey string, timeout time.Duration) *GatewayNotifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GatewayNotifier{
		endpoint: strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		apiKey:   strings.TrimSpace(apiKey),
		client:   &http.Client{Timeout: timeout},
	}
}

type gatewayRequest struct {
	Tokens       []string     `json:"tokens"`
	Notification Notification `json:"notification"`
}

type gatewayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Notify 发送推送，令牌为空时直接返回
func (n *GatewayNotifier) Notify(ctx context.Context, tokens []string, notification Notification) error {
	if n == nil || n.endpoint == "" {
		return ErrConfigInvalid
	}
	tokens = compactTokens(tokens)
	if len(tokens) == 0 {
		return nil
	}
	body, err := json.Marshal(gatewayRequest{Tokens: tokens, Notification: notification})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if n.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+n.apiKey)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrResponseFailed, resp.StatusCode)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var parsed gatewayResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	if !parsed.Success && parsed.Message != "" {
		return fmt.Errorf("%w: %s", ErrResponseFailed, parsed.Message)
	}
	return nil
}

// LogNotifier 仅写日志的推送实现
type LogNotifier struct{}

// Notify 记录推送内容
func (LogNotifier) Notify(ctx context.Context, tokens []string, notification Notification) error {
	logger.FromContext(ctx).Infow("push_notification_skipped",
		"reason", "gateway_disabled",
		"token_count", len(tokens),
		"title", notification.Title,
	)
	return nil
}

func compactTokens(tokens []string) []string {
	result := make([]string, 0, len(tokens))
	seen := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if _, ok := seen[token]; ok {
			continue
		}
		seen[token] = struct{}{}
		result = append(result, token)
	}
	return result
}
