package worker

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/toolshelf/internal/config"
	"github.com/toolshelf/internal/logger"
	"github.com/toolshelf/internal/queue"
)

const (
	// SignatureHeader Webhook 签名头，值为 HMAC-SHA256(secret, body) 的十六进制
	SignatureHeader = "X-Toolshelf-Signature"
	// EventHeader 事件类型头
	EventHeader = "X-Toolshelf-Event"

	defaultWebhookTimeout = 10 * time.Second
)

// Deliverer 通知投递
type Deliverer interface {
	Deliver(ctx context.Context, payload queue.NotificationPayload) error
}

// NewDeliverer 按配置选择投递方式：配置了 webhook 地址时走 HTTP，否则记录日志
func NewDeliverer(cfg config.NotifyConfig) Deliverer {
	if strings.TrimSpace(cfg.WebhookURL) == "" {
		return LogDeliverer{}
	}
	timeout := defaultWebhookTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &WebhookDeliverer{
		url:    strings.TrimSpace(cfg.WebhookURL),
		secret: cfg.WebhookSecret,
		client: &http.Client{Timeout: timeout},
	}
}

// LogDeliverer 仅记录日志
type LogDeliverer struct{}

// Deliver 实现 Deliverer
func (LogDeliverer) Deliver(_ context.Context, payload queue.NotificationPayload) error {
	logger.Infow("settlement_notification",
		"event_id", payload.EventID,
		"event_type", payload.EventType,
		"payload", payload.Payload,
	)
	return nil
}

// WebhookDeliverer 以 JSON POST 投递到外部 webhook
type WebhookDeliverer struct {
	url    string
	secret string
	client *http.Client
}

// Deliver 实现 Deliverer，非 2xx 返回错误由队列重试
func (d *WebhookDeliverer) Deliver(ctx context.Context, payload queue.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification failed: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(EventHeader, payload.EventType)
	if d.secret != "" {
		req.Header.Set(SignatureHeader, SignBody(d.secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}

// SignBody 计算 webhook 签名
func SignBody(secret string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
