package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("razorpay config invalid")
	ErrRequestFailed    = errors.New("razorpay request failed")
	ErrResponseInvalid  = errors.New("razorpay response invalid")
	ErrSignatureInvalid = errors.New("razorpay signature invalid")
)

const (
	defaultAPIBaseURL = "https://api.razorpay.com"
	defaultTimeout    = 12 * time.Second

	// PaymentStatusCaptured 支付已捕获
	PaymentStatusCaptured = "captured"
	// PaymentStatusAuthorized 已授权待捕获
	PaymentStatusAuthorized = "authorized"
)

// Config Razorpay 渠道配置。
type Config struct {
	KeyID      string `json:"key_id" mapstructure:"key_id"`
	KeySecret  string `json:"key_secret" mapstructure:"key_secret"`
	APIBaseURL string `json:"api_base_url" mapstructure:"api_base_url"`
}

// OrderInput 创建订单输入，金额为最小货币单位（INR 为 paise）。
type OrderInput struct {
	Receipt     string
	AmountMinor int64
	Currency    string
	Notes       map[string]string
}

// Order Razorpay 订单。
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Payment Razorpay 支付记录。
type Payment struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Captured  bool   `json:"captured"`
	Method    string `json:"method"`
	CreatedAt int64  `json:"created_at"`
}

// IsCaptured 支付是否已完成捕获
func (p *Payment) IsCaptured() bool {
	return p != nil && (p.Captured || strings.EqualFold(p.Status, PaymentStatusCaptured))
}

type apiError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Normalize 规范化配置。
func (c *Config) Normalize() {
	c.KeyID = strings.TrimSpace(c.KeyID)
	c.KeySecret = strings.TrimSpace(c.KeySecret)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
}

// Enabled 是否已配置密钥
func (c *Config) Enabled() bool {
	return c != nil && strings.TrimSpace(c.KeyID) != "" && strings.TrimSpace(c.KeySecret) != ""
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeyID) == "" {
		return fmt.Errorf("%w: key_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.APIBaseURL)); err != nil {
		return fmt.Errorf("%w: api_base_url is invalid", ErrConfigInvalid)
	}
	return nil
}

// CreateOrder 创建 Razorpay 订单。
func CreateOrder(ctx context.Context, cfg *Config, input OrderInput) (*Order, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if input.AmountMinor <= 0 || currency == "" {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}
	payload := map[string]interface{}{
		"amount":          input.AmountMinor,
		"currency":        currency,
		"receipt":         strings.TrimSpace(input.Receipt),
		"payment_capture": 1, // 买家授权后自动捕获
	}
	if len(input.Notes) > 0 {
		payload["notes"] = input.Notes
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	var order Order
	if err := doJSONRequest(ctx, cfg, http.MethodPost, "/v1/orders", body, &order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.ID) == "" {
		return nil, fmt.Errorf("%w: missing order id", ErrResponseInvalid)
	}
	return &order, nil
}

// FetchPayment 查询支付详情。
func FetchPayment(ctx context.Context, cfg *Config, paymentID string) (*Payment, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment id is empty", ErrConfigInvalid)
	}
	var payment Payment
	if err := doJSONRequest(ctx, cfg, http.MethodGet, "/v1/payments/"+url.PathEscape(paymentID), nil, &payment); err != nil {
		return nil, err
	}
	if payment.ID == "" || payment.Status == "" {
		return nil, fmt.Errorf("%w: missing payment id or status", ErrResponseInvalid)
	}
	return &payment, nil
}

// CapturePayment 捕获已授权的支付，金额须与授权金额一致。
func CapturePayment(ctx context.Context, cfg *Config, paymentID string, amountMinor int64, currency string) (*Payment, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	body, err := json.Marshal(map[string]interface{}{
		"amount":   amountMinor,
		"currency": strings.ToUpper(strings.TrimSpace(currency)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}
	var payment Payment
	endpoint := "/v1/payments/" + url.PathEscape(strings.TrimSpace(paymentID)) + "/capture"
	if err := doJSONRequest(ctx, cfg, http.MethodPost, endpoint, body, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// VerifySignature 校验 checkout 回传签名：HMAC_SHA256(key_secret, order_id|payment_id)。
func VerifySignature(cfg *Config, orderID, paymentID, signature string) error {
	if cfg == nil || strings.TrimSpace(cfg.KeySecret) == "" {
		return fmt.Errorf("%w: key_secret is required", ErrConfigInvalid)
	}
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.ToLower(strings.TrimSpace(signature))
	if orderID == "" || paymentID == "" || signature == "" {
		return ErrSignatureInvalid
	}
	expected := ComputeSignature(cfg.KeySecret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureInvalid
	}
	return nil
}

// ComputeSignature 计算订单支付签名（十六进制小写）
func ComputeSignature(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path string, body []byte, out interface{}) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.APIBaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.SetBasicAuth(cfg.KeyID, cfg.KeySecret)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := (&http.Client{Timeout: defaultTimeout}).Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		return fmt.Errorf("%w: %s %s status %d %s", ErrResponseInvalid, method, path, resp.StatusCode, apiErr.Error.Code)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return nil
}
