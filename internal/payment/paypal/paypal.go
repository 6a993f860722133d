package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid   = errors.New("paypal config invalid")
	ErrAuthFailed      = errors.New("paypal auth failed")
	ErrRequestFailed   = errors.New("paypal request failed")
	ErrResponseInvalid = errors.New("paypal response invalid")
)

const (
	defaultSandboxBaseURL = "https://api-m.sandbox.paypal.com"
	defaultTimeout        = 12 * time.Second

	// StatusCompleted 订单或捕获完成
	StatusCompleted = "COMPLETED"
)

// PayPal 不支持小数位的币种
var zeroDecimalCurrencies = map[string]struct{}{
	"HUF": {},
	"JPY": {},
	"TWD": {},
}

// Config PayPal 渠道配置。
type Config struct {
	ClientID     string `json:"client_id" mapstructure:"client_id"`
	ClientSecret string `json:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `json:"base_url" mapstructure:"base_url"`
	ReturnURL    string `json:"return_url" mapstructure:"return_url"`
	CancelURL    string `json:"cancel_url" mapstructure:"cancel_url"`
	BrandName    string `json:"brand_name" mapstructure:"brand_name"`
}

// OrderInput 创建 PayPal 订单输入，金额为最小货币单位。
type OrderInput struct {
	Reference   string
	AmountMinor int64
	Currency    string
	Description string
}

// Order PayPal 订单。
type Order struct {
	ID         string
	ApproveURL string
	Status     string
}

// Capture 捕获结果，金额已换算为最小货币单位。
type Capture struct {
	OrderID     string
	CaptureID   string
	Status      string
	AmountMinor int64
	Currency    string
	PaidAt      *time.Time
	Raw         map[string]interface{}
}

// Completed 捕获是否成功
func (c *Capture) Completed() bool {
	return c != nil && strings.EqualFold(c.Status, StatusCompleted)
}

// Normalize 规范化配置。
func (c *Config) Normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultSandboxBaseURL
	}
	c.ReturnURL = strings.TrimSpace(c.ReturnURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
	c.BrandName = strings.TrimSpace(c.BrandName)
}

// Enabled 是否已配置凭证
func (c *Config) Enabled() bool {
	return c != nil && strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if !cfg.Enabled() {
		return fmt.Errorf("%w: client_id and client_secret are required", ErrConfigInvalid)
	}
	for name, raw := range map[string]string{
		"base_url":   cfg.BaseURL,
		"return_url": cfg.ReturnURL,
		"cancel_url": cfg.CancelURL,
	} {
		if strings.TrimSpace(raw) == "" {
			return fmt.Errorf("%w: %s is required", ErrConfigInvalid, name)
		}
		if _, err := url.ParseRequestURI(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("%w: %s is invalid", ErrConfigInvalid, name)
		}
	}
	return nil
}

// CreateOrder 创建 intent=CAPTURE 的 PayPal 订单并返回买家授权链接。
func CreateOrder(ctx context.Context, cfg *Config, input OrderInput) (*Order, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if strings.TrimSpace(input.Reference) == "" || input.AmountMinor <= 0 || currency == "" {
		return nil, fmt.Errorf("%w: order input is invalid", ErrConfigInvalid)
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	appContext := map[string]string{
		"return_url":          cfg.ReturnURL,
		"cancel_url":          cfg.CancelURL,
		"user_action":         "PAY_NOW",
		"shipping_preference": "NO_SHIPPING",
	}
	if cfg.BrandName != "" {
		appContext["brand_name"] = cfg.BrandName
	}
	payload := map[string]interface{}{
		"intent": "CAPTURE",
		"purchase_units": []map[string]interface{}{
			{
				"reference_id": input.Reference,
				"invoice_id":   input.Reference,
				"amount": map[string]string{
					"currency_code": currency,
					"value":         FormatAmount(input.AmountMinor, currency),
				},
				"description": strings.TrimSpace(input.Description),
			},
		},
		"application_context": appContext,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request failed", ErrRequestFailed)
	}

	raw, err := callAPI(ctx, cfg, http.MethodPost, "/v2/checkout/orders", token, body)
	if err != nil {
		return nil, err
	}
	order := &Order{
		ID:         strings.TrimSpace(readString(raw, "id")),
		Status:     strings.TrimSpace(readString(raw, "status")),
		ApproveURL: extractLinkByRel(raw, "approve"),
	}
	if order.ID == "" || order.ApproveURL == "" {
		return nil, fmt.Errorf("%w: missing order id or approve url", ErrResponseInvalid)
	}
	return order, nil
}

// CaptureOrder 捕获买家已授权的 PayPal 订单。
func CaptureOrder(ctx context.Context, cfg *Config, orderID string) (*Capture, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, fmt.Errorf("%w: order id is empty", ErrConfigInvalid)
	}

	token, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}
	endpoint := "/v2/checkout/orders/" + url.PathEscape(orderID) + "/capture"
	raw, err := callAPI(ctx, cfg, http.MethodPost, endpoint, token, []byte("{}"))
	if err != nil {
		return nil, err
	}

	result := &Capture{
		OrderID: strings.TrimSpace(readString(raw, "id")),
		Status:  strings.TrimSpace(readString(raw, "status")),
		Raw:     raw,
	}
	captures := readArray(raw, "purchase_units", "0", "payments", "captures")
	if len(captures) > 0 {
		if captureMap, ok := captures[0].(map[string]interface{}); ok {
			result.CaptureID = strings.TrimSpace(readString(captureMap, "id"))
			if status := strings.TrimSpace(readString(captureMap, "status")); status != "" {
				result.Status = status
			}
			result.Currency = strings.ToUpper(strings.TrimSpace(readString(captureMap, "amount", "currency_code")))
			minor, err := ParseAmount(readString(captureMap, "amount", "value"), result.Currency)
			if err != nil {
				return nil, err
			}
			result.AmountMinor = minor
			if rawTime := strings.TrimSpace(readString(captureMap, "create_time")); rawTime != "" {
				if parsed, err := time.Parse(time.RFC3339, rawTime); err == nil {
					result.PaidAt = &parsed
				}
			}
		}
	}
	if result.OrderID == "" {
		result.OrderID = orderID
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing capture status", ErrResponseInvalid)
	}
	return result, nil
}

// FormatAmount 将最小货币单位转换为 PayPal 金额字符串
func FormatAmount(minor int64, currency string) string {
	scale := amountScale(currency)
	return decimal.New(minor, -scale).StringFixed(scale)
}

// ParseAmount 将 PayPal 金额字符串转换为最小货币单位
func ParseAmount(value, currency string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("%w: amount is empty", ErrResponseInvalid)
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("%w: amount is invalid", ErrResponseInvalid)
	}
	shifted := parsed.Shift(amountScale(currency))
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%w: amount precision exceeds currency", ErrResponseInvalid)
	}
	return shifted.IntPart(), nil
}

func amountScale(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

func getAccessToken(ctx context.Context, cfg *Config) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	values := url.Values{}
	values.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+"/v1/oauth2/token", strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: request token failed", ErrAuthFailed)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, resp.StatusCode)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	token := strings.TrimSpace(readString(parsed, "access_token"))
	if token == "" {
		return "", fmt.Errorf("%w: access_token is empty", ErrAuthFailed)
	}
	return token, nil
}

// callAPI 发送 JSON 请求并解码为 map，非 2xx 视为响应错误
func callAPI(ctx context.Context, cfg *Config, method, endpoint, token string, body []byte) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := withDefaultTimeout(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request failed", ErrRequestFailed)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response failed", ErrRequestFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s %s status %d", ErrResponseInvalid, method, endpoint, resp.StatusCode)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(respBody, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func withDefaultTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}

func extractLinkByRel(raw map[string]interface{}, rel string) string {
	links, _ := raw["links"].([]interface{})
	for _, item := range links {
		link, ok := item.(map[string]interface{})
		if !ok || !strings.EqualFold(readString(link, "rel"), rel) {
			continue
		}
		if href := strings.TrimSpace(readString(link, "href")); href != "" {
			return href
		}
	}
	return ""
}

// walk 按路径读取嵌套 JSON，数字段表示数组下标
func walk(raw map[string]interface{}, path ...string) interface{} {
	var current interface{} = raw
	for _, seg := range path {
		if idx, err := strconv.Atoi(seg); err == nil {
			arr, ok := current.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return nil
			}
			current = arr[idx]
			continue
		}
		next, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = next[seg]
	}
	return current
}

func readString(raw map[string]interface{}, path ...string) string {
	switch v := walk(raw, path...).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func readArray(raw map[string]interface{}, path ...string) []interface{} {
	arr, _ := walk(raw, path...).([]interface{})
	return arr
}
