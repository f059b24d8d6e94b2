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
)

// OrderStatusCompleted 捕获完成状态。
const OrderStatusCompleted = "COMPLETED"

// Config PayPal 支付配置。
type Config struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	BaseURL      string `json:"base_url"`
}

// CaptureResult 订单捕获结果。
type CaptureResult struct {
	OrderID   string
	CaptureID string
	Status    string
	Amount    string
	Currency  string
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// OrderDetail 订单查询结果。
type OrderDetail struct {
	OrderID   string
	Status    string
	CaptureID string
	PaidAt    *time.Time
	Raw       map[string]interface{}
}

// Normalize 规整配置默认值。
func (c *Config) Normalize() {
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultSandboxBaseURL
	}
}

// ValidateConfig 校验配置。
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientID) == "" {
		return fmt.Errorf("%w: client_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ClientSecret) == "" {
		return fmt.Errorf("%w: client_secret is required", ErrConfigInvalid)
	}
	if cfg.BaseURL != "" {
		if _, err := url.ParseRequestURI(strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")); err != nil {
			return fmt.Errorf("%w: base_url is invalid", ErrConfigInvalid)
		}
	}
	return nil
}

// CaptureOrder 捕获前端已创建并批准的 PayPal 订单。
func CaptureOrder(ctx context.Context, cfg *Config, paypalOrderID string) (*CaptureResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)
	if paypalOrderID == "" {
		return nil, fmt.Errorf("%w: paypal order id is required", ErrConfigInvalid)
	}

	accessToken, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	path := "/v2/checkout/orders/" + url.PathEscape(paypalOrderID) + "/capture"
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodPost, path, accessToken, []byte("{}"))
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: capture order status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	result := &CaptureResult{Raw: raw}
	result.OrderID = strings.TrimSpace(readString(raw, "id"))
	result.Status = strings.ToUpper(strings.TrimSpace(readString(raw, "status")))
	if result.OrderID == "" {
		result.OrderID = paypalOrderID
	}

	if capture := firstCapture(raw); capture != nil {
		result.CaptureID = strings.TrimSpace(readString(capture, "id"))
		if captureStatus := strings.ToUpper(strings.TrimSpace(readString(capture, "status"))); captureStatus != "" {
			result.Status = captureStatus
		}
		if amount := readMap(capture, "amount"); amount != nil {
			result.Amount = strings.TrimSpace(readString(amount, "value"))
			result.Currency = strings.ToUpper(strings.TrimSpace(readString(amount, "currency_code")))
		}
		result.PaidAt = parseTimeValue(readString(capture, "create_time"))
	}
	if result.Status == "" {
		return nil, fmt.Errorf("%w: missing capture status", ErrResponseInvalid)
	}
	return result, nil
}

// GetOrder 查询 PayPal 订单当前状态，用于重复捕获时的恢复。
func GetOrder(ctx context.Context, cfg *Config, paypalOrderID string) (*OrderDetail, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	paypalOrderID = strings.TrimSpace(paypalOrderID)
	if paypalOrderID == "" {
		return nil, fmt.Errorf("%w: paypal order id is required", ErrConfigInvalid)
	}

	accessToken, err := getAccessToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	path := "/v2/checkout/orders/" + url.PathEscape(paypalOrderID)
	respBody, statusCode, err := doJSONRequest(ctx, cfg, http.MethodGet, path, accessToken, nil)
	if err != nil {
		return nil, err
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, fmt.Errorf("%w: get order status %d", ErrResponseInvalid, statusCode)
	}

	raw, err := decodeRawMap(respBody)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Raw: raw}
	detail.OrderID = strings.TrimSpace(readString(raw, "id"))
	detail.Status = strings.ToUpper(strings.TrimSpace(readString(raw, "status")))
	if detail.OrderID == "" {
		detail.OrderID = paypalOrderID
	}
	if detail.Status == "" {
		return nil, fmt.Errorf("%w: missing order status", ErrResponseInvalid)
	}
	if capture := firstCapture(raw); capture != nil {
		detail.CaptureID = strings.TrimSpace(readString(capture, "id"))
		detail.PaidAt = parseTimeValue(readString(capture, "create_time"))
	}
	return detail, nil
}

// firstCapture 提取 purchase_units[0].payments.captures[0]。
func firstCapture(raw map[string]interface{}) map[string]interface{} {
	captures := readArray(raw, "purchase_units", "0", "payments", "captures")
	if len(captures) == 0 {
		return nil
	}
	capture, ok := captures[0].(map[string]interface{})
	if !ok {
		return nil
	}
	return capture
}

func getAccessToken(ctx context.Context, cfg *Config) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := baseURL(cfg) + "/v1/oauth2/token"
	form := url.Values{}
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: build token request failed", ErrAuthFailed)
	}
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := (&http.Client{Timeout: withDefaultTimeout(0)}).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read token response failed", ErrAuthFailed)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: token status %d", ErrAuthFailed, resp.StatusCode)
	}

	raw, err := decodeRawMap(body)
	if err != nil {
		return "", fmt.Errorf("%w: decode token response failed", ErrAuthFailed)
	}
	accessToken := strings.TrimSpace(readString(raw, "access_token"))
	if accessToken == "" {
		return "", fmt.Errorf("%w: access_token is missing", ErrAuthFailed)
	}
	return accessToken, nil
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path, accessToken string, body []byte) ([]byte, int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := baseURL(cfg) + path

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request failed", ErrRequestFailed)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := (&http.Client{Timeout: withDefaultTimeout(0)}).Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response failed", ErrResponseInvalid)
	}
	return respBody, resp.StatusCode, nil
}

func baseURL(cfg *Config) string {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return defaultSandboxBaseURL
	}
	return base
}

func withDefaultTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return defaultTimeout
	}
	return timeout
}

func decodeRawMap(body []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: decode response failed", ErrResponseInvalid)
	}
	return raw, nil
}

func parseTimeValue(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	return &parsed
}

func readString(raw map[string]interface{}, key string) string {
	if raw == nil || strings.TrimSpace(key) == "" {
		return ""
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return ""
	}
	switch typed := value.(type) {
	case string:
		return strings.TrimSpace(typed)
	case json.Number:
		return strings.TrimSpace(typed.String())
	case float64:
		return strings.TrimSpace(strconv.FormatInt(int64(typed), 10))
	default:
		return ""
	}
}

func readMap(raw map[string]interface{}, key string) map[string]interface{} {
	if raw == nil || strings.TrimSpace(key) == "" {
		return nil
	}
	value, ok := raw[key]
	if !ok || value == nil {
		return nil
	}
	mapped, ok := value.(map[string]interface{})
	if !ok {
		return nil
	}
	return mapped
}

// readArray 支持数字下标的路径读取，例如 readArray(raw, "purchase_units", "0", "payments", "captures")。
func readArray(raw map[string]interface{}, path ...string) []interface{} {
	if raw == nil || len(path) == 0 {
		return nil
	}
	var current interface{} = raw
	for _, segment := range path {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil
		}
		switch typed := current.(type) {
		case map[string]interface{}:
			next, ok := typed[segment]
			if !ok || next == nil {
				return nil
			}
			current = next
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(typed) {
				return nil
			}
			current = typed[index]
		default:
			return nil
		}
	}
	array, ok := current.([]interface{})
	if !ok {
		return nil
	}
	return array
}
