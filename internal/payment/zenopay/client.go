// Package zenopay is a client for the ZenoPay mobile money API (Tanzania).
package zenopay

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Payment statuses reported by the gateway.
const (
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
	StatusPending   = "PENDING"
)

// APIKeyHeader carries the merchant key on requests and webhooks.
const APIKeyHeader = "x-api-key"

const (
	createPath = "/api/payments/mobile_money_tanzania"
	statusPath = "/api/payments/order-status"
)

// ErrOrderNotFound is returned by OrderStatus when the gateway has no record of the order yet.
var ErrOrderNotFound = errors.New("zenopay: order not found")

// APIError is a non successful response from the gateway.
type APIError struct {
	StatusCode int
	ResultCode string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zenopay: http %d: %s %s", e.StatusCode, e.ResultCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MaxTries bounds attempts of idempotent calls. Zero means 3.
	MaxTries uint
}

type Client struct {
	baseURL  string
	apiKey   string
	http     *http.Client
	maxTries uint
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	tries := cfg.MaxTries
	if tries == 0 {
		tries = 3
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		maxTries: tries,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// CreateOrderRequest starts a USSD push to the buyer's phone.
type CreateOrderRequest struct {
	OrderID    string
	BuyerEmail string
	BuyerName  string
	BuyerPhone string
	Amount     decimal.Decimal
	WebhookURL string
}

type createOrderBody struct {
	OrderID    string `json:"order_id"`
	BuyerEmail string `json:"buyer_email"`
	BuyerName  string `json:"buyer_name"`
	BuyerPhone string `json:"buyer_phone"`
	Amount     int64  `json:"amount"`
	WebhookURL string `json:"webhook_url,omitempty"`
}

type CreateOrderResponse struct {
	Status     string `json:"status"`
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	OrderID    string `json:"order_id"`
}

// CreateOrder asks the gateway to collect Amount from BuyerPhone. It is not retried:
// a timeout may still have triggered the push. Only an *APIError that is not Temporary
// is a definite rejection; callers keep the session open for reconciliation otherwise.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderRequest) (*CreateOrderResponse, error) {
	body, err := json.Marshal(createOrderBody{
		OrderID:    in.OrderID,
		BuyerEmail: in.BuyerEmail,
		BuyerName:  in.BuyerName,
		BuyerPhone: in.BuyerPhone,
		Amount:     in.Amount.Round(0).IntPart(),
		WebhookURL: in.WebhookURL,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+createPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out CreateOrderResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if !strings.EqualFold(out.Status, "success") {
		return nil, &APIError{StatusCode: http.StatusOK, ResultCode: out.ResultCode, Message: out.Message}
	}
	return &out, nil
}

// OrderStatus is the gateway's view of one order.
type OrderStatus struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	Reference     string `json:"reference"`
	TransID       string `json:"transid"`
	Channel       string `json:"channel"`
	Amount        string `json:"amount"`
	MSISDN        string `json:"msisdn"`
}

type statusResponse struct {
	Result     string        `json:"result"`
	ResultCode string        `json:"resultcode"`
	Message    string        `json:"message"`
	Data       []OrderStatus `json:"data"`
}

// OrderStatus fetches the payment status of an order. Transport errors and 5xx
// responses are retried with exponential backoff.
func (c *Client) OrderStatus(ctx context.Context, orderID string) (*OrderStatus, error) {
	u := c.baseURL + statusPath + "?" + url.Values{"order_id": {orderID}}.Encode()

	op := func() (*statusResponse, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		var out statusResponse
		if err := c.do(req, &out); err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Temporary() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return &out, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 300 * time.Millisecond
	bo.MaxInterval = 3 * time.Second
	res, err := backoff.Retry(ctx, op, backoff.WithBackOff(bo), backoff.WithMaxTries(c.maxTries))
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		if res.Data[i].OrderID == orderID {
			st := res.Data[i]
			st.PaymentStatus = strings.ToUpper(st.PaymentStatus)
			return &st, nil
		}
	}
	return nil, ErrOrderNotFound
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set(APIKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("zenopay: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("zenopay: read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var body struct {
			ResultCode string `json:"resultcode"`
			Message    string `json:"message"`
		}
		if json.Unmarshal(raw, &body) == nil && body.Message != "" {
			apiErr.ResultCode, apiErr.Message = body.ResultCode, body.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			return errors.Join(ErrOrderNotFound, apiErr)
		}
		return apiErr
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("zenopay: decode response: %w", err)
	}
	return nil
}

// WebhookPayload is the body ZenoPay posts to the webhook URL.
type WebhookPayload struct {
	OrderID       string          `json:"order_id"`
	PaymentStatus string          `json:"payment_status"`
	Reference     string          `json:"reference"`
	TransID       string          `json:"transid,omitempty"`
	Channel       string          `json:"channel,omitempty"`
	Amount        string          `json:"amount,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// ParseWebhook decodes a webhook body and upper-cases its status.
func ParseWebhook(body []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("zenopay: decode webhook: %w", err)
	}
	if p.OrderID == "" {
		return nil, errors.New("zenopay: webhook without order_id")
	}
	p.PaymentStatus = strings.ToUpper(strings.TrimSpace(p.PaymentStatus))
	return &p, nil
}

// VerifyAPIKey compares a received webhook key against the merchant key in constant time.
func VerifyAPIKey(expected, got string) bool {
	if expected == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
