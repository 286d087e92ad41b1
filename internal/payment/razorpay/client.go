// Package razorpay is an HTTP client for a Razorpay-compatible payment gateway.
package razorpay

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

	"github.com/RaikyD/food-orders-service/internal/payment"
)

const ProviderName = "razorpay"

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	timeout   time.Duration
	http      *http.Client
}

var _ payment.Gateway = (*Client)(nil)

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		timeout:   timeout,
		http:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) Provider() string {
	return ProviderName
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type refundRequest struct {
	Amount int64             `json:"amount"`
	Notes  map[string]string `json:"notes,omitempty"`
}

type refundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// APIError is a non-2xx answer from the gateway.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d %s: %s", e.StatusCode, e.Code, e.Description)
}

func (c *Client) CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.RemoteOrder, error) {
	body := orderRequest{
		Amount:   payment.ToMinorUnits(req.Amount),
		Currency: req.Currency,
		Receipt:  req.Receipt,
		Notes:    req.Notes,
	}
	var out orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &payment.RemoteOrder{
		ID:       out.ID,
		Amount:   payment.FromMinorUnits(out.Amount),
		Currency: out.Currency,
		Receipt:  out.Receipt,
		Status:   out.Status,
	}, nil
}

func (c *Client) VerifySignature(ctx context.Context, remoteOrderID, paymentID, signature string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return payment.VerifySignature(c.keySecret, remoteOrderID, paymentID, signature), nil
}

func (c *Client) Refund(ctx context.Context, paymentID string, amount float64, notes map[string]string) (*payment.Refund, error) {
	if paymentID == "" {
		return nil, errors.New("refund: payment id is empty")
	}
	body := refundRequest{
		Amount: payment.ToMinorUnits(amount),
		Notes:  notes,
	}
	var out refundResponse
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &out); err != nil {
		return nil, fmt.Errorf("refund %s: %w", paymentID, err)
	}
	return &payment.Refund{
		ID:        out.ID,
		PaymentID: out.PaymentID,
		Amount:    payment.FromMinorUnits(out.Amount),
		Status:    out.Status,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Code = er.Error.Code
			apiErr.Description = er.Error.Description
		}
		return apiErr
	}

	return json.Unmarshal(raw, out)
}
