package razorpay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/food-orders-service/internal/payment"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", KeyID: "key", KeySecret: "secret", Timeout: timeout})
}

func TestClient_CreateOrder(t *testing.T) {
	var got orderRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(orderResponse{
			ID: "order_abc", Amount: got.Amount, Currency: got.Currency, Receipt: got.Receipt, Status: "created",
		})
	}, time.Second)

	out, err := client.CreateOrder(context.Background(), payment.CreateOrderRequest{
		Amount: 335, Currency: "INR", Receipt: "rcpt-1", Notes: map[string]string{"orderId": "o1"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(33500), got.Amount)
	assert.Equal(t, "o1", got.Notes["orderId"])
	assert.Equal(t, "order_abc", out.ID)
	assert.Equal(t, 335.0, out.Amount)
	assert.Equal(t, "created", out.Status)
}

func TestClient_CreateOrderAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	}, time.Second)

	_, err := client.CreateOrder(context.Background(), payment.CreateOrderRequest{Amount: 0.1, Currency: "INR"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "amount too small", apiErr.Description)
}

func TestClient_RefundTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, 50*time.Millisecond)

	_, err := client.Refund(context.Background(), "pay_1", 10, nil)
	require.Error(t, err)
}

func TestClient_Refund(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/refund", r.URL.Path)
		var in refundRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(refundResponse{ID: "rfnd_1", PaymentID: "pay_1", Amount: in.Amount, Status: "processed"})
	}, time.Second)

	out, err := client.Refund(context.Background(), "pay_1", 335, map[string]string{"reason": "Changed mind"})
	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", out.ID)
	assert.Equal(t, 335.0, out.Amount)
}

func TestClient_VerifySignature(t *testing.T) {
	client := NewClient(Config{KeySecret: "secret"})
	sig := payment.Sign("secret", "order_1", "pay_1")

	ok, err := client.VerifySignature(context.Background(), "order_1", "pay_1", sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.VerifySignature(context.Background(), "order_1", "pay_2", sig)
	require.NoError(t, err)
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.VerifySignature(ctx, "order_1", "pay_1", sig)
	assert.ErrorIs(t, err, context.Canceled)
}
