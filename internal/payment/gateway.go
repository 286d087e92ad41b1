// Package payment defines the contract the order service uses to talk to an
// external payment gateway, plus the signature scheme shared with it.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/shopspring/decimal"
)

type Gateway interface {
	// CreateOrder registers a payment intent and returns the gateway's order.
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*RemoteOrder, error)
	// VerifySignature checks the signature the client received after paying.
	VerifySignature(ctx context.Context, remoteOrderID, paymentID, signature string) (bool, error)
	// Refund returns amount from a captured payment.
	Refund(ctx context.Context, paymentID string, amount float64, notes map[string]string) (*Refund, error)
	// Provider names the gateway, stored on the order's payment details.
	Provider() string
}

type CreateOrderRequest struct {
	Amount   float64
	Currency string
	Receipt  string
	Notes    map[string]string
}

type RemoteOrder struct {
	ID       string  `json:"id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Receipt  string  `json:"receipt"`
	Status   string  `json:"status"`
}

type Refund struct {
	ID        string  `json:"id"`
	PaymentID string  `json:"paymentId"`
	Amount    float64 `json:"amount"`
	Status    string  `json:"status"`
}

// Sign returns hex(HMAC-SHA256(secret, remoteOrderID + "|" + paymentID)).
func Sign(secret, remoteOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(remoteOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares in constant time.
func VerifySignature(secret, remoteOrderID, paymentID, signature string) bool {
	expected := Sign(secret, remoteOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ToMinorUnits converts a major-unit amount (rupees) into minor units (paise).
func ToMinorUnits(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func FromMinorUnits(amount int64) float64 {
	return decimal.New(amount, -2).InexactFloat64()
}
