package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSignature = errors.New("invalid payment signature")
	ErrNotDelivered     = errors.New("only delivered orders can be rated")
	ErrAlreadyRated     = errors.New("order has already been rated")
)

// ValidationError is a request that is malformed or contradicts a business rule.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	if e.Message == "" {
		return "not authorized"
	}
	return e.Message
}

type InvalidTransitionError struct {
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.Current, e.Requested)
}

// ConcurrencyConflictError means the order changed after it was read. Callers may retry.
type ConcurrencyConflictError struct {
	OrderID string
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("order %s was modified concurrently", e.OrderID)
}

type GatewayOp string

const (
	OpCreateOrder     GatewayOp = "create_order"
	OpVerifySignature GatewayOp = "verify_signature"
	OpRefund          GatewayOp = "refund"
)

type PaymentGatewayError struct {
	Op        GatewayOp
	Retryable bool
	Err       error
}

func (e *PaymentGatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *PaymentGatewayError) Unwrap() error {
	return e.Err
}
