package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
)

const (
	EventOrderCreated    = "order.created"
	EventStatusChanged   = "order.status_changed"
	EventPaymentVerified = "order.payment_verified"
	EventOrderRated      = "order.rated"
	EventRefundProcessed = "order.refund_processed"
	EventRefundFailed    = "order.refund_failed"
)

type OrderEvent struct {
	ID            uuid.UUID            `json:"id"`
	Type          string               `json:"type"`
	OrderID       uuid.UUID            `json:"orderId"`
	Status        domain.Status        `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	RefundStatus  *domain.RefundStatus `json:"refundStatus,omitempty"`
	OccurredAt    time.Time            `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev OrderEvent) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, OrderEvent) error { return nil }

func newEvent(typ string, o *domain.Order, at time.Time) OrderEvent {
	ev := OrderEvent{
		ID:            uuid.New(),
		Type:          typ,
		OrderID:       o.ID,
		Status:        o.OrderStatus,
		PaymentStatus: o.PaymentStatus,
		OccurredAt:    at,
	}
	if o.Cancellation != nil && o.Cancellation.RefundStatus != nil {
		rs := *o.Cancellation.RefundStatus
		ev.RefundStatus = &rs
	}
	return ev
}

// publish never fails the caller; lost events are only logged.
func (s *OrdersService) publish(ctx context.Context, typ string, o *domain.Order) {
	if err := s.events.Publish(ctx, newEvent(typ, o, s.now())); err != nil {
		logger.Warn("publish order event failed", "type", typ, "order_id", o.ID, "err", err)
	}
}
