package application

import (
	"context"
	"strings"
	"time"

	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/payment"
)

// Relation is how the caller relates to a particular order.
type Relation string

const (
	RelationNone     Relation = ""
	RelationCustomer Relation = "customer"
	RelationVendor   Relation = "vendor"
	RelationDelivery Relation = "delivery"
	RelationAdmin    Relation = "admin"
	// RelationSystem is used by internal flows such as payment verification.
	RelationSystem Relation = "system"
)

type Actor struct {
	ID       string
	Relation Relation
}

var systemActor = Actor{ID: "system", Relation: RelationSystem}

// transitionRoles says which relations may move an order into each target status.
var transitionRoles = map[domain.Status]map[Relation]struct{}{
	domain.StatusConfirmed:      relations(RelationVendor, RelationAdmin, RelationSystem),
	domain.StatusPreparing:      relations(RelationVendor, RelationAdmin),
	domain.StatusReady:          relations(RelationVendor, RelationAdmin),
	domain.StatusOutForDelivery: relations(RelationDelivery, RelationAdmin, RelationSystem),
	domain.StatusDelivered:      relations(RelationDelivery, RelationAdmin, RelationSystem),
	domain.StatusCancelled:      relations(RelationCustomer, RelationVendor, RelationAdmin, RelationSystem),
}

func relations(rs ...Relation) map[Relation]struct{} {
	m := make(map[Relation]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}

func authorizeTransition(a Actor, target domain.Status) error {
	if _, ok := transitionRoles[target][a.Relation]; !ok {
		return &domain.AuthorizationError{Message: "not allowed to mark order " + string(target)}
	}
	return nil
}

type Transition struct {
	Target   domain.Status
	Reason   string
	Location string
	Actor    Actor
}

type StateMachine struct {
	gateway       payment.Gateway
	prepTime      time.Duration
	deliveryTime  time.Duration
	refundTimeout time.Duration
	now           func() time.Time
}

func NewStateMachine(gw payment.Gateway, prep, delivery, refundTimeout time.Duration, now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{
		gateway:       gw,
		prepTime:      prep,
		deliveryTime:  delivery,
		refundTimeout: refundTimeout,
		now:           now,
	}
}

// Apply validates tr against the transition table and mutates o in place.
// It performs no I/O. The returned flag is true when a refund was opened
// and must be settled with SettleRefund once the transition is persisted.
func (m *StateMachine) Apply(o *domain.Order, tr Transition) (bool, error) {
	if err := domain.CheckTransition(o.OrderStatus, tr.Target); err != nil {
		return false, err
	}
	now := m.now().UTC()
	refund := false

	switch tr.Target {
	case domain.StatusConfirmed:
		if o.EstimatedDeliveryTime == nil {
			eta := now.Add(m.prepTime + m.deliveryTime)
			o.EstimatedDeliveryTime = &eta
		}
	case domain.StatusOutForDelivery:
		if tr.Actor.Relation == RelationDelivery && o.DeliveryPersonID == "" {
			o.DeliveryPersonID = tr.Actor.ID
		}
		o.DeliveryTracking = append(o.DeliveryTracking, domain.TrackingEvent{
			Status:      domain.TrackingPickedUp,
			Description: "Order picked up for delivery",
			Location:    tr.Location,
			Timestamp:   now,
		})
		o.DeliveryStatus = domain.DeliveryInTransit
	case domain.StatusDelivered:
		o.DeliveryTracking = append(o.DeliveryTracking, domain.TrackingEvent{
			Status:      domain.TrackingDelivered,
			Description: "Order delivered",
			Location:    tr.Location,
			Timestamp:   now,
		})
		o.DeliveryStatus = domain.DeliveryDelivered
	case domain.StatusCancelled:
		reason := strings.TrimSpace(tr.Reason)
		if reason == "" {
			return false, domain.NewValidationError("cancellation reason is required")
		}
		o.Cancellation = &domain.Cancellation{
			Reason:      reason,
			CancelledBy: cancelledBy(tr.Actor),
		}
		refund = m.openRefund(o)
	}

	o.OrderStatus = tr.Target
	o.UpdatedAt = now
	return refund, nil
}

// openRefund records a pending refund for paid orders.
func (m *StateMachine) openRefund(o *domain.Order) bool {
	if o.PaymentStatus != domain.PaymentPaid {
		o.Cancellation.RefundAmount = 0
		o.Cancellation.RefundStatus = nil
		return false
	}
	o.Cancellation.RefundAmount = o.Pricing.TotalAmount
	o.Cancellation.RefundStatus = domain.RefundStatusPtr(domain.RefundPending)
	return true
}

func cancelledBy(a Actor) domain.CancelledBy {
	switch a.Relation {
	case RelationAdmin, RelationSystem:
		return domain.CancelledBySystem
	case RelationCustomer:
		return domain.CancelledByUser
	default:
		return domain.CancelledByVendor
	}
}

type RefundOutcome struct {
	Refund *payment.Refund
	Err    error
}

// SettleRefund calls the gateway with a bounded timeout. Failures, timeouts
// included, come back inside the outcome and are never returned as errors.
func (m *StateMachine) SettleRefund(ctx context.Context, o *domain.Order) RefundOutcome {
	ctx, cancel := context.WithTimeout(ctx, m.refundTimeout)
	defer cancel()

	notes := map[string]string{
		"orderId": o.ID.String(),
		"reason":  o.Cancellation.Reason,
	}
	r, err := m.gateway.Refund(ctx, o.PaymentDetails.TransactionID, o.Cancellation.RefundAmount, notes)
	if err != nil {
		return RefundOutcome{Err: &domain.PaymentGatewayError{Op: domain.OpRefund, Retryable: true, Err: err}}
	}
	return RefundOutcome{Refund: r}
}

// ApplyRefundOutcome records the result of SettleRefund on the order.
func (m *StateMachine) ApplyRefundOutcome(o *domain.Order, out RefundOutcome) {
	o.Cancellation.RefundAttempts++
	if out.Err != nil {
		o.Cancellation.RefundStatus = domain.RefundStatusPtr(domain.RefundFailed)
	} else {
		o.Cancellation.RefundStatus = domain.RefundStatusPtr(domain.RefundProcessed)
		if out.Refund != nil {
			o.Cancellation.RefundID = out.Refund.ID
		}
		o.PaymentStatus = domain.PaymentRefunded
	}
	o.UpdatedAt = m.now().UTC()
}
