package application

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
	"github.com/RaikyD/food-orders-service/internal/payment"
	"github.com/RaikyD/food-orders-service/internal/pricing"
)

const (
	casRetries = 3
	// MaxRefundAttempts bounds automatic refund retries; beyond it a failed
	// refund waits for manual follow-up.
	MaxRefundAttempts = 5
)

type Dependencies struct {
	Orders  OrderRepository
	Catalog Catalog
	Vendors VendorDirectory
	Gateway payment.Gateway
	Events  EventPublisher
}

type Options struct {
	TaxRate            float64
	DefaultDeliveryFee float64
	PrepTime           time.Duration
	DeliveryTime       time.Duration
	GatewayTimeout     time.Duration
	Currency           string
	Now                func() time.Time
}

type OrdersService struct {
	repo     OrderRepository
	catalog  Catalog
	vendors  VendorDirectory
	gateway  payment.Gateway
	events   EventPublisher
	pricing  *pricing.Engine
	sm       *StateMachine
	ratings  *RatingAggregator
	timeout  time.Duration
	currency string
	now      func() time.Time
}

func NewOrdersService(d Dependencies, opts Options) *OrdersService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.GatewayTimeout <= 0 {
		opts.GatewayTimeout = 10 * time.Second
	}
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	events := d.Events
	if events == nil {
		events = nopPublisher{}
	}
	return &OrdersService{
		repo:     d.Orders,
		catalog:  d.Catalog,
		vendors:  d.Vendors,
		gateway:  d.Gateway,
		events:   events,
		pricing:  pricing.NewEngine(opts.TaxRate, opts.DefaultDeliveryFee),
		sm:       NewStateMachine(d.Gateway, opts.PrepTime, opts.DeliveryTime, opts.GatewayTimeout, opts.Now),
		ratings:  NewRatingAggregator(d.Orders, d.Vendors, opts.Now),
		timeout:  opts.GatewayTimeout,
		currency: opts.Currency,
		now:      opts.Now,
	}
}

type CreateOrderRequest struct {
	RestaurantID        string
	CloudKitchenID      string
	Items               []pricing.ItemRequest
	OrderType           domain.OrderType
	DeliveryAddress     string
	ContactPhone        string
	SpecialInstructions string
	ScheduledFor        *time.Time
	PaymentMethod       domain.PaymentMethod
	Tip                 float64
	Discount            domain.Discount
}

func (r CreateOrderRequest) vendorRef() (domain.VendorRef, error) {
	rid, kid := strings.TrimSpace(r.RestaurantID), strings.TrimSpace(r.CloudKitchenID)
	switch {
	case rid != "" && kid != "":
		return domain.VendorRef{}, domain.NewValidationError("choose either a restaurant or a cloud kitchen, not both")
	case rid != "":
		return domain.VendorRef{Type: domain.VendorRestaurant, ID: rid}, nil
	case kid != "":
		return domain.VendorRef{Type: domain.VendorCloudKitchen, ID: kid}, nil
	default:
		return domain.VendorRef{}, domain.NewValidationError("a restaurant or a cloud kitchen is required")
	}
}

// CreateResult carries the created order and, for online payments, either the
// gateway order or the warning explaining why it could not be created.
type CreateResult struct {
	Order        *domain.Order
	PaymentOrder *payment.RemoteOrder
	Warning      string
	PaymentError error
}

func (s *OrdersService) Create(ctx context.Context, p domain.Principal, req CreateOrderRequest) (*CreateResult, error) {
	if p.Role != domain.RoleCustomer {
		return nil, &domain.AuthorizationError{Message: "only customers can place orders"}
	}
	ref, err := req.vendorRef()
	if err != nil {
		return nil, err
	}
	if req.OrderType == "" {
		req.OrderType = domain.OrderDelivery
	}
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	vendor, err := s.vendors.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, domain.NewValidationError("%s %s is not accepting orders", ref.Type, ref.ID)
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.MenuItemID)
	}
	items, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return nil, err
	}

	priced, err := s.pricing.Price(pricing.Input{
		Items:             req.Items,
		Catalog:           items,
		Vendor:            ref,
		OrderType:         req.OrderType,
		VendorDeliveryFee: vendor.DeliveryFee,
		Tip:               req.Tip,
		Discount:          req.Discount,
	})
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	o := &domain.Order{
		ID:                  uuid.New(),
		CustomerID:          p.ID,
		Vendor:              ref,
		Items:               priced.Items,
		Pricing:             priced.Pricing,
		OrderType:           req.OrderType,
		DeliveryAddress:     req.DeliveryAddress,
		ContactPhone:        req.ContactPhone,
		SpecialInstructions: req.SpecialInstructions,
		ScheduledDelivery:   domain.Schedule{IsScheduled: req.ScheduledFor != nil, Time: req.ScheduledFor},
		PaymentMethod:       req.PaymentMethod,
		PaymentStatus:       domain.PaymentPending,
		OrderStatus:         domain.StatusPending,
		DeliveryTracking:    []domain.TrackingEvent{},
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		logger.Error("create order failed", "customer_id", p.ID, "err", err)
		return nil, err
	}
	logger.Info("order created", "order_id", o.ID, "total", o.Pricing.TotalAmount)
	s.publish(ctx, EventOrderCreated, o)

	res := &CreateResult{Order: o}
	if o.PaymentMethod != domain.PaymentCash {
		s.attachPaymentOrder(ctx, res)
	}
	return res, nil
}

// attachPaymentOrder creates the gateway order. Any failure leaves the order
// in place and is reported through res.Warning and res.PaymentError.
func (s *OrdersService) attachPaymentOrder(ctx context.Context, res *CreateResult) {
	o := res.Order
	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	remote, err := s.gateway.CreateOrder(gctx, payment.CreateOrderRequest{
		Amount:   o.Pricing.TotalAmount,
		Currency: s.currency,
		Receipt:  o.ID.String(),
		Notes:    map[string]string{"orderId": o.ID.String(), "customerId": o.CustomerID},
	})
	cancel()
	if err != nil {
		logger.Warn("payment order creation failed", "order_id", o.ID, "err", err)
		res.Warning = "order created but payment could not be initiated; retry payment"
		res.PaymentError = &domain.PaymentGatewayError{Op: domain.OpCreateOrder, Retryable: true, Err: err}
		return
	}
	res.PaymentOrder = remote

	updated := o.Clone()
	updated.PaymentDetails.RemoteOrderID = remote.ID
	updated.PaymentDetails.Provider = s.gateway.Provider()
	if err := s.repo.Update(ctx, updated, o.Version); err != nil {
		logger.Warn("store payment order id failed", "order_id", o.ID, "remote_order_id", remote.ID, "err", err)
		return
	}
	res.Order = updated
}

func validateCreate(req CreateOrderRequest) error {
	if len(req.Items) == 0 {
		return domain.NewValidationError("order must contain at least one item")
	}
	switch req.OrderType {
	case domain.OrderDelivery:
		if strings.TrimSpace(req.DeliveryAddress) == "" {
			return domain.NewValidationError("delivery address is required for delivery orders")
		}
	case domain.OrderPickup:
	default:
		return domain.NewValidationError("invalid order type %q", req.OrderType)
	}
	if strings.TrimSpace(req.ContactPhone) == "" {
		return domain.NewValidationError("contact phone is required")
	}
	if !req.PaymentMethod.Valid() {
		return domain.NewValidationError("invalid payment method %q", req.PaymentMethod)
	}
	return nil
}

// OrderView is an order with its vendor summary resolved.
type OrderView struct {
	Order  *domain.Order
	Vendor *VendorSummary
}

type VendorSummary struct {
	ID   string            `json:"id"`
	Type domain.VendorType `json:"type"`
	Name string            `json:"name"`
}

func (s *OrdersService) Get(ctx context.Context, p domain.Principal, id uuid.UUID) (*OrderView, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	vendor, rel, err := s.relationTo(ctx, p, o)
	if err != nil {
		return nil, err
	}
	if rel == RelationNone {
		return nil, &domain.AuthorizationError{Message: "not allowed to view this order"}
	}
	view := &OrderView{Order: o}
	if vendor != nil {
		view.Vendor = &VendorSummary{ID: vendor.Ref.ID, Type: vendor.Ref.Type, Name: vendor.Name}
	}
	return view, nil
}

type ListQuery struct {
	Status domain.Status
	Sort   string
	Page   int
	Limit  int
}

type ListResult struct {
	Orders []*domain.Order `json:"orders"`
	Page   int             `json:"page"`
	Pages  int             `json:"pages"`
	Total  int             `json:"total"`
}

func (s *OrdersService) List(ctx context.Context, p domain.Principal, q ListQuery) (*ListResult, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, domain.NewValidationError("invalid status value %q", q.Status)
	}
	if q.Sort == "" {
		q.Sort = defaultSort
	}
	if !ValidSort(q.Sort) {
		return nil, domain.NewValidationError("invalid sort %q", q.Sort)
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageLimit
	}
	if q.Limit > maxPageLimit {
		q.Limit = maxPageLimit
	}

	f := ListFilter{
		Status: q.Status,
		Sort:   q.Sort,
		Offset: (q.Page - 1) * q.Limit,
		Limit:  q.Limit,
	}
	switch p.Role {
	case domain.RoleAdmin:
	case domain.RoleCustomer:
		f.CustomerID = p.ID
	case domain.RoleDelivery:
		f.DeliveryPersonID = p.ID
	case domain.RoleVendor:
		refs, err := s.vendors.OwnedBy(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if len(refs) == 0 {
			return &ListResult{Orders: []*domain.Order{}, Page: q.Page}, nil
		}
		f.Vendors = refs
	default:
		return nil, &domain.AuthorizationError{}
	}

	orders, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Orders: orders,
		Page:   q.Page,
		Pages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		Total:  total,
	}, nil
}

type StatusUpdate struct {
	Status   domain.Status
	Reason   string
	Location string
}

// UpdateStatus applies one transition. A stale read surfaces as
// *domain.ConcurrencyConflictError and is never retried here.
func (s *OrdersService) UpdateStatus(ctx context.Context, p domain.Principal, id uuid.UUID, upd StatusUpdate) (*domain.Order, error) {
	if !upd.Status.Valid() {
		return nil, domain.NewValidationError("invalid status value %q", upd.Status)
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	_, rel, err := s.relationTo(ctx, p, o)
	if err != nil {
		return nil, err
	}
	if rel == RelationNone && p.Role == domain.RoleDelivery && o.DeliveryPersonID == "" && upd.Status == domain.StatusOutForDelivery {
		rel = RelationDelivery
	}
	if rel == RelationNone {
		return nil, &domain.AuthorizationError{Message: "not allowed to update this order"}
	}
	actor := Actor{ID: p.ID, Relation: rel}
	if err := authorizeTransition(actor, upd.Status); err != nil {
		return nil, err
	}

	expected := o.Version
	refund, err := s.sm.Apply(o, Transition{Target: upd.Status, Reason: upd.Reason, Location: upd.Location, Actor: actor})
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o, expected); err != nil {
		return nil, err
	}
	logger.Info("order status changed", "order_id", o.ID, "status", o.OrderStatus, "by", p.ID)
	s.publish(ctx, EventStatusChanged, o)

	if refund {
		return s.settleRefund(ctx, o), nil
	}
	return o, nil
}

// settleRefund runs after the cancellation is committed, so a refund is only
// issued for a transition that won its compare-and-set.
func (s *OrdersService) settleRefund(ctx context.Context, o *domain.Order) *domain.Order {
	out := s.sm.SettleRefund(ctx, o)
	if out.Err != nil {
		logger.Warn("refund failed", "order_id", o.ID, "amount", o.Cancellation.RefundAmount, "err", out.Err)
	}

	cur := o
	for attempt := 0; attempt < casRetries; attempt++ {
		next := cur.Clone()
		s.sm.ApplyRefundOutcome(next, out)
		err := s.repo.Update(ctx, next, cur.Version)
		if err == nil {
			if out.Err != nil {
				s.publish(ctx, EventRefundFailed, next)
			} else {
				s.publish(ctx, EventRefundProcessed, next)
			}
			return next
		}
		var conflict *domain.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			logger.Error("store refund outcome failed", "order_id", o.ID, "err", err)
			break
		}
		if cur, err = s.repo.Get(ctx, o.ID); err != nil {
			logger.Error("reload order for refund outcome failed", "order_id", o.ID, "err", err)
			break
		}
	}
	s.sm.ApplyRefundOutcome(o, out)
	return o
}

// RetryRefund re-issues a refund previously recorded as failed. Orders in any
// other refund state are left alone.
func (s *OrdersService) RetryRefund(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OrderStatus != domain.StatusCancelled || o.Cancellation == nil || o.Cancellation.RefundStatus == nil ||
		*o.Cancellation.RefundStatus != domain.RefundFailed {
		return o, nil
	}
	if o.Cancellation.RefundAttempts >= MaxRefundAttempts {
		logger.Warn("refund retries exhausted", "order_id", o.ID, "attempts", o.Cancellation.RefundAttempts)
		return o, nil
	}

	expected := o.Version
	o.Cancellation.RefundStatus = domain.RefundStatusPtr(domain.RefundPending)
	o.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, o, expected); err != nil {
		return nil, err
	}
	logger.Info("retrying refund", "order_id", o.ID, "amount", o.Cancellation.RefundAmount)
	return s.settleRefund(ctx, o), nil
}

type VerifyPaymentRequest struct {
	RemoteOrderID string
	PaymentID     string
	Signature     string
}

// VerifyPayment marks the order paid and confirms it when still pending.
// Repeating the call after the order is paid returns the order unchanged.
func (s *OrdersService) VerifyPayment(ctx context.Context, p domain.Principal, id uuid.UUID, req VerifyPaymentRequest) (*domain.Order, error) {
	if req.RemoteOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, domain.NewValidationError("remoteOrderId, paymentId and signature are required")
	}
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID {
		return nil, &domain.AuthorizationError{Message: "only the customer can verify payment for this order"}
	}
	if o.PaymentDetails.RemoteOrderID != "" && o.PaymentDetails.RemoteOrderID != req.RemoteOrderID {
		return nil, domain.NewValidationError("payment does not belong to this order")
	}

	gctx, cancel := context.WithTimeout(ctx, s.timeout)
	ok, err := s.gateway.VerifySignature(gctx, req.RemoteOrderID, req.PaymentID, req.Signature)
	cancel()
	if err != nil {
		return nil, &domain.PaymentGatewayError{Op: domain.OpVerifySignature, Retryable: true, Err: err}
	}
	if !ok {
		return nil, domain.ErrInvalidSignature
	}

	for attempt := 0; attempt < casRetries; attempt++ {
		if o.PaymentStatus == domain.PaymentPaid || o.PaymentStatus == domain.PaymentRefunded {
			return o, nil
		}

		expected := o.Version
		o.PaymentStatus = domain.PaymentPaid
		o.PaymentDetails = domain.PaymentDetails{
			RemoteOrderID: req.RemoteOrderID,
			TransactionID: req.PaymentID,
			Provider:      s.gateway.Provider(),
		}
		o.UpdatedAt = s.now().UTC()

		refund := false
		switch o.OrderStatus {
		case domain.StatusPending:
			if _, err := s.sm.Apply(o, Transition{Target: domain.StatusConfirmed, Actor: systemActor}); err != nil {
				return nil, err
			}
		case domain.StatusCancelled:
			// paid after cancelling: the money goes straight back
			if o.Cancellation != nil && o.Cancellation.RefundStatus == nil {
				refund = s.sm.openRefund(o)
			}
		}

		err := s.repo.Update(ctx, o, expected)
		if err == nil {
			logger.Info("payment verified", "order_id", o.ID, "payment_id", req.PaymentID)
			s.publish(ctx, EventPaymentVerified, o)
			if refund {
				return s.settleRefund(ctx, o), nil
			}
			return o, nil
		}
		var conflict *domain.ConcurrencyConflictError
		if !errors.As(err, &conflict) {
			return nil, err
		}
		if o, err = s.repo.Get(ctx, id); err != nil {
			return nil, err
		}
	}
	return nil, &domain.ConcurrencyConflictError{OrderID: id.String()}
}

func (s *OrdersService) Rate(ctx context.Context, p domain.Principal, id uuid.UUID, req RateRequest) (*domain.Order, error) {
	o, err := s.ratings.Rate(ctx, p, id, req)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventOrderRated, o)
	return o, nil
}
