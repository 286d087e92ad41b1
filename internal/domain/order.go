package domain

import (
	"time"

	"github.com/google/uuid"
)

type VendorType string

const (
	VendorRestaurant   VendorType = "restaurant"
	VendorCloudKitchen VendorType = "cloudKitchen"
)

// VendorRef points at exactly one vendor, either a restaurant or a cloud kitchen.
type VendorRef struct {
	Type VendorType `json:"type"`
	ID   string     `json:"id"`
}

type OrderType string

const (
	OrderDelivery OrderType = "delivery"
	OrderPickup   OrderType = "pickup"
)

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentUPI    PaymentMethod = "upi"
	PaymentWallet PaymentMethod = "wallet"
	PaymentNet    PaymentMethod = "netbanking"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentUPI, PaymentWallet, PaymentNet:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

type CancelledBy string

const (
	CancelledByUser   CancelledBy = "user"
	CancelledByVendor CancelledBy = "vendor"
	CancelledBySystem CancelledBy = "system"
)

type DeliveryStatus string

const (
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

const (
	TrackingPickedUp  = "picked_up"
	TrackingDelivered = "delivered"
)

type Order struct {
	ID                    uuid.UUID       `json:"id"`
	CustomerID            string          `json:"customerId"`
	Vendor                VendorRef       `json:"vendor"`
	Items                 []OrderItem     `json:"items"`
	Pricing               Pricing         `json:"pricing"`
	OrderType             OrderType       `json:"orderType"`
	DeliveryAddress       string          `json:"deliveryAddress,omitempty"`
	ContactPhone          string          `json:"contactPhone"`
	SpecialInstructions   string          `json:"specialInstructions,omitempty"`
	ScheduledDelivery     Schedule        `json:"scheduledDelivery"`
	PaymentMethod         PaymentMethod   `json:"paymentMethod"`
	PaymentStatus         PaymentStatus   `json:"paymentStatus"`
	PaymentDetails        PaymentDetails  `json:"paymentDetails"`
	OrderStatus           Status          `json:"orderStatus"`
	DeliveryStatus        DeliveryStatus  `json:"deliveryStatus,omitempty"`
	DeliveryTracking      []TrackingEvent `json:"deliveryTracking"`
	EstimatedDeliveryTime *time.Time      `json:"estimatedDeliveryTime,omitempty"`
	Cancellation          *Cancellation   `json:"cancellation,omitempty"`
	Ratings               *Ratings        `json:"ratings,omitempty"`
	DeliveryPersonID      string          `json:"deliveryPersonId,omitempty"`
	Version               int             `json:"version"`
	CreatedAt             time.Time       `json:"createdAt"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// OrderItem keeps name and price as they were when the order was placed.
type OrderItem struct {
	MenuItemID          string          `json:"menuItemId"`
	Name                string          `json:"name"`
	UnitPrice           float64         `json:"unitPrice"`
	Quantity            int             `json:"quantity"`
	Customizations      []Customization `json:"customizations,omitempty"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	LineTotal           float64         `json:"lineTotal"`
}

type Customization struct {
	Name    string                `json:"name"`
	Options []CustomizationOption `json:"options"`
}

type CustomizationOption struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type Pricing struct {
	Subtotal    float64  `json:"subtotal"`
	TaxAmount   float64  `json:"taxAmount"`
	DeliveryFee float64  `json:"deliveryFee"`
	Tip         float64  `json:"tip"`
	Discount    Discount `json:"discount"`
	TotalAmount float64  `json:"totalAmount"`
}

type Discount struct {
	Amount float64 `json:"amount"`
	Code   string  `json:"code,omitempty"`
}

type Schedule struct {
	IsScheduled bool       `json:"isScheduled"`
	Time        *time.Time `json:"time,omitempty"`
}

type PaymentDetails struct {
	RemoteOrderID string `json:"remoteOrderId,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

type TrackingEvent struct {
	Status      string    `json:"status"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Cancellation struct {
	Reason       string        `json:"reason"`
	CancelledBy  CancelledBy   `json:"cancelledBy"`
	RefundAmount float64       `json:"refundAmount"`
	RefundStatus *RefundStatus `json:"refundStatus"`
	RefundID     string        `json:"refundId,omitempty"`
	// RefundAttempts counts gateway refund calls made for this cancellation.
	RefundAttempts int `json:"refundAttempts,omitempty"`
}

type Ratings struct {
	Food     Rating `json:"food"`
	Delivery Rating `json:"delivery"`
}

type Rating struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = make([]OrderItem, len(o.Items))
	for i, it := range o.Items {
		c.Items[i] = it
		if it.Customizations != nil {
			c.Items[i].Customizations = make([]Customization, len(it.Customizations))
			for j, cz := range it.Customizations {
				c.Items[i].Customizations[j] = Customization{
					Name:    cz.Name,
					Options: append([]CustomizationOption(nil), cz.Options...),
				}
			}
		}
	}
	c.DeliveryTracking = append([]TrackingEvent(nil), o.DeliveryTracking...)
	if o.EstimatedDeliveryTime != nil {
		t := *o.EstimatedDeliveryTime
		c.EstimatedDeliveryTime = &t
	}
	if o.ScheduledDelivery.Time != nil {
		t := *o.ScheduledDelivery.Time
		c.ScheduledDelivery.Time = &t
	}
	if o.Cancellation != nil {
		cc := *o.Cancellation
		if cc.RefundStatus != nil {
			rs := *cc.RefundStatus
			cc.RefundStatus = &rs
		}
		c.Cancellation = &cc
	}
	if o.Ratings != nil {
		r := *o.Ratings
		c.Ratings = &r
	}
	return &c
}

func RefundStatusPtr(s RefundStatus) *RefundStatus {
	return &s
}
