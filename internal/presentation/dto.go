package presentation

import (
	"time"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/payment"
	"github.com/RaikyD/food-orders-service/internal/pricing"
)

type createOrderBody struct {
	RestaurantID        string               `json:"restaurantId"`
	CloudKitchenID      string               `json:"cloudKitchenId"`
	Items               []itemBody           `json:"items"`
	OrderType           domain.OrderType     `json:"orderType"`
	DeliveryAddress     string               `json:"deliveryAddress"`
	ContactPhone        string               `json:"contactPhone"`
	SpecialInstructions string               `json:"specialInstructions"`
	ScheduledFor        *time.Time           `json:"scheduledFor"`
	PaymentMethod       domain.PaymentMethod `json:"paymentMethod"`
	Tip                 float64              `json:"tip"`
	Discount            domain.Discount      `json:"discount"`
}

type itemBody struct {
	MenuItemID          string              `json:"menuItemId"`
	Quantity            int                 `json:"quantity"`
	Customizations      []customizationBody `json:"customizations"`
	SpecialInstructions string              `json:"specialInstructions"`
}

type customizationBody struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

func (b createOrderBody) toRequest() application.CreateOrderRequest {
	items := make([]pricing.ItemRequest, 0, len(b.Items))
	for _, it := range b.Items {
		custom := make([]pricing.SelectedCustomization, 0, len(it.Customizations))
		for _, c := range it.Customizations {
			custom = append(custom, pricing.SelectedCustomization{Name: c.Name, Options: c.Options})
		}
		items = append(items, pricing.ItemRequest{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			Customizations:      custom,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return application.CreateOrderRequest{
		RestaurantID:        b.RestaurantID,
		CloudKitchenID:      b.CloudKitchenID,
		Items:               items,
		OrderType:           b.OrderType,
		DeliveryAddress:     b.DeliveryAddress,
		ContactPhone:        b.ContactPhone,
		SpecialInstructions: b.SpecialInstructions,
		ScheduledFor:        b.ScheduledFor,
		PaymentMethod:       b.PaymentMethod,
		Tip:                 b.Tip,
		Discount:            b.Discount,
	}
}

type createOrderResponse struct {
	Order        *domain.Order        `json:"order"`
	PaymentOrder *payment.RemoteOrder `json:"paymentOrder,omitempty"`
	Warning      string               `json:"warning,omitempty"`
}

type orderResponse struct {
	Order *domain.Order `json:"order"`
}

// orderView inlines the order fields and adds the vendor summary.
type orderView struct {
	*domain.Order
	VendorInfo *application.VendorSummary `json:"vendorInfo,omitempty"`
}

type statusBody struct {
	Status   domain.Status `json:"status"`
	Reason   string        `json:"reason"`
	Location string        `json:"location"`
}

type verifyPaymentBody struct {
	RemoteOrderID string `json:"remoteOrderId"`
	PaymentID     string `json:"paymentId"`
	Signature     string `json:"signature"`
}

type rateBody struct {
	FoodRating      int    `json:"foodRating"`
	FoodComment     string `json:"foodComment"`
	DeliveryRating  int    `json:"deliveryRating"`
	DeliveryComment string `json:"deliveryComment"`
}
