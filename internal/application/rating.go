package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
)

const ratingCASAttempts = 8

type RateRequest struct {
	FoodRating      int
	FoodComment     string
	DeliveryRating  int
	DeliveryComment string
}

func (r RateRequest) validate() error {
	if r.FoodRating < 1 || r.FoodRating > 5 {
		return domain.NewValidationError("food rating must be between 1 and 5")
	}
	if r.DeliveryRating < 1 || r.DeliveryRating > 5 {
		return domain.NewValidationError("delivery rating must be between 1 and 5")
	}
	return nil
}

// RatingAggregator stores an order's rating once and folds the food rating
// into the vendor's running average.
type RatingAggregator struct {
	orders  OrderRepository
	vendors VendorDirectory
	now     func() time.Time
}

func NewRatingAggregator(orders OrderRepository, vendors VendorDirectory, now func() time.Time) *RatingAggregator {
	if now == nil {
		now = time.Now
	}
	return &RatingAggregator{orders: orders, vendors: vendors, now: now}
}

func (a *RatingAggregator) Rate(ctx context.Context, p domain.Principal, id uuid.UUID, req RateRequest) (*domain.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	o, err := a.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != p.ID {
		return nil, &domain.AuthorizationError{Message: "only the customer can rate this order"}
	}
	if o.OrderStatus != domain.StatusDelivered {
		return nil, domain.ErrNotDelivered
	}
	if o.Ratings != nil {
		return nil, domain.ErrAlreadyRated
	}

	expected := o.Version
	o.Ratings = &domain.Ratings{
		Food:     domain.Rating{Rating: req.FoodRating, Comment: req.FoodComment},
		Delivery: domain.Rating{Rating: req.DeliveryRating, Comment: req.DeliveryComment},
	}
	o.UpdatedAt = a.now().UTC()

	// The order write is the exactly-once gate: a second submission loses the CAS.
	if err := a.orders.Update(ctx, o, expected); err != nil {
		return nil, err
	}

	if err := a.fold(ctx, o.Vendor, req.FoodRating); err != nil {
		logger.Error("vendor rating update failed", "order_id", o.ID, "vendor_id", o.Vendor.ID, "err", err)
		return nil, err
	}
	return o, nil
}

// fold applies the rating with compare-and-swap on the vendor's rating count.
func (a *RatingAggregator) fold(ctx context.Context, ref domain.VendorRef, rating int) error {
	for attempt := 0; attempt < ratingCASAttempts; attempt++ {
		v, err := a.vendors.Get(ctx, ref)
		if err != nil {
			return err
		}
		avg, count := NextAverage(v.RatingsAverage, v.RatingsCount, rating)
		ok, err := a.vendors.UpdateRating(ctx, ref, v.RatingsCount, avg, count)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fmt.Errorf("vendor %s rating: too much contention", ref.ID)
}

// NextAverage returns round1((average*count + rating) / (count+1)) and count+1.
func NextAverage(average float64, count, rating int) (float64, int) {
	total := decimal.NewFromFloat(average).Mul(decimal.NewFromInt(int64(count))).Add(decimal.NewFromInt(int64(rating)))
	next := total.Div(decimal.NewFromInt(int64(count + 1))).Round(1)
	return next.InexactFloat64(), count + 1
}
