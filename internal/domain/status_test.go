package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition_AllPairs(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:        {StatusConfirmed, StatusCancelled},
		StatusConfirmed:      {StatusPreparing, StatusCancelled},
		StatusPreparing:      {StatusReady, StatusCancelled},
		StatusReady:          {StatusOutForDelivery, StatusCancelled},
		StatusOutForDelivery: {StatusDelivered, StatusCancelled},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			err := CheckTransition(from, to)
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			if want {
				assert.NoError(t, err, "%s -> %s", from, to)
				continue
			}
			var ite *InvalidTransitionError
			require.True(t, errors.As(err, &ite), "%s -> %s", from, to)
			assert.Equal(t, from, ite.Current)
			assert.Equal(t, to, ite.Requested)
		}
	}
}

func TestCheckTransition_UnknownStatus(t *testing.T) {
	err := CheckTransition(StatusPending, Status("shipped"))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, Status("bogus").Terminal())
}

func TestOrder_CloneIsDeep(t *testing.T) {
	o := &Order{
		Items: []OrderItem{{
			MenuItemID:     "m1",
			Customizations: []Customization{{Name: "Size", Options: []CustomizationOption{{Name: "L", Price: 10}}}},
		}},
		DeliveryTracking: []TrackingEvent{{Status: TrackingPickedUp}},
		Cancellation:     &Cancellation{Reason: "x", RefundStatus: RefundStatusPtr(RefundPending)},
	}

	c := o.Clone()
	c.Items[0].Customizations[0].Options[0].Price = 99
	c.DeliveryTracking[0].Status = "changed"
	*c.Cancellation.RefundStatus = RefundFailed

	assert.Equal(t, 10.0, o.Items[0].Customizations[0].Options[0].Price)
	assert.Equal(t, TrackingPickedUp, o.DeliveryTracking[0].Status)
	assert.Equal(t, RefundPending, *o.Cancellation.RefundStatus)
}
