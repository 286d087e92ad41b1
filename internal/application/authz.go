package application

import (
	"context"
	"errors"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

// relationTo resolves how p relates to o. The vendor record is returned when
// it was looked up so callers can reuse it.
func (s *OrdersService) relationTo(ctx context.Context, p domain.Principal, o *domain.Order) (*domain.Vendor, Relation, error) {
	vendor, err := s.vendors.Get(ctx, o.Vendor)
	if err != nil {
		var nf *domain.NotFoundError
		if !errors.As(err, &nf) {
			return nil, RelationNone, err
		}
		vendor = nil
	}

	switch p.Role {
	case domain.RoleAdmin:
		return vendor, RelationAdmin, nil
	case domain.RoleCustomer:
		if o.CustomerID == p.ID {
			return vendor, RelationCustomer, nil
		}
	case domain.RoleVendor:
		if vendor != nil && vendor.OwnerID == p.ID {
			return vendor, RelationVendor, nil
		}
	case domain.RoleDelivery:
		if o.DeliveryPersonID != "" && o.DeliveryPersonID == p.ID {
			return vendor, RelationDelivery, nil
		}
	}
	return vendor, RelationNone, nil
}
