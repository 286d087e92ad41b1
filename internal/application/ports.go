package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/RaikyD/food-orders-service/internal/domain"
)

// OrderRepository persists Order aggregates. Update is a compare-and-set on
// the order version: it fails with *domain.ConcurrencyConflictError when the
// stored version differs from expectedVersion, and bumps o.Version on success.
type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order, expectedVersion int) error
	List(ctx context.Context, f ListFilter) ([]*domain.Order, int, error)
}

// ListFilter narrows a listing. Zero-valued fields do not filter.
type ListFilter struct {
	CustomerID       string
	DeliveryPersonID string
	Vendors          []domain.VendorRef
	Status           domain.Status
	Sort             string
	Offset           int
	Limit            int
}

const (
	SortCreatedAsc   = "createdAt"
	SortCreatedDesc  = "-createdAt"
	SortTotalAsc     = "totalAmount"
	SortTotalDesc    = "-totalAmount"
	defaultSort      = SortCreatedDesc
	defaultPageLimit = 10
	maxPageLimit     = 100
)

func ValidSort(s string) bool {
	switch s {
	case SortCreatedAsc, SortCreatedDesc, SortTotalAsc, SortTotalDesc:
		return true
	}
	return false
}

// Catalog resolves authoritative menu item data. Missing ids are simply absent from the result.
type Catalog interface {
	Lookup(ctx context.Context, ids []string) (map[string]domain.MenuItem, error)
}

type VendorDirectory interface {
	Get(ctx context.Context, ref domain.VendorRef) (*domain.Vendor, error)
	OwnedBy(ctx context.Context, ownerID string) ([]domain.VendorRef, error)
	// UpdateRating stores the new aggregate only if the stored count still
	// equals expectedCount. It reports whether the write happened.
	UpdateRating(ctx context.Context, ref domain.VendorRef, expectedCount int, average float64, count int) (bool, error)
}
