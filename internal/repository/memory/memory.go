// Package memory holds in-process implementations of the repository
// contracts. They are used by tests and by STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
)

type OrderStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*domain.Order
}

var _ application.OrderRepository = (*OrderStore)(nil)

func NewOrderStore() *OrderStore {
	return &OrderStore{byID: make(map[uuid.UUID]*domain.Order)}
}

func (s *OrderStore) Create(ctx context.Context, o *domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	s.byID[o.ID] = o.Clone()
	return nil
}

func (s *OrderStore) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byID[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "order", ID: id.String()}
	}
	return o.Clone(), nil
}

func (s *OrderStore) Update(ctx context.Context, o *domain.Order, expectedVersion int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[o.ID]
	if !ok {
		return &domain.NotFoundError{Resource: "order", ID: o.ID.String()}
	}
	if cur.Version != expectedVersion {
		return &domain.ConcurrencyConflictError{OrderID: o.ID.String()}
	}
	o.Version = expectedVersion + 1
	s.byID[o.ID] = o.Clone()
	return nil
}

func (s *OrderStore) List(ctx context.Context, f application.ListFilter) ([]*domain.Order, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	matched := make([]*domain.Order, 0)
	for _, o := range s.byID {
		if matches(o, f) {
			matched = append(matched, o.Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, less(matched, f.Sort))

	total := len(matched)
	if f.Offset >= total {
		return []*domain.Order{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

func matches(o *domain.Order, f application.ListFilter) bool {
	if f.CustomerID != "" && o.CustomerID != f.CustomerID {
		return false
	}
	if f.DeliveryPersonID != "" && o.DeliveryPersonID != f.DeliveryPersonID {
		return false
	}
	if f.Status != "" && o.OrderStatus != f.Status {
		return false
	}
	if len(f.Vendors) > 0 && !slices.Contains(f.Vendors, o.Vendor) {
		return false
	}
	return true
}

func less(orders []*domain.Order, key string) func(i, j int) bool {
	switch key {
	case application.SortCreatedAsc:
		return func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) }
	case application.SortTotalAsc:
		return func(i, j int) bool { return orders[i].Pricing.TotalAmount < orders[j].Pricing.TotalAmount }
	case application.SortTotalDesc:
		return func(i, j int) bool { return orders[i].Pricing.TotalAmount > orders[j].Pricing.TotalAmount }
	default:
		return func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) }
	}
}

type VendorStore struct {
	mu    sync.Mutex
	byRef map[domain.VendorRef]domain.Vendor
}

var _ application.VendorDirectory = (*VendorStore)(nil)

func NewVendorStore(vs ...domain.Vendor) *VendorStore {
	s := &VendorStore{byRef: make(map[domain.VendorRef]domain.Vendor)}
	for _, v := range vs {
		s.Put(v)
	}
	return s
}

func (s *VendorStore) Put(v domain.Vendor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byRef[v.Ref] = v
}

func (s *VendorStore) Get(ctx context.Context, ref domain.VendorRef) (*domain.Vendor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byRef[ref]
	if !ok {
		return nil, &domain.NotFoundError{Resource: string(ref.Type), ID: ref.ID}
	}
	return &v, nil
}

func (s *VendorStore) OwnedBy(ctx context.Context, ownerID string) ([]domain.VendorRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	refs := make([]domain.VendorRef, 0)
	for ref, v := range s.byRef {
		if v.OwnerID == ownerID {
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

func (s *VendorStore) UpdateRating(ctx context.Context, ref domain.VendorRef, expectedCount int, average float64, count int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byRef[ref]
	if !ok {
		return false, &domain.NotFoundError{Resource: string(ref.Type), ID: ref.ID}
	}
	if v.RatingsCount != expectedCount {
		return false, nil
	}
	v.RatingsAverage = average
	v.RatingsCount = count
	s.byRef[ref] = v
	return true, nil
}

type Catalog struct {
	mu    sync.RWMutex
	items map[string]domain.MenuItem
}

var _ application.Catalog = (*Catalog)(nil)

func NewCatalog(items ...domain.MenuItem) *Catalog {
	c := &Catalog{items: make(map[string]domain.MenuItem)}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *Catalog) Put(it domain.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[it.ID] = it
}

func (c *Catalog) Lookup(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.MenuItem, len(ids))
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}
