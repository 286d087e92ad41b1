package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
)

// CatalogRepository reads menu items; customization groups live in a JSONB column.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

var _ application.Catalog = (*CatalogRepository)(nil)

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

func (r *CatalogRepository) Save(ctx context.Context, it domain.MenuItem) error {
	custom, err := json.Marshal(it.Customizations)
	if err != nil {
		return err
	}
	if it.Customizations == nil {
		custom = []byte("[]")
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO menu_items (id, vendor_type, vendor_id, name, price, is_available, customizations)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			vendor_type = EXCLUDED.vendor_type,
			vendor_id = EXCLUDED.vendor_id,
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			is_available = EXCLUDED.is_available,
			customizations = EXCLUDED.customizations`,
		it.ID, it.Vendor.Type, it.Vendor.ID, it.Name, it.Price, it.IsAvailable, custom,
	)
	return err
}

func (r *CatalogRepository) Lookup(ctx context.Context, ids []string) (map[string]domain.MenuItem, error) {
	out := make(map[string]domain.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, vendor_type, vendor_id, name, price, is_available, customizations
		 FROM menu_items WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it     domain.MenuItem
			custom []byte
		)
		if err := rows.Scan(&it.ID, &it.Vendor.Type, &it.Vendor.ID, &it.Name, &it.Price, &it.IsAvailable, &custom); err != nil {
			return nil, err
		}
		if len(custom) > 0 {
			if err := json.Unmarshal(custom, &it.Customizations); err != nil {
				return nil, fmt.Errorf("decode customizations of %s: %w", it.ID, err)
			}
		}
		out[it.ID] = it
	}
	return out, rows.Err()
}
