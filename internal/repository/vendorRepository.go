package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
)

type VendorRepository struct {
	pool *pgxpool.Pool
}

var _ application.VendorDirectory = (*VendorRepository)(nil)

func NewVendorRepository(pool *pgxpool.Pool) *VendorRepository {
	return &VendorRepository{pool: pool}
}

// Save inserts or replaces a vendor record.
func (r *VendorRepository) Save(ctx context.Context, v domain.Vendor) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO vendors (type, id, owner_id, name, is_active, delivery_fee, ratings_average, ratings_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (type, id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id,
			name = EXCLUDED.name,
			is_active = EXCLUDED.is_active,
			delivery_fee = EXCLUDED.delivery_fee,
			ratings_average = EXCLUDED.ratings_average,
			ratings_count = EXCLUDED.ratings_count`,
		v.Ref.Type, v.Ref.ID, v.OwnerID, v.Name, v.IsActive, v.DeliveryFee, v.RatingsAverage, v.RatingsCount,
	)
	return err
}

func (r *VendorRepository) Get(ctx context.Context, ref domain.VendorRef) (*domain.Vendor, error) {
	v := domain.Vendor{Ref: ref}
	err := r.pool.QueryRow(ctx,
		`SELECT owner_id, name, is_active, delivery_fee, ratings_average, ratings_count
		 FROM vendors WHERE type = $1 AND id = $2`,
		ref.Type, ref.ID,
	).Scan(&v.OwnerID, &v.Name, &v.IsActive, &v.DeliveryFee, &v.RatingsAverage, &v.RatingsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: string(ref.Type), ID: ref.ID}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) OwnedBy(ctx context.Context, ownerID string) ([]domain.VendorRef, error) {
	rows, err := r.pool.Query(ctx, `SELECT type, id FROM vendors WHERE owner_id = $1`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]domain.VendorRef, 0)
	for rows.Next() {
		var ref domain.VendorRef
		if err := rows.Scan(&ref.Type, &ref.ID); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *VendorRepository) UpdateRating(ctx context.Context, ref domain.VendorRef, expectedCount int, average float64, count int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vendors SET ratings_average = $1, ratings_count = $2
		 WHERE type = $3 AND id = $4 AND ratings_count = $5`,
		average, count, ref.Type, ref.ID, expectedCount,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if _, err := r.Get(ctx, ref); err != nil {
		return false, err
	}
	return false, nil
}
