package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaikyD/food-orders-service/internal/application"
	"github.com/RaikyD/food-orders-service/internal/domain"
	"github.com/RaikyD/food-orders-service/internal/logger"
)

const uniqueViolation = "23505"

// OrderRepository keeps the whole aggregate in a JSONB payload and mirrors
// the columns used for filtering, sorting and the version check.
type OrderRepository struct {
	pool *pgxpool.Pool
}

var _ application.OrderRepository = (*OrderRepository)(nil)

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	payload, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO orders
			(id, customer_id, vendor_type, vendor_id, status, payment_status,
			 delivery_person_id, total_amount, version, created_at, updated_at, payload)
		 VALUES
			($1, $2, $3, $4, $5, $6,
			 $7, $8, $9, $10, $11, $12)`,
		o.ID,
		o.CustomerID,
		o.Vendor.Type,
		o.Vendor.ID,
		o.OrderStatus,
		o.PaymentStatus,
		o.DeliveryPersonID,
		o.Pricing.TotalAmount,
		o.Version,
		o.CreatedAt,
		o.UpdatedAt,
		payload,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("order %s already exists", o.ID)
		}
		logger.Warn("insert order failed", "order_id", o.ID, "err", err)
		return err
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var (
		payload []byte
		version int
	)
	err := r.pool.QueryRow(ctx, `SELECT payload, version FROM orders WHERE id = $1`, id).Scan(&payload, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Resource: "order", ID: id.String()}
	}
	if err != nil {
		return nil, err
	}
	return decodeOrder(payload, version)
}

// Update writes o only when the stored version equals expectedVersion.
func (r *OrderRepository) Update(ctx context.Context, o *domain.Order, expectedVersion int) error {
	next := o.Clone()
	next.Version = expectedVersion + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx,
		`UPDATE orders SET
			status = $3,
			payment_status = $4,
			delivery_person_id = $5,
			total_amount = $6,
			version = $7,
			updated_at = $8,
			payload = $9
		 WHERE id = $1 AND version = $2`,
		o.ID,
		expectedVersion,
		next.OrderStatus,
		next.PaymentStatus,
		next.DeliveryPersonID,
		next.Pricing.TotalAmount,
		next.Version,
		next.UpdatedAt,
		payload,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return &domain.NotFoundError{Resource: "order", ID: o.ID.String()}
		}
		return &domain.ConcurrencyConflictError{OrderID: o.ID.String()}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.Version = next.Version
	return nil
}

var sortColumns = map[string]string{
	application.SortCreatedAsc:  "created_at ASC",
	application.SortCreatedDesc: "created_at DESC",
	application.SortTotalAsc:    "total_amount ASC",
	application.SortTotalDesc:   "total_amount DESC",
}

func (r *OrderRepository) List(ctx context.Context, f application.ListFilter) ([]*domain.Order, int, error) {
	where, args := listWhere(f)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order, ok := sortColumns[f.Sort]
	if !ok {
		order = sortColumns[application.SortCreatedDesc]
	}
	q := `SELECT payload, version FROM orders` + where + ` ORDER BY ` + order + `, id`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		var (
			payload []byte
			version int
		)
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, 0, err
		}
		o, err := decodeOrder(payload, version)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func listWhere(f application.ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CustomerID != "" {
		conds = append(conds, "customer_id = "+arg(f.CustomerID))
	}
	if f.DeliveryPersonID != "" {
		conds = append(conds, "delivery_person_id = "+arg(f.DeliveryPersonID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+arg(string(f.Status)))
	}
	if len(f.Vendors) > 0 {
		pairs := make([]string, 0, len(f.Vendors))
		for _, v := range f.Vendors {
			pairs = append(pairs, "("+arg(string(v.Type))+", "+arg(v.ID)+")")
		}
		conds = append(conds, "(vendor_type, vendor_id) IN ("+strings.Join(pairs, ", ")+")")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func decodeOrder(payload []byte, version int) (*domain.Order, error) {
	var o domain.Order
	if err := json.Unmarshal(payload, &o); err != nil {
		return nil, fmt.Errorf("decode order payload: %w", err)
	}
	o.Version = version
	if o.DeliveryTracking == nil {
		o.DeliveryTracking = []domain.TrackingEvent{}
	}
	return &o, nil
}
