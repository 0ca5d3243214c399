package orders

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velomart-erp/velomart-erp/internal/catalog"
	"github.com/velomart-erp/velomart-erp/internal/platform/db"
	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, status *catalog.OrderStatus, limit, offset int) ([]Order, int, error)
	ProductIDsForOrder(ctx context.Context, orderID int64) ([]int64, error)
	VariantsExist(ctx context.Context, variantIDs []int64) (map[int64]bool, error)
}

// TxRepository exposes the transactional writes.
type TxRepository interface {
	InsertOrder(ctx context.Context, o Order) (int64, error)
	InsertLines(ctx context.Context, orderID int64, lines []BookingLine) error
	UpdateStatus(ctx context.Context, orderID int64, status catalog.OrderStatus) error
}

// Repository persists orders in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *Repository) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, customer_name, customer_phone, status, created_at, updated_at
		 FROM orders WHERE id = $1`, id).
		Scan(&o.ID, &o.Code, &o.CustomerName, &o.CustomerPhone, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, shared.ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, variant_id, COALESCE(booked, 0)
		 FROM outbound_booking_lines WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line BookingLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.VariantID, &line.Booked); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

func (r *Repository) List(ctx context.Context, status *catalog.OrderStatus, limit, offset int) ([]Order, int, error) {
	where := ``
	countArgs := []any{}
	args := []any{}
	if status != nil {
		where = ` WHERE status = $1`
		countArgs = append(countArgs, *status)
		args = append(args, *status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, code, customer_name, customer_phone, status, created_at, updated_at FROM orders` + where
	if status != nil {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Code, &o.CustomerName, &o.CustomerPhone, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// ProductIDsForOrder maps an order's booked variants onto their products.
func (r *Repository) ProductIDsForOrder(ctx context.Context, orderID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT v.product_id
		 FROM outbound_booking_lines l
		 JOIN variants v ON v.id = l.variant_id
		 WHERE l.order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// VariantsExist reports existence per variant id, soft-deleted excluded.
func (r *Repository) VariantsExist(ctx context.Context, variantIDs []int64) (map[int64]bool, error) {
	exists := make(map[int64]bool, len(variantIDs))
	if len(variantIDs) == 0 {
		return exists, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id FROM variants WHERE id = ANY($1) AND deleted_at IS NULL`, variantIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		exists[id] = true
	}
	return exists, rows.Err()
}

func (t *txRepository) InsertOrder(ctx context.Context, o Order) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO orders (code, customer_name, customer_phone, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		o.Code, o.CustomerName, o.CustomerPhone, o.Status, now).Scan(&id)
	return id, err
}

func (t *txRepository) InsertLines(ctx context.Context, orderID int64, lines []BookingLine) error {
	for _, line := range lines {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO outbound_booking_lines (order_id, variant_id, booked) VALUES ($1, $2, $3)`,
			orderID, line.VariantID, line.Booked); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) UpdateStatus(ctx context.Context, orderID int64, status catalog.OrderStatus) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), orderID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
