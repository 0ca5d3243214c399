package suppliers

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	internalshared "github.com/velomart-erp/velomart-erp/internal/shared"
)

type Repository interface {
	List(ctx context.Context) ([]Supplier, error)
	Get(ctx context.Context, id int64) (Supplier, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, id int64, supplier Supplier) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Supplier, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, phone, email, address FROM suppliers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suppliers []Supplier
	for rows.Next() {
		var s Supplier
		if err := rows.Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Supplier, error) {
	var s Supplier
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, email, address FROM suppliers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Phone, &s.Email, &s.Address)
	if errors.Is(err, pgx.ErrNoRows) {
		return Supplier{}, internalshared.ErrNotFound
	}
	return s, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM suppliers WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO suppliers (name, phone, email, address) VALUES ($1, $2, $3, $4) RETURNING id`,
		supplier.Name, supplier.Phone, supplier.Email, supplier.Address).Scan(&supplier.ID)
	if err != nil {
		return Supplier{}, err
	}
	return supplier, nil
}

func (r *repository) Update(ctx context.Context, id int64, supplier Supplier) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE suppliers SET name = $1, phone = $2, email = $3, address = $4 WHERE id = $5`,
		supplier.Name, supplier.Phone, supplier.Email, supplier.Address, id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	return err
}
