package brands

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velomart-erp/velomart-erp/internal/masterdata/shared"
	internalshared "github.com/velomart-erp/velomart-erp/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error)
	Get(ctx context.Context, id int64) (Brand, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, brand Brand) (Brand, error)
	Update(ctx context.Context, id int64, brand Brand) error
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

var sortable = map[string]struct{}{"name": {}}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	query := `SELECT id, name, logo_url FROM brands WHERE 1=1`
	args := []any{}
	n := 0

	if filters.Search != "" {
		n++
		query += ` AND name ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filters.Search+"%")
	}

	countQuery := `SELECT COUNT(*) FROM brands WHERE 1=1`
	countArgs := []any{}
	if filters.Search != "" {
		countQuery += ` AND name ILIKE $1`
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY ` + shared.SortOrder(filters.SortBy, filters.SortDir, sortable, "name")

	if filters.Limit > 0 {
		n++
		query += ` LIMIT $` + strconv.Itoa(n)
		args = append(args, filters.Limit)
		n++
		query += ` OFFSET $` + strconv.Itoa(n)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var brands []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.LogoURL); err != nil {
			return nil, 0, err
		}
		brands = append(brands, b)
	}
	return brands, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Brand, error) {
	var b Brand
	err := r.pool.QueryRow(ctx, `SELECT id, name, logo_url FROM brands WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.LogoURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return Brand{}, internalshared.ErrNotFound
	}
	return b, err
}

func (r *repository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM brands WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *repository) Create(ctx context.Context, brand Brand) (Brand, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO brands (name, logo_url) VALUES ($1, $2) RETURNING id`,
		brand.Name, brand.LogoURL).Scan(&brand.ID)
	if err != nil {
		return Brand{}, err
	}
	return brand, nil
}

func (r *repository) Update(ctx context.Context, id int64, brand Brand) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE brands SET name = $1, logo_url = $2 WHERE id = $3`,
		brand.Name, brand.LogoURL, id)
	return err
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM brands WHERE id = $1`, id)
	return err
}
