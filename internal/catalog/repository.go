package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velomart-erp/velomart-erp/internal/platform/db"
)

// ListFilter narrows the product listing.
type ListFilter struct {
	Page       int
	PerPage    int
	Search     string
	CategoryID *int64
	BrandID    *int64
	Status     *ProductStatus
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProductIDs(ctx context.Context, filter ListFilter) ([]int64, int, error)
	GetVariants(ctx context.Context, productID int64) ([]Variant, error)
	FindSlugs(ctx context.Context, slugs []string, includeDeleted bool) ([]PersistedSlug, error)
	GetProjection(ctx context.Context, productID int64) (ProductProjection, error)
}

// TxRepository exposes the mutations applied inside one unit of work.
type TxRepository interface {
	OptionValueStore
	InsertProduct(ctx context.Context, p Product) (int64, error)
	UpdateProduct(ctx context.Context, p Product) error
	InsertVariant(ctx context.Context, v Variant) (int64, error)
	UpdateVariant(ctx context.Context, v Variant) error
	DeleteVariant(ctx context.Context, variantID int64) error
	ReplacePhotos(ctx context.Context, variantID int64, urls []string) error
	VariantOptionValueIDs(ctx context.Context, variantID int64) ([]int64, error)
	LinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error
	UnlinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error
	VariantPhotoURLs(ctx context.Context, variantID int64) ([]string, error)
}

// Repository persists the catalog in PostgreSQL.
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
	if r == nil {
		return errors.New("catalog: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}
