package catalog

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const productColumns = `id, name, category_id, brand_id, status, description, weight_grams, dimensions, engine_spec, created_at, updated_at, deleted_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.BrandID, &p.Status, &p.Description,
		&p.WeightGrams, &p.Dimensions, &p.EngineSpec, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

// GetProduct loads one product, excluding soft-deleted rows.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1 AND deleted_at IS NULL`, id)
	return scanProduct(row)
}

// ListProductIDs returns matching product ids plus the total count.
func (r *Repository) ListProductIDs(ctx context.Context, filter ListFilter) ([]int64, int, error) {
	where := ` WHERE deleted_at IS NULL`
	args := []any{}
	n := 0

	if filter.Search != "" {
		n++
		where += ` AND name ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.CategoryID != nil {
		n++
		where += ` AND category_id = $` + strconv.Itoa(n)
		args = append(args, *filter.CategoryID)
	}
	if filter.BrandID != nil {
		n++
		where += ` AND brand_id = $` + strconv.Itoa(n)
		args = append(args, *filter.BrandID)
	}
	if filter.Status != nil {
		n++
		where += ` AND status = $` + strconv.Itoa(n)
		args = append(args, *filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT id FROM products` + where + ` ORDER BY created_at DESC, id DESC`
	n++
	query += ` LIMIT $` + strconv.Itoa(n)
	args = append(args, perPage)
	n++
	query += ` OFFSET $` + strconv.Itoa(n)
	args = append(args, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, 0, err
		}
		ids = append(ids, id)
	}
	return ids, total, rows.Err()
}

// GetVariants loads the currently visible variants of a product.
func (r *Repository) GetVariants(ctx context.Context, productID int64) ([]Variant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, url_slug, price, cover_image_url, created_at, updated_at, deleted_at
		 FROM variants WHERE product_id = $1 AND deleted_at IS NULL ORDER BY id`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.URLSlug, &v.Price, &v.CoverImageURL,
			&v.CreatedAt, &v.UpdatedAt, &v.DeletedAt); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// FindSlugs returns every persisted slug matching any of slugs
// case-insensitively. includeDeleted widens the scope to soft-deleted
// variants.
func (r *Repository) FindSlugs(ctx context.Context, slugs []string, includeDeleted bool) ([]PersistedSlug, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	query := `SELECT id, product_id, url_slug FROM variants WHERE lower(url_slug) = ANY($1)`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	lowered := make([]string, len(slugs))
	for i, s := range slugs {
		lowered[i] = normalizeSlug(s)
	}
	rows, err := r.pool.Query(ctx, query, lowered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PersistedSlug
	for rows.Next() {
		var p PersistedSlug
		if err := rows.Scan(&p.VariantID, &p.ProductID, &p.Slug); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProjection loads the flat read model of one product: variants,
// photos, option associations and stock lines, with no nested graph.
func (r *Repository) GetProjection(ctx context.Context, productID int64) (ProductProjection, error) {
	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return ProductProjection{}, err
	}

	variants, err := r.GetVariants(ctx, productID)
	if err != nil {
		return ProductProjection{}, err
	}

	proj := ProductProjection{Product: product}
	if len(variants) == 0 {
		return proj, nil
	}

	ids := make([]int64, len(variants))
	index := make(map[int64]int, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
		index[v.ID] = i
		proj.Variants = append(proj.Variants, VariantProjection{
			ID:            v.ID,
			URLSlug:       v.URLSlug,
			Price:         v.Price,
			CoverImageURL: v.CoverImageURL,
		})
	}

	if err := r.loadPhotos(ctx, ids, index, proj.Variants); err != nil {
		return ProductProjection{}, err
	}
	if err := r.loadOptions(ctx, ids, index, proj.Variants); err != nil {
		return ProductProjection{}, err
	}
	if err := r.loadStockLines(ctx, ids, index, proj.Variants); err != nil {
		return ProductProjection{}, err
	}
	return proj, nil
}

func (r *Repository) loadPhotos(ctx context.Context, ids []int64, index map[int64]int, variants []VariantProjection) error {
	rows, err := r.pool.Query(ctx,
		`SELECT variant_id, url FROM variant_photos WHERE variant_id = ANY($1) ORDER BY variant_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var variantID int64
		var url string
		if err := rows.Scan(&variantID, &url); err != nil {
			return err
		}
		if i, ok := index[variantID]; ok {
			variants[i].Photos = append(variants[i].Photos, url)
		}
	}
	return rows.Err()
}

func (r *Repository) loadOptions(ctx context.Context, ids []int64, index map[int64]int, variants []VariantProjection) error {
	rows, err := r.pool.Query(ctx,
		`SELECT vov.variant_id, COALESCE(o.name, ''), COALESCE(ov.name, '')
		 FROM variant_option_values vov
		 LEFT JOIN option_values ov ON ov.id = vov.option_value_id
		 LEFT JOIN options o ON o.id = ov.option_id
		 WHERE vov.variant_id = ANY($1)
		 ORDER BY vov.variant_id, vov.option_value_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var variantID int64
		var assoc OptionAssociation
		if err := rows.Scan(&variantID, &assoc.OptionName, &assoc.ValueName); err != nil {
			return err
		}
		if i, ok := index[variantID]; ok {
			variants[i].Options = append(variants[i].Options, assoc)
		}
	}
	return rows.Err()
}

func (r *Repository) loadStockLines(ctx context.Context, ids []int64, index map[int64]int, variants []VariantProjection) error {
	rows, err := r.pool.Query(ctx,
		`SELECT variant_id, COALESCE(received, 0), COALESCE(remaining, 0)
		 FROM inbound_receipt_lines WHERE variant_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line InboundLine
		if err := rows.Scan(&line.VariantID, &line.Received, &line.Remaining); err != nil {
			return err
		}
		if i, ok := index[line.VariantID]; ok {
			variants[i].Inbound = append(variants[i].Inbound, line)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT l.variant_id, l.order_id, COALESCE(l.booked, 0), COALESCE(o.status, '')
		 FROM outbound_booking_lines l
		 LEFT JOIN orders o ON o.id = l.order_id
		 WHERE l.variant_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var line OutboundLine
		if err := rows.Scan(&line.VariantID, &line.OrderID, &line.Booked, &line.OrderStatus); err != nil {
			return err
		}
		if i, ok := index[line.VariantID]; ok {
			variants[i].Outbound = append(variants[i].Outbound, line)
		}
	}
	return rows.Err()
}

// UpsertValue resolves or creates an option value atomically on
// (option_id, lower(name)). An unknown option surfaces as
// OptionNotFoundError via the foreign key violation.
func (t *txRepository) UpsertValue(ctx context.Context, optionID int64, name string) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO option_values (option_id, name)
		 VALUES ($1, $2)
		 ON CONFLICT (option_id, lower(name)) DO UPDATE SET name = option_values.name
		 RETURNING id`, optionID, name).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, OptionNotFoundError{OptionID: optionID}
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepository) InsertProduct(ctx context.Context, p Product) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO products (name, category_id, brand_id, status, description, weight_grams, dimensions, engine_spec, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		p.Name, p.CategoryID, p.BrandID, p.Status, p.Description, p.WeightGrams, p.Dimensions, p.EngineSpec, now).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE products SET name = $1, category_id = $2, brand_id = $3, status = $4, description = $5,
		   weight_grams = $6, dimensions = $7, engine_spec = $8, updated_at = $9
		 WHERE id = $10 AND deleted_at IS NULL`,
		p.Name, p.CategoryID, p.BrandID, p.Status, p.Description, p.WeightGrams, p.Dimensions, p.EngineSpec,
		time.Now().UTC(), p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (t *txRepository) InsertVariant(ctx context.Context, v Variant) (int64, error) {
	now := time.Now().UTC()
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO variants (product_id, url_slug, price, cover_image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5) RETURNING id`,
		v.ProductID, v.URLSlug, v.Price, v.CoverImageURL, now).Scan(&id)
	return id, err
}

func (t *txRepository) UpdateVariant(ctx context.Context, v Variant) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE variants SET url_slug = $1, price = $2, cover_image_url = $3, updated_at = $4
		 WHERE id = $5 AND deleted_at IS NULL`,
		v.URLSlug, v.Price, v.CoverImageURL, time.Now().UTC(), v.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVariantNotFound
	}
	return nil
}

// DeleteVariant removes a variant outright together with its photos and
// option-value links. Option values themselves are never deleted.
func (t *txRepository) DeleteVariant(ctx context.Context, variantID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM variant_photos WHERE variant_id = $1`, variantID); err != nil {
		return err
	}
	if _, err := t.tx.Exec(ctx, `DELETE FROM variant_option_values WHERE variant_id = $1`, variantID); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `DELETE FROM variants WHERE id = $1`, variantID)
	return err
}

// ReplacePhotos swaps a variant's photo collection wholesale, keeping
// submission order via the position column.
func (t *txRepository) ReplacePhotos(ctx context.Context, variantID int64, urls []string) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM variant_photos WHERE variant_id = $1`, variantID); err != nil {
		return err
	}
	for i, url := range urls {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO variant_photos (variant_id, url, position) VALUES ($1, $2, $3)`,
			variantID, url, i); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) VariantOptionValueIDs(ctx context.Context, variantID int64) ([]int64, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT option_value_id FROM variant_option_values WHERE variant_id = $1`, variantID)
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

func (t *txRepository) LinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error {
	for _, id := range valueIDs {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO variant_option_values (variant_id, option_value_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, variantID, id); err != nil {
			return err
		}
	}
	return nil
}

func (t *txRepository) UnlinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error {
	if len(valueIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`DELETE FROM variant_option_values WHERE variant_id = $1 AND option_value_id = ANY($2)`,
		variantID, valueIDs)
	return err
}

func (t *txRepository) VariantPhotoURLs(ctx context.Context, variantID int64) ([]string, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT url FROM variant_photos WHERE variant_id = $1 ORDER BY position`, variantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}
