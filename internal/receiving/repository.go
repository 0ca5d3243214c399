package receiving

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/velomart-erp/velomart-erp/internal/platform/db"
	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (Receipt, error)
	List(ctx context.Context, limit, offset int) ([]Receipt, int, error)
	ProductIDsForVariants(ctx context.Context, variantIDs []int64) ([]int64, error)
	VariantsExist(ctx context.Context, variantIDs []int64) (map[int64]bool, error)
}

// TxRepository exposes the transactional writes.
type TxRepository interface {
	InsertReceipt(ctx context.Context, r Receipt) (int64, error)
	InsertLines(ctx context.Context, receiptID int64, lines []Line) error
}

// Repository persists receipts in PostgreSQL.
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

func (r *Repository) Get(ctx context.Context, id int64) (Receipt, error) {
	var rec Receipt
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, supplier_id, note, received_at, created_at FROM inbound_receipts WHERE id = $1`, id).
		Scan(&rec.ID, &rec.Code, &rec.SupplierID, &rec.Note, &rec.ReceivedAt, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Receipt{}, shared.ErrNotFound
	}
	if err != nil {
		return Receipt{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, receipt_id, variant_id, COALESCE(received, 0), COALESCE(remaining, 0)
		 FROM inbound_receipt_lines WHERE receipt_id = $1 ORDER BY id`, id)
	if err != nil {
		return Receipt{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line Line
		if err := rows.Scan(&line.ID, &line.ReceiptID, &line.VariantID, &line.Received, &line.Remaining); err != nil {
			return Receipt{}, err
		}
		rec.Lines = append(rec.Lines, line)
	}
	return rec, rows.Err()
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Receipt, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inbound_receipts`).Scan(&total); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, supplier_id, note, received_at, created_at
		 FROM inbound_receipts ORDER BY received_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var rec Receipt
		if err := rows.Scan(&rec.ID, &rec.Code, &rec.SupplierID, &rec.Note, &rec.ReceivedAt, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, rec)
	}
	return receipts, total, rows.Err()
}

// ProductIDsForVariants maps variant ids onto their distinct owning products.
func (r *Repository) ProductIDsForVariants(ctx context.Context, variantIDs []int64) ([]int64, error) {
	if len(variantIDs) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT product_id FROM variants WHERE id = ANY($1)`, variantIDs)
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

func (t *txRepository) InsertReceipt(ctx context.Context, rec Receipt) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO inbound_receipts (code, supplier_id, note, received_at, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		rec.Code, rec.SupplierID, rec.Note, rec.ReceivedAt, time.Now().UTC()).Scan(&id)
	return id, err
}

func (t *txRepository) InsertLines(ctx context.Context, receiptID int64, lines []Line) error {
	for _, line := range lines {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO inbound_receipt_lines (receipt_id, variant_id, received, remaining)
			 VALUES ($1, $2, $3, $4)`,
			receiptID, line.VariantID, line.Received, line.Remaining); err != nil {
			return err
		}
	}
	return nil
}
