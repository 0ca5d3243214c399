// Package settings stores the small set of runtime-configurable knobs the
// catalog engine reads on every request, fronted by a redis cache.
package settings

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Well-known setting keys.
const (
	KeyStockAlertLevel         = "stock_alert_level"
	KeySlugCheckIncludeDeleted = "slug_check_include_deleted"
)

// ErrUnknownKey indicates a setting that has no stored value.
var ErrUnknownKey = errors.New("settings: unknown key")

// Repository persists settings as key/value rows.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUnknownKey
	}
	return value, err
}

func (r *repository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ParseInt interprets a stored value as an integer.
func ParseInt(value string) (int, error) {
	return strconv.Atoi(value)
}

// ParseBool interprets a stored value as a boolean.
func ParseBool(value string) (bool, error) {
	return strconv.ParseBool(value)
}
