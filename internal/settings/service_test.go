package settings

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	values map[string]string
	gets   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{values: make(map[string]string)}
}

func (r *memoryRepo) Get(ctx context.Context, key string) (string, error) {
	r.gets++
	v, ok := r.values[key]
	if !ok {
		return "", ErrUnknownKey
	}
	return v, nil
}

func (r *memoryRepo) Set(ctx context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func newTestService(t *testing.T, repo Repository, defaults Defaults) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(slog.Default(), repo, client, time.Minute, defaults)
}

func TestStockAlertLevelFallsBackToDefault(t *testing.T) {
	svc := newTestService(t, newMemoryRepo(), Defaults{StockAlertLevel: 5})

	level, err := svc.StockAlertLevel(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, level)
}

func TestStockAlertLevelReadsStoredValue(t *testing.T) {
	repo := newMemoryRepo()
	repo.values[KeyStockAlertLevel] = "12"
	svc := newTestService(t, repo, Defaults{StockAlertLevel: 5})

	level, err := svc.StockAlertLevel(context.Background())
	require.NoError(t, err)
	require.Equal(t, 12, level)
}

func TestStockAlertLevelServedFromCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.values[KeyStockAlertLevel] = "12"
	svc := newTestService(t, repo, Defaults{})

	for i := 0; i < 3; i++ {
		_, err := svc.StockAlertLevel(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, 1, repo.gets)
}

func TestSetStockAlertLevelInvalidatesCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.values[KeyStockAlertLevel] = "12"
	svc := newTestService(t, repo, Defaults{})
	ctx := context.Background()

	level, err := svc.StockAlertLevel(ctx)
	require.NoError(t, err)
	require.Equal(t, 12, level)

	require.NoError(t, svc.SetStockAlertLevel(ctx, 3))

	level, err = svc.StockAlertLevel(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, level)
}

func TestSetStockAlertLevelRejectsNegative(t *testing.T) {
	svc := newTestService(t, newMemoryRepo(), Defaults{})
	require.Error(t, svc.SetStockAlertLevel(context.Background(), -1))
}

func TestSlugCheckIncludeDeleted(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(t, repo, Defaults{SlugCheckIncludeDeleted: false})
	ctx := context.Background()

	include, err := svc.SlugCheckIncludeDeleted(ctx)
	require.NoError(t, err)
	require.False(t, include)

	require.NoError(t, svc.SetSlugCheckIncludeDeleted(ctx, true))

	include, err = svc.SlugCheckIncludeDeleted(ctx)
	require.NoError(t, err)
	require.True(t, include)
}

func TestCorruptStoredValueSurfacesError(t *testing.T) {
	repo := newMemoryRepo()
	repo.values[KeyStockAlertLevel] = "twelve"
	svc := newTestService(t, repo, Defaults{})

	_, err := svc.StockAlertLevel(context.Background())
	require.Error(t, err)
}
