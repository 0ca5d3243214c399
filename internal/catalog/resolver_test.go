package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryValueStore struct {
	options map[int64]bool
	values  map[string]int64
	nextID  int64
	upserts int
}

func newMemoryValueStore(options ...int64) *memoryValueStore {
	s := &memoryValueStore{options: make(map[int64]bool), values: make(map[string]int64)}
	for _, id := range options {
		s.options[id] = true
	}
	return s
}

func (s *memoryValueStore) UpsertValue(ctx context.Context, optionID int64, name string) (int64, error) {
	s.upserts++
	if !s.options[optionID] {
		return 0, OptionNotFoundError{OptionID: optionID}
	}
	key := cacheKey(optionID, strings.ToLower(name))
	if id, ok := s.values[key]; ok {
		return id, nil
	}
	s.nextID++
	s.values[key] = s.nextID
	return s.nextID, nil
}

func TestResolveOrCreateCreatesOnFirstReference(t *testing.T) {
	store := newMemoryValueStore(1)
	resolver := NewResolver(store)
	cache := NewResolveCache()

	id, err := resolver.ResolveOrCreate(context.Background(), cache, 1, "Red")
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Len(t, store.values, 1)
}

func TestResolveOrCreateIsCaseInsensitive(t *testing.T) {
	store := newMemoryValueStore(1)
	resolver := NewResolver(store)
	cache := NewResolveCache()

	first, err := resolver.ResolveOrCreate(context.Background(), cache, 1, "Red")
	require.NoError(t, err)

	for _, name := range []string{"red", "RED", " Red ", "rEd"} {
		id, err := resolver.ResolveOrCreate(context.Background(), cache, 1, name)
		require.NoError(t, err)
		require.Equal(t, first, id)
	}
	require.Len(t, store.values, 1)
}

func TestResolveOrCreateCachesWithinRequest(t *testing.T) {
	store := newMemoryValueStore(1)
	resolver := NewResolver(store)
	cache := NewResolveCache()

	_, err := resolver.ResolveOrCreate(context.Background(), cache, 1, "Red")
	require.NoError(t, err)
	_, err = resolver.ResolveOrCreate(context.Background(), cache, 1, "red")
	require.NoError(t, err)

	require.Equal(t, 1, store.upserts)
}

func TestResolveOrCreateKeysByOption(t *testing.T) {
	store := newMemoryValueStore(1, 2)
	resolver := NewResolver(store)
	cache := NewResolveCache()

	colorRed, err := resolver.ResolveOrCreate(context.Background(), cache, 1, "Red")
	require.NoError(t, err)
	sizeRed, err := resolver.ResolveOrCreate(context.Background(), cache, 2, "Red")
	require.NoError(t, err)
	require.NotEqual(t, colorRed, sizeRed)
}

func TestResolveOrCreateRejectsBlankName(t *testing.T) {
	resolver := NewResolver(newMemoryValueStore(1))
	cache := NewResolveCache()

	_, err := resolver.ResolveOrCreate(context.Background(), cache, 1, "   ")
	require.ErrorIs(t, err, ErrBlankOptionValue)
}

func TestResolveOrCreateReportsUnknownOption(t *testing.T) {
	resolver := NewResolver(newMemoryValueStore(1))
	cache := NewResolveCache()

	_, err := resolver.ResolveOrCreate(context.Background(), cache, 99, "Red")
	var onf OptionNotFoundError
	require.ErrorAs(t, err, &onf)
	require.Equal(t, int64(99), onf.OptionID)
	require.Equal(t, "Option with Id 99 not found", onf.Error())
}
