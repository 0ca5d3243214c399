package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrBlankOptionValue signals a value name that is empty after trimming.
// Callers skip blank pairs rather than reporting them.
var ErrBlankOptionValue = errors.New("catalog: blank option value")

// OptionNotFoundError identifies an option id that does not resolve to a
// persisted option. Aggregated as a field error by callers.
type OptionNotFoundError struct {
	OptionID int64
}

func (e OptionNotFoundError) Error() string {
	return fmt.Sprintf("Option with Id %d not found", e.OptionID)
}

// OptionValueStore is the persistence port of the resolver. UpsertValue
// must be atomic on (option_id, lower(name)) and return the identifier of
// the existing or freshly created row.
type OptionValueStore interface {
	UpsertValue(ctx context.Context, optionID int64, name string) (int64, error)
}

// ResolveCache deduplicates option-value lookups within one request so
// repeated pairs resolve to a single persisted row. Not safe for use
// across requests.
type ResolveCache map[string]int64

// NewResolveCache returns an empty request-scoped cache.
func NewResolveCache() ResolveCache {
	return make(ResolveCache)
}

func cacheKey(optionID int64, normalized string) string {
	return fmt.Sprintf("%d\x00%s", optionID, normalized)
}

// Resolver resolves (optionID, valueName) pairs to persisted value
// identifiers, creating values on first reference. Resolution is a write
// operation: new rows are persisted immediately so their identifiers are
// usable by later lines of the same request.
type Resolver struct {
	store OptionValueStore
}

// NewResolver builds a Resolver on top of store.
func NewResolver(store OptionValueStore) *Resolver {
	return &Resolver{store: store}
}

// ResolveOrCreate returns the identifier of the value named valueName
// under optionID. Lookup is case-insensitive on the trimmed name; within
// one cache the same pair always yields the same identifier.
func (r *Resolver) ResolveOrCreate(ctx context.Context, cache ResolveCache, optionID int64, valueName string) (int64, error) {
	name := strings.TrimSpace(valueName)
	if name == "" {
		return 0, ErrBlankOptionValue
	}
	key := cacheKey(optionID, strings.ToLower(name))
	if id, ok := cache[key]; ok {
		return id, nil
	}
	id, err := r.store.UpsertValue(ctx, optionID, name)
	if err != nil {
		return 0, err
	}
	cache[key] = id
	return id, nil
}
