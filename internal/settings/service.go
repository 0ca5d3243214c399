package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Defaults carries the fallback values used when no row is stored.
type Defaults struct {
	StockAlertLevel         int
	SlugCheckIncludeDeleted bool
}

// Service reads settings through a redis cache. Concurrent misses for the
// same key collapse into one repository load via singleflight.
type Service struct {
	logger   *slog.Logger
	repo     Repository
	cache    *redis.Client
	ttl      time.Duration
	defaults Defaults
	group    singleflight.Group
}

// NewService builds Service. A zero ttl defaults to one minute.
func NewService(logger *slog.Logger, repo Repository, cache *redis.Client, ttl time.Duration, defaults Defaults) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{logger: logger, repo: repo, cache: cache, ttl: ttl, defaults: defaults}
}

func cacheKey(key string) string {
	return "settings:" + key
}

// value loads one setting, preferring the cache.
func (s *Service) value(ctx context.Context, key string) (string, error) {
	if s.cache != nil {
		if v, err := s.cache.Get(ctx, cacheKey(key)).Result(); err == nil {
			return v, nil
		}
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		v, err := s.repo.Get(ctx, key)
		if err != nil {
			return "", err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, cacheKey(key), v, s.ttl).Err(); err != nil {
				s.logger.Warn("cache setting", slog.String("key", key), slog.Any("error", err))
			}
		}
		return v, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// StockAlertLevel returns the configured low-stock threshold.
func (s *Service) StockAlertLevel(ctx context.Context) (int, error) {
	raw, err := s.value(ctx, KeyStockAlertLevel)
	if errors.Is(err, ErrUnknownKey) {
		return s.defaults.StockAlertLevel, nil
	}
	if err != nil {
		return 0, err
	}
	level, err := ParseInt(raw)
	if err != nil {
		return 0, fmt.Errorf("settings: parse %s: %w", KeyStockAlertLevel, err)
	}
	return level, nil
}

// SlugCheckIncludeDeleted reports whether slug uniqueness checks also
// scan soft-deleted variants.
func (s *Service) SlugCheckIncludeDeleted(ctx context.Context) (bool, error) {
	raw, err := s.value(ctx, KeySlugCheckIncludeDeleted)
	if errors.Is(err, ErrUnknownKey) {
		return s.defaults.SlugCheckIncludeDeleted, nil
	}
	if err != nil {
		return false, err
	}
	include, err := ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("settings: parse %s: %w", KeySlugCheckIncludeDeleted, err)
	}
	return include, nil
}

// SetStockAlertLevel stores the threshold and drops the cached value.
func (s *Service) SetStockAlertLevel(ctx context.Context, level int) error {
	if level < 0 {
		return errors.New("settings: alert level must be >= 0")
	}
	if err := s.repo.Set(ctx, KeyStockAlertLevel, strconv.Itoa(level)); err != nil {
		return err
	}
	s.invalidate(ctx, KeyStockAlertLevel)
	return nil
}

// SetSlugCheckIncludeDeleted stores the scope flag and drops the cached value.
func (s *Service) SetSlugCheckIncludeDeleted(ctx context.Context, include bool) error {
	if err := s.repo.Set(ctx, KeySlugCheckIncludeDeleted, strconv.FormatBool(include)); err != nil {
		return err
	}
	s.invalidate(ctx, KeySlugCheckIncludeDeleted)
	return nil
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKey(key)).Err(); err != nil {
		s.logger.Warn("invalidate setting", slog.String("key", key), slog.Any("error", err))
	}
}
