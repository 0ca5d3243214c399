package brands

import (
	"context"
	"errors"
	"strings"

	"github.com/velomart-erp/velomart-erp/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Brand, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Brand, error) {
	if id <= 0 {
		return Brand{}, errors.New("invalid brand ID")
	}
	return s.repo.Get(ctx, id)
}

// Exists reports whether the brand id references a persisted row.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, brand Brand) (Brand, error) {
	if strings.TrimSpace(brand.Name) == "" {
		return Brand{}, errors.New("brand name is required")
	}
	return s.repo.Create(ctx, brand)
}

func (s *Service) Update(ctx context.Context, id int64, brand Brand) error {
	if id <= 0 {
		return errors.New("invalid brand ID")
	}
	if strings.TrimSpace(brand.Name) == "" {
		return errors.New("brand name is required")
	}
	return s.repo.Update(ctx, id, brand)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid brand ID")
	}
	return s.repo.Delete(ctx, id)
}
