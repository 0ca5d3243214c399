package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// ReferenceChecker verifies that a referenced master-data row exists.
type ReferenceChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// SettingsPort supplies the externally configured knobs of the engine.
type SettingsPort interface {
	StockAlertLevel(ctx context.Context) (int, error)
	SlugCheckIncludeDeleted(ctx context.Context) (bool, error)
}

// EventSink receives write-path side effects handed off to background
// processing: photo URLs of hard-deleted variants and aggregate cache
// invalidation. Implementations must not block the request.
type EventSink interface {
	VariantsDeleted(ctx context.Context, productID int64, photoURLs []string)
	AggregateChanged(ctx context.Context, productID int64)
}

// AggregateCachePort caches built product aggregates on the read path.
type AggregateCachePort interface {
	Get(ctx context.Context, productID int64) (ProductResponse, bool)
	Set(ctx context.Context, productID int64, resp ProductResponse)
	Invalidate(ctx context.Context, productID int64)
}

// Service coordinates the catalog write and read paths.
type Service struct {
	logger      *slog.Logger
	repo        RepositoryPort
	categories  ReferenceChecker
	brands      ReferenceChecker
	settings    SettingsPort
	builder     *AggregateBuilder
	idempotency *shared.IdempotencyStore
	events      EventSink
	cache       AggregateCachePort
}

// NewService builds Service. idempotency, events and cache may be nil.
func NewService(
	logger *slog.Logger,
	repo RepositoryPort,
	categories ReferenceChecker,
	brands ReferenceChecker,
	settings SettingsPort,
	builder *AggregateBuilder,
	idempotency *shared.IdempotencyStore,
	events EventSink,
	cache AggregateCachePort,
) *Service {
	return &Service{
		logger:      logger,
		repo:        repo,
		categories:  categories,
		brands:      brands,
		settings:    settings,
		builder:     builder,
		idempotency: idempotency,
		events:      events,
		cache:       cache,
	}
}

// Create validates and persists a new product with its variants, then
// returns the freshly built aggregate.
func (s *Service) Create(ctx context.Context, req ProductRequest, idemKey string) (ProductResponse, error) {
	if idemKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "catalog"); err != nil {
			return ProductResponse{}, err
		}
	}

	var errs shared.ValidationErrors
	errs.Merge(validateRequest(req))
	s.checkReferences(ctx, req, &errs)

	inputs := s.buildInputs(req, &errs)
	// no current variants on create: positive ids are ownership errors
	plan, planErrs := PlanReconcile(0, nil, inputs)
	errs.Merge(planErrs)

	slugErrs, err := s.checkSlugs(ctx, 0, inputs)
	if err != nil {
		return ProductResponse{}, err
	}
	errs.Merge(slugErrs)

	if errs.HasErrors() {
		if idemKey != "" {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return ProductResponse{}, errs
	}

	product := productFromRequest(req)
	var productID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertProduct(ctx, product)
		if err != nil {
			return fmt.Errorf("catalog: insert product: %w", err)
		}
		productID = id
		return s.applyPlan(ctx, tx, id, plan)
	})
	if err != nil {
		if idemKey != "" {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return ProductResponse{}, err
	}

	s.afterWrite(ctx, productID, nil)
	return s.buildAggregate(ctx, productID)
}

// Update reconciles the submitted variant set against the persisted one
// and returns the rebuilt aggregate.
func (s *Service) Update(ctx context.Context, productID int64, req ProductRequest) (ProductResponse, error) {
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return ProductResponse{}, err
	}
	current, err := s.repo.GetVariants(ctx, productID)
	if err != nil {
		return ProductResponse{}, err
	}

	var errs shared.ValidationErrors
	errs.Merge(validateRequest(req))
	s.checkReferences(ctx, req, &errs)

	inputs := s.buildInputs(req, &errs)
	plan, planErrs := PlanReconcile(productID, current, inputs)
	errs.Merge(planErrs)

	slugErrs, err := s.checkSlugs(ctx, productID, inputs)
	if err != nil {
		return ProductResponse{}, err
	}
	errs.Merge(slugErrs)

	if errs.HasErrors() {
		return ProductResponse{}, errs
	}

	product := productFromRequest(req)
	product.ID = productID

	var deletedPhotos []string
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateProduct(ctx, product); err != nil {
			return err
		}
		urls, err := s.collectDeletedPhotos(ctx, tx, plan.Deletes)
		if err != nil {
			return err
		}
		deletedPhotos = urls
		return s.applyPlan(ctx, tx, productID, plan)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.afterWrite(ctx, productID, deletedPhotos)
	return s.buildAggregate(ctx, productID)
}

// Get returns the aggregate of one product, serving from the cache when
// possible.
func (s *Service) Get(ctx context.Context, productID int64) (ProductResponse, error) {
	if s.cache != nil {
		if resp, ok := s.cache.Get(ctx, productID); ok {
			return resp, nil
		}
	}
	return s.buildAggregate(ctx, productID)
}

// List returns a page of product aggregates; aggregates are built
// concurrently per product.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResponse, error) {
	ids, total, err := s.repo.ListProductIDs(ctx, filter)
	if err != nil {
		return ListResponse{}, err
	}

	responses := make([]ProductResponse, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			resp, err := s.Get(gctx, id)
			if err != nil {
				return err
			}
			responses[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ListResponse{}, err
	}

	return ListResponse{
		Products:   responses,
		Pagination: shared.NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}

// checkReferences aggregates referential errors for category and brand.
func (s *Service) checkReferences(ctx context.Context, req ProductRequest, errs *shared.ValidationErrors) {
	if req.CategoryID > 0 {
		ok, err := s.categories.Exists(ctx, req.CategoryID)
		if err != nil {
			s.logger.Warn("category existence check failed", slog.Any("error", err))
		} else if !ok {
			errs.Add("categoryId", "Category with Id %d not found", req.CategoryID)
		}
	}
	if req.BrandID > 0 {
		ok, err := s.brands.Exists(ctx, req.BrandID)
		if err != nil {
			s.logger.Warn("brand existence check failed", slog.Any("error", err))
		} else if !ok {
			errs.Add("brandId", "Brand with Id %d not found", req.BrandID)
		}
	}
}

func (s *Service) buildInputs(req ProductRequest, errs *shared.ValidationErrors) []VariantInput {
	inputs := make([]VariantInput, 0, len(req.Variants))
	for i, vr := range req.Variants {
		inputs = append(inputs, vr.toInput(variantField(i), errs))
	}
	return inputs
}

func (s *Service) checkSlugs(ctx context.Context, productID int64, inputs []VariantInput) (shared.ValidationErrors, error) {
	candidates := make([]SlugCandidate, 0, len(inputs))
	slugs := make([]string, 0, len(inputs))
	for i, in := range inputs {
		candidates = append(candidates, SlugCandidate{
			ProductID: productID,
			VariantID: in.ID,
			Slug:      in.URLSlug,
			Field:     variantField(i) + ".urlSlug",
		})
		slugs = append(slugs, in.URLSlug)
	}

	includeDeleted, err := s.settings.SlugCheckIncludeDeleted(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: load slug check scope: %w", err)
	}
	persisted, err := s.repo.FindSlugs(ctx, slugs, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("catalog: find persisted slugs: %w", err)
	}
	return ValidateSlugs(candidates, persisted), nil
}

// applyPlan resolves all option-value pairs and then applies the
// insert/update/delete sets. Resolution runs first so that an unknown
// option aborts the unit of work before any variant mutation.
func (s *Service) applyPlan(ctx context.Context, tx TxRepository, productID int64, plan ReconcilePlan) error {
	resolver := NewResolver(tx)
	cache := NewResolveCache()

	var errs shared.ValidationErrors
	insertTargets := make([][]int64, len(plan.Inserts))
	for i, in := range plan.Inserts {
		insertTargets[i] = s.resolveTarget(ctx, resolver, cache, in, &errs)
	}
	updateTargets := make([][]int64, len(plan.Updates))
	for i, up := range plan.Updates {
		updateTargets[i] = s.resolveTarget(ctx, resolver, cache, up.Input, &errs)
	}
	if errs.HasErrors() {
		return errs
	}

	for i, in := range plan.Inserts {
		variantID, err := tx.InsertVariant(ctx, Variant{
			ProductID:     productID,
			URLSlug:       in.URLSlug,
			Price:         in.Price,
			CoverImageURL: in.CoverImageURL,
		})
		if err != nil {
			return fmt.Errorf("catalog: insert variant: %w", err)
		}
		if err := tx.ReplacePhotos(ctx, variantID, in.Photos); err != nil {
			return fmt.Errorf("catalog: replace photos: %w", err)
		}
		if err := tx.LinkOptionValues(ctx, variantID, insertTargets[i]); err != nil {
			return fmt.Errorf("catalog: link option values: %w", err)
		}
	}

	for i, up := range plan.Updates {
		if err := tx.UpdateVariant(ctx, Variant{
			ID:            up.Current.ID,
			ProductID:     productID,
			URLSlug:       up.Input.URLSlug,
			Price:         up.Input.Price,
			CoverImageURL: up.Input.CoverImageURL,
		}); err != nil {
			return fmt.Errorf("catalog: update variant %d: %w", up.Current.ID, err)
		}
		if err := tx.ReplacePhotos(ctx, up.Current.ID, up.Input.Photos); err != nil {
			return fmt.Errorf("catalog: replace photos: %w", err)
		}
		currentIDs, err := tx.VariantOptionValueIDs(ctx, up.Current.ID)
		if err != nil {
			return fmt.Errorf("catalog: load option value links: %w", err)
		}
		toAdd, toRemove := DiffOptionValues(currentIDs, updateTargets[i])
		if err := tx.UnlinkOptionValues(ctx, up.Current.ID, toRemove); err != nil {
			return fmt.Errorf("catalog: unlink option values: %w", err)
		}
		if err := tx.LinkOptionValues(ctx, up.Current.ID, toAdd); err != nil {
			return fmt.Errorf("catalog: link option values: %w", err)
		}
	}

	for _, v := range plan.Deletes {
		if err := tx.DeleteVariant(ctx, v.ID); err != nil {
			return fmt.Errorf("catalog: delete variant %d: %w", v.ID, err)
		}
	}
	return nil
}

// resolveTarget resolves one variant's option associations into the
// target identifier set. Blank pairs are skipped silently; unknown
// options accumulate field errors. The pre-resolved id form bypasses the
// resolver.
func (s *Service) resolveTarget(ctx context.Context, resolver *Resolver, cache ResolveCache, in VariantInput, errs *shared.ValidationErrors) []int64 {
	seen := make(map[int64]struct{}, len(in.OptionPairs)+len(in.OptionValueIDs))
	target := make([]int64, 0, len(in.OptionPairs)+len(in.OptionValueIDs))
	add := func(id int64) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		target = append(target, id)
	}

	for _, id := range in.OptionValueIDs {
		if id > 0 {
			add(id)
		}
	}
	for _, pair := range in.OptionPairs {
		id, err := resolver.ResolveOrCreate(ctx, cache, pair.OptionID, pair.ValueName)
		if err != nil {
			if errors.Is(err, ErrBlankOptionValue) {
				continue
			}
			var onf OptionNotFoundError
			if errors.As(err, &onf) {
				errs.Add("optionValues", "%s", onf.Error())
				continue
			}
			errs.Add("optionValues", "resolve option %d: %v", pair.OptionID, err)
			continue
		}
		add(id)
	}
	return target
}

func (s *Service) collectDeletedPhotos(ctx context.Context, tx TxRepository, deletes []Variant) ([]string, error) {
	var urls []string
	for _, v := range deletes {
		photoURLs, err := tx.VariantPhotoURLs(ctx, v.ID)
		if err != nil {
			return nil, fmt.Errorf("catalog: collect photos of variant %d: %w", v.ID, err)
		}
		urls = append(urls, photoURLs...)
		if v.CoverImageURL != "" {
			urls = append(urls, v.CoverImageURL)
		}
	}
	return urls, nil
}

func (s *Service) afterWrite(ctx context.Context, productID int64, deletedPhotos []string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, productID)
	}
	if s.events == nil {
		return
	}
	s.events.AggregateChanged(ctx, productID)
	if len(deletedPhotos) > 0 {
		s.events.VariantsDeleted(ctx, productID, deletedPhotos)
	}
}

func (s *Service) buildAggregate(ctx context.Context, productID int64) (ProductResponse, error) {
	proj, err := s.repo.GetProjection(ctx, productID)
	if err != nil {
		return ProductResponse{}, err
	}
	alertLevel, err := s.settings.StockAlertLevel(ctx)
	if err != nil {
		s.logger.Warn("load stock alert level", slog.Any("error", err))
		alertLevel = 0
	}
	resp := s.builder.Build(proj, alertLevel)
	if s.cache != nil {
		s.cache.Set(ctx, productID, resp)
	}
	return resp, nil
}

func productFromRequest(req ProductRequest) Product {
	status := req.Status
	if status == "" {
		status = ProductStatusForSale
	}
	return Product{
		Name:        req.Name,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		Status:      status,
		Description: req.Description,
		WeightGrams: req.WeightGrams,
		Dimensions:  req.Dimensions,
		EngineSpec:  req.EngineSpec,
	}
}

func variantField(i int) string {
	return fmt.Sprintf("variants[%d]", i)
}
