package catalog

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

type memoryRepo struct {
	products     map[int64]Product
	variants     map[int64]Variant
	photos       map[int64][]string
	links        map[int64][]int64
	optionNames  map[int64]string
	valueIDs     map[string]int64
	valueRows    map[int64]OptionValue
	deletedSlugs []PersistedSlug
	inbound      map[int64][]InboundLine
	outbound     map[int64][]OutboundLine

	nextProductID int64
	nextVariantID int64
	nextValueID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products:    make(map[int64]Product),
		variants:    make(map[int64]Variant),
		photos:      make(map[int64][]string),
		links:       make(map[int64][]int64),
		optionNames: make(map[int64]string),
		valueIDs:    make(map[string]int64),
		valueRows:   make(map[int64]OptionValue),
		inbound:     make(map[int64][]InboundLine),
		outbound:    make(map[int64][]OutboundLine),
	}
}

func (r *memoryRepo) addOption(id int64, name string) {
	r.optionNames[id] = name
}

func (r *memoryRepo) snapshot() *memoryRepo {
	clone := newMemoryRepo()
	for k, v := range r.products {
		clone.products[k] = v
	}
	for k, v := range r.variants {
		clone.variants[k] = v
	}
	for k, v := range r.photos {
		clone.photos[k] = append([]string(nil), v...)
	}
	for k, v := range r.links {
		clone.links[k] = append([]int64(nil), v...)
	}
	for k, v := range r.optionNames {
		clone.optionNames[k] = v
	}
	for k, v := range r.valueIDs {
		clone.valueIDs[k] = v
	}
	for k, v := range r.valueRows {
		clone.valueRows[k] = v
	}
	clone.deletedSlugs = append([]PersistedSlug(nil), r.deletedSlugs...)
	clone.nextProductID = r.nextProductID
	clone.nextVariantID = r.nextVariantID
	clone.nextValueID = r.nextValueID
	return clone
}

func (r *memoryRepo) restore(snap *memoryRepo) {
	r.products = snap.products
	r.variants = snap.variants
	r.photos = snap.photos
	r.links = snap.links
	r.optionNames = snap.optionNames
	r.valueIDs = snap.valueIDs
	r.valueRows = snap.valueRows
	r.deletedSlugs = snap.deletedSlugs
	r.nextProductID = snap.nextProductID
	r.nextVariantID = snap.nextVariantID
	r.nextValueID = snap.nextValueID
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	snap := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok || p.DeletedAt != nil {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListProductIDs(ctx context.Context, filter ListFilter) ([]int64, int, error) {
	var ids []int64
	for id, p := range r.products {
		if p.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	return ids, len(ids), nil
}

func (r *memoryRepo) GetVariants(ctx context.Context, productID int64) ([]Variant, error) {
	var out []Variant
	for _, v := range r.variants {
		if v.ProductID == productID && v.DeletedAt == nil {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memoryRepo) FindSlugs(ctx context.Context, slugs []string, includeDeleted bool) ([]PersistedSlug, error) {
	wanted := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		wanted[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	var out []PersistedSlug
	for _, v := range r.variants {
		if _, ok := wanted[strings.ToLower(v.URLSlug)]; ok {
			out = append(out, PersistedSlug{VariantID: v.ID, ProductID: v.ProductID, Slug: v.URLSlug})
		}
	}
	if includeDeleted {
		for _, p := range r.deletedSlugs {
			if _, ok := wanted[strings.ToLower(p.Slug)]; ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *memoryRepo) GetProjection(ctx context.Context, productID int64) (ProductProjection, error) {
	p, err := r.GetProduct(ctx, productID)
	if err != nil {
		return ProductProjection{}, err
	}
	proj := ProductProjection{Product: p}
	variants, _ := r.GetVariants(ctx, productID)
	for _, v := range variants {
		vp := VariantProjection{
			ID:            v.ID,
			URLSlug:       v.URLSlug,
			Price:         v.Price,
			CoverImageURL: v.CoverImageURL,
			Photos:        append([]string(nil), r.photos[v.ID]...),
			Inbound:       append([]InboundLine(nil), r.inbound[v.ID]...),
			Outbound:      append([]OutboundLine(nil), r.outbound[v.ID]...),
		}
		for _, valueID := range r.links[v.ID] {
			row := r.valueRows[valueID]
			vp.Options = append(vp.Options, OptionAssociation{
				OptionName: r.optionNames[row.OptionID],
				ValueName:  row.Name,
			})
		}
		proj.Variants = append(proj.Variants, vp)
	}
	return proj, nil
}

type memoryTx struct {
	repo *memoryRepo
}

func (t *memoryTx) UpsertValue(ctx context.Context, optionID int64, name string) (int64, error) {
	if _, ok := t.repo.optionNames[optionID]; !ok {
		return 0, OptionNotFoundError{OptionID: optionID}
	}
	key := cacheKey(optionID, strings.ToLower(name))
	if id, ok := t.repo.valueIDs[key]; ok {
		return id, nil
	}
	t.repo.nextValueID++
	id := t.repo.nextValueID
	t.repo.valueIDs[key] = id
	t.repo.valueRows[id] = OptionValue{ID: id, OptionID: optionID, Name: name}
	return id, nil
}

func (t *memoryTx) InsertProduct(ctx context.Context, p Product) (int64, error) {
	t.repo.nextProductID++
	p.ID = t.repo.nextProductID
	t.repo.products[p.ID] = p
	return p.ID, nil
}

func (t *memoryTx) UpdateProduct(ctx context.Context, p Product) error {
	existing, ok := t.repo.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	p.CreatedAt = existing.CreatedAt
	t.repo.products[p.ID] = p
	return nil
}

func (t *memoryTx) InsertVariant(ctx context.Context, v Variant) (int64, error) {
	t.repo.nextVariantID++
	v.ID = t.repo.nextVariantID
	t.repo.variants[v.ID] = v
	return v.ID, nil
}

func (t *memoryTx) UpdateVariant(ctx context.Context, v Variant) error {
	if _, ok := t.repo.variants[v.ID]; !ok {
		return ErrVariantNotFound
	}
	t.repo.variants[v.ID] = v
	return nil
}

func (t *memoryTx) DeleteVariant(ctx context.Context, variantID int64) error {
	v, ok := t.repo.variants[variantID]
	if !ok {
		return ErrVariantNotFound
	}
	t.repo.deletedSlugs = append(t.repo.deletedSlugs, PersistedSlug{
		VariantID: v.ID, ProductID: v.ProductID, Slug: v.URLSlug,
	})
	delete(t.repo.variants, variantID)
	delete(t.repo.photos, variantID)
	delete(t.repo.links, variantID)
	return nil
}

func (t *memoryTx) ReplacePhotos(ctx context.Context, variantID int64, urls []string) error {
	t.repo.photos[variantID] = append([]string(nil), urls...)
	return nil
}

func (t *memoryTx) VariantOptionValueIDs(ctx context.Context, variantID int64) ([]int64, error) {
	return append([]int64(nil), t.repo.links[variantID]...), nil
}

func (t *memoryTx) LinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error {
	t.repo.links[variantID] = append(t.repo.links[variantID], valueIDs...)
	return nil
}

func (t *memoryTx) UnlinkOptionValues(ctx context.Context, variantID int64, valueIDs []int64) error {
	drop := make(map[int64]struct{}, len(valueIDs))
	for _, id := range valueIDs {
		drop[id] = struct{}{}
	}
	kept := t.repo.links[variantID][:0]
	for _, id := range t.repo.links[variantID] {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	t.repo.links[variantID] = kept
	return nil
}

func (t *memoryTx) VariantPhotoURLs(ctx context.Context, variantID int64) ([]string, error) {
	return append([]string(nil), t.repo.photos[variantID]...), nil
}

type stubChecker struct {
	exists bool
}

func (c stubChecker) Exists(ctx context.Context, id int64) (bool, error) {
	return c.exists, nil
}

type stubSettings struct {
	alertLevel     int
	includeDeleted bool
}

func (s stubSettings) StockAlertLevel(ctx context.Context) (int, error) {
	return s.alertLevel, nil
}

func (s stubSettings) SlugCheckIncludeDeleted(ctx context.Context) (bool, error) {
	return s.includeDeleted, nil
}

type recordedEvents struct {
	aggregateChanged []int64
	deletedPhotos    [][]string
}

func (e *recordedEvents) VariantsDeleted(ctx context.Context, productID int64, photoURLs []string) {
	e.deletedPhotos = append(e.deletedPhotos, photoURLs)
}

func (e *recordedEvents) AggregateChanged(ctx context.Context, productID int64) {
	e.aggregateChanged = append(e.aggregateChanged, productID)
}

func newTestService(repo *memoryRepo, settings stubSettings, events EventSink) *Service {
	logger := slog.Default()
	builder := NewAggregateBuilder(NewStockCalculator(DefaultStockPolicy()))
	return NewService(logger, repo, stubChecker{exists: true}, stubChecker{exists: true}, settings, builder, nil, events, nil)
}

func validRequest() ProductRequest {
	return ProductRequest{
		Name:       "Trail Bike",
		CategoryID: 1,
		BrandID:    1,
		Variants: []VariantRequest{
			{
				URLSlug:         "trail-bike-red",
				Price:           1200,
				CoverImageURL:   "/red.jpg",
				PhotoCollection: []string{"/red-1.jpg", ""},
				OptionValues:    map[string]string{"1": "Red"},
			},
			{
				URLSlug:      "trail-bike-blue",
				Price:        1250,
				OptionValues: map[string]string{"1": "Blue"},
			},
		},
	}
}

func TestCreatePersistsProductAndVariants(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	events := &recordedEvents{}
	svc := newTestService(repo, stubSettings{alertLevel: 5}, events)

	resp, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	require.Equal(t, "Trail Bike", resp.Name)
	require.Equal(t, ProductStatusForSale, resp.Status)
	require.Len(t, resp.Variants, 2)
	require.Len(t, repo.variants, 2)
	require.Len(t, repo.valueRows, 2)

	// blank photo entry is dropped
	for _, v := range repo.variants {
		if v.URLSlug == "trail-bike-red" {
			require.Equal(t, []string{"/red-1.jpg"}, repo.photos[v.ID])
		}
	}

	require.Equal(t, []int64{1}, events.aggregateChanged)
	require.Empty(t, events.deletedPhotos)

	require.Len(t, resp.Options, 1)
	require.Equal(t, "Color", resp.Options[0].Name)
	require.ElementsMatch(t, []string{"Red", "Blue"}, resp.Options[0].Values)
}

func TestCreateAggregatesAllErrorsWithoutMutation(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := NewService(slog.Default(), repo, stubChecker{exists: false}, stubChecker{exists: false},
		stubSettings{}, NewAggregateBuilder(NewStockCalculator(DefaultStockPolicy())), nil, nil, nil)

	req := validRequest()
	req.Variants[0].URLSlug = "not a slug!"
	req.Variants[1].URLSlug = ""

	_, err := svc.Create(context.Background(), req, "")
	require.Error(t, err)

	verrs, ok := shared.AsValidationErrors(err)
	require.True(t, ok)
	fields := make(map[string]bool)
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	require.True(t, fields["categoryId"])
	require.True(t, fields["brandId"])
	require.True(t, fields["variants[0].urlSlug"])
	require.True(t, fields["variants[1].urlSlug"])

	require.Empty(t, repo.products)
	require.Empty(t, repo.variants)
	require.Empty(t, repo.valueRows)
}

func TestCreateRejectsDuplicateSlugAnyCase(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := newTestService(repo, stubSettings{}, nil)

	req := validRequest()
	req.Variants[1].URLSlug = "TRAIL-BIKE-RED"

	_, err := svc.Create(context.Background(), req, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicated within the request")
	require.Empty(t, repo.products)
}

func TestCreateUnknownOptionRollsBackEverything(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := newTestService(repo, stubSettings{}, nil)

	req := validRequest()
	req.Variants[1].OptionValues = map[string]string{"99": "XL"}

	_, err := svc.Create(context.Background(), req, "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Option with Id 99 not found")

	// the first variant's value resolution is rolled back with the rest
	require.Empty(t, repo.products)
	require.Empty(t, repo.variants)
	require.Empty(t, repo.valueRows)
}

func TestUpdateReconcilesVariantSet(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	events := &recordedEvents{}
	svc := newTestService(repo, stubSettings{alertLevel: 5}, events)

	created, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	var redID int64
	for _, v := range repo.variants {
		if v.URLSlug == "trail-bike-red" {
			redID = v.ID
		}
	}
	require.NotZero(t, redID)

	update := ProductRequest{
		Name:       "Trail Bike",
		CategoryID: 1,
		BrandID:    1,
		Variants: []VariantRequest{
			{
				ID:           redID,
				URLSlug:      "trail-bike-red",
				Price:        1300,
				OptionValues: map[string]string{"1": "red"},
			},
			{
				URLSlug:      "trail-bike-green",
				Price:        1100,
				OptionValues: map[string]string{"1": "Green"},
			},
		},
	}

	resp, err := svc.Update(context.Background(), created.ID, update)
	require.NoError(t, err)
	require.Len(t, resp.Variants, 2)
	require.Len(t, repo.variants, 2)

	// blue was dropped from the submission and is gone
	for _, v := range repo.variants {
		require.NotEqual(t, "trail-bike-blue", v.URLSlug)
	}

	// lowercase "red" resolves to the existing value row, not a new one
	require.Len(t, repo.valueRows, 3)

	require.Equal(t, int64(1300), variantBySlug(t, resp, "trail-bike-red").Price)
}

func TestUpdateForeignVariantAborts(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := newTestService(repo, stubSettings{}, nil)

	created, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	req := validRequest()
	req.Variants[0].ID = 999

	_, err = svc.Update(context.Background(), created.ID, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Variant 999 does not belong to product 1")
	require.Len(t, repo.variants, 2)
}

func TestUpdateResubmittingOwnSlugSucceeds(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := newTestService(repo, stubSettings{}, nil)

	created, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	req := validRequest()
	for _, v := range repo.variants {
		for i := range req.Variants {
			if req.Variants[i].URLSlug == v.URLSlug {
				req.Variants[i].ID = v.ID
			}
		}
	}

	_, err = svc.Update(context.Background(), created.ID, req)
	require.NoError(t, err)
}

func TestUpdateDeletedVariantPhotosHandedToEvents(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	events := &recordedEvents{}
	svc := newTestService(repo, stubSettings{}, events)

	created, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	update := ProductRequest{
		Name:       "Trail Bike",
		CategoryID: 1,
		BrandID:    1,
		Variants: []VariantRequest{
			{URLSlug: "only-survivor", Price: 100},
		},
	}
	_, err = svc.Update(context.Background(), created.ID, update)
	require.NoError(t, err)

	require.Len(t, events.deletedPhotos, 1)
	require.Contains(t, events.deletedPhotos[0], "/red-1.jpg")
	require.Contains(t, events.deletedPhotos[0], "/red.jpg")
}

func TestSlugOfDeletedVariantReusableByDefault(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	repo.deletedSlugs = []PersistedSlug{{VariantID: 42, ProductID: 9, Slug: "trail-bike-red"}}
	svc := newTestService(repo, stubSettings{}, nil)

	_, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)
}

func TestSlugOfDeletedVariantBlockedWhenScopeIncludesDeleted(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	repo.deletedSlugs = []PersistedSlug{{VariantID: 42, ProductID: 9, Slug: "trail-bike-red"}}
	svc := newTestService(repo, stubSettings{includeDeleted: true}, nil)

	_, err := svc.Create(context.Background(), validRequest(), "")
	require.Error(t, err)
	require.Contains(t, err.Error(), "already in use")
}

func TestGetServesFromCache(t *testing.T) {
	repo := newMemoryRepo()
	cached := ProductResponse{ID: 7, Name: "Cached"}
	cache := &stubAggregateCache{entries: map[int64]ProductResponse{7: cached}}
	svc := NewService(slog.Default(), repo, stubChecker{exists: true}, stubChecker{exists: true},
		stubSettings{}, NewAggregateBuilder(NewStockCalculator(DefaultStockPolicy())), nil, nil, cache)

	resp, err := svc.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "Cached", resp.Name)
}

func TestGetMissingProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, stubSettings{}, nil)

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestListBuildsEveryAggregate(t *testing.T) {
	repo := newMemoryRepo()
	repo.addOption(1, "Color")
	svc := newTestService(repo, stubSettings{}, nil)

	_, err := svc.Create(context.Background(), validRequest(), "")
	require.NoError(t, err)

	second := validRequest()
	second.Name = "City Bike"
	second.Variants[0].URLSlug = "city-bike-red"
	second.Variants[1].URLSlug = "city-bike-blue"
	_, err = svc.Create(context.Background(), second, "")
	require.NoError(t, err)

	list, err := svc.List(context.Background(), ListFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, list.Products, 2)
	require.Equal(t, 2, list.Pagination.Total)
}

type stubAggregateCache struct {
	entries map[int64]ProductResponse
}

func (c *stubAggregateCache) Get(ctx context.Context, productID int64) (ProductResponse, bool) {
	resp, ok := c.entries[productID]
	return resp, ok
}

func (c *stubAggregateCache) Set(ctx context.Context, productID int64, resp ProductResponse) {
	c.entries[productID] = resp
}

func (c *stubAggregateCache) Invalidate(ctx context.Context, productID int64) {
	delete(c.entries, productID)
}

func variantBySlug(t *testing.T, resp ProductResponse, slug string) VariantResponse {
	t.Helper()
	for _, v := range resp.Variants {
		if v.URLSlug == slug {
			return v
		}
	}
	t.Fatalf("variant %q not found", slug)
	return VariantResponse{}
}
