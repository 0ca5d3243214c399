package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// OptionAssociation is one flat "option name / value name" row of a
// variant projection. Either name may be missing when the referenced
// option or value row is gone; such rows are skipped.
type OptionAssociation struct {
	OptionName string `db:"option_name"`
	ValueName  string `db:"value_name"`
}

// VariantProjection is the flat read-model row set of one variant,
// produced by the projection queries. It deliberately carries no nested
// entity graph.
type VariantProjection struct {
	ID            int64
	URLSlug       string
	Price         int64
	CoverImageURL string
	Photos        []string
	Options       []OptionAssociation
	Inbound       []InboundLine
	Outbound      []OutboundLine
}

// ProductProjection is the flat read model of one product.
type ProductProjection struct {
	Product  Product
	Variants []VariantProjection
}

// AggregateBuilder assembles the response read model from projections.
// Used by both write-path responses and list/detail reads.
type AggregateBuilder struct {
	calc     *StockCalculator
	collator *collate.Collator
}

// NewAggregateBuilder constructs a builder around calc. Facet names and
// values are ordered with a case-insensitive collator; availability and
// uniqueness semantics stay ordinal.
func NewAggregateBuilder(calc *StockCalculator) *AggregateBuilder {
	return &AggregateBuilder{
		calc:     calc,
		collator: collate.New(language.Und, collate.IgnoreCase),
	}
}

// Build produces the response shape for one product. Variants are ordered
// ascending by available stock with the slug as tie-break, so the
// scarcest variant surfaces first; the product cover image is that
// variant's cover.
func (b *AggregateBuilder) Build(p ProductProjection, alertLevel int) ProductResponse {
	resp := ProductResponse{
		ID:          p.Product.ID,
		Name:        p.Product.Name,
		CategoryID:  p.Product.CategoryID,
		BrandID:     p.Product.BrandID,
		Status:      p.Product.Status,
		Description: p.Product.Description,
		WeightGrams: p.Product.WeightGrams,
		Dimensions:  p.Product.Dimensions,
		EngineSpec:  p.Product.EngineSpec,
		Variants:    make([]VariantResponse, 0, len(p.Variants)),
	}

	for _, v := range p.Variants {
		available, booked := b.calc.Available(v.Inbound, v.Outbound)
		resp.Variants = append(resp.Variants, VariantResponse{
			ID:              v.ID,
			URLSlug:         v.URLSlug,
			Price:           v.Price,
			CoverImageURL:   v.CoverImageURL,
			OptionValues:    b.optionValueMap(v.Options),
			PhotoCollection: append([]string(nil), v.Photos...),
			Stock:           available,
			HasBeenBooked:   booked,
			StatusStockID:   b.calc.Classify(available, alertLevel),
		})
		resp.Stock += available
		resp.HasBeenBooked += booked
	}

	sort.SliceStable(resp.Variants, func(i, j int) bool {
		if resp.Variants[i].Stock != resp.Variants[j].Stock {
			return resp.Variants[i].Stock < resp.Variants[j].Stock
		}
		return resp.Variants[i].URLSlug < resp.Variants[j].URLSlug
	})

	resp.StatusStockID = b.calc.Classify(resp.Stock, alertLevel)
	if len(resp.Variants) > 0 {
		resp.CoverImageURL = resp.Variants[0].CoverImageURL
	}
	resp.Options = b.facets(p.Variants)
	return resp
}

// optionValueMap builds the per-variant map keyed by option display name.
// Keys are deduplicated case-insensitively with the first-seen casing
// kept; associations missing either name are skipped.
func (b *AggregateBuilder) optionValueMap(assocs []OptionAssociation) map[string]string {
	out := make(map[string]string, len(assocs))
	canonical := make(map[string]string, len(assocs))
	for _, a := range assocs {
		if a.OptionName == "" || a.ValueName == "" {
			continue
		}
		lower := strings.ToLower(a.OptionName)
		key, ok := canonical[lower]
		if !ok {
			key = a.OptionName
			canonical[lower] = key
		}
		out[key] = a.ValueName
	}
	return out
}

// facets derives the option facet list: for every option name the
// distinct values across all variants, values and names collated.
func (b *AggregateBuilder) facets(variants []VariantProjection) []OptionFacet {
	names := make(map[string]string)             // lower(name) -> display name
	values := make(map[string]map[string]string) // lower(name) -> lower(value) -> display value
	for _, v := range variants {
		for _, a := range v.Options {
			if a.OptionName == "" || a.ValueName == "" {
				continue
			}
			lowerName := strings.ToLower(a.OptionName)
			if _, ok := names[lowerName]; !ok {
				names[lowerName] = a.OptionName
				values[lowerName] = make(map[string]string)
			}
			lowerValue := strings.ToLower(a.ValueName)
			if _, ok := values[lowerName][lowerValue]; !ok {
				values[lowerName][lowerValue] = a.ValueName
			}
		}
	}

	facets := make([]OptionFacet, 0, len(names))
	for lowerName, display := range names {
		facet := OptionFacet{Name: display, Values: make([]string, 0, len(values[lowerName]))}
		for _, v := range values[lowerName] {
			facet.Values = append(facet.Values, v)
		}
		b.collator.SortStrings(facet.Values)
		facets = append(facets, facet)
	}
	sort.Slice(facets, func(i, j int) bool {
		return b.collator.CompareString(facets[i].Name, facets[j].Name) < 0
	})
	return facets
}
