package catalog

import (
	"sort"
	"strconv"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// VariantRequest is one submitted variant. Option associations arrive in
// one of two forms: the optionValues map ("option id as string" -> value
// name) or the pre-resolved optionValueIds list. Both are accepted.
type VariantRequest struct {
	ID              int64             `json:"id,omitempty"`
	URLSlug         string            `json:"urlSlug" validate:"required,urlslug"`
	Price           int64             `json:"price" validate:"min=0"`
	CoverImageURL   string            `json:"coverImageUrl"`
	PhotoCollection []string          `json:"photoCollection"`
	OptionValues    map[string]string `json:"optionValues,omitempty"`
	OptionValueIDs  []int64           `json:"optionValueIds,omitempty"`
}

// ProductRequest is the write request shape shared by create and update.
type ProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	CategoryID  int64            `json:"categoryId" validate:"gt=0"`
	BrandID     int64            `json:"brandId" validate:"gt=0"`
	Status      ProductStatus    `json:"status,omitempty"`
	Description string           `json:"description,omitempty"`
	WeightGrams int              `json:"weightGrams,omitempty" validate:"min=0"`
	Dimensions  string           `json:"dimensions,omitempty"`
	EngineSpec  string           `json:"engineSpec,omitempty"`
	Variants    []VariantRequest `json:"variants" validate:"dive"`
}

// VariantResponse carries one variant of the product read model.
type VariantResponse struct {
	ID              int64             `json:"id"`
	URLSlug         string            `json:"urlSlug"`
	Price           int64             `json:"price"`
	CoverImageURL   string            `json:"coverImageUrl"`
	OptionValues    map[string]string `json:"optionValues"`
	PhotoCollection []string          `json:"photoCollection"`
	Stock           int               `json:"stock"`
	HasBeenBooked   int               `json:"hasBeenBooked"`
	StatusStockID   StockStatus       `json:"statusStockId"`
}

// OptionFacet is the derived "option name -> distinct values" facet.
type OptionFacet struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ProductResponse is the aggregate read model of one product.
type ProductResponse struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	CategoryID    int64             `json:"categoryId"`
	BrandID       int64             `json:"brandId"`
	Status        ProductStatus     `json:"status"`
	Description   string            `json:"description,omitempty"`
	WeightGrams   int               `json:"weightGrams,omitempty"`
	Dimensions    string            `json:"dimensions,omitempty"`
	EngineSpec    string            `json:"engineSpec,omitempty"`
	Variants      []VariantResponse `json:"variants"`
	Options       []OptionFacet     `json:"options"`
	Stock         int               `json:"stock"`
	HasBeenBooked int               `json:"hasBeenBooked"`
	StatusStockID StockStatus       `json:"statusStockId"`
	CoverImageURL string            `json:"coverImageUrl"`
}

// ListResponse wraps the paginated product listing.
type ListResponse struct {
	Products   []ProductResponse `json:"products"`
	Pagination shared.Pagination `json:"pagination"`
}

// toInput converts a VariantRequest into the neutral reconciler shape.
// Unparseable option-id keys are aggregated; blank value names are
// dropped silently.
func (r VariantRequest) toInput(field string, errs *shared.ValidationErrors) VariantInput {
	in := VariantInput{
		ID:             r.ID,
		URLSlug:        r.URLSlug,
		Price:          r.Price,
		CoverImageURL:  r.CoverImageURL,
		Photos:         NormalizePhotos(r.PhotoCollection),
		OptionValueIDs: append([]int64(nil), r.OptionValueIDs...),
	}
	for rawID, valueName := range r.OptionValues {
		optionID, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || optionID <= 0 {
			errs.Add(field, "invalid option id %q", rawID)
			continue
		}
		in.OptionPairs = append(in.OptionPairs, OptionPair{OptionID: optionID, ValueName: valueName})
	}
	// map iteration order is random; keep resolution order stable
	sort.Slice(in.OptionPairs, func(i, j int) bool {
		return in.OptionPairs[i].OptionID < in.OptionPairs[j].OptionID
	})
	return in
}
