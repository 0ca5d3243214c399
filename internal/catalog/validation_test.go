package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

func TestValidateRequestAcceptsCompleteRequest(t *testing.T) {
	errs := validateRequest(validRequest())
	require.False(t, errs.HasErrors())
}

func TestValidateRequestReportsMissingFields(t *testing.T) {
	errs := validateRequest(ProductRequest{})
	fields := make(map[string]string)
	for _, fe := range errs {
		fields[fe.Field] = fe.Message
	}
	require.Equal(t, "is required", fields["name"])
	require.Equal(t, "must be greater than 0", fields["categoryId"])
	require.Equal(t, "must be greater than 0", fields["brandId"])
}

func TestValidateRequestSlugFormat(t *testing.T) {
	valid := []string{"bike", "bike-red", "Bike-RED-2024", "29er"}
	for _, slug := range valid {
		req := validRequest()
		req.Variants = req.Variants[:1]
		req.Variants[0].URLSlug = slug
		require.False(t, validateRequest(req).HasErrors(), "slug %q should pass", slug)
	}

	invalid := []string{"bike red", "bike_red", "-bike", "bike-", "bike--red", "bike/red"}
	for _, slug := range invalid {
		req := validRequest()
		req.Variants = req.Variants[:1]
		req.Variants[0].URLSlug = slug
		errs := validateRequest(req)
		require.True(t, errs.HasErrors(), "slug %q should fail", slug)
		require.Equal(t, "variants[0].urlSlug", errs[0].Field)
	}
}

func TestValidateRequestNegativePrice(t *testing.T) {
	req := validRequest()
	req.Variants[0].Price = -1
	errs := validateRequest(req)
	require.True(t, errs.HasErrors())
	require.Equal(t, "variants[0].price", errs[0].Field)
}

func TestVariantRequestToInputParsesOptionKeys(t *testing.T) {
	req := VariantRequest{
		URLSlug: "bike-red",
		OptionValues: map[string]string{
			"2":   "Red",
			"1":   "M",
			"bad": "x",
			"-3":  "y",
		},
		OptionValueIDs: []int64{7},
	}

	var errs shared.ValidationErrors
	in := req.toInput("variants[0]", &errs)

	require.Len(t, errs, 2)
	require.Equal(t, []OptionPair{{OptionID: 1, ValueName: "M"}, {OptionID: 2, ValueName: "Red"}}, in.OptionPairs)
	require.Equal(t, []int64{7}, in.OptionValueIDs)
}
