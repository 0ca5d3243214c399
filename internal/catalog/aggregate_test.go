package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testBuilder() *AggregateBuilder {
	return NewAggregateBuilder(NewStockCalculator(DefaultStockPolicy()))
}

func TestBuildOrdersVariantsByScarcity(t *testing.T) {
	proj := ProductProjection{
		Product: Product{ID: 1, Name: "Bike", Status: ProductStatusForSale},
		Variants: []VariantProjection{
			{ID: 1, URLSlug: "a-variant", Inbound: []InboundLine{{Remaining: 5}}},
			{ID: 2, URLSlug: "b-variant", Inbound: []InboundLine{{Remaining: 5}}},
			{ID: 3, URLSlug: "c-variant", Inbound: []InboundLine{{Remaining: 2}}},
		},
	}

	resp := testBuilder().Build(proj, 0)
	require.Len(t, resp.Variants, 3)
	require.Equal(t, "c-variant", resp.Variants[0].URLSlug)
	require.Equal(t, "a-variant", resp.Variants[1].URLSlug)
	require.Equal(t, "b-variant", resp.Variants[2].URLSlug)
}

func TestBuildCoverComesFromScarcestVariant(t *testing.T) {
	proj := ProductProjection{
		Product: Product{ID: 1, Name: "Bike"},
		Variants: []VariantProjection{
			{ID: 1, URLSlug: "plenty", CoverImageURL: "/plenty.jpg", Inbound: []InboundLine{{Remaining: 9}}},
			{ID: 2, URLSlug: "scarce", CoverImageURL: "/scarce.jpg", Inbound: []InboundLine{{Remaining: 1}}},
		},
	}

	resp := testBuilder().Build(proj, 0)
	require.Equal(t, "/scarce.jpg", resp.CoverImageURL)
}

func TestBuildTotalsAndStatus(t *testing.T) {
	proj := ProductProjection{
		Product: Product{ID: 1, Name: "Bike"},
		Variants: []VariantProjection{
			{
				ID: 1, URLSlug: "red",
				Inbound:  []InboundLine{{Remaining: 10}},
				Outbound: []OutboundLine{{OrderID: 1, Booked: 4, OrderStatus: OrderStatusDelivering}},
			},
			{
				ID: 2, URLSlug: "blue",
				Inbound:  []InboundLine{{Remaining: 3}},
				Outbound: []OutboundLine{{OrderID: 2, Booked: 2, OrderStatus: OrderStatusFinished}},
			},
		},
	}

	resp := testBuilder().Build(proj, 5)
	require.Equal(t, 9, resp.Stock)
	require.Equal(t, 4, resp.HasBeenBooked)
	require.Equal(t, StockStatusIn, resp.StatusStockID)

	// blue: 3 available, finished booking does not reserve
	require.Equal(t, "blue", resp.Variants[0].URLSlug)
	require.Equal(t, 3, resp.Variants[0].Stock)
	require.Equal(t, 0, resp.Variants[0].HasBeenBooked)
	require.Equal(t, StockStatusLow, resp.Variants[0].StatusStockID)
}

func TestBuildOptionValueMapDeduplicatesCaseInsensitively(t *testing.T) {
	proj := ProductProjection{
		Product: Product{ID: 1},
		Variants: []VariantProjection{
			{
				ID: 1, URLSlug: "v",
				Options: []OptionAssociation{
					{OptionName: "Color", ValueName: "Red"},
					{OptionName: "color", ValueName: "Blue"},
					{OptionName: "", ValueName: "orphan"},
					{OptionName: "Size", ValueName: ""},
				},
			},
		},
	}

	resp := testBuilder().Build(proj, 0)
	require.Len(t, resp.Variants[0].OptionValues, 1)
	// first seen casing wins the key, later association wins the value
	require.Equal(t, "Blue", resp.Variants[0].OptionValues["Color"])
}

func TestBuildFacetsCollectDistinctValues(t *testing.T) {
	proj := ProductProjection{
		Product: Product{ID: 1},
		Variants: []VariantProjection{
			{ID: 1, URLSlug: "v1", Options: []OptionAssociation{
				{OptionName: "Size", ValueName: "M"},
				{OptionName: "Color", ValueName: "red"},
			}},
			{ID: 2, URLSlug: "v2", Options: []OptionAssociation{
				{OptionName: "Color", ValueName: "Blue"},
				{OptionName: "color", ValueName: "RED"},
			}},
		},
	}

	resp := testBuilder().Build(proj, 0)
	require.Len(t, resp.Options, 2)
	require.Equal(t, "Color", resp.Options[0].Name)
	require.Equal(t, []string{"Blue", "red"}, resp.Options[0].Values)
	require.Equal(t, "Size", resp.Options[1].Name)
	require.Equal(t, []string{"M"}, resp.Options[1].Values)
}

func TestBuildEmptyProductHasNoCover(t *testing.T) {
	resp := testBuilder().Build(ProductProjection{Product: Product{ID: 1}}, 0)
	require.Empty(t, resp.Variants)
	require.Empty(t, resp.CoverImageURL)
	require.Equal(t, StockStatusOut, resp.StatusStockID)
	require.Empty(t, resp.Options)
}
