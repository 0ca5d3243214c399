package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanReconcileClassifiesSets(t *testing.T) {
	current := []Variant{
		{ID: 1, ProductID: 10, URLSlug: "keep-me"},
		{ID: 2, ProductID: 10, URLSlug: "drop-me"},
	}
	submitted := []VariantInput{
		{ID: 1, URLSlug: "keep-me-renamed"},
		{URLSlug: "brand-new"},
	}

	plan, errs := PlanReconcile(10, current, submitted)
	require.False(t, errs.HasErrors())

	require.Len(t, plan.Inserts, 1)
	require.Equal(t, "brand-new", plan.Inserts[0].URLSlug)

	require.Len(t, plan.Updates, 1)
	require.Equal(t, int64(1), plan.Updates[0].Current.ID)
	require.Equal(t, "keep-me-renamed", plan.Updates[0].Input.URLSlug)

	require.Len(t, plan.Deletes, 1)
	require.Equal(t, int64(2), plan.Deletes[0].ID)
}

func TestPlanReconcileEmptySubmissionDeletesAll(t *testing.T) {
	current := []Variant{{ID: 1, ProductID: 10}, {ID: 2, ProductID: 10}}

	plan, errs := PlanReconcile(10, current, nil)
	require.False(t, errs.HasErrors())
	require.Empty(t, plan.Inserts)
	require.Empty(t, plan.Updates)
	require.Len(t, plan.Deletes, 2)
}

func TestPlanReconcileRejectsForeignVariant(t *testing.T) {
	current := []Variant{{ID: 1, ProductID: 10}}
	submitted := []VariantInput{
		{ID: 99, URLSlug: "someone-elses"},
		{ID: 1, URLSlug: "mine"},
	}

	plan, errs := PlanReconcile(10, current, submitted)
	require.True(t, errs.HasErrors())
	require.Contains(t, errs.Error(), "Variant 99 does not belong to product 10")

	// the foreign entry is skipped, the rest still classifies
	require.Len(t, plan.Updates, 1)
	require.Empty(t, plan.Deletes)
}

func TestDiffOptionValues(t *testing.T) {
	toAdd, toRemove := DiffOptionValues([]int64{1, 2, 3}, []int64{2, 3, 4, 5})
	require.Equal(t, []int64{4, 5}, toAdd)
	require.Equal(t, []int64{1}, toRemove)
}

func TestDiffOptionValuesNoChange(t *testing.T) {
	toAdd, toRemove := DiffOptionValues([]int64{1, 2}, []int64{2, 1})
	require.Empty(t, toAdd)
	require.Empty(t, toRemove)
}

func TestDiffOptionValuesFromEmpty(t *testing.T) {
	toAdd, toRemove := DiffOptionValues(nil, []int64{3, 1})
	require.Equal(t, []int64{1, 3}, toAdd)
	require.Empty(t, toRemove)

	toAdd, toRemove = DiffOptionValues([]int64{3, 1}, nil)
	require.Empty(t, toAdd)
	require.Equal(t, []int64{1, 3}, toRemove)
}

func TestNormalizePhotosDropsBlanks(t *testing.T) {
	photos := NormalizePhotos([]string{" /a.jpg ", "", "   ", "/b.jpg"})
	require.Equal(t, []string{"/a.jpg", "/b.jpg"}, photos)
}
