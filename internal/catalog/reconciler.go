package catalog

import (
	"sort"
	"strings"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// OptionPair is one submitted "option id -> value name" association.
type OptionPair struct {
	OptionID  int64
	ValueName string
}

// VariantInput is the neutral write-side shape of one submitted variant.
// Exactly one of OptionPairs and OptionValueIDs is populated depending on
// which request form the entry point received.
type VariantInput struct {
	ID             int64
	URLSlug        string
	Price          int64
	CoverImageURL  string
	Photos         []string
	OptionPairs    []OptionPair
	OptionValueIDs []int64
}

// VariantUpdate pairs an update candidate with its persisted counterpart.
type VariantUpdate struct {
	Current Variant
	Input   VariantInput
}

// ReconcilePlan is the outcome of classifying a submitted variant list
// against the persisted one. Persisted variants absent from the plan's
// updates are deleted outright together with their photos and
// option-value links.
type ReconcilePlan struct {
	Inserts []VariantInput
	Updates []VariantUpdate
	Deletes []Variant
}

// PlanReconcile classifies submitted variants into insert, update and
// delete sets. Submitted entries carrying a positive identifier that does
// not belong to productID's persisted set are reported as ownership
// errors and skipped; they never abort classification of the rest.
func PlanReconcile(productID int64, current []Variant, submitted []VariantInput) (ReconcilePlan, shared.ValidationErrors) {
	var (
		plan ReconcilePlan
		errs shared.ValidationErrors
	)

	byID := make(map[int64]Variant, len(current))
	for _, v := range current {
		byID[v.ID] = v
	}

	updated := make(map[int64]struct{}, len(submitted))
	for _, in := range submitted {
		if in.ID <= 0 {
			plan.Inserts = append(plan.Inserts, in)
			continue
		}
		cur, ok := byID[in.ID]
		if !ok {
			errs.Add("variants", "Variant %d does not belong to product %d", in.ID, productID)
			continue
		}
		updated[in.ID] = struct{}{}
		plan.Updates = append(plan.Updates, VariantUpdate{Current: cur, Input: in})
	}

	for _, v := range current {
		if _, ok := updated[v.ID]; !ok {
			plan.Deletes = append(plan.Deletes, v)
		}
	}
	return plan, errs
}

// DiffOptionValues computes the incremental reconciliation of a variant's
// option-value link set: toAdd = target - current, toRemove = current -
// target. The intersection is left untouched. Results are sorted for
// deterministic application order.
func DiffOptionValues(current, target []int64) (toAdd, toRemove []int64) {
	curSet := make(map[int64]struct{}, len(current))
	for _, id := range current {
		curSet[id] = struct{}{}
	}
	tgtSet := make(map[int64]struct{}, len(target))
	for _, id := range target {
		tgtSet[id] = struct{}{}
	}

	for id := range tgtSet {
		if _, ok := curSet[id]; !ok {
			toAdd = append(toAdd, id)
		}
	}
	for id := range curSet {
		if _, ok := tgtSet[id]; !ok {
			toRemove = append(toRemove, id)
		}
	}
	sort.Slice(toAdd, func(i, j int) bool { return toAdd[i] < toAdd[j] })
	sort.Slice(toRemove, func(i, j int) bool { return toRemove[i] < toRemove[j] })
	return toAdd, toRemove
}

// NormalizePhotos drops blank URLs from a submitted photo collection
// while preserving order. Photo collections are always replaced
// wholesale.
func NormalizePhotos(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		out = append(out, u)
	}
	return out
}
