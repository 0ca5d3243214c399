package catalog

import (
	"strings"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// SlugCandidate is a submitted slug paired with the variant it belongs to
// (VariantID zero for inserts) and the request field used in error reports.
type SlugCandidate struct {
	ProductID int64
	VariantID int64
	Slug      string
	Field     string
}

// ValidateSlugs rejects same-request duplicates and collisions with
// persisted slugs owned by other variants. Slugs are trimmed and compared
// ordinally case-insensitive. Runs before any mutation; a non-empty
// result aborts the whole write.
func ValidateSlugs(candidates []SlugCandidate, persisted []PersistedSlug) shared.ValidationErrors {
	var errs shared.ValidationErrors

	seen := make(map[string]int, len(candidates))
	for _, c := range candidates {
		norm := normalizeSlug(c.Slug)
		if norm == "" {
			errs.Add(c.Field, "slug must not be empty")
			continue
		}
		seen[norm]++
	}
	for _, c := range candidates {
		norm := normalizeSlug(c.Slug)
		if norm == "" {
			continue
		}
		if seen[norm] > 1 {
			errs.Add(c.Field, "slug %q is duplicated within the request", strings.TrimSpace(c.Slug))
			// report once per candidate but avoid repeating for its twins
			seen[norm] = 1
			continue
		}
		for _, p := range persisted {
			if normalizeSlug(p.Slug) != norm {
				continue
			}
			if p.ProductID == c.ProductID && p.VariantID == c.VariantID {
				// the variant keeps its own persisted slug
				continue
			}
			errs.Add(c.Field, "slug %q already in use", strings.TrimSpace(c.Slug))
			break
		}
	}
	return errs
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
