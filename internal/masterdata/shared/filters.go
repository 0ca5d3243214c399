package shared

// ListFilters represents standard list page filters.
type ListFilters struct {
	Page    int
	Limit   int
	Search  string
	SortBy  string
	SortDir string
}

// SortOrder builds a safe ORDER BY clause from whitelisted columns.
func SortOrder(sortBy, sortDir string, allowed map[string]struct{}, fallback string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	if _, ok := allowed[sortBy]; ok {
		return sortBy + " " + dir
	}
	return fallback + " " + dir
}
