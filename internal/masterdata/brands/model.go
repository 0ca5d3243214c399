package brands

// Brand represents a product brand.
type Brand struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}
