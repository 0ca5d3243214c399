package suppliers

// Supplier represents a goods supplier referenced by inbound receipts.
type Supplier struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}
