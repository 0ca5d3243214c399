package catalog

import (
	"fmt"
	"time"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// ProductStatus enumerates product lifecycle states.
type ProductStatus string

const (
	// ProductStatusForSale is the default lifecycle state.
	ProductStatusForSale ProductStatus = "for-sale"
	// ProductStatusHidden removes the product from storefront listings.
	ProductStatusHidden ProductStatus = "hidden"
	// ProductStatusDiscontinued marks a product no longer restocked.
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// StockStatus classifies an availability figure against the alert level.
type StockStatus string

const (
	StockStatusOut StockStatus = "out_of_stock"
	StockStatusLow StockStatus = "low_in_stock"
	StockStatusIn  StockStatus = "in_stock"
)

// OrderStatus mirrors the outbound order lifecycle observed by this engine.
type OrderStatus string

const (
	OrderStatusConfirmedCOD   OrderStatus = "confirmed_cod"
	OrderStatusPaidProcessing OrderStatus = "paid_processing"
	OrderStatusWaitingDeposit OrderStatus = "waiting_deposit"
	OrderStatusDepositPaid    OrderStatus = "deposit_paid"
	OrderStatusDelivering     OrderStatus = "delivering"
	OrderStatusWaitingPickup  OrderStatus = "waiting_pickup"
	OrderStatusFinished       OrderStatus = "finished"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// Product is the aggregate root. Soft-deletable via DeletedAt.
type Product struct {
	ID          int64         `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	CategoryID  int64         `json:"category_id" db:"category_id"`
	BrandID     int64         `json:"brand_id" db:"brand_id"`
	Status      ProductStatus `json:"status" db:"status"`
	Description string        `json:"description" db:"description"`
	WeightGrams int           `json:"weight_grams" db:"weight_grams"`
	Dimensions  string        `json:"dimensions" db:"dimensions"`
	EngineSpec  string        `json:"engine_spec" db:"engine_spec"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty" db:"deleted_at"`
	Variants    []Variant     `json:"variants,omitempty" db:"-"`
}

// Variant is one purchasable configuration of a product. Soft-deletable
// independently of its product; the reconciler however removes variants
// outright when they drop out of a submitted set.
type Variant struct {
	ID            int64      `json:"id" db:"id"`
	ProductID     int64      `json:"product_id" db:"product_id"`
	URLSlug       string     `json:"url_slug" db:"url_slug"`
	Price         int64      `json:"price" db:"price"`
	CoverImageURL string     `json:"cover_image_url" db:"cover_image_url"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Option is a named axis of variation, e.g. "Color".
type Option struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// OptionValue is one concrete choice of an option, e.g. "Red". Name is
// unique per option under case-insensitive comparison; once created a
// value is never mutated or deleted by this engine.
type OptionValue struct {
	ID       int64  `json:"id" db:"id"`
	OptionID int64  `json:"option_id" db:"option_id"`
	Name     string `json:"name" db:"name"`
}

// InboundLine carries the remaining (unconsumed) quantity of one inbound
// receipt line for a variant. Absent counts coalesce to zero in the
// projection queries.
type InboundLine struct {
	VariantID int64 `db:"variant_id"`
	Received  int   `db:"received"`
	Remaining int   `db:"remaining"`
}

// OutboundLine carries one order booking against a variant together with
// the status of the owning order.
type OutboundLine struct {
	VariantID   int64       `db:"variant_id"`
	OrderID     int64       `db:"order_id"`
	Booked      int         `db:"booked"`
	OrderStatus OrderStatus `db:"order_status"`
}

// PersistedSlug pairs a stored slug with its owning variant and product,
// used for cross-request collision checks.
type PersistedSlug struct {
	VariantID int64  `db:"variant_id"`
	ProductID int64  `db:"product_id"`
	Slug      string `db:"url_slug"`
}

var (
	// ErrProductNotFound indicates the product does not exist or is deleted.
	ErrProductNotFound = fmt.Errorf("catalog: product %w", shared.ErrNotFound)
	// ErrVariantNotFound indicates the variant does not exist.
	ErrVariantNotFound = fmt.Errorf("catalog: variant %w", shared.ErrNotFound)
)
