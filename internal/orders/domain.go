package orders

import (
	"errors"
	"time"

	"github.com/velomart-erp/velomart-erp/internal/catalog"
)

// Order is one outbound customer order. Its status drives whether the
// booked quantities reserve stock.
type Order struct {
	ID            int64               `json:"id" db:"id"`
	Code          string              `json:"code" db:"code"`
	CustomerName  string              `json:"customer_name" db:"customer_name"`
	CustomerPhone string              `json:"customer_phone" db:"customer_phone"`
	Status        catalog.OrderStatus `json:"status" db:"status"`
	CreatedAt     time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" db:"updated_at"`
	Lines         []BookingLine       `json:"lines,omitempty" db:"-"`
}

// BookingLine books a quantity of one variant against an order.
type BookingLine struct {
	ID        int64 `json:"id" db:"id"`
	OrderID   int64 `json:"order_id" db:"order_id"`
	VariantID int64 `json:"variant_id" db:"variant_id"`
	Booked    int   `json:"booked" db:"booked"`
}

// CreateInput describes an order creation request.
type CreateInput struct {
	Code          string              `json:"code"`
	CustomerName  string              `json:"customerName" validate:"required"`
	CustomerPhone string              `json:"customerPhone"`
	Status        catalog.OrderStatus `json:"status"`
	Lines         []LineInput         `json:"lines" validate:"min=1,dive"`
}

// LineInput is one submitted booking line.
type LineInput struct {
	VariantID int64 `json:"variantId" validate:"gt=0"`
	Booked    int   `json:"booked" validate:"gt=0"`
}

var knownStatuses = map[catalog.OrderStatus]struct{}{
	catalog.OrderStatusConfirmedCOD:   {},
	catalog.OrderStatusPaidProcessing: {},
	catalog.OrderStatusWaitingDeposit: {},
	catalog.OrderStatusDepositPaid:    {},
	catalog.OrderStatusDelivering:     {},
	catalog.OrderStatusWaitingPickup:  {},
	catalog.OrderStatusFinished:       {},
	catalog.OrderStatusCancelled:      {},
}

// KnownStatus reports whether status belongs to the order lifecycle.
func KnownStatus(status catalog.OrderStatus) bool {
	_, ok := knownStatuses[status]
	return ok
}

var terminalStatuses = map[catalog.OrderStatus]struct{}{
	catalog.OrderStatusFinished:  {},
	catalog.OrderStatusCancelled: {},
}

// ErrInvalidStatus indicates an unknown status or a transition out of a
// terminal state.
var ErrInvalidStatus = errors.New("orders: invalid status transition")
