package receiving

import (
	"errors"
	"time"
)

// Receipt is the header of one inbound goods receipt.
type Receipt struct {
	ID         int64     `json:"id" db:"id"`
	Code       string    `json:"code" db:"code"`
	SupplierID int64     `json:"supplier_id" db:"supplier_id"`
	Note       string    `json:"note" db:"note"`
	ReceivedAt time.Time `json:"received_at" db:"received_at"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	Lines      []Line    `json:"lines,omitempty" db:"-"`
}

// Line is one received variant quantity. Remaining tracks the unconsumed
// part of the received count and is what availability nets against.
type Line struct {
	ID        int64 `json:"id" db:"id"`
	ReceiptID int64 `json:"receipt_id" db:"receipt_id"`
	VariantID int64 `json:"variant_id" db:"variant_id"`
	Received  int   `json:"received" db:"received"`
	Remaining int   `json:"remaining" db:"remaining"`
}

// CreateInput describes a receipt posting request.
type CreateInput struct {
	Code       string      `json:"code"`
	SupplierID int64       `json:"supplierId" validate:"gt=0"`
	Note       string      `json:"note"`
	Lines      []LineInput `json:"lines" validate:"min=1,dive"`
}

// LineInput is one submitted receipt line.
type LineInput struct {
	VariantID int64 `json:"variantId" validate:"gt=0"`
	Received  int   `json:"received" validate:"gt=0"`
}

var (
	// ErrSupplierNotFound indicates an unknown supplier reference.
	ErrSupplierNotFound = errors.New("receiving: supplier not found")
	// ErrVariantNotFound indicates an unknown variant reference.
	ErrVariantNotFound = errors.New("receiving: variant not found")
)
