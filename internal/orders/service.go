package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/velomart-erp/velomart-erp/internal/catalog"
	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// StockChanged notifies downstream consumers that the booking rows of
// the given products changed.
type StockChanged interface {
	StockChanged(ctx context.Context, productIDs []int64)
}

// Service manages outbound orders and their booking lines. Availability
// is never mutated here; it is recomputed from rows on every read.
type Service struct {
	logger *slog.Logger
	repo   RepositoryPort
	notify StockChanged
}

// NewService builds Service. notify may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, notify StockChanged) *Service {
	return &Service{logger: logger, repo: repo, notify: notify}
}

// Create validates and persists one order with its booking lines.
func (s *Service) Create(ctx context.Context, input CreateInput) (Order, error) {
	var errs shared.ValidationErrors
	if input.CustomerName == "" {
		errs.Add("customerName", "is required")
	}
	status := input.Status
	if status == "" {
		status = catalog.OrderStatusWaitingDeposit
	}
	if !KnownStatus(status) {
		errs.Add("status", "unknown status %q", status)
	}
	if len(input.Lines) == 0 {
		errs.Add("lines", "at least one line is required")
	}

	variantIDs := make([]int64, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.VariantID <= 0 {
			errs.Add(fmt.Sprintf("lines[%d].variantId", i), "is required")
			continue
		}
		if line.Booked <= 0 {
			errs.Add(fmt.Sprintf("lines[%d].booked", i), "must be greater than 0")
		}
		variantIDs = append(variantIDs, line.VariantID)
	}

	exists, err := s.repo.VariantsExist(ctx, variantIDs)
	if err != nil {
		return Order{}, fmt.Errorf("orders: check variants: %w", err)
	}
	for i, line := range input.Lines {
		if line.VariantID > 0 && !exists[line.VariantID] {
			errs.Add(fmt.Sprintf("lines[%d].variantId", i), "Variant with Id %d not found", line.VariantID)
		}
	}

	if errs.HasErrors() {
		return Order{}, errs
	}

	code := input.Code
	if code == "" {
		code = "SO-" + strings.ToUpper(uuid.NewString()[:8])
	}
	order := Order{
		Code:          code,
		CustomerName:  input.CustomerName,
		CustomerPhone: input.CustomerPhone,
		Status:        status,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("orders: insert order: %w", err)
		}
		order.ID = id
		lines := make([]BookingLine, 0, len(input.Lines))
		for _, in := range input.Lines {
			lines = append(lines, BookingLine{OrderID: id, VariantID: in.VariantID, Booked: in.Booked})
		}
		if err := tx.InsertLines(ctx, id, lines); err != nil {
			return fmt.Errorf("orders: insert lines: %w", err)
		}
		order.Lines = lines
		return nil
	})
	if err != nil {
		return Order{}, err
	}

	s.notifyOrder(ctx, order.ID)
	return order, nil
}

// UpdateStatus moves an order to a new lifecycle state. Terminal states
// cannot be left.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status catalog.OrderStatus) (Order, error) {
	if !KnownStatus(status) {
		return Order{}, ErrInvalidStatus
	}
	current, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	if _, terminal := terminalStatuses[current.Status]; terminal && current.Status != status {
		return Order{}, ErrInvalidStatus
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, orderID, status)
	})
	if err != nil {
		return Order{}, err
	}

	// a status change may move bookings in or out of the reserving set
	s.notifyOrder(ctx, orderID)
	return s.repo.Get(ctx, orderID)
}

// Get loads one order with lines.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	if id <= 0 {
		return Order{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of orders, optionally filtered by status.
func (s *Service) List(ctx context.Context, status *catalog.OrderStatus, page, perPage int) ([]Order, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	orders, total, err := s.repo.List(ctx, status, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) notifyOrder(ctx context.Context, orderID int64) {
	if s.notify == nil {
		return
	}
	productIDs, err := s.repo.ProductIDsForOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("map order to products", slog.Any("error", err))
		return
	}
	s.notify.StockChanged(ctx, productIDs)
}
