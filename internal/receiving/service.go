package receiving

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/velomart-erp/velomart-erp/internal/shared"
)

// SupplierChecker verifies that a supplier reference exists.
type SupplierChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// StockChanged notifies downstream consumers that the stock rows of the
// given products changed.
type StockChanged interface {
	StockChanged(ctx context.Context, productIDs []int64)
}

// Service posts inbound receipts. Receipt lines are the inbound side of
// the availability computation; consuming "remaining" is outside this
// module.
type Service struct {
	logger    *slog.Logger
	repo      RepositoryPort
	suppliers SupplierChecker
	notify    StockChanged
}

// NewService builds Service. notify may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, suppliers SupplierChecker, notify StockChanged) *Service {
	return &Service{logger: logger, repo: repo, suppliers: suppliers, notify: notify}
}

// Create validates and posts one receipt with its lines.
func (s *Service) Create(ctx context.Context, input CreateInput) (Receipt, error) {
	var errs shared.ValidationErrors
	if input.SupplierID <= 0 {
		errs.Add("supplierId", "is required")
	} else {
		ok, err := s.suppliers.Exists(ctx, input.SupplierID)
		if err != nil {
			return Receipt{}, fmt.Errorf("receiving: check supplier: %w", err)
		}
		if !ok {
			errs.Add("supplierId", "Supplier with Id %d not found", input.SupplierID)
		}
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
		if line.Received <= 0 {
			errs.Add(fmt.Sprintf("lines[%d].received", i), "must be greater than 0")
		}
		variantIDs = append(variantIDs, line.VariantID)
	}

	exists, err := s.repo.VariantsExist(ctx, variantIDs)
	if err != nil {
		return Receipt{}, fmt.Errorf("receiving: check variants: %w", err)
	}
	for i, line := range input.Lines {
		if line.VariantID > 0 && !exists[line.VariantID] {
			errs.Add(fmt.Sprintf("lines[%d].variantId", i), "Variant with Id %d not found", line.VariantID)
		}
	}

	if errs.HasErrors() {
		return Receipt{}, errs
	}

	now := time.Now().UTC()
	code := input.Code
	if code == "" {
		code = "GRN-" + strings.ToUpper(uuid.NewString()[:8])
	}
	receipt := Receipt{
		Code:       code,
		SupplierID: input.SupplierID,
		Note:       input.Note,
		ReceivedAt: now,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertReceipt(ctx, receipt)
		if err != nil {
			return fmt.Errorf("receiving: insert receipt: %w", err)
		}
		receipt.ID = id
		lines := make([]Line, 0, len(input.Lines))
		for _, in := range input.Lines {
			lines = append(lines, Line{
				ReceiptID: id,
				VariantID: in.VariantID,
				Received:  in.Received,
				Remaining: in.Received,
			})
		}
		if err := tx.InsertLines(ctx, id, lines); err != nil {
			return fmt.Errorf("receiving: insert lines: %w", err)
		}
		receipt.Lines = lines
		return nil
	})
	if err != nil {
		return Receipt{}, err
	}

	s.notifyStockChanged(ctx, variantIDs)
	return receipt, nil
}

// Get loads one receipt with lines.
func (s *Service) Get(ctx context.Context, id int64) (Receipt, error) {
	if id <= 0 {
		return Receipt{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns a page of receipt headers.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Receipt, shared.Pagination, error) {
	if perPage <= 0 {
		perPage = 20
	}
	if page <= 0 {
		page = 1
	}
	receipts, total, err := s.repo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return receipts, shared.NewPagination(page, perPage, total), nil
}

func (s *Service) notifyStockChanged(ctx context.Context, variantIDs []int64) {
	if s.notify == nil {
		return
	}
	productIDs, err := s.repo.ProductIDsForVariants(ctx, variantIDs)
	if err != nil {
		s.logger.Warn("map variants to products", slog.Any("error", err))
		return
	}
	s.notify.StockChanged(ctx, productIDs)
}
