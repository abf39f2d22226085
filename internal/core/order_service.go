package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SalesOrderLineService creates and maintains sales-order lines, allocating stock
// for them and raising replenishment orders for any backorder.
type SalesOrderLineService interface {
	// CreateLine allocates stock and saves the line in one transaction, then requests
	// replenishment for the backorder. A failed replenishment is reported in
	// LineOutcome.Warning and never undoes the line.
	CreateLine(ctx context.Context, req CreateLineRequest) (*LineOutcome, error)
	// UpdateLine returns the line's current allocation to stock and allocates the
	// new quantity from scratch. Purchase orders raised earlier are left as they are.
	UpdateLine(ctx context.Context, lineID uuid.UUID, req UpdateLineRequest) (*LineOutcome, error)
	// DeleteLine returns the line's allocation to stock and removes it.
	DeleteLine(ctx context.Context, lineID uuid.UUID) error

	GetLine(ctx context.Context, lineID uuid.UUID) (*SalesOrderLine, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]SalesOrderLine, error)
}

type salesOrderLineService struct {
	store       Store
	ledger      InventoryLedger
	allocator   StockAllocator
	replenisher ReplenishmentRequester
	clock       Clock
	log         zerolog.Logger
}

func NewSalesOrderLineService(store Store, ledger InventoryLedger, allocator StockAllocator,
	replenisher ReplenishmentRequester, clock Clock, logger zerolog.Logger) SalesOrderLineService {
	if clock == nil {
		clock = time.Now
	}
	return &salesOrderLineService{
		store:       store,
		ledger:      ledger,
		allocator:   allocator,
		replenisher: replenisher,
		clock:       clock,
		log:         logger,
	}
}

func (s *salesOrderLineService) CreateLine(ctx context.Context, req CreateLineRequest) (*LineOutcome, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("line quantity %d: %w", req.Quantity, ErrInvalidQuantity)
	}
	if req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", req.UnitPrice)
	}

	now := s.clock()
	line := &SalesOrderLine{
		ID:        uuid.New(),
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var alloc *Allocation
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetSalesOrder(ctx, req.OrderID); err != nil {
			return err
		}
		if _, err := tx.GetProduct(ctx, req.ProductID); err != nil {
			return err
		}

		var err error
		alloc, err = s.allocate(ctx, tx, line)
		if err != nil {
			return err
		}
		line.BackorderQuantity = alloc.Shortfall

		if err := tx.InsertSalesOrderLine(ctx, line); err != nil {
			return fmt.Errorf("insert sales order line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateTotals(ctx, line.ProductID)

	s.log.Info().
		Str("line_id", line.ID.String()).
		Str("product_id", line.ProductID.String()).
		Int("requested", alloc.Requested).
		Int("allocated", alloc.Allocated).
		Int("backorder", alloc.Shortfall).
		Msg("sales order line created")

	return s.replenish(ctx, line, alloc), nil
}

func (s *salesOrderLineService) UpdateLine(ctx context.Context, lineID uuid.UUID, req UpdateLineRequest) (*LineOutcome, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("line quantity %d: %w", req.Quantity, ErrInvalidQuantity)
	}
	if req.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price cannot be negative, got %s", req.UnitPrice)
	}

	var line *SalesOrderLine
	var alloc *Allocation
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		line, err = tx.LockSalesOrderLine(ctx, lineID)
		if err != nil {
			return err
		}

		if err := s.release(ctx, tx, line); err != nil {
			return err
		}

		line.Quantity = req.Quantity
		line.UnitPrice = req.UnitPrice
		line.UpdatedAt = s.clock()

		alloc, err = s.allocate(ctx, tx, line)
		if err != nil {
			return err
		}
		line.BackorderQuantity = alloc.Shortfall

		if err := tx.UpdateSalesOrderLine(ctx, line); err != nil {
			return fmt.Errorf("update sales order line %s: %w", lineID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.ledger.InvalidateTotals(ctx, line.ProductID)

	return s.replenish(ctx, line, alloc), nil
}

func (s *salesOrderLineService) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	var productID uuid.UUID
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		line, err := tx.LockSalesOrderLine(ctx, lineID)
		if err != nil {
			return err
		}
		productID = line.ProductID

		if err := s.release(ctx, tx, line); err != nil {
			return err
		}
		if err := tx.DeleteSalesOrderLine(ctx, lineID); err != nil {
			return fmt.Errorf("delete sales order line %s: %w", lineID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.ledger.InvalidateTotals(ctx, productID)
	return nil
}

func (s *salesOrderLineService) GetLine(ctx context.Context, lineID uuid.UUID) (*SalesOrderLine, error) {
	return s.store.GetSalesOrderLine(ctx, lineID)
}

func (s *salesOrderLineService) ListLines(ctx context.Context, orderID uuid.UUID) ([]SalesOrderLine, error) {
	if _, err := s.store.GetSalesOrder(ctx, orderID); err != nil {
		return nil, err
	}
	lines, err := s.store.ListSalesOrderLines(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list lines for order %s: %w", orderID, err)
	}
	return lines, nil
}

// allocate maps a product without any inventory record to ErrInsufficientConfiguration.
func (s *salesOrderLineService) allocate(ctx context.Context, tx Tx, line *SalesOrderLine) (*Allocation, error) {
	lineID := line.ID
	alloc, err := s.allocator.Allocate(ctx, tx, line.ProductID, line.Quantity, MovementRef{
		Kind:             MovementAllocation,
		SalesOrderLineID: &lineID,
		Document:         "SO-" + line.OrderID.String(),
		Description:      fmt.Sprintf("Allocated for sales order line %s", lineID),
	})
	if errors.Is(err, ErrNoInventory) {
		return nil, insufficientConfiguration(line.ProductID)
	}
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

// release credits back whatever the line still holds, to the warehouses it came from.
func (s *salesOrderLineService) release(ctx context.Context, tx Tx, line *SalesOrderLine) error {
	// Take the product's locks in allocation order before crediting individual rows.
	if _, err := tx.LockInventoryByProduct(ctx, line.ProductID); err != nil {
		return fmt.Errorf("lock inventory for product %s: %w", line.ProductID, err)
	}

	held, err := tx.NetLineAllocation(ctx, line.ID)
	if err != nil {
		return fmt.Errorf("load allocation for line %s: %w", line.ID, err)
	}

	lineID := line.ID
	for _, d := range held {
		if d.Quantity <= 0 {
			continue
		}
		ref := MovementRef{
			Kind:             MovementRelease,
			SalesOrderLineID: &lineID,
			Document:         "SO-" + line.OrderID.String(),
			Description:      fmt.Sprintf("Released from sales order line %s", lineID),
		}
		if err := s.ledger.Credit(ctx, tx, line.ProductID, d.WarehouseID, d.Quantity, ref); err != nil {
			return fmt.Errorf("release line %s: %w", lineID, err)
		}
	}
	return nil
}

// replenish runs after the line has committed. Failures are logged and returned
// as a warning on the outcome.
func (s *salesOrderLineService) replenish(ctx context.Context, line *SalesOrderLine, alloc *Allocation) *LineOutcome {
	outcome := &LineOutcome{Line: line, Allocation: alloc}
	if alloc.Shortfall == 0 {
		return outcome
	}
	if s.replenisher == nil {
		outcome.Warning = &ReplenishmentFailure{ProductID: line.ProductID, Shortfall: alloc.Shortfall, Err: ErrSourcingUnavailable}
		return outcome
	}

	lineID := line.ID
	po, err := s.replenisher.RequestReplenishment(ctx, ReplenishmentRequest{
		ProductID:    line.ProductID,
		Shortfall:    alloc.Shortfall,
		SourceLineID: &lineID,
	})
	if err != nil {
		outcome.Warning = &ReplenishmentFailure{ProductID: line.ProductID, Shortfall: alloc.Shortfall, Err: err}
		s.log.Warn().
			Err(err).
			Str("line_id", line.ID.String()).
			Str("product_id", line.ProductID.String()).
			Int("shortfall", alloc.Shortfall).
			Msg("replenishment failed, backorder left without purchase order")
		return outcome
	}

	outcome.PurchaseOrder = po
	s.log.Info().
		Str("line_id", line.ID.String()).
		Str("po_id", po.ID.String()).
		Int("shortfall", alloc.Shortfall).
		Msg("replenishment purchase order raised")
	return outcome
}
