package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PurchaseOrderService provides purchase order lifecycle operations.
type PurchaseOrderService interface {
	// CreatePO creates a DRAFT or CREATED purchase order after validating supplier,
	// creator and every product.
	CreatePO(ctx context.Context, req CreatePORequest) (*PurchaseOrder, error)

	// SetStatus moves the order to newStatus. Moving to RECEIVED credits inventory for
	// every line; a second RECEIVED fails with ErrAlreadyReceived before anything is written.
	SetStatus(ctx context.Context, poID uuid.UUID, newStatus POStatus) (*PurchaseOrder, error)

	// Approve records the approver, assigns a gapless PO number and moves to APPROVED.
	// It is idempotent: approving an already-APPROVED PO is a no-op.
	Approve(ctx context.Context, poID, approverID uuid.UUID) (*PurchaseOrder, error)

	GetPO(ctx context.Context, poID uuid.UUID) (*PurchaseOrder, error)
	ListPOs(ctx context.Context, filter POFilter) ([]PurchaseOrder, error)
	// OrderTotal is the sum of quantity × unit price over all lines.
	OrderTotal(ctx context.Context, poID uuid.UUID) (decimal.Decimal, error)
}

// ReceivingPolicy picks the warehouse a received line is credited to.
type ReceivingPolicy interface {
	ReceivingWarehouse(ctx context.Context, tx Tx, productID uuid.UUID) (uuid.UUID, error)
}

// DefaultReceivingPolicy credits the product's first existing location in allocation
// order. A product with no records goes to Fallback, or to the first active warehouse
// by code when Fallback is unset.
type DefaultReceivingPolicy struct {
	Fallback uuid.UUID
}

func (p DefaultReceivingPolicy) ReceivingWarehouse(ctx context.Context, tx Tx, productID uuid.UUID) (uuid.UUID, error) {
	records, err := tx.LockInventoryByProduct(ctx, productID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("lock inventory for product %s: %w", productID, err)
	}
	if len(records) > 0 {
		return records[0].WarehouseID, nil
	}

	if p.Fallback != uuid.Nil {
		w, err := tx.GetWarehouse(ctx, p.Fallback)
		if err != nil {
			return uuid.Nil, fmt.Errorf("default receiving warehouse: %w", err)
		}
		if w.IsActive {
			return w.ID, nil
		}
	}

	warehouses, err := tx.ListActiveWarehouses(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("list warehouses: %w", err)
	}
	if len(warehouses) == 0 {
		return uuid.Nil, fmt.Errorf("receive product %s: %w", productID, ErrNoReceivingLocation)
	}
	return warehouses[0].ID, nil
}

type purchaseOrderService struct {
	store     Store
	ledger    InventoryLedger
	receiving ReceivingPolicy
	numbers   DocumentNumberer
	clock     Clock
	log       zerolog.Logger
}

func NewPurchaseOrderService(store Store, ledger InventoryLedger, receiving ReceivingPolicy, clock Clock, logger zerolog.Logger) PurchaseOrderService {
	if receiving == nil {
		receiving = DefaultReceivingPolicy{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &purchaseOrderService{
		store:     store,
		ledger:    ledger,
		receiving: receiving,
		numbers:   NewDocumentNumberer(),
		clock:     clock,
		log:       logger,
	}
}

func (s *purchaseOrderService) CreatePO(ctx context.Context, req CreatePORequest) (*PurchaseOrder, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("purchase order must have at least one line")
	}
	status := req.Status
	if status == "" {
		status = POStatusDraft
	}
	if status != POStatusDraft && status != POStatusCreated {
		return nil, fmt.Errorf("new purchase order cannot start in %s: %w", status, ErrInvalidTransition)
	}

	now := s.clock()
	po := &PurchaseOrder{
		ID:               uuid.New(),
		SupplierID:       req.SupplierID,
		CreatedBy:        req.CreatedBy,
		Status:           status,
		CreatedAt:        now,
		ExpectedDelivery: req.ExpectedDelivery,
		SourceLineID:     req.SourceLineID,
	}

	for i, in := range req.Lines {
		if in.Quantity <= 0 {
			return nil, fmt.Errorf("line %d: quantity %d: %w", i+1, in.Quantity, ErrInvalidQuantity)
		}
		if in.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %d: unit price cannot be negative, got %s", i+1, in.UnitPrice)
		}
		po.Lines = append(po.Lines, PurchaseOrderLine{
			ID:              uuid.New(),
			PurchaseOrderID: po.ID,
			ProductID:       in.ProductID,
			Quantity:        in.Quantity,
			UnitPrice:       in.UnitPrice,
		})
	}

	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		supplier, err := tx.GetSupplier(ctx, req.SupplierID)
		if err != nil {
			return fmt.Errorf("validate supplier: %w", err)
		}
		if !supplier.IsActive {
			return fmt.Errorf("supplier %s is inactive", supplier.Code)
		}
		if _, err := tx.GetUser(ctx, req.CreatedBy); err != nil {
			return fmt.Errorf("validate creator: %w", err)
		}
		for i, l := range po.Lines {
			if _, err := tx.GetProduct(ctx, l.ProductID); err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
		}
		if err := tx.InsertPurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("insert purchase order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("po_id", po.ID.String()).
		Str("status", string(po.Status)).
		Int("lines", len(po.Lines)).
		Msg("purchase order created")
	return po, nil
}

func (s *purchaseOrderService) SetStatus(ctx context.Context, poID uuid.UUID, newStatus POStatus) (*PurchaseOrder, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", newStatus, ErrInvalidTransition)
	}

	var po *PurchaseOrder
	var credited []uuid.UUID
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		po, err = tx.LockPurchaseOrder(ctx, poID)
		if err != nil {
			return err
		}

		// Guard and write happen under the same row lock.
		if po.Status == POStatusReceived && newStatus == POStatusReceived {
			return fmt.Errorf("purchase order %s: %w", poID, ErrAlreadyReceived)
		}
		if po.Status == newStatus {
			return nil
		}
		if !po.Status.CanTransitionTo(newStatus) {
			return fmt.Errorf("purchase order %s %s -> %s: %w", poID, po.Status, newStatus, ErrInvalidTransition)
		}

		now := s.clock()
		switch newStatus {
		case POStatusApproved:
			if err := s.assignNumber(ctx, tx, po, now); err != nil {
				return err
			}
			po.ApprovedAt = &now
		case POStatusReceived:
			po.ReceivedAt = &now
		}
		po.Status = newStatus

		if err := tx.UpdatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("update purchase order %s: %w", poID, err)
		}

		if newStatus == POStatusReceived {
			credited, err = s.receiveLines(ctx, tx, po)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(credited) > 0 {
		s.ledger.InvalidateTotals(ctx, credited...)
		s.log.Info().
			Str("po_id", poID.String()).
			Int("lines", len(po.Lines)).
			Msg("purchase order received, inventory credited")
	}
	return po, nil
}

// receiveLines credits every line, visiting products in id order so concurrent
// receipts lock inventory rows in the same sequence.
func (s *purchaseOrderService) receiveLines(ctx context.Context, tx Tx, po *PurchaseOrder) ([]uuid.UUID, error) {
	lines := make([]PurchaseOrderLine, len(po.Lines))
	copy(lines, po.Lines)
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].ProductID.String() < lines[j].ProductID.String()
	})

	doc := po.ID.String()
	if po.PONumber != nil {
		doc = *po.PONumber
	}

	var products []uuid.UUID
	for _, l := range lines {
		warehouseID, err := s.receiving.ReceivingWarehouse(ctx, tx, l.ProductID)
		if err != nil {
			return nil, err
		}
		poID := po.ID
		ref := MovementRef{
			Kind:            MovementReceipt,
			PurchaseOrderID: &poID,
			Document:        doc,
			Description:     fmt.Sprintf("Goods receipt: %d units on %s", l.Quantity, doc),
		}
		if err := s.ledger.Credit(ctx, tx, l.ProductID, warehouseID, l.Quantity, ref); err != nil {
			return nil, fmt.Errorf("credit line %s: %w", l.ID, err)
		}
		products = append(products, l.ProductID)
	}
	return products, nil
}

func (s *purchaseOrderService) Approve(ctx context.Context, poID, approverID uuid.UUID) (*PurchaseOrder, error) {
	var po *PurchaseOrder
	err := s.store.InTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.GetUser(ctx, approverID); err != nil {
			return fmt.Errorf("validate approver: %w", err)
		}

		var err error
		po, err = tx.LockPurchaseOrder(ctx, poID)
		if err != nil {
			return err
		}

		// Idempotent: already approved is a no-op
		if po.Status == POStatusApproved {
			return nil
		}
		if !po.Status.CanTransitionTo(POStatusApproved) {
			return fmt.Errorf("purchase order %s cannot be approved: status is %s: %w", poID, po.Status, ErrInvalidTransition)
		}

		now := s.clock()
		if err := s.assignNumber(ctx, tx, po, now); err != nil {
			return err
		}
		approver := approverID
		po.ApprovedBy = &approver
		po.ApprovedAt = &now
		po.Status = POStatusApproved

		if err := tx.UpdatePurchaseOrder(ctx, po); err != nil {
			return fmt.Errorf("approve purchase order %s: %w", poID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (s *purchaseOrderService) assignNumber(ctx context.Context, tx Tx, po *PurchaseOrder, at time.Time) error {
	if po.PONumber != nil {
		return nil
	}
	number, err := s.numbers.NextTx(ctx, tx, purchaseOrderDocType, at)
	if err != nil {
		return fmt.Errorf("number purchase order %s: %w", po.ID, err)
	}
	po.PONumber = &number
	return nil
}

func (s *purchaseOrderService) GetPO(ctx context.Context, poID uuid.UUID) (*PurchaseOrder, error) {
	return s.store.GetPurchaseOrder(ctx, poID)
}

func (s *purchaseOrderService) ListPOs(ctx context.Context, filter POFilter) ([]PurchaseOrder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("unknown status filter %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	pos, err := s.store.ListPurchaseOrders(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return pos, nil
}

func (s *purchaseOrderService) OrderTotal(ctx context.Context, poID uuid.UUID) (decimal.Decimal, error) {
	po, err := s.store.GetPurchaseOrder(ctx, poID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("get purchase order %s: %w", poID, err)
	}
	return po.Total(), nil
}
