package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// InventoryLedger owns per-(product, warehouse) on-hand quantities.
// Mutations run inside the caller's Tx and append an InventoryMovement each.
type InventoryLedger interface {
	// Deduct removes min(current, amount) and returns the amount actually removed.
	// Fails with *NotFoundError when the product has no record at the warehouse.
	Deduct(ctx context.Context, tx Tx, productID, warehouseID uuid.UUID, amount int, ref MovementRef) (int, error)
	// Credit adds amount, creating the record when the product has never been stocked there.
	Credit(ctx context.Context, tx Tx, productID, warehouseID uuid.UUID, amount int, ref MovementRef) error

	// TotalOnHand sums on-hand stock across warehouses. Display read; may be served from cache.
	TotalOnHand(ctx context.Context, productID uuid.UUID) (int, error)
	StockByProduct(ctx context.Context, productID uuid.UUID) (*StockSummary, error)
	Movements(ctx context.Context, productID uuid.UUID, limit int) ([]InventoryMovement, error)
	// InvalidateTotals drops cached totals. Call it after the mutating Tx commits.
	InvalidateTotals(ctx context.Context, productIDs ...uuid.UUID)
}

type inventoryLedger struct {
	store Store
	cache StockCache
	clock Clock
	log   zerolog.Logger
}

func NewInventoryLedger(store Store, cache StockCache, clock Clock, logger zerolog.Logger) InventoryLedger {
	if cache == nil {
		cache = NopStockCache{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &inventoryLedger{store: store, cache: cache, clock: clock, log: logger}
}

func (l *inventoryLedger) Deduct(ctx context.Context, tx Tx, productID, warehouseID uuid.UUID, amount int, ref MovementRef) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("deduct %d units of product %s: %w", amount, productID, ErrInvalidQuantity)
	}

	rec, err := tx.LockInventoryRecord(ctx, productID, warehouseID)
	if err != nil {
		return 0, fmt.Errorf("lock inventory for product %s at warehouse %s: %w", productID, warehouseID, err)
	}

	take := min(rec.QtyOnHand, amount)
	if take == 0 {
		return 0, nil
	}

	rec.QtyOnHand -= take
	if err := l.apply(ctx, tx, rec, -take, ref); err != nil {
		return 0, err
	}
	return take, nil
}

func (l *inventoryLedger) Credit(ctx context.Context, tx Tx, productID, warehouseID uuid.UUID, amount int, ref MovementRef) error {
	if amount <= 0 {
		return fmt.Errorf("credit %d units of product %s: %w", amount, productID, ErrInvalidQuantity)
	}

	rec, err := tx.EnsureInventoryRecord(ctx, productID, warehouseID)
	if err != nil {
		return fmt.Errorf("lock inventory for product %s at warehouse %s: %w", productID, warehouseID, err)
	}

	rec.QtyOnHand += amount
	return l.apply(ctx, tx, rec, amount, ref)
}

// apply persists the new quantity and appends the movement for delta.
func (l *inventoryLedger) apply(ctx context.Context, tx Tx, rec *InventoryRecord, delta int, ref MovementRef) error {
	now := l.clock()
	if ref.Document != "" {
		rec.ReferenceDocument = ref.Document
	}
	rec.UpdatedAt = now
	if err := tx.UpdateInventoryRecord(ctx, rec); err != nil {
		return fmt.Errorf("update inventory record %s: %w", rec.ID, err)
	}

	kind := ref.Kind
	if kind == "" {
		kind = MovementReceipt
		if delta < 0 {
			kind = MovementAllocation
		}
	}
	desc := ref.Description
	if desc == "" {
		desc = fmt.Sprintf("%s %+d units", kind, delta)
	}

	m := &InventoryMovement{
		ID:                uuid.New(),
		InventoryRecordID: rec.ID,
		ProductID:         rec.ProductID,
		WarehouseID:       rec.WarehouseID,
		Kind:              kind,
		Quantity:          delta,
		SalesOrderLineID:  ref.SalesOrderLineID,
		PurchaseOrderID:   ref.PurchaseOrderID,
		ReferenceDocument: ref.Document,
		Description:       desc,
		OccurredAt:        now,
	}
	if err := tx.InsertMovement(ctx, m); err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}
	return nil
}

func (l *inventoryLedger) TotalOnHand(ctx context.Context, productID uuid.UUID) (int, error) {
	if total, ok := l.cache.GetTotal(ctx, productID); ok {
		return total, nil
	}

	records, err := l.store.ListInventoryByProduct(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("list inventory for product %s: %w", productID, err)
	}
	if len(records) == 0 {
		return 0, NewNotFoundError("inventory for product", productID)
	}

	total := sumOnHand(records)
	l.cache.SetTotal(ctx, productID, total)
	return total, nil
}

func (l *inventoryLedger) StockByProduct(ctx context.Context, productID uuid.UUID) (*StockSummary, error) {
	if _, err := l.store.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	records, err := l.store.ListInventoryByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list inventory for product %s: %w", productID, err)
	}
	return &StockSummary{ProductID: productID, TotalOnHand: sumOnHand(records), Records: records}, nil
}

func (l *inventoryLedger) Movements(ctx context.Context, productID uuid.UUID, limit int) ([]InventoryMovement, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	movements, err := l.store.ListMovements(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list movements for product %s: %w", productID, err)
	}
	return movements, nil
}

func (l *inventoryLedger) InvalidateTotals(ctx context.Context, productIDs ...uuid.UUID) {
	l.cache.Invalidate(ctx, productIDs...)
}

func sumOnHand(records []InventoryRecord) int {
	total := 0
	for _, r := range records {
		total += r.QtyOnHand
	}
	return total
}
