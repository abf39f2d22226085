package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// StockAllocator deducts a requested quantity across a product's locations.
type StockAllocator interface {
	// Allocate locks every inventory record of the product and deducts from them
	// in warehouse-code order until the request is met or stock runs out.
	// Returns ErrNoInventory when the product has no records at all.
	Allocate(ctx context.Context, tx Tx, productID uuid.UUID, requested int, ref MovementRef) (*Allocation, error)
}

type stockAllocator struct {
	ledger InventoryLedger
}

func NewStockAllocator(ledger InventoryLedger) StockAllocator {
	return &stockAllocator{ledger: ledger}
}

func (a *stockAllocator) Allocate(ctx context.Context, tx Tx, productID uuid.UUID, requested int, ref MovementRef) (*Allocation, error) {
	if requested <= 0 {
		return nil, fmt.Errorf("allocate %d units of product %s: %w", requested, productID, ErrInvalidQuantity)
	}

	// The whole set is locked up front, always in the same order.
	records, err := tx.LockInventoryByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("lock inventory for product %s: %w", productID, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("allocate product %s: %w", productID, ErrNoInventory)
	}

	if ref.Kind == "" {
		ref.Kind = MovementAllocation
	}

	alloc := &Allocation{ProductID: productID, Requested: requested}
	remaining := requested
	for _, rec := range records {
		if remaining == 0 {
			break
		}
		want := min(rec.QtyOnHand, remaining)
		if want == 0 {
			continue
		}
		took, err := a.ledger.Deduct(ctx, tx, productID, rec.WarehouseID, want, ref)
		if err != nil {
			return nil, err
		}
		if took == 0 {
			continue
		}
		alloc.Allocated += took
		remaining -= took
		alloc.Deductions = append(alloc.Deductions, LocationDeduction{
			InventoryRecordID: rec.ID,
			WarehouseID:       rec.WarehouseID,
			Quantity:          took,
		})
	}
	alloc.Shortfall = requested - alloc.Allocated
	return alloc, nil
}
