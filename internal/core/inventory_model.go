package core

import (
	"time"

	"github.com/google/uuid"
)

// InventoryRecord is the on-hand quantity of one product at one warehouse.
// QtyOnHand is never negative.
type InventoryRecord struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"product_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	WarehouseCode     string    `json:"warehouse_code"`
	QtyOnHand         int       `json:"qty_on_hand"`
	QtyReserved       int       `json:"qty_reserved"` // informational only
	ReferenceDocument string    `json:"reference_document,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type MovementKind string

const (
	MovementAllocation MovementKind = "ALLOCATION"
	MovementReceipt    MovementKind = "RECEIPT"
	// MovementRelease returns a sales-order line's allocation to stock.
	MovementRelease MovementKind = "RELEASE"
)

// InventoryMovement is an append-only audit row written for every ledger mutation.
// Quantity is signed: negative for allocations, positive for receipts and releases.
type InventoryMovement struct {
	ID                uuid.UUID    `json:"id"`
	InventoryRecordID uuid.UUID    `json:"inventory_record_id"`
	ProductID         uuid.UUID    `json:"product_id"`
	WarehouseID       uuid.UUID    `json:"warehouse_id"`
	Kind              MovementKind `json:"kind"`
	Quantity          int          `json:"quantity"`
	SalesOrderLineID  *uuid.UUID   `json:"sales_order_line_id,omitempty"`
	PurchaseOrderID   *uuid.UUID   `json:"purchase_order_id,omitempty"`
	ReferenceDocument string       `json:"reference_document,omitempty"`
	Description       string       `json:"description"`
	OccurredAt        time.Time    `json:"occurred_at"`
}

// MovementRef describes why the ledger is being mutated.
type MovementRef struct {
	Kind             MovementKind
	SalesOrderLineID *uuid.UUID
	PurchaseOrderID  *uuid.UUID
	Document         string
	Description      string
}

// LocationDeduction is the quantity taken from (or held at) one warehouse.
type LocationDeduction struct {
	InventoryRecordID uuid.UUID `json:"inventory_record_id"`
	WarehouseID       uuid.UUID `json:"warehouse_id"`
	Quantity          int       `json:"quantity"`
}

// Allocation is the result of walking a product's inventory records.
// Allocated + Shortfall == Requested.
type Allocation struct {
	ProductID  uuid.UUID           `json:"product_id"`
	Requested  int                 `json:"requested"`
	Allocated  int                 `json:"allocated"`
	Shortfall  int                 `json:"shortfall"`
	Deductions []LocationDeduction `json:"deductions"`
}

// StockSummary is the display view of a product's stock.
type StockSummary struct {
	ProductID   uuid.UUID         `json:"product_id"`
	TotalOnHand int               `json:"total_on_hand"`
	Records     []InventoryRecord `json:"records"`
}
