package core

import (
	"context"

	"github.com/google/uuid"
)

// Queries are plain reads. They are served by the Store outside a transaction
// (read committed, possibly stale) and by a Tx inside one.
// Get* methods return a *NotFoundError when the row does not exist.
type Queries interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetWarehouse(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	// ListActiveWarehouses is ordered by warehouse code.
	ListActiveWarehouses(ctx context.Context) ([]Warehouse, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*Supplier, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	GetSalesOrder(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	GetSalesOrderLine(ctx context.Context, id uuid.UUID) (*SalesOrderLine, error)
	ListSalesOrderLines(ctx context.Context, orderID uuid.UUID) ([]SalesOrderLine, error)

	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter POFilter) ([]PurchaseOrder, error)

	// ListInventoryByProduct returns the product's records at active warehouses,
	// ordered by warehouse code then record id.
	ListInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]InventoryRecord, error)
	// ListMovements returns the newest movements first.
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]InventoryMovement, error)
}

// Tx is a unit of work. Lock* methods hold exclusive row locks until the
// transaction ends.
type Tx interface {
	Queries

	// LockInventoryByProduct locks every record returned by ListInventoryByProduct,
	// in the same order.
	LockInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]InventoryRecord, error)
	LockInventoryRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*InventoryRecord, error)
	// EnsureInventoryRecord returns the locked record for (product, warehouse),
	// creating it with zero stock when absent.
	EnsureInventoryRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*InventoryRecord, error)
	UpdateInventoryRecord(ctx context.Context, rec *InventoryRecord) error
	InsertMovement(ctx context.Context, m *InventoryMovement) error
	// NetLineAllocation returns, per warehouse, the quantity a sales-order line
	// still holds: allocations minus releases. Zero entries are omitted.
	NetLineAllocation(ctx context.Context, lineID uuid.UUID) ([]LocationDeduction, error)

	LockSalesOrderLine(ctx context.Context, id uuid.UUID) (*SalesOrderLine, error)
	InsertSalesOrderLine(ctx context.Context, line *SalesOrderLine) error
	UpdateSalesOrderLine(ctx context.Context, line *SalesOrderLine) error
	DeleteSalesOrderLine(ctx context.Context, id uuid.UUID) error

	LockPurchaseOrder(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	InsertPurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	// UpdatePurchaseOrder writes header fields only. Lines are immutable.
	UpdatePurchaseOrder(ctx context.Context, po *PurchaseOrder) error
	// NextSequence returns the next gapless number for (docType, year).
	NextSequence(ctx context.Context, docType string, year int) (int64, error)
}

// Store runs units of work. InTx commits when fn returns nil and rolls back otherwise.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// StockCache holds display totals. Implementations swallow their own failures;
// a miss simply falls through to the store.
type StockCache interface {
	GetTotal(ctx context.Context, productID uuid.UUID) (int, bool)
	SetTotal(ctx context.Context, productID uuid.UUID, total int)
	Invalidate(ctx context.Context, productIDs ...uuid.UUID)
}

// NopStockCache disables caching.
type NopStockCache struct{}

func (NopStockCache) GetTotal(context.Context, uuid.UUID) (int, bool) { return 0, false }
func (NopStockCache) SetTotal(context.Context, uuid.UUID, int)        {}
func (NopStockCache) Invalidate(context.Context, ...uuid.UUID)        {}

var _ StockCache = NopStockCache{}
