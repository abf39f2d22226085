package app

import (
	"context"

	"github.com/google/uuid"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println and no display logic of any kind.
type ApplicationService interface {
	// CreateSalesOrderLine allocates stock for a new line and requests replenishment
	// for any backorder. A failed replenishment is reported in the result, not as an error.
	CreateSalesOrderLine(ctx context.Context, req CreateLineRequest) (*LineResult, error)

	// UpdateSalesOrderLine releases the line's stock and allocates the new quantity.
	UpdateSalesOrderLine(ctx context.Context, lineID uuid.UUID, req UpdateLineRequest) (*LineResult, error)

	// DeleteSalesOrderLine releases the line's stock and removes it.
	DeleteSalesOrderLine(ctx context.Context, lineID uuid.UUID) error

	GetSalesOrderLine(ctx context.Context, lineID uuid.UUID) (*LineResult, error)
	ListSalesOrderLines(ctx context.Context, orderID uuid.UUID) (*LineListResult, error)

	// GetStock returns per-warehouse stock plus the cached total for a product.
	GetStock(ctx context.Context, productID uuid.UUID) (*StockResult, error)
	ListMovements(ctx context.Context, productID uuid.UUID, limit int) (*MovementListResult, error)

	CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error)
	GetPurchaseOrder(ctx context.Context, poID uuid.UUID) (*PurchaseOrderResult, error)
	ListPurchaseOrders(ctx context.Context, req ListPurchaseOrdersRequest) (*PurchaseOrderListResult, error)

	// SetPurchaseOrderStatus moves a purchase order through its lifecycle. RECEIVED credits inventory once.
	SetPurchaseOrderStatus(ctx context.Context, poID uuid.UUID, status string) (*PurchaseOrderResult, error)

	// ApprovePurchaseOrder approves on behalf of the authenticated user.
	ApprovePurchaseOrder(ctx context.Context, poID, approverID uuid.UUID) (*PurchaseOrderResult, error)
}
