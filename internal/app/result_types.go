package app

import (
	"order-management/internal/core"

	"github.com/shopspring/decimal"
)

// LineResult is returned by sales-order line operations.
// ReplenishmentWarning is non-empty when a backorder could not be covered by a purchase order.
type LineResult struct {
	Line                 *core.SalesOrderLine `json:"line"`
	Allocation           *core.Allocation     `json:"allocation,omitempty"`
	PurchaseOrder        *core.PurchaseOrder  `json:"purchase_order,omitempty"`
	ReplenishmentWarning string               `json:"replenishment_warning,omitempty"`
}

// LineListResult is returned by ListSalesOrderLines.
type LineListResult struct {
	Lines []core.SalesOrderLine `json:"lines"`
}

// StockResult is returned by GetStock.
type StockResult struct {
	Summary     *core.StockSummary `json:"summary"`
	TotalOnHand int                `json:"total_on_hand"`
}

// MovementListResult is returned by ListMovements.
type MovementListResult struct {
	Movements []core.InventoryMovement `json:"movements"`
}

// PurchaseOrderResult is returned by purchase order lifecycle operations.
type PurchaseOrderResult struct {
	Order *core.PurchaseOrder `json:"purchase_order"`
	Total decimal.Decimal     `json:"total"`
}

// PurchaseOrderListResult is returned by ListPurchaseOrders.
type PurchaseOrderListResult struct {
	Orders []core.PurchaseOrder `json:"purchase_orders"`
}
