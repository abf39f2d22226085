package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrder is the header a line belongs to. Lines are deleted with it.
type SalesOrder struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SalesOrderLine records a requested quantity and the part of it that could not be allocated.
type SalesOrderLine struct {
	ID                uuid.UUID       `json:"id"`
	OrderID           uuid.UUID       `json:"order_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	Quantity          int             `json:"quantity"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	BackorderQuantity int             `json:"backorder_quantity"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// AllocatedQuantity is the part of the line served from stock.
func (l SalesOrderLine) AllocatedQuantity() int {
	return l.Quantity - l.BackorderQuantity
}

type CreateLineRequest struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

type UpdateLineRequest struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// LineOutcome is returned by line creation and update.
// Warning is set when the line was saved but automatic replenishment could not be raised.
type LineOutcome struct {
	Line          *SalesOrderLine
	Allocation    *Allocation
	PurchaseOrder *PurchaseOrder
	Warning       *ReplenishmentFailure
}

// Degraded reports whether a shortfall was left without a purchase order.
func (o *LineOutcome) Degraded() bool {
	return o.Warning != nil
}
