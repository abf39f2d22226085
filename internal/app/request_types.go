package app

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateLineRequest is the input for adding a line to a sales order.
type CreateLineRequest struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

// UpdateLineRequest replaces a line's quantity and unit price.
type UpdateLineRequest struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// CreatePurchaseOrderRequest is the input for a manually raised purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID       uuid.UUID
	CreatedBy        uuid.UUID
	Status           string // DRAFT (default) or CREATED
	ExpectedDelivery time.Time
	Lines            []PurchaseOrderLineInput
}

// PurchaseOrderLineInput is a single line within a CreatePurchaseOrderRequest.
type PurchaseOrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

type ListPurchaseOrdersRequest struct {
	Status    string
	ProductID *uuid.UUID
	Limit     int
}
