package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type POStatus string

const (
	POStatusDraft     POStatus = "DRAFT"
	POStatusCreated   POStatus = "CREATED"
	POStatusApproved  POStatus = "APPROVED"
	POStatusReceived  POStatus = "RECEIVED"
	POStatusCancelled POStatus = "CANCELLED"
)

// poTransitions lists the allowed targets for each status.
// Same-state moves are handled separately.
var poTransitions = map[POStatus][]POStatus{
	POStatusDraft:    {POStatusCreated, POStatusApproved, POStatusReceived, POStatusCancelled},
	POStatusCreated:  {POStatusDraft, POStatusApproved, POStatusReceived, POStatusCancelled},
	POStatusApproved: {POStatusReceived, POStatusCancelled},
}

func (s POStatus) Valid() bool {
	switch s {
	case POStatusDraft, POStatusCreated, POStatusApproved, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a purchase order may move from s to next.
// RECEIVED and CANCELLED are terminal.
func (s POStatus) CanTransitionTo(next POStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PurchaseOrder is a purchase order header with its lines.
type PurchaseOrder struct {
	ID               uuid.UUID           `json:"id"`
	PONumber         *string             `json:"po_number,omitempty"`
	SupplierID       uuid.UUID           `json:"supplier_id"`
	CreatedBy        uuid.UUID           `json:"created_by"`
	ApprovedBy       *uuid.UUID          `json:"approved_by,omitempty"`
	Status           POStatus            `json:"status"`
	CreatedAt        time.Time           `json:"created_at"`
	ExpectedDelivery time.Time           `json:"expected_delivery"`
	ApprovedAt       *time.Time          `json:"approved_at,omitempty"`
	ReceivedAt       *time.Time          `json:"received_at,omitempty"`
	SourceLineID     *uuid.UUID          `json:"source_line_id,omitempty"`
	Lines            []PurchaseOrderLine `json:"lines"`
}

// Total is the sum of line totals.
func (po *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range po.Lines {
		total = total.Add(l.TotalPrice())
	}
	return total
}

type PurchaseOrderLine struct {
	ID              uuid.UUID       `json:"id"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	ProductID       uuid.UUID       `json:"product_id"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
}

func (l PurchaseOrderLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PurchaseOrderLineInput holds the fields required to create a purchase order line.
type PurchaseOrderLineInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice decimal.Decimal
}

type CreatePORequest struct {
	SupplierID       uuid.UUID
	CreatedBy        uuid.UUID
	Status           POStatus // DRAFT or CREATED; empty means DRAFT
	ExpectedDelivery time.Time
	SourceLineID     *uuid.UUID
	Lines            []PurchaseOrderLineInput
}

type POFilter struct {
	Status    POStatus
	ProductID *uuid.UUID
	Limit     int
}
