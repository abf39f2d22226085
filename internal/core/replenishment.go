package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultLeadTime is added to the request time to get the expected delivery date.
const DefaultLeadTime = 7 * 24 * time.Hour

// ReplenishmentRequest asks for a purchase order covering one shortfall.
type ReplenishmentRequest struct {
	ProductID    uuid.UUID
	Shortfall    int
	SourceLineID *uuid.UUID
}

// ReplenishmentRequester raises a one-line purchase order in CREATED status.
type ReplenishmentRequester interface {
	RequestReplenishment(ctx context.Context, req ReplenishmentRequest) (*PurchaseOrder, error)
}

// Sourcing names who a replenishment order is addressed to and raised by.
type Sourcing struct {
	SupplierID  uuid.UUID
	RequestedBy uuid.UUID
}

type SourcingPolicy interface {
	Source(ctx context.Context, productID uuid.UUID) (Sourcing, error)
}

// FixedSourcingPolicy always returns the configured supplier and user.
type FixedSourcingPolicy struct {
	SupplierID uuid.UUID
	UserID     uuid.UUID
}

func (p FixedSourcingPolicy) Source(_ context.Context, _ uuid.UUID) (Sourcing, error) {
	if p.SupplierID == uuid.Nil || p.UserID == uuid.Nil {
		return Sourcing{}, ErrSourcingUnavailable
	}
	return Sourcing{SupplierID: p.SupplierID, RequestedBy: p.UserID}, nil
}

type PricingPolicy interface {
	UnitPrice(ctx context.Context, product *Product) (decimal.Decimal, error)
}

// CatalogPricing uses the product's list price.
type CatalogPricing struct{}

func (CatalogPricing) UnitPrice(_ context.Context, product *Product) (decimal.Decimal, error) {
	return product.Price, nil
}

// FixedPricing prices every replenishment line the same.
type FixedPricing struct {
	Price decimal.Decimal
}

func (p FixedPricing) UnitPrice(_ context.Context, _ *Product) (decimal.Decimal, error) {
	return p.Price, nil
}

type replenishmentRequester struct {
	store    Store
	pos      PurchaseOrderService
	sourcing SourcingPolicy
	pricing  PricingPolicy
	leadTime time.Duration
	clock    Clock
}

func NewReplenishmentRequester(store Store, pos PurchaseOrderService, sourcing SourcingPolicy, pricing PricingPolicy, leadTime time.Duration, clock Clock) ReplenishmentRequester {
	if pricing == nil {
		pricing = CatalogPricing{}
	}
	if leadTime <= 0 {
		leadTime = DefaultLeadTime
	}
	if clock == nil {
		clock = time.Now
	}
	return &replenishmentRequester{
		store:    store,
		pos:      pos,
		sourcing: sourcing,
		pricing:  pricing,
		leadTime: leadTime,
		clock:    clock,
	}
}

func (r *replenishmentRequester) RequestReplenishment(ctx context.Context, req ReplenishmentRequest) (*PurchaseOrder, error) {
	if req.Shortfall <= 0 {
		return nil, fmt.Errorf("replenish %d units: %w", req.Shortfall, ErrInvalidQuantity)
	}
	if r.sourcing == nil {
		return nil, ErrSourcingUnavailable
	}

	product, err := r.store.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	src, err := r.sourcing.Source(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("choose supplier for product %s: %w", product.SKU, err)
	}

	price, err := r.pricing.UnitPrice(ctx, product)
	if err != nil {
		return nil, fmt.Errorf("price product %s: %w", product.SKU, err)
	}

	po, err := r.pos.CreatePO(ctx, CreatePORequest{
		SupplierID:       src.SupplierID,
		CreatedBy:        src.RequestedBy,
		Status:           POStatusCreated,
		ExpectedDelivery: r.clock().Add(r.leadTime),
		SourceLineID:     req.SourceLineID,
		Lines: []PurchaseOrderLineInput{
			{ProductID: req.ProductID, Quantity: req.Shortfall, UnitPrice: price},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create replenishment order for product %s: %w", product.SKU, err)
	}
	return po, nil
}
