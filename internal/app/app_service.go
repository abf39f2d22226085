package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Options configures the engine's pluggable policies.
type Options struct {
	SupplierID         uuid.UUID
	RequesterID        uuid.UUID
	FixedUnitPrice     *decimal.Decimal // nil means catalogue price
	LeadTime           time.Duration
	ReceivingWarehouse uuid.UUID
	Clock              core.Clock
}

type appService struct {
	ledger InventoryReader
	lines  core.SalesOrderLineService
	pos    core.PurchaseOrderService
}

// InventoryReader is the read side of core.InventoryLedger used by the facade.
type InventoryReader interface {
	TotalOnHand(ctx context.Context, productID uuid.UUID) (int, error)
	StockByProduct(ctx context.Context, productID uuid.UUID) (*core.StockSummary, error)
	Movements(ctx context.Context, productID uuid.UUID, limit int) ([]core.InventoryMovement, error)
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(ledger InventoryReader, lines core.SalesOrderLineService, pos core.PurchaseOrderService) ApplicationService {
	return &appService{ledger: ledger, lines: lines, pos: pos}
}

// New wires the engine services over store and returns the facade.
func New(store core.Store, cache core.StockCache, opts Options, logger zerolog.Logger) ApplicationService {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	var pricing core.PricingPolicy = core.CatalogPricing{}
	if opts.FixedUnitPrice != nil {
		pricing = core.FixedPricing{Price: *opts.FixedUnitPrice}
	}

	ledger := core.NewInventoryLedger(store, cache, clock, logger)
	allocator := core.NewStockAllocator(ledger)
	pos := core.NewPurchaseOrderService(store, ledger,
		core.DefaultReceivingPolicy{Fallback: opts.ReceivingWarehouse}, clock, logger)
	requester := core.NewReplenishmentRequester(store, pos,
		core.FixedSourcingPolicy{SupplierID: opts.SupplierID, UserID: opts.RequesterID},
		pricing, opts.LeadTime, clock)
	lines := core.NewSalesOrderLineService(store, ledger, allocator, requester, clock, logger)

	return NewAppService(ledger, lines, pos)
}

func (s *appService) CreateSalesOrderLine(ctx context.Context, req CreateLineRequest) (*LineResult, error) {
	outcome, err := s.lines.CreateLine(ctx, core.CreateLineRequest{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	return lineResult(outcome), nil
}

func (s *appService) UpdateSalesOrderLine(ctx context.Context, lineID uuid.UUID, req UpdateLineRequest) (*LineResult, error) {
	outcome, err := s.lines.UpdateLine(ctx, lineID, core.UpdateLineRequest{
		Quantity:  req.Quantity,
		UnitPrice: req.UnitPrice,
	})
	if err != nil {
		return nil, err
	}
	return lineResult(outcome), nil
}

func lineResult(o *core.LineOutcome) *LineResult {
	r := &LineResult{Line: o.Line, Allocation: o.Allocation, PurchaseOrder: o.PurchaseOrder}
	if o.Degraded() {
		r.ReplenishmentWarning = o.Warning.Error()
	}
	return r
}

func (s *appService) DeleteSalesOrderLine(ctx context.Context, lineID uuid.UUID) error {
	return s.lines.DeleteLine(ctx, lineID)
}

func (s *appService) GetSalesOrderLine(ctx context.Context, lineID uuid.UUID) (*LineResult, error) {
	line, err := s.lines.GetLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	return &LineResult{Line: line}, nil
}

func (s *appService) ListSalesOrderLines(ctx context.Context, orderID uuid.UUID) (*LineListResult, error) {
	lines, err := s.lines.ListLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &LineListResult{Lines: lines}, nil
}

// GetStock reads the per-warehouse rows directly and the total through the cache.
// A product with no records reports a zero total rather than an error.
func (s *appService) GetStock(ctx context.Context, productID uuid.UUID) (*StockResult, error) {
	summary, err := s.ledger.StockByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	result := &StockResult{Summary: summary, TotalOnHand: summary.TotalOnHand}
	if len(summary.Records) > 0 {
		total, err := s.ledger.TotalOnHand(ctx, productID)
		if err != nil {
			return nil, err
		}
		result.TotalOnHand = total
	}
	return result, nil
}

func (s *appService) ListMovements(ctx context.Context, productID uuid.UUID, limit int) (*MovementListResult, error) {
	movements, err := s.ledger.Movements(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	return &MovementListResult{Movements: movements}, nil
}

func (s *appService) CreatePurchaseOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResult, error) {
	in := core.CreatePORequest{
		SupplierID:       req.SupplierID,
		CreatedBy:        req.CreatedBy,
		Status:           core.POStatus(strings.ToUpper(req.Status)),
		ExpectedDelivery: req.ExpectedDelivery,
	}
	for _, l := range req.Lines {
		in.Lines = append(in.Lines, core.PurchaseOrderLineInput{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	po, err := s.pos.CreatePO(ctx, in)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: po, Total: po.Total()}, nil
}

func (s *appService) GetPurchaseOrder(ctx context.Context, poID uuid.UUID) (*PurchaseOrderResult, error) {
	po, err := s.pos.GetPO(ctx, poID)
	if err != nil {
		return nil, err
	}
	total, err := s.pos.OrderTotal(ctx, poID)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: po, Total: total}, nil
}

func (s *appService) ListPurchaseOrders(ctx context.Context, req ListPurchaseOrdersRequest) (*PurchaseOrderListResult, error) {
	pos, err := s.pos.ListPOs(ctx, core.POFilter{
		Status:    core.POStatus(strings.ToUpper(req.Status)),
		ProductID: req.ProductID,
		Limit:     req.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderListResult{Orders: pos}, nil
}

func (s *appService) SetPurchaseOrderStatus(ctx context.Context, poID uuid.UUID, status string) (*PurchaseOrderResult, error) {
	next := core.POStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, core.ErrInvalidTransition)
	}
	po, err := s.pos.SetStatus(ctx, poID, next)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: po, Total: po.Total()}, nil
}

func (s *appService) ApprovePurchaseOrder(ctx context.Context, poID, approverID uuid.UUID) (*PurchaseOrderResult, error) {
	po, err := s.pos.Approve(ctx, poID, approverID)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderResult{Order: po, Total: po.Total()}, nil
}
