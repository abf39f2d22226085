package core_test

import (
	"context"
	"testing"
	"time"

	"order-management/internal/core"
	"order-management/internal/store/memory"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)

// engine wires every service over a fresh memory store with one active user,
// one supplier and two warehouses (A-MAIN sorts before B-OVERFLOW).
type engine struct {
	store     *memory.Store
	ledger    core.InventoryLedger
	allocator core.StockAllocator
	pos       core.PurchaseOrderService
	lines     core.SalesOrderLineService

	user     core.User
	supplier core.Supplier
	main     core.Warehouse
	overflow core.Warehouse
	order    core.SalesOrder
	sourcing core.SourcingPolicy
	ctx      context.Context
}

type engineOption func(*engineConfig)

type engineConfig struct {
	noSourcing bool
	pricing    core.PricingPolicy
	fallback   *uuid.UUID
}

func withoutSourcing() engineOption {
	return func(c *engineConfig) { c.noSourcing = true }
}

func withPricing(p core.PricingPolicy) engineOption {
	return func(c *engineConfig) { c.pricing = p }
}

func withReceivingFallback(id uuid.UUID) engineOption {
	return func(c *engineConfig) { c.fallback = &id }
}

func newEngine(t *testing.T, opts ...engineOption) *engine {
	t.Helper()
	cfg := &engineConfig{}
	for _, o := range opts {
		o(cfg)
	}

	st := memory.New()
	e := &engine{store: st, ctx: context.Background()}
	e.user = st.AddUser(core.User{Username: "purchasing", Role: "PURCHASING", IsActive: true})
	e.supplier = st.AddSupplier(core.Supplier{Code: "ACME", Name: "Acme", IsActive: true})
	e.main = st.AddWarehouse(core.Warehouse{Code: "A-MAIN", Name: "Main", IsActive: true})
	e.overflow = st.AddWarehouse(core.Warehouse{Code: "B-OVERFLOW", Name: "Overflow", IsActive: true})
	e.order = st.AddSalesOrder(core.SalesOrder{UserID: e.user.ID, Status: "CREATED"})

	clock := func() time.Time { return testNow }
	logger := zerolog.Nop()

	e.ledger = core.NewInventoryLedger(st, core.NopStockCache{}, clock, logger)
	e.allocator = core.NewStockAllocator(e.ledger)

	fallback := uuid.Nil
	if cfg.fallback != nil {
		fallback = *cfg.fallback
	}
	e.pos = core.NewPurchaseOrderService(st, e.ledger, core.DefaultReceivingPolicy{Fallback: fallback}, clock, logger)

	e.sourcing = core.FixedSourcingPolicy{SupplierID: e.supplier.ID, UserID: e.user.ID}
	if cfg.noSourcing {
		e.sourcing = core.FixedSourcingPolicy{}
	}
	requester := core.NewReplenishmentRequester(st, e.pos, e.sourcing, cfg.pricing, 0, clock)
	e.lines = core.NewSalesOrderLineService(st, e.ledger, e.allocator, requester, clock, logger)
	return e
}

// product adds a product priced at price with the given stock per warehouse.
func (e *engine) product(price int64, stock map[uuid.UUID]int) core.Product {
	p := e.store.AddProduct(core.Product{
		Name:  "Widget " + uuid.NewString()[:8],
		SKU:   "SKU-" + uuid.NewString()[:8],
		Price: decimal.NewFromInt(price),
	})
	for wh, qty := range stock {
		e.store.AddInventory(p.ID, wh, qty)
	}
	return p
}

func (e *engine) onHand(t *testing.T, productID, warehouseID uuid.UUID) int {
	t.Helper()
	summary, err := e.ledger.StockByProduct(e.ctx, productID)
	require.NoError(t, err)
	for _, r := range summary.Records {
		if r.WarehouseID == warehouseID {
			return r.QtyOnHand
		}
	}
	return 0
}

func (e *engine) total(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	summary, err := e.ledger.StockByProduct(e.ctx, productID)
	require.NoError(t, err)
	return summary.TotalOnHand
}

func (e *engine) createLine(t *testing.T, productID uuid.UUID, qty int) *core.LineOutcome {
	t.Helper()
	out, err := e.lines.CreateLine(e.ctx, core.CreateLineRequest{
		OrderID:   e.order.ID,
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	return out
}
