package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"order-management/internal/core"
	"order-management/internal/store/memory"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapCache struct {
	mu          sync.Mutex
	totals      map[uuid.UUID]int
	invalidated []uuid.UUID
}

func newMapCache() *mapCache {
	return &mapCache{totals: make(map[uuid.UUID]int)}
}

func (c *mapCache) GetTotal(_ context.Context, id uuid.UUID) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.totals[id]
	return v, ok
}

func (c *mapCache) SetTotal(_ context.Context, id uuid.UUID, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totals[id] = total
}

func (c *mapCache) Invalidate(_ context.Context, ids ...uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.totals, id)
		c.invalidated = append(c.invalidated, id)
	}
}

func TestLedger_DeductTakesAtMostOnHand(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 3})

	var took int
	err := e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		var err error
		took, err = e.ledger.Deduct(ctx, tx, p.ID, e.main.ID, 5, core.MovementRef{Document: "SO-1"})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, took)

	summary, err := e.ledger.StockByProduct(e.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, summary.Records, 1)
	assert.Equal(t, 0, summary.Records[0].QtyOnHand)
	assert.Equal(t, "SO-1", summary.Records[0].ReferenceDocument)
	assert.Equal(t, "A-MAIN", summary.Records[0].WarehouseCode)

	// Nothing left: no movement is written for a zero deduction.
	err = e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		took, err = e.ledger.Deduct(ctx, tx, p.ID, e.main.ID, 2, core.MovementRef{})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 0, took)

	movements, err := e.ledger.Movements(e.ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, core.MovementAllocation, movements[0].Kind)
	assert.Equal(t, -3, movements[0].Quantity)
}

func TestLedger_DeductUnknownLocation(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 3})

	err := e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		_, err := e.ledger.Deduct(ctx, tx, p.ID, e.overflow.ID, 1, core.MovementRef{})
		return err
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_CreditCreatesRecord(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)

	err := e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		return e.ledger.Credit(ctx, tx, p.ID, e.overflow.ID, 9, core.MovementRef{})
	})
	require.NoError(t, err)
	assert.Equal(t, 9, e.onHand(t, p.ID, e.overflow.ID))

	movements, err := e.ledger.Movements(e.ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, core.MovementReceipt, movements[0].Kind)
	assert.Equal(t, 9, movements[0].Quantity)
	assert.Equal(t, testNow, movements[0].OccurredAt)
}

func TestLedger_RejectsInvalidAmounts(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 3})

	err := e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		return e.ledger.Credit(ctx, tx, p.ID, e.main.ID, 0, core.MovementRef{})
	})
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)

	err = e.store.InTx(e.ctx, func(ctx context.Context, tx core.Tx) error {
		_, err := e.ledger.Deduct(ctx, tx, p.ID, e.main.ID, -1, core.MovementRef{})
		return err
	})
	assert.ErrorIs(t, err, core.ErrInvalidQuantity)
}

func TestLedger_TotalOnHandIsCacheAside(t *testing.T) {
	st := memory.New()
	wh := st.AddWarehouse(core.Warehouse{Code: "MAIN", IsActive: true})
	p := st.AddProduct(core.Product{Name: "Widget", SKU: "W"})
	st.AddInventory(p.ID, wh.ID, 4)

	cache := newMapCache()
	ledger := core.NewInventoryLedger(st, cache, func() time.Time { return testNow }, zerolog.Nop())
	ctx := context.Background()

	total, err := ledger.TotalOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	cached, ok := cache.GetTotal(ctx, p.ID)
	require.True(t, ok)
	assert.Equal(t, 4, cached)

	// A stale cached value is served until invalidated.
	st.AddInventory(p.ID, wh.ID, 10)
	total, err = ledger.TotalOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	ledger.InvalidateTotals(ctx, p.ID)
	total, err = ledger.TotalOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, total)

	_, err = ledger.TotalOnHand(ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_InactiveWarehousesAreIgnored(t *testing.T) {
	e := newEngine(t)
	closed := e.store.AddWarehouse(core.Warehouse{Code: "0-CLOSED", IsActive: false})
	p := e.product(5, map[uuid.UUID]int{closed.ID: 50, e.main.ID: 2})

	assert.Equal(t, 2, e.total(t, p.ID))
	alloc, err := allocate(t, e, p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.Allocated)
	assert.Equal(t, 3, alloc.Shortfall)
}

func TestLedger_MovementsNewestFirstWithLimit(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 10})
	for _, qty := range []int{1, 2, 3} {
		e.createLine(t, p.ID, qty)
	}

	movements, err := e.ledger.Movements(e.ctx, p.ID, 2)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, -3, movements[0].Quantity)
	assert.Equal(t, -2, movements[1].Quantity)
	require.NotNil(t, movements[0].SalesOrderLineID)
}

func TestServicesInvalidateCacheAfterCommit(t *testing.T) {
	st := memory.New()
	user := st.AddUser(core.User{Username: "u", IsActive: true})
	wh := st.AddWarehouse(core.Warehouse{Code: "MAIN", IsActive: true})
	p := st.AddProduct(core.Product{Name: "Widget", SKU: "W"})
	order := st.AddSalesOrder(core.SalesOrder{UserID: user.ID})
	st.AddInventory(p.ID, wh.ID, 4)

	cache := newMapCache()
	clock := func() time.Time { return testNow }
	ledger := core.NewInventoryLedger(st, cache, clock, zerolog.Nop())
	lines := core.NewSalesOrderLineService(st, ledger, core.NewStockAllocator(ledger), nil, clock, zerolog.Nop())
	ctx := context.Background()

	_, err := ledger.TotalOnHand(ctx, p.ID)
	require.NoError(t, err)

	out, err := lines.CreateLine(ctx, core.CreateLineRequest{OrderID: order.ID, ProductID: p.ID, Quantity: 6})
	require.NoError(t, err)
	assert.Contains(t, cache.invalidated, p.ID)

	// No requester configured: the backorder is reported, not dropped.
	assert.True(t, out.Degraded())
	assert.ErrorIs(t, out.Warning, core.ErrSourcingUnavailable)

	total, err := ledger.TotalOnHand(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
