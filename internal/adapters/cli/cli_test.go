package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"order-management/internal/app"
	"order-management/internal/core"
	"order-management/internal/store/memory"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc     app.ApplicationService
	store   *memory.Store
	user    core.User
	product core.Product
	order   core.SalesOrder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memory.New()
	f := &fixture{store: st}
	f.user = st.AddUser(core.User{Username: "buyer", Role: "PURCHASING", IsActive: true})
	supplier := st.AddSupplier(core.Supplier{Code: "SUP-1", Name: "Acme", IsActive: true})
	wh := st.AddWarehouse(core.Warehouse{Code: "MAIN", Name: "Main", IsActive: true})
	f.product = st.AddProduct(core.Product{Name: "Widget", SKU: "W-1", Price: decimal.NewFromInt(4)})
	f.order = st.AddSalesOrder(core.SalesOrder{UserID: f.user.ID, Status: "OPEN"})
	st.AddInventory(f.product.ID, wh.ID, 5)

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f.svc = app.New(st, core.NopStockCache{}, app.Options{
		SupplierID:  supplier.ID,
		RequesterID: f.user.ID,
		Clock:       func() time.Time { return now },
	}, zerolog.Nop())
	return f
}

func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Run(context.Background(), f.svc, args, &out)
	return out.String(), err
}

func TestRun_LineLifecycle(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "add-line", f.order.ID.String(), f.product.ID.String(), "8", "9.50")
	require.NoError(t, err)
	assert.Contains(t, out, "8 requested, 5 allocated, 3 backordered")
	assert.Contains(t, out, "Replenishment purchase order")

	out, err = f.run(t, "stock", f.product.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "MAIN")
	assert.Regexp(t, `TOTAL\s+0`, out)

	lines, err := f.svc.ListSalesOrderLines(context.Background(), f.order.ID)
	require.NoError(t, err)
	require.Len(t, lines.Lines, 1)
	lineID := lines.Lines[0].ID.String()

	out, err = f.run(t, "ls", f.order.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, lineID)
	assert.Contains(t, out, "9.50")

	out, err = f.run(t, "upd", lineID, "2", "9.50")
	require.NoError(t, err)
	assert.Contains(t, out, "2 requested, 2 allocated, 0 backordered")

	out, err = f.run(t, "del", lineID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = f.run(t, "mv", f.product.ID.String(), "10")
	require.NoError(t, err)
	assert.Contains(t, out, "RELEASE")
	assert.Contains(t, out, "ALLOCATION")
}

func TestRun_PurchaseOrderCommands(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "add", f.order.ID.String(), f.product.ID.String(), "7", "1")
	require.NoError(t, err)

	pos, err := f.svc.ListPurchaseOrders(context.Background(), app.ListPurchaseOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, pos.Orders, 1)
	poID := pos.Orders[0].ID.String()

	out, err := f.run(t, "pos", "CREATED")
	require.NoError(t, err)
	assert.Contains(t, out, poID)
	assert.Contains(t, out, "8.00")

	out, err = f.run(t, "approve", poID, f.user.ID.String())
	require.NoError(t, err)
	assert.Contains(t, out, "approved as PO-2026-00001")

	out, err = f.run(t, "status", poID, "received")
	require.NoError(t, err)
	assert.Contains(t, out, "is now RECEIVED")

	_, err = f.run(t, "po-status", poID, "RECEIVED")
	assert.ErrorIs(t, err, core.ErrAlreadyReceived)

	out, err = f.run(t, "po", poID)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "RECEIVED"`)
}

func TestRun_UsageErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "no command given"},
		{"unknown command", []string{"explode"}, "unknown command: explode"},
		{"missing id", []string{"stock"}, "usage: stock <product-id>"},
		{"bad id", []string{"po", "abc"}, `invalid id "abc"`},
		{"short add-line", []string{"add-line", uuid.NewString()}, "usage: add-line"},
		{"bad quantity", []string{"upd", uuid.NewString(), "many", "1"}, `invalid quantity "many"`},
		{"bad price", []string{"upd", uuid.NewString(), "1", "free"}, `invalid unit price "free"`},
		{"bad limit", []string{"mv", uuid.NewString(), "ten"}, `invalid limit "ten"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.run(t, tt.args...)
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "got %q", err.Error())
		})
	}
}

func TestRun_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "lines", uuid.NewString())
	assert.ErrorIs(t, err, core.ErrNotFound)
}
