package app

import (
	"context"
	"testing"
	"time"

	"order-management/internal/config"
	"order-management/internal/core"
	"order-management/internal/store/memory"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsFromConfig(t *testing.T) {
	supplier, user, wh := uuid.New(), uuid.New(), uuid.New()
	cfg := &config.Config{
		DefaultSupplierID:           supplier.String(),
		ReplenishmentUserID:         user.String(),
		ReplenishmentUnitPrice:      "2.40",
		ReplenishmentLeadDays:       2,
		DefaultReceivingWarehouseID: wh.String(),
	}

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, supplier, opts.SupplierID)
	assert.Equal(t, user, opts.RequesterID)
	assert.Equal(t, wh, opts.ReceivingWarehouse)
	assert.Equal(t, 48*time.Hour, opts.LeadTime)
	require.NotNil(t, opts.FixedUnitPrice)
	assert.True(t, decimal.RequireFromString("2.4").Equal(*opts.FixedUnitPrice))

	_, err = OptionsFromConfig(&config.Config{ReplenishmentUnitPrice: "-3"})
	assert.Error(t, err)
}

func TestNew_FixedPriceAndReceivingFallback(t *testing.T) {
	st := memory.New()
	user := st.AddUser(core.User{Username: "buyer", IsActive: true})
	supplier := st.AddSupplier(core.Supplier{Code: "S", Name: "S", IsActive: true})
	st.AddWarehouse(core.Warehouse{Code: "A", Name: "A", IsActive: true})
	receiving := st.AddWarehouse(core.Warehouse{Code: "Z", Name: "Z", IsActive: true})
	stocked := st.AddProduct(core.Product{Name: "Stocked", SKU: "S-1", Price: decimal.NewFromInt(9)})
	fresh := st.AddProduct(core.Product{Name: "Fresh", SKU: "F-1", Price: decimal.NewFromInt(9)})
	order := st.AddSalesOrder(core.SalesOrder{UserID: user.ID})
	st.AddInventory(stocked.ID, receiving.ID, 1)

	price := decimal.RequireFromString("0.75")
	now := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	svc := New(st, nil, Options{
		SupplierID:         supplier.ID,
		RequesterID:        user.ID,
		FixedUnitPrice:     &price,
		ReceivingWarehouse: receiving.ID,
		Clock:              func() time.Time { return now },
	}, zerolog.Nop())
	ctx := context.Background()

	line, err := svc.CreateSalesOrderLine(ctx, CreateLineRequest{OrderID: order.ID, ProductID: stocked.ID, Quantity: 3})
	require.NoError(t, err)
	require.NotNil(t, line.PurchaseOrder)
	assert.Empty(t, line.ReplenishmentWarning)
	assert.True(t, price.Equal(line.PurchaseOrder.Lines[0].UnitPrice))
	assert.Equal(t, now.Add(core.DefaultLeadTime), line.PurchaseOrder.ExpectedDelivery)

	// A product never stocked anywhere is received at the configured warehouse.
	po, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderRequest{
		SupplierID:       supplier.ID,
		CreatedBy:        user.ID,
		ExpectedDelivery: now,
		Lines:            []PurchaseOrderLineInput{{ProductID: fresh.ID, Quantity: 4, UnitPrice: price}},
	})
	require.NoError(t, err)
	assert.Equal(t, core.POStatusDraft, po.Order.Status)

	_, err = svc.SetPurchaseOrderStatus(ctx, po.Order.ID, "received")
	require.NoError(t, err)

	stock, err := svc.GetStock(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stock.TotalOnHand)
	require.Len(t, stock.Summary.Records, 1)
	assert.Equal(t, receiving.ID, stock.Summary.Records[0].WarehouseID)

	_, err = svc.SetPurchaseOrderStatus(ctx, po.Order.ID, "shipped")
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}
