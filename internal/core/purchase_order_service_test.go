package core_test

import (
	"sync"
	"testing"

	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *engine) createPO(t *testing.T, status core.POStatus, lines ...core.PurchaseOrderLineInput) *core.PurchaseOrder {
	t.Helper()
	po, err := e.pos.CreatePO(e.ctx, core.CreatePORequest{
		SupplierID:       e.supplier.ID,
		CreatedBy:        e.user.ID,
		Status:           status,
		ExpectedDelivery: testNow.AddDate(0, 0, 7),
		Lines:            lines,
	})
	require.NoError(t, err)
	return po
}

func TestCreatePO_DefaultsToDraft(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)

	po := e.createPO(t, "", core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(3)})
	assert.Equal(t, core.POStatusDraft, po.Status)
	assert.Nil(t, po.PONumber)
	assert.Equal(t, testNow, po.CreatedAt)
}

func TestCreatePO_Validation(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)
	line := core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 1}

	tests := []struct {
		name    string
		req     core.CreatePORequest
		wantErr error
	}{
		{
			name: "no lines",
			req:  core.CreatePORequest{SupplierID: e.supplier.ID, CreatedBy: e.user.ID},
		},
		{
			name:    "starts approved",
			req:     core.CreatePORequest{SupplierID: e.supplier.ID, CreatedBy: e.user.ID, Status: core.POStatusApproved, Lines: []core.PurchaseOrderLineInput{line}},
			wantErr: core.ErrInvalidTransition,
		},
		{
			name:    "zero quantity",
			req:     core.CreatePORequest{SupplierID: e.supplier.ID, CreatedBy: e.user.ID, Lines: []core.PurchaseOrderLineInput{{ProductID: p.ID}}},
			wantErr: core.ErrInvalidQuantity,
		},
		{
			name:    "unknown supplier",
			req:     core.CreatePORequest{SupplierID: uuid.New(), CreatedBy: e.user.ID, Lines: []core.PurchaseOrderLineInput{line}},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "unknown creator",
			req:     core.CreatePORequest{SupplierID: e.supplier.ID, CreatedBy: uuid.New(), Lines: []core.PurchaseOrderLineInput{line}},
			wantErr: core.ErrNotFound,
		},
		{
			name:    "unknown product",
			req:     core.CreatePORequest{SupplierID: e.supplier.ID, CreatedBy: e.user.ID, Lines: []core.PurchaseOrderLineInput{{ProductID: uuid.New(), Quantity: 1}}},
			wantErr: core.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.pos.CreatePO(e.ctx, tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	pos, err := e.pos.ListPOs(e.ctx, core.POFilter{})
	require.NoError(t, err)
	assert.Empty(t, pos)
}

func TestSetStatus_ReceiptCreditsOnce(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 3})
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 5})

	received, err := e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, core.POStatusReceived, received.Status)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, 8, e.onHand(t, p.ID, e.main.ID))

	_, err = e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	assert.ErrorIs(t, err, core.ErrAlreadyReceived)
	assert.Equal(t, 8, e.onHand(t, p.ID, e.main.ID))

	stored, err := e.pos.GetPO(e.ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, core.POStatusReceived, stored.Status)

	movements, err := e.ledger.Movements(e.ctx, p.ID, 0)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, core.MovementReceipt, movements[0].Kind)
	require.NotNil(t, movements[0].PurchaseOrderID)
	assert.Equal(t, po.ID, *movements[0].PurchaseOrderID)
}

func TestSetStatus_ConcurrentReceiptsCreditOnce(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 0})
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 5})

	const workers = 6
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, core.ErrAlreadyReceived)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 5, e.total(t, p.ID))
}

func TestSetStatus_ReceiptCreatesMissingRecord(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 4})

	_, err := e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.NoError(t, err)

	// No fallback configured: the first active warehouse by code.
	assert.Equal(t, 4, e.onHand(t, p.ID, e.main.ID))
}

func TestSetStatus_ReceiptUsesConfiguredFallback(t *testing.T) {
	dockID := uuid.New()
	e := newEngine(t, withReceivingFallback(dockID))
	e.store.AddWarehouse(core.Warehouse{ID: dockID, Code: "Z-DOCK", Name: "Dock", IsActive: true})
	p := e.product(5, nil)
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 4})

	_, err := e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, 4, e.onHand(t, p.ID, dockID))
	assert.Equal(t, 0, e.onHand(t, p.ID, e.main.ID))
}

func TestSetStatus_MultiLineReceipt(t *testing.T) {
	e := newEngine(t)
	a := e.product(5, map[uuid.UUID]int{e.overflow.ID: 1})
	b := e.product(5, map[uuid.UUID]int{e.main.ID: 2})
	po := e.createPO(t, core.POStatusDraft,
		core.PurchaseOrderLineInput{ProductID: a.ID, Quantity: 3},
		core.PurchaseOrderLineInput{ProductID: b.ID, Quantity: 7},
	)

	_, err := e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.NoError(t, err)
	assert.Equal(t, 4, e.onHand(t, a.ID, e.overflow.ID))
	assert.Equal(t, 9, e.onHand(t, b.ID, e.main.ID))
}

func TestSetStatus_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    core.POStatus
		path    []core.POStatus
		wantErr error
	}{
		{name: "draft to created", from: core.POStatusDraft, path: []core.POStatus{core.POStatusCreated}},
		{name: "created back to draft", from: core.POStatusCreated, path: []core.POStatus{core.POStatusDraft}},
		{name: "same status is a no-op", from: core.POStatusCreated, path: []core.POStatus{core.POStatusCreated}},
		{name: "approve then receive", from: core.POStatusCreated, path: []core.POStatus{core.POStatusApproved, core.POStatusReceived}},
		{name: "cancel draft", from: core.POStatusDraft, path: []core.POStatus{core.POStatusCancelled}},
		{name: "approved cannot go back", from: core.POStatusCreated, path: []core.POStatus{core.POStatusApproved, core.POStatusDraft}, wantErr: core.ErrInvalidTransition},
		{name: "received is terminal", from: core.POStatusCreated, path: []core.POStatus{core.POStatusReceived, core.POStatusCancelled}, wantErr: core.ErrInvalidTransition},
		{name: "cancelled is terminal", from: core.POStatusDraft, path: []core.POStatus{core.POStatusCancelled, core.POStatusReceived}, wantErr: core.ErrInvalidTransition},
		{name: "unknown status", from: core.POStatusDraft, path: []core.POStatus{"SHIPPED"}, wantErr: core.ErrInvalidTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine(t)
			p := e.product(5, map[uuid.UUID]int{e.main.ID: 0})
			po := e.createPO(t, tt.from, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 1})

			var err error
			for _, next := range tt.path {
				if _, err = e.pos.SetStatus(e.ctx, po.ID, next); err != nil {
					break
				}
			}
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			stored, err := e.pos.GetPO(e.ctx, po.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.path[len(tt.path)-1], stored.Status)
		})
	}
}

func TestSetStatus_CancelledOrderDoesNotCredit(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 1})
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 5})

	_, err := e.pos.SetStatus(e.ctx, po.ID, core.POStatusCancelled)
	require.NoError(t, err)
	_, err = e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.ErrorIs(t, err, core.ErrInvalidTransition)
	assert.Equal(t, 1, e.total(t, p.ID))
}

func TestApprove_AssignsGaplessNumbers(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)
	first := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 1})
	second := e.createPO(t, core.POStatusDraft, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 1})

	a, err := e.pos.Approve(e.ctx, first.ID, e.user.ID)
	require.NoError(t, err)
	require.NotNil(t, a.PONumber)
	assert.Equal(t, "PO-2026-00001", *a.PONumber)
	assert.Equal(t, core.POStatusApproved, a.Status)
	require.NotNil(t, a.ApprovedBy)
	assert.Equal(t, e.user.ID, *a.ApprovedBy)
	require.NotNil(t, a.ApprovedAt)

	// Approving again changes nothing.
	again, err := e.pos.Approve(e.ctx, first.ID, e.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "PO-2026-00001", *again.PONumber)

	// Approval through SetStatus numbers the order too, without an approver.
	b, err := e.pos.SetStatus(e.ctx, second.ID, core.POStatusApproved)
	require.NoError(t, err)
	require.NotNil(t, b.PONumber)
	assert.Equal(t, "PO-2026-00002", *b.PONumber)
	assert.Nil(t, b.ApprovedBy)
}

func TestApprove_Failures(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, map[uuid.UUID]int{e.main.ID: 0})
	po := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 1})

	_, err := e.pos.Approve(e.ctx, po.ID, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound, "unknown approver")

	_, err = e.pos.Approve(e.ctx, uuid.New(), e.user.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "unknown order")

	inactive := e.store.AddUser(core.User{Username: "gone", IsActive: false})
	_, err = e.pos.Approve(e.ctx, po.ID, inactive.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "inactive approver")

	_, err = e.pos.SetStatus(e.ctx, po.ID, core.POStatusReceived)
	require.NoError(t, err)
	_, err = e.pos.Approve(e.ctx, po.ID, e.user.ID)
	assert.ErrorIs(t, err, core.ErrInvalidTransition)
}

func TestOrderTotal(t *testing.T) {
	e := newEngine(t)
	p := e.product(5, nil)
	po := e.createPO(t, core.POStatusDraft,
		core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 3, UnitPrice: decimal.RequireFromString("2.50")},
		core.PurchaseOrderLineInput{ProductID: p.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("0.25")},
	)

	total, err := e.pos.OrderTotal(e.ctx, po.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8.00").Equal(total), "got %s", total)

	_, err = e.pos.OrderTotal(e.ctx, uuid.New())
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestListPOs_Filters(t *testing.T) {
	e := newEngine(t)
	a := e.product(5, nil)
	b := e.product(5, nil)
	draft := e.createPO(t, core.POStatusDraft, core.PurchaseOrderLineInput{ProductID: a.ID, Quantity: 1})
	created := e.createPO(t, core.POStatusCreated, core.PurchaseOrderLineInput{ProductID: b.ID, Quantity: 1})

	byStatus, err := e.pos.ListPOs(e.ctx, core.POFilter{Status: core.POStatusCreated})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, created.ID, byStatus[0].ID)

	byProduct, err := e.pos.ListPOs(e.ctx, core.POFilter{ProductID: &a.ID})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, draft.ID, byProduct[0].ID)

	_, err = e.pos.ListPOs(e.ctx, core.POFilter{Status: "BOGUS"})
	assert.Error(t, err)
}
