package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"order-management/internal/core"

	"github.com/google/uuid"
)

// txn implements core.Tx over one state snapshot. Locks are no-ops because the
// Store mutex is held for the whole transaction.
type txn struct {
	st *state
}

var _ core.Tx = (*txn)(nil)

func (t *txn) GetProduct(_ context.Context, id uuid.UUID) (*core.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return nil, core.NewNotFoundError("product", id)
	}
	return &p, nil
}

func (t *txn) GetWarehouse(_ context.Context, id uuid.UUID) (*core.Warehouse, error) {
	w, ok := t.st.warehouses[id]
	if !ok {
		return nil, core.NewNotFoundError("warehouse", id)
	}
	return &w, nil
}

func (t *txn) ListActiveWarehouses(_ context.Context) ([]core.Warehouse, error) {
	var out []core.Warehouse
	for _, w := range t.st.warehouses {
		if w.IsActive {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (t *txn) GetSupplier(_ context.Context, id uuid.UUID) (*core.Supplier, error) {
	s, ok := t.st.suppliers[id]
	if !ok {
		return nil, core.NewNotFoundError("supplier", id)
	}
	return &s, nil
}

func (t *txn) GetUser(_ context.Context, id uuid.UUID) (*core.User, error) {
	u, ok := t.st.users[id]
	if !ok || !u.IsActive {
		return nil, core.NewNotFoundError("user", id)
	}
	return &u, nil
}

func (t *txn) GetSalesOrder(_ context.Context, id uuid.UUID) (*core.SalesOrder, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return nil, core.NewNotFoundError("sales order", id)
	}
	return &o, nil
}

func (t *txn) GetSalesOrderLine(_ context.Context, id uuid.UUID) (*core.SalesOrderLine, error) {
	l, ok := t.st.lines[id]
	if !ok {
		return nil, core.NewNotFoundError("sales order line", id)
	}
	return &l, nil
}

func (t *txn) ListSalesOrderLines(_ context.Context, orderID uuid.UUID) ([]core.SalesOrderLine, error) {
	var out []core.SalesOrderLine
	for _, l := range t.st.lines {
		if l.OrderID == orderID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (t *txn) GetPurchaseOrder(_ context.Context, id uuid.UUID) (*core.PurchaseOrder, error) {
	po, ok := t.st.pos[id]
	if !ok {
		return nil, core.NewNotFoundError("purchase order", id)
	}
	po.Lines = append([]core.PurchaseOrderLine(nil), po.Lines...)
	return &po, nil
}

func (t *txn) ListPurchaseOrders(_ context.Context, filter core.POFilter) ([]core.PurchaseOrder, error) {
	var out []core.PurchaseOrder
	for _, po := range t.st.pos {
		if filter.Status != "" && po.Status != filter.Status {
			continue
		}
		if filter.ProductID != nil && !hasProduct(po, *filter.ProductID) {
			continue
		}
		po.Lines = append([]core.PurchaseOrderLine(nil), po.Lines...)
		out = append(out, po)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func hasProduct(po core.PurchaseOrder, productID uuid.UUID) bool {
	for _, l := range po.Lines {
		if l.ProductID == productID {
			return true
		}
	}
	return false
}

func (t *txn) ListInventoryByProduct(_ context.Context, productID uuid.UUID) ([]core.InventoryRecord, error) {
	var out []core.InventoryRecord
	for _, rec := range t.st.inventory {
		if rec.ProductID != productID {
			continue
		}
		w, ok := t.st.warehouses[rec.WarehouseID]
		if !ok || !w.IsActive {
			continue
		}
		rec.WarehouseCode = w.Code
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (t *txn) ListMovements(_ context.Context, productID uuid.UUID, limit int) ([]core.InventoryMovement, error) {
	var out []core.InventoryMovement
	for i := len(t.st.movements) - 1; i >= 0; i-- {
		m := t.st.movements[i]
		if m.ProductID != productID {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *txn) LockInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]core.InventoryRecord, error) {
	return t.ListInventoryByProduct(ctx, productID)
}

func (t *txn) LockInventoryRecord(_ context.Context, productID, warehouseID uuid.UUID) (*core.InventoryRecord, error) {
	for _, rec := range t.st.inventory {
		if rec.ProductID == productID && rec.WarehouseID == warehouseID {
			if w, ok := t.st.warehouses[warehouseID]; ok {
				rec.WarehouseCode = w.Code
			}
			return &rec, nil
		}
	}
	return nil, &core.NotFoundError{
		Entity: "inventory record",
		ID:     fmt.Sprintf("%s@%s", productID, warehouseID),
	}
}

func (t *txn) EnsureInventoryRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*core.InventoryRecord, error) {
	if rec, err := t.LockInventoryRecord(ctx, productID, warehouseID); err == nil {
		return rec, nil
	}
	if _, ok := t.st.products[productID]; !ok {
		return nil, core.NewNotFoundError("product", productID)
	}
	w, ok := t.st.warehouses[warehouseID]
	if !ok {
		return nil, core.NewNotFoundError("warehouse", warehouseID)
	}
	rec := core.InventoryRecord{
		ID:            uuid.New(),
		ProductID:     productID,
		WarehouseID:   warehouseID,
		WarehouseCode: w.Code,
		UpdatedAt:     time.Now(),
	}
	t.st.inventory[rec.ID] = rec
	return &rec, nil
}

func (t *txn) UpdateInventoryRecord(_ context.Context, rec *core.InventoryRecord) error {
	if _, ok := t.st.inventory[rec.ID]; !ok {
		return core.NewNotFoundError("inventory record", rec.ID)
	}
	if rec.QtyOnHand < 0 {
		return fmt.Errorf("inventory record %s: qty_on_hand %d violates non-negative constraint", rec.ID, rec.QtyOnHand)
	}
	stored := *rec
	stored.WarehouseCode = ""
	t.st.inventory[rec.ID] = stored
	return nil
}

func (t *txn) InsertMovement(_ context.Context, m *core.InventoryMovement) error {
	t.st.movements = append(t.st.movements, *m)
	return nil
}

func (t *txn) NetLineAllocation(_ context.Context, lineID uuid.UUID) ([]core.LocationDeduction, error) {
	held := make(map[uuid.UUID]*core.LocationDeduction)
	var order []uuid.UUID
	for _, m := range t.st.movements {
		if m.SalesOrderLineID == nil || *m.SalesOrderLineID != lineID {
			continue
		}
		d, ok := held[m.WarehouseID]
		if !ok {
			d = &core.LocationDeduction{InventoryRecordID: m.InventoryRecordID, WarehouseID: m.WarehouseID}
			held[m.WarehouseID] = d
			order = append(order, m.WarehouseID)
		}
		d.Quantity -= m.Quantity
	}

	var out []core.LocationDeduction
	for _, wid := range order {
		if d := held[wid]; d.Quantity != 0 {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (t *txn) LockSalesOrderLine(ctx context.Context, id uuid.UUID) (*core.SalesOrderLine, error) {
	return t.GetSalesOrderLine(ctx, id)
}

func (t *txn) InsertSalesOrderLine(_ context.Context, line *core.SalesOrderLine) error {
	if _, ok := t.st.orders[line.OrderID]; !ok {
		return core.NewNotFoundError("sales order", line.OrderID)
	}
	if _, ok := t.st.lines[line.ID]; ok {
		return fmt.Errorf("sales order line %s already exists", line.ID)
	}
	t.st.lines[line.ID] = *line
	return nil
}

func (t *txn) UpdateSalesOrderLine(_ context.Context, line *core.SalesOrderLine) error {
	if _, ok := t.st.lines[line.ID]; !ok {
		return core.NewNotFoundError("sales order line", line.ID)
	}
	t.st.lines[line.ID] = *line
	return nil
}

func (t *txn) DeleteSalesOrderLine(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.lines[id]; !ok {
		return core.NewNotFoundError("sales order line", id)
	}
	delete(t.st.lines, id)
	return nil
}

func (t *txn) LockPurchaseOrder(ctx context.Context, id uuid.UUID) (*core.PurchaseOrder, error) {
	return t.GetPurchaseOrder(ctx, id)
}

func (t *txn) InsertPurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	if _, ok := t.st.pos[po.ID]; ok {
		return fmt.Errorf("purchase order %s already exists", po.ID)
	}
	stored := *po
	stored.Lines = append([]core.PurchaseOrderLine(nil), po.Lines...)
	t.st.pos[po.ID] = stored
	return nil
}

func (t *txn) UpdatePurchaseOrder(_ context.Context, po *core.PurchaseOrder) error {
	current, ok := t.st.pos[po.ID]
	if !ok {
		return core.NewNotFoundError("purchase order", po.ID)
	}
	current.Status = po.Status
	current.PONumber = po.PONumber
	current.ApprovedBy = po.ApprovedBy
	current.ApprovedAt = po.ApprovedAt
	current.ReceivedAt = po.ReceivedAt
	t.st.pos[po.ID] = current
	return nil
}

func (t *txn) NextSequence(_ context.Context, docType string, year int) (int64, error) {
	key := fmt.Sprintf("%s/%d", docType, year)
	t.st.sequences[key]++
	return t.st.sequences[key], nil
}
