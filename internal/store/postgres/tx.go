package postgres

import (
	"context"
	"errors"
	"fmt"

	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// txn implements core.Tx on a pgx transaction.
type txn struct {
	queries
}

var _ core.Tx = (*txn)(nil)

func (t *txn) LockInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]core.InventoryRecord, error) {
	return t.queryInventory(ctx, inventorySelect+`
		WHERE ir.product_id = $1 AND w.is_active = true
		ORDER BY w.code, ir.id
		FOR UPDATE OF ir`, productID)
}

func (t *txn) LockInventoryRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*core.InventoryRecord, error) {
	rec, err := scanInventory(t.q.QueryRow(ctx, inventorySelect+`
		WHERE ir.product_id = $1 AND ir.warehouse_id = $2
		FOR UPDATE OF ir`, productID, warehouseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &core.NotFoundError{
				Entity: "inventory record",
				ID:     fmt.Sprintf("%s@%s", productID, warehouseID),
			}
		}
		return nil, fmt.Errorf("failed to lock inventory record: %w", err)
	}
	return rec, nil
}

// EnsureInventoryRecord upserts the (product, warehouse) row, then locks it.
// ON CONFLICT keeps two concurrent first receipts from racing on the unique key.
func (t *txn) EnsureInventoryRecord(ctx context.Context, productID, warehouseID uuid.UUID) (*core.InventoryRecord, error) {
	_, err := t.q.Exec(ctx, `
		INSERT INTO inventory_records (id, product_id, warehouse_id, qty_on_hand, qty_reserved)
		VALUES ($1, $2, $3, 0, 0)
		ON CONFLICT (product_id, warehouse_id) DO NOTHING
	`, uuid.New(), productID, warehouseID)
	if err != nil {
		return nil, translate(err, "upsert inventory record")
	}
	return t.LockInventoryRecord(ctx, productID, warehouseID)
}

func (t *txn) UpdateInventoryRecord(ctx context.Context, rec *core.InventoryRecord) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE inventory_records
		SET qty_on_hand = $1, reference_document = $2, updated_at = $3
		WHERE id = $4
	`, rec.QtyOnHand, rec.ReferenceDocument, rec.UpdatedAt, rec.ID)
	if err != nil {
		return translate(err, "update inventory record")
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("inventory record", rec.ID)
	}
	return nil
}

func (t *txn) InsertMovement(ctx context.Context, m *core.InventoryMovement) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO inventory_movements (id, inventory_record_id, product_id, warehouse_id, kind, quantity,
		                                 sales_order_line_id, purchase_order_id, reference_document, description, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, m.ID, m.InventoryRecordID, m.ProductID, m.WarehouseID, string(m.Kind), m.Quantity,
		m.SalesOrderLineID, m.PurchaseOrderID, m.ReferenceDocument, m.Description, m.OccurredAt)
	if err != nil {
		return translate(err, "insert inventory movement")
	}
	return nil
}

func (t *txn) NetLineAllocation(ctx context.Context, lineID uuid.UUID) ([]core.LocationDeduction, error) {
	rows, err := t.q.Query(ctx, `
		SELECT m.inventory_record_id, m.warehouse_id, -SUM(m.quantity)::int AS held
		FROM inventory_movements m
		JOIN warehouses w ON w.id = m.warehouse_id
		WHERE m.sales_order_line_id = $1
		GROUP BY m.inventory_record_id, m.warehouse_id, w.code
		HAVING SUM(m.quantity) <> 0
		ORDER BY w.code, m.inventory_record_id
	`, lineID)
	if err != nil {
		return nil, fmt.Errorf("failed to query line allocation: %w", err)
	}
	defer rows.Close()

	var held []core.LocationDeduction
	for rows.Next() {
		var d core.LocationDeduction
		if err := rows.Scan(&d.InventoryRecordID, &d.WarehouseID, &d.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan line allocation: %w", err)
		}
		held = append(held, d)
	}
	return held, rows.Err()
}

func (t *txn) LockSalesOrderLine(ctx context.Context, id uuid.UUID) (*core.SalesOrderLine, error) {
	return t.fetchLine(ctx, `SELECT `+lineColumns+` FROM sales_order_lines WHERE id = $1 FOR UPDATE`, id)
}

func (t *txn) InsertSalesOrderLine(ctx context.Context, l *core.SalesOrderLine) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO sales_order_lines (id, order_id, product_id, quantity, unit_price, backorder_quantity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, l.ID, l.OrderID, l.ProductID, l.Quantity, l.UnitPrice, l.BackorderQuantity, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return translate(err, "insert sales order line")
	}
	return nil
}

func (t *txn) UpdateSalesOrderLine(ctx context.Context, l *core.SalesOrderLine) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE sales_order_lines
		SET quantity = $1, unit_price = $2, backorder_quantity = $3, updated_at = $4
		WHERE id = $5
	`, l.Quantity, l.UnitPrice, l.BackorderQuantity, l.UpdatedAt, l.ID)
	if err != nil {
		return translate(err, "update sales order line")
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("sales order line", l.ID)
	}
	return nil
}

func (t *txn) DeleteSalesOrderLine(ctx context.Context, id uuid.UUID) error {
	tag, err := t.q.Exec(ctx, `DELETE FROM sales_order_lines WHERE id = $1`, id)
	if err != nil {
		return translate(err, "delete sales order line")
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("sales order line", id)
	}
	return nil
}

func (t *txn) LockPurchaseOrder(ctx context.Context, id uuid.UUID) (*core.PurchaseOrder, error) {
	return t.fetchPO(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
}

func (t *txn) InsertPurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO purchase_orders (id, po_number, supplier_id, created_by, approved_by, status, created_at,
		                             expected_delivery, approved_at, received_at, source_sales_order_line_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, po.ID, po.PONumber, po.SupplierID, po.CreatedBy, po.ApprovedBy, string(po.Status), po.CreatedAt,
		po.ExpectedDelivery, po.ApprovedAt, po.ReceivedAt, po.SourceLineID)
	if err != nil {
		return translate(err, "insert purchase order")
	}

	for i, l := range po.Lines {
		if _, err := t.q.Exec(ctx, `
			INSERT INTO purchase_order_lines (id, purchase_order_id, line_number, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, l.ID, po.ID, i+1, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
			return translate(err, fmt.Sprintf("insert PO line %d", i+1))
		}
	}
	return nil
}

func (t *txn) UpdatePurchaseOrder(ctx context.Context, po *core.PurchaseOrder) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE purchase_orders
		SET status = $1, po_number = $2, approved_by = $3, approved_at = $4, received_at = $5
		WHERE id = $6
	`, string(po.Status), po.PONumber, po.ApprovedBy, po.ApprovedAt, po.ReceivedAt, po.ID)
	if err != nil {
		return translate(err, "update purchase order")
	}
	if tag.RowsAffected() == 0 {
		return core.NewNotFoundError("purchase order", po.ID)
	}
	return nil
}

// NextSequence is concurrency-safe: the upsert row lock serialises callers.
func (t *txn) NextSequence(ctx context.Context, docType string, year int) (int64, error) {
	var last int64
	err := t.q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, year, last_number)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, year)
		DO UPDATE SET last_number = document_sequences.last_number + 1
		RETURNING last_number
	`, docType, year).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("failed to generate gapless sequence number: %w", err)
	}
	return last, nil
}
