package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// queries holds the read side shared by Store and txn.
type queries struct {
	q querier
}

const (
	productColumns   = `id, name, sku, price, status, created_at`
	warehouseColumns = `id, code, name, is_active, created_at`
	inventorySelect  = `
		SELECT ir.id, ir.product_id, ir.warehouse_id, w.code,
		       ir.qty_on_hand, ir.qty_reserved, ir.reference_document, ir.updated_at
		FROM inventory_records ir
		JOIN warehouses w ON w.id = ir.warehouse_id`
	lineColumns = `id, order_id, product_id, quantity, unit_price, backorder_quantity, created_at, updated_at`
	poColumns   = `id, po_number, supplier_id, created_by, approved_by, status, created_at,
		expected_delivery, approved_at, received_at, source_sales_order_line_id`
)

func (r queries) GetProduct(ctx context.Context, id uuid.UUID) (*core.Product, error) {
	var p core.Product
	err := r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.SKU, &p.Price, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("product", id)
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &p, nil
}

func (r queries) GetWarehouse(ctx context.Context, id uuid.UUID) (*core.Warehouse, error) {
	var w core.Warehouse
	err := r.q.QueryRow(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE id = $1`, id).
		Scan(&w.ID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("warehouse", id)
		}
		return nil, fmt.Errorf("failed to fetch warehouse %s: %w", id, err)
	}
	return &w, nil
}

func (r queries) ListActiveWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	rows, err := r.q.Query(ctx, `SELECT `+warehouseColumns+` FROM warehouses WHERE is_active = true ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query warehouses: %w", err)
	}
	defer rows.Close()

	var warehouses []core.Warehouse
	for rows.Next() {
		var w core.Warehouse
		if err := rows.Scan(&w.ID, &w.Code, &w.Name, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan warehouse: %w", err)
		}
		warehouses = append(warehouses, w)
	}
	return warehouses, rows.Err()
}

func (r queries) GetSupplier(ctx context.Context, id uuid.UUID) (*core.Supplier, error) {
	var s core.Supplier
	err := r.q.QueryRow(ctx, `
		SELECT id, code, name, email, is_active, created_at
		FROM suppliers
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Code, &s.Name, &s.Email, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("supplier", id)
		}
		return nil, fmt.Errorf("failed to fetch supplier %s: %w", id, err)
	}
	return &s, nil
}

func (r queries) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	var u core.User
	err := r.q.QueryRow(ctx, `
		SELECT id, username, role, is_active, created_at
		FROM users
		WHERE id = $1 AND is_active = true
	`, id).Scan(&u.ID, &u.Username, &u.Role, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", id, err)
	}
	return &u, nil
}

func (r queries) GetSalesOrder(ctx context.Context, id uuid.UUID) (*core.SalesOrder, error) {
	var o core.SalesOrder
	err := r.q.QueryRow(ctx, `SELECT id, user_id, status, created_at FROM sales_orders WHERE id = $1`, id).
		Scan(&o.ID, &o.UserID, &o.Status, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("sales order", id)
		}
		return nil, fmt.Errorf("failed to fetch sales order %s: %w", id, err)
	}
	return &o, nil
}

func (r queries) GetSalesOrderLine(ctx context.Context, id uuid.UUID) (*core.SalesOrderLine, error) {
	return r.fetchLine(ctx, `SELECT `+lineColumns+` FROM sales_order_lines WHERE id = $1`, id)
}

func (r queries) fetchLine(ctx context.Context, sql string, id uuid.UUID) (*core.SalesOrderLine, error) {
	var l core.SalesOrderLine
	err := r.q.QueryRow(ctx, sql, id).Scan(
		&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.BackorderQuantity, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("sales order line", id)
		}
		return nil, fmt.Errorf("failed to fetch sales order line %s: %w", id, err)
	}
	return &l, nil
}

func (r queries) ListSalesOrderLines(ctx context.Context, orderID uuid.UUID) ([]core.SalesOrderLine, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+lineColumns+`
		FROM sales_order_lines
		WHERE order_id = $1
		ORDER BY created_at, id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales order lines: %w", err)
	}
	defer rows.Close()

	var lines []core.SalesOrderLine
	for rows.Next() {
		var l core.SalesOrderLine
		if err := rows.Scan(
			&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.BackorderQuantity, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sales order line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r queries) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*core.PurchaseOrder, error) {
	return r.fetchPO(ctx, `SELECT `+poColumns+` FROM purchase_orders WHERE id = $1`, id)
}

func (r queries) fetchPO(ctx context.Context, sql string, id uuid.UUID) (*core.PurchaseOrder, error) {
	po, err := scanPO(r.q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.NewNotFoundError("purchase order", id)
		}
		return nil, fmt.Errorf("failed to fetch purchase order %s: %w", id, err)
	}

	lines, err := r.fetchPOLines(ctx, []uuid.UUID{po.ID})
	if err != nil {
		return nil, err
	}
	po.Lines = lines[po.ID]
	return po, nil
}

func scanPO(row pgx.Row) (*core.PurchaseOrder, error) {
	var po core.PurchaseOrder
	err := row.Scan(
		&po.ID, &po.PONumber, &po.SupplierID, &po.CreatedBy, &po.ApprovedBy, &po.Status, &po.CreatedAt,
		&po.ExpectedDelivery, &po.ApprovedAt, &po.ReceivedAt, &po.SourceLineID,
	)
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r queries) fetchPOLines(ctx context.Context, poIDs []uuid.UUID) (map[uuid.UUID][]core.PurchaseOrderLine, error) {
	out := make(map[uuid.UUID][]core.PurchaseOrderLine, len(poIDs))
	if len(poIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, purchase_order_id, product_id, quantity, unit_price
		FROM purchase_order_lines
		WHERE purchase_order_id = ANY($1)
		ORDER BY purchase_order_id, line_number
	`, poIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l core.PurchaseOrderLine
		if err := rows.Scan(&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan purchase order line: %w", err)
		}
		out[l.PurchaseOrderID] = append(out[l.PurchaseOrderID], l)
	}
	return out, rows.Err()
}

func (r queries) ListPurchaseOrders(ctx context.Context, filter core.POFilter) ([]core.PurchaseOrder, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.ProductID != nil {
		args = append(args, *filter.ProductID)
		where = append(where, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM purchase_order_lines l WHERE l.purchase_order_id = purchase_orders.id AND l.product_id = $%d)",
			len(args)))
	}

	sql := `SELECT ` + poColumns + ` FROM purchase_orders`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	var pos []core.PurchaseOrder
	var ids []uuid.UUID
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan purchase order: %w", err)
		}
		pos = append(pos, *po)
		ids = append(ids, po.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase orders: %w", err)
	}

	lines, err := r.fetchPOLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range pos {
		pos[i].Lines = lines[pos[i].ID]
	}
	return pos, nil
}

func (r queries) ListInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]core.InventoryRecord, error) {
	return r.queryInventory(ctx, inventorySelect+`
		WHERE ir.product_id = $1 AND w.is_active = true
		ORDER BY w.code, ir.id`, productID)
}

func (r queries) queryInventory(ctx context.Context, sql string, args ...any) ([]core.InventoryRecord, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory records: %w", err)
	}
	defer rows.Close()

	var records []core.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanInventory(row pgx.Row) (*core.InventoryRecord, error) {
	var rec core.InventoryRecord
	err := row.Scan(
		&rec.ID, &rec.ProductID, &rec.WarehouseID, &rec.WarehouseCode,
		&rec.QtyOnHand, &rec.QtyReserved, &rec.ReferenceDocument, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r queries) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]core.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, inventory_record_id, product_id, warehouse_id, kind, quantity,
		       sales_order_line_id, purchase_order_id, reference_document, description, occurred_at
		FROM inventory_movements
		WHERE product_id = $1
		ORDER BY occurred_at DESC, id
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []core.InventoryMovement
	for rows.Next() {
		var m core.InventoryMovement
		if err := rows.Scan(
			&m.ID, &m.InventoryRecordID, &m.ProductID, &m.WarehouseID, &m.Kind, &m.Quantity,
			&m.SalesOrderLineID, &m.PurchaseOrderID, &m.ReferenceDocument, &m.Description, &m.OccurredAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}
