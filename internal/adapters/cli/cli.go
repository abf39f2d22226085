package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"order-management/internal/app"
	"order-management/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const usage = `Available: stock, movements, lines, add-line, update-line, delete-line, pos, po, po-status, approve`

// Run executes a one-shot CLI command, writing human-readable output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}

	switch args[0] {
	case "stock", "st":
		productID, err := argUUID(args, 1, "stock <product-id>")
		if err != nil {
			return err
		}
		result, err := svc.GetStock(ctx, productID)
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		printStock(out, result)

	case "movements", "mv":
		productID, err := argUUID(args, 1, "movements <product-id> [limit]")
		if err != nil {
			return err
		}
		limit := 0
		if len(args) > 2 {
			if limit, err = strconv.Atoi(args[2]); err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[2], err)
			}
		}
		result, err := svc.ListMovements(ctx, productID, limit)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		printMovements(out, result.Movements)

	case "lines", "ls":
		orderID, err := argUUID(args, 1, "lines <order-id>")
		if err != nil {
			return err
		}
		result, err := svc.ListSalesOrderLines(ctx, orderID)
		if err != nil {
			return fmt.Errorf("list lines: %w", err)
		}
		printLines(out, result.Lines)

	case "add-line", "add":
		if len(args) < 5 {
			return fmt.Errorf("usage: add-line <order-id> <product-id> <quantity> <unit-price>")
		}
		orderID, err := argUUID(args, 1, "add-line <order-id> ...")
		if err != nil {
			return err
		}
		productID, err := argUUID(args, 2, "add-line <order-id> <product-id> ...")
		if err != nil {
			return err
		}
		qty, price, err := qtyAndPrice(args[3], args[4])
		if err != nil {
			return err
		}
		result, err := svc.CreateSalesOrderLine(ctx, app.CreateLineRequest{
			OrderID: orderID, ProductID: productID, Quantity: qty, UnitPrice: price,
		})
		if err != nil {
			return fmt.Errorf("create line: %w", err)
		}
		printLineResult(out, result)

	case "update-line", "upd":
		if len(args) < 4 {
			return fmt.Errorf("usage: update-line <line-id> <quantity> <unit-price>")
		}
		lineID, err := argUUID(args, 1, "update-line <line-id> ...")
		if err != nil {
			return err
		}
		qty, price, err := qtyAndPrice(args[2], args[3])
		if err != nil {
			return err
		}
		result, err := svc.UpdateSalesOrderLine(ctx, lineID, app.UpdateLineRequest{Quantity: qty, UnitPrice: price})
		if err != nil {
			return fmt.Errorf("update line: %w", err)
		}
		printLineResult(out, result)

	case "delete-line", "del":
		lineID, err := argUUID(args, 1, "delete-line <line-id>")
		if err != nil {
			return err
		}
		if err := svc.DeleteSalesOrderLine(ctx, lineID); err != nil {
			return fmt.Errorf("delete line: %w", err)
		}
		fmt.Fprintf(out, "Line %s deleted; stock released.\n", lineID)

	case "pos":
		req := app.ListPurchaseOrdersRequest{}
		if len(args) > 1 {
			req.Status = args[1]
		}
		result, err := svc.ListPurchaseOrders(ctx, req)
		if err != nil {
			return fmt.Errorf("list purchase orders: %w", err)
		}
		printPurchaseOrders(out, result.Orders)

	case "po":
		poID, err := argUUID(args, 1, "po <po-id>")
		if err != nil {
			return err
		}
		result, err := svc.GetPurchaseOrder(ctx, poID)
		if err != nil {
			return fmt.Errorf("get purchase order: %w", err)
		}
		return printJSON(out, result)

	case "po-status", "status":
		if len(args) < 3 {
			return fmt.Errorf("usage: po-status <po-id> <status>")
		}
		poID, err := argUUID(args, 1, "po-status <po-id> <status>")
		if err != nil {
			return err
		}
		result, err := svc.SetPurchaseOrderStatus(ctx, poID, args[2])
		if err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		fmt.Fprintf(out, "Purchase order %s is now %s.\n", result.Order.ID, result.Order.Status)

	case "approve":
		if len(args) < 3 {
			return fmt.Errorf("usage: approve <po-id> <approver-user-id>")
		}
		poID, err := argUUID(args, 1, "approve <po-id> <approver-user-id>")
		if err != nil {
			return err
		}
		approverID, err := argUUID(args, 2, "approve <po-id> <approver-user-id>")
		if err != nil {
			return err
		}
		result, err := svc.ApprovePurchaseOrder(ctx, poID, approverID)
		if err != nil {
			return fmt.Errorf("approve: %w", err)
		}
		fmt.Fprintf(out, "Purchase order %s approved as %s.\n", result.Order.ID, deref(result.Order.PONumber))

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

func argUUID(args []string, i int, usageLine string) (uuid.UUID, error) {
	if len(args) <= i {
		return uuid.Nil, fmt.Errorf("usage: %s", usageLine)
	}
	id, err := uuid.Parse(args[i])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", args[i], err)
	}
	return id, nil
}

func qtyAndPrice(rawQty, rawPrice string) (int, decimal.Decimal, error) {
	qty, err := strconv.Atoi(rawQty)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("invalid quantity %q: %w", rawQty, err)
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return 0, decimal.Zero, fmt.Errorf("invalid unit price %q: %w", rawPrice, err)
	}
	return qty, price, nil
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStock(out io.Writer, result *app.StockResult) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "  STOCK  %s\n", result.Summary.ProductID)
	fmt.Fprintln(out, strings.Repeat("=", 50))
	fmt.Fprintf(out, "  %-20s %12s %12s\n", "WAREHOUSE", "ON HAND", "RESERVED")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, r := range result.Summary.Records {
		fmt.Fprintf(out, "  %-20s %12d %12d\n", r.WarehouseCode, r.QtyOnHand, r.QtyReserved)
	}
	fmt.Fprintln(out, strings.Repeat("-", 50))
	fmt.Fprintf(out, "  %-20s %12d\n", "TOTAL", result.TotalOnHand)
	fmt.Fprintln(out, strings.Repeat("=", 50))
}

func printMovements(out io.Writer, movements []core.InventoryMovement) {
	fmt.Fprintf(out, "  %-20s %-11s %8s  %s\n", "WHEN", "KIND", "QTY", "DESCRIPTION")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, m := range movements {
		fmt.Fprintf(out, "  %-20s %-11s %+8d  %s\n", m.OccurredAt.Format("2006-01-02 15:04:05"), m.Kind, m.Quantity, m.Description)
	}
}

func printLines(out io.Writer, lines []core.SalesOrderLine) {
	fmt.Fprintf(out, "  %-36s %-36s %6s %9s %10s\n", "LINE", "PRODUCT", "QTY", "BACKORDER", "PRICE")
	fmt.Fprintln(out, strings.Repeat("-", 102))
	for _, l := range lines {
		fmt.Fprintf(out, "  %-36s %-36s %6d %9d %10s\n", l.ID, l.ProductID, l.Quantity, l.BackorderQuantity, l.UnitPrice.StringFixed(2))
	}
}

func printLineResult(out io.Writer, result *app.LineResult) {
	l := result.Line
	fmt.Fprintf(out, "Line %s: %d requested, %d allocated, %d backordered.\n",
		l.ID, l.Quantity, l.AllocatedQuantity(), l.BackorderQuantity)
	if result.PurchaseOrder != nil {
		fmt.Fprintf(out, "Replenishment purchase order %s raised for %d units.\n",
			result.PurchaseOrder.ID, l.BackorderQuantity)
	}
	if result.ReplenishmentWarning != "" {
		fmt.Fprintf(out, "WARNING: %s\n", result.ReplenishmentWarning)
	}
}

func printPurchaseOrders(out io.Writer, orders []core.PurchaseOrder) {
	fmt.Fprintf(out, "  %-36s %-14s %-10s %-12s %12s\n", "ID", "NUMBER", "STATUS", "EXPECTED", "TOTAL")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, po := range orders {
		fmt.Fprintf(out, "  %-36s %-14s %-10s %-12s %12s\n",
			po.ID, deref(po.PONumber), po.Status, po.ExpectedDelivery.Format("2006-01-02"), po.Total().StringFixed(2))
	}
}
