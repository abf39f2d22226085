// Package memory is an in-process core.Store. Each transaction works on a copy of
// the whole dataset under one mutex and swaps it in on commit, so transactions are
// fully serialised and a failed one leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"

	"order-management/internal/core"

	"github.com/google/uuid"
)

type state struct {
	products   map[uuid.UUID]core.Product
	warehouses map[uuid.UUID]core.Warehouse
	suppliers  map[uuid.UUID]core.Supplier
	users      map[uuid.UUID]core.User
	orders     map[uuid.UUID]core.SalesOrder
	lines      map[uuid.UUID]core.SalesOrderLine
	inventory  map[uuid.UUID]core.InventoryRecord
	movements  []core.InventoryMovement
	pos        map[uuid.UUID]core.PurchaseOrder
	sequences  map[string]int64
}

func newState() *state {
	return &state{
		products:   make(map[uuid.UUID]core.Product),
		warehouses: make(map[uuid.UUID]core.Warehouse),
		suppliers:  make(map[uuid.UUID]core.Supplier),
		users:      make(map[uuid.UUID]core.User),
		orders:     make(map[uuid.UUID]core.SalesOrder),
		lines:      make(map[uuid.UUID]core.SalesOrderLine),
		inventory:  make(map[uuid.UUID]core.InventoryRecord),
		pos:        make(map[uuid.UUID]core.PurchaseOrder),
		sequences:  make(map[string]int64),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.suppliers {
		c.suppliers[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	c.movements = append([]core.InventoryMovement(nil), s.movements...)
	for k, v := range s.pos {
		v.Lines = append([]core.PurchaseOrderLine(nil), v.Lines...)
		c.pos[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store implements core.Store in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ core.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// InTx runs fn against a private copy of the data and publishes it when fn succeeds.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx core.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, &txn{st: work}); err != nil {
		return err
	}
	s.st = work
	return nil
}

// read returns a view of the committed data and the func that releases it.
func (s *Store) read() (*txn, func()) {
	s.mu.Lock()
	return &txn{st: s.st}, s.mu.Unlock
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*core.Product, error) {
	t, done := s.read()
	defer done()
	return t.GetProduct(ctx, id)
}

func (s *Store) GetWarehouse(ctx context.Context, id uuid.UUID) (*core.Warehouse, error) {
	t, done := s.read()
	defer done()
	return t.GetWarehouse(ctx, id)
}

func (s *Store) ListActiveWarehouses(ctx context.Context) ([]core.Warehouse, error) {
	t, done := s.read()
	defer done()
	return t.ListActiveWarehouses(ctx)
}

func (s *Store) GetSupplier(ctx context.Context, id uuid.UUID) (*core.Supplier, error) {
	t, done := s.read()
	defer done()
	return t.GetSupplier(ctx, id)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	t, done := s.read()
	defer done()
	return t.GetUser(ctx, id)
}

func (s *Store) GetSalesOrder(ctx context.Context, id uuid.UUID) (*core.SalesOrder, error) {
	t, done := s.read()
	defer done()
	return t.GetSalesOrder(ctx, id)
}

func (s *Store) GetSalesOrderLine(ctx context.Context, id uuid.UUID) (*core.SalesOrderLine, error) {
	t, done := s.read()
	defer done()
	return t.GetSalesOrderLine(ctx, id)
}

func (s *Store) ListSalesOrderLines(ctx context.Context, orderID uuid.UUID) ([]core.SalesOrderLine, error) {
	t, done := s.read()
	defer done()
	return t.ListSalesOrderLines(ctx, orderID)
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*core.PurchaseOrder, error) {
	t, done := s.read()
	defer done()
	return t.GetPurchaseOrder(ctx, id)
}

func (s *Store) ListPurchaseOrders(ctx context.Context, filter core.POFilter) ([]core.PurchaseOrder, error) {
	t, done := s.read()
	defer done()
	return t.ListPurchaseOrders(ctx, filter)
}

func (s *Store) ListInventoryByProduct(ctx context.Context, productID uuid.UUID) ([]core.InventoryRecord, error) {
	t, done := s.read()
	defer done()
	return t.ListInventoryByProduct(ctx, productID)
}

func (s *Store) ListMovements(ctx context.Context, productID uuid.UUID, limit int) ([]core.InventoryMovement, error) {
	t, done := s.read()
	defer done()
	return t.ListMovements(ctx, productID, limit)
}

// ── Seeding ─────────────────────────────────────────────────────────────────

func (s *Store) AddProduct(p core.Product) core.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = core.ProductStatusCreated
	}
	s.st.products[p.ID] = p
	return p
}

func (s *Store) AddWarehouse(w core.Warehouse) core.Warehouse {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	s.st.warehouses[w.ID] = w
	return w
}

func (s *Store) AddSupplier(sup core.Supplier) core.Supplier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sup.ID == uuid.Nil {
		sup.ID = uuid.New()
	}
	s.st.suppliers[sup.ID] = sup
	return sup
}

func (s *Store) AddUser(u core.User) core.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.st.users[u.ID] = u
	return u
}

func (s *Store) AddSalesOrder(o core.SalesOrder) core.SalesOrder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	s.st.orders[o.ID] = o
	return o
}

// AddInventory sets the on-hand quantity of a product at a warehouse without
// writing a movement.
func (s *Store) AddInventory(productID, warehouseID uuid.UUID, qty int) core.InventoryRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rec := range s.st.inventory {
		if rec.ProductID == productID && rec.WarehouseID == warehouseID {
			rec.QtyOnHand = qty
			s.st.inventory[id] = rec
			return rec
		}
	}
	rec := core.InventoryRecord{ID: uuid.New(), ProductID: productID, WarehouseID: warehouseID, QtyOnHand: qty}
	s.st.inventory[rec.ID] = rec
	return rec
}

func sortRecords(records []core.InventoryRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].WarehouseCode != records[j].WarehouseCode {
			return records[i].WarehouseCode < records[j].WarehouseCode
		}
		return records[i].ID.String() < records[j].ID.String()
	})
}
