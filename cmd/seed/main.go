// seed loads a small demo dataset: two warehouses, three products, a supplier,
// a purchasing user, one open sales order, and starting stock. It is idempotent;
// existing rows keep their stock levels.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"

	"order-management/internal/config"
	"order-management/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	userID       = uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c1001")
	supplierID   = uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c2001")
	mainWH       = uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c3001")
	overflowWH   = uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c3002")
	salesOrderID = uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c5001")
)

type seedProduct struct {
	id    uuid.UUID
	sku   string
	name  string
	price decimal.Decimal
	stock map[uuid.UUID]int
}

var products = []seedProduct{
	{uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c4001"), "WID-001", "Widget", decimal.RequireFromString("4.50"), map[uuid.UUID]int{mainWH: 10, overflowWH: 5}},
	{uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c4002"), "GAD-001", "Gadget", decimal.RequireFromString("12.00"), map[uuid.UUID]int{mainWH: 2}},
	// Deliberately unstocked: allocating it reports insufficient configuration.
	{uuid.MustParse("6f1c2b6e-4d0a-4c55-9f3e-0b5a3f0c4003"), "GIZ-001", "Gizmo", decimal.RequireFromString("30.00"), nil},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	config.SetupLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	log.Info().Msg("Seeding users and suppliers...")
	exec(ctx, tx, "user", `
		INSERT INTO users (id, username, role) VALUES ($1, 'purchasing', 'PURCHASING')
		ON CONFLICT (id) DO NOTHING`, userID)
	exec(ctx, tx, "supplier", `
		INSERT INTO suppliers (id, code, name, email) VALUES ($1, 'ACME', 'Acme Supplies', 'orders@acme.example')
		ON CONFLICT (id) DO NOTHING`, supplierID)

	log.Info().Msg("Seeding warehouses...")
	exec(ctx, tx, "warehouse MAIN", `
		INSERT INTO warehouses (id, code, name) VALUES ($1, 'MAIN', 'Main warehouse')
		ON CONFLICT (id) DO NOTHING`, mainWH)
	exec(ctx, tx, "warehouse OVERFLOW", `
		INSERT INTO warehouses (id, code, name) VALUES ($1, 'OVERFLOW', 'Overflow storage')
		ON CONFLICT (id) DO NOTHING`, overflowWH)

	log.Info().Msg("Seeding products and stock...")
	for _, p := range products {
		exec(ctx, tx, "product "+p.sku, `
			INSERT INTO products (id, sku, name, price) VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING`, p.id, p.sku, p.name, p.price)
		for wh, qty := range p.stock {
			exec(ctx, tx, "stock "+p.sku, `
				INSERT INTO inventory_records (id, product_id, warehouse_id, qty_on_hand, reference_document)
				VALUES ($1, $2, $3, $4, 'SEED')
				ON CONFLICT (product_id, warehouse_id) DO NOTHING`, uuid.New(), p.id, wh, qty)
		}
	}

	log.Info().Msg("Seeding sales order...")
	exec(ctx, tx, "sales order", `
		INSERT INTO sales_orders (id, user_id, status) VALUES ($1, $2, 'CREATED')
		ON CONFLICT (id) DO NOTHING`, salesOrderID, userID)

	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit seed")
	}

	log.Info().
		Str("DEFAULT_SUPPLIER_ID", supplierID.String()).
		Str("REPLENISHMENT_USER_ID", userID.String()).
		Str("sales_order_id", salesOrderID.String()).
		Msg("Seed complete")
}

func exec(ctx context.Context, tx pgx.Tx, what, sql string, args ...any) {
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		log.Fatal().Err(err).Str("row", what).Msg("seed failed")
	}
}
