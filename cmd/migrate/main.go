// migrate applies the embedded SQL migrations to DATABASE_URL.
//
// Usage: go run ./cmd/migrate
package main

import (
	"context"
	"time"

	"order-management/internal/config"
	"order-management/internal/db"
	"order-management/migrations"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.SetupLogger(cfg)

	ctx := context.Background()
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := db.NewPool(connCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("[CONNECT] failed")
	}
	defer pool.Close()
	log.Info().Msg("[CONNECT] success")

	if err := db.Migrate(ctx, pool, migrations.FS, logger); err != nil {
		log.Fatal().Err(err).Msg("[MIGRATE] failed")
	}
	log.Info().Msg("[DONE] All migrations processed.")
}
