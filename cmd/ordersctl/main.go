// ordersctl runs one-shot stock and purchase-order commands against DATABASE_URL.
//
// Usage:
//
//	ordersctl stock <product-id>
//	ordersctl add-line <order-id> <product-id> <quantity> <unit-price>
//	ordersctl po-status <po-id> RECEIVED
//	ordersctl token <user-id> [role]
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"order-management/internal/adapters/cli"
	webAdapter "order-management/internal/adapters/web"
	"order-management/internal/app"
	"order-management/internal/config"
	"order-management/internal/core"
	"order-management/internal/db"
	"order-management/internal/store/postgres"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: ordersctl <command> [args...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.SetupLogger(cfg)

	// token needs no database.
	if os.Args[1] == "token" {
		if err := printToken(cfg, os.Args[2:]); err != nil {
			log.Fatal().Err(err).Msg("token")
		}
		return
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid replenishment settings")
	}
	svc := app.New(postgres.NewStore(pool), core.NopStockCache{}, opts, logger)

	if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		pool.Close()
		log.Fatal().Err(err).Msg(os.Args[1])
	}
}

func printToken(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: token <user-id> [role]")
	}
	userID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid user id %q: %w", args[0], err)
	}
	role := "USER"
	if len(args) > 1 {
		role = args[1]
	}
	token, err := webAdapter.IssueToken(cfg.SigningSecret(), userID, role, 12*time.Hour, time.Now())
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
