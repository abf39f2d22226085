package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webAdapter "order-management/internal/adapters/web"
	"order-management/internal/app"
	"order-management/internal/cache"
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

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logger := config.SetupLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	var stockCache core.StockCache = core.NopStockCache{}
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		stockCache = cache.NewRedisStockCache(rdb, cfg.StockCacheTTL, logger)
	} else {
		log.Info().Msg("REDIS_URL not set; stock totals are read directly")
	}

	opts, err := app.OptionsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid replenishment settings")
	}
	if opts.SupplierID == uuid.Nil || opts.RequesterID == uuid.Nil {
		log.Warn().Msg("DEFAULT_SUPPLIER_ID or REPLENISHMENT_USER_ID not set; backorders will not raise purchase orders")
	}
	svc := app.New(postgres.NewStore(pool), stockCache, opts, logger)

	if cfg.JWTSecret == "" {
		log.Warn().Msg("JWT_SECRET not set; using the development secret")
	}
	handler := webAdapter.NewHandler(svc, cfg.AllowedOrigins, cfg.SigningSecret(), logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("order management server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
