package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Env            string `mapstructure:"APP_ENV"` // development | production
	LogLevel       string `mapstructure:"LOG_LEVEL"`
	Port           int    `mapstructure:"SERVER_PORT"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`

	// Storage
	DatabaseURL   string        `mapstructure:"DATABASE_URL"`
	RedisURL      string        `mapstructure:"REDIS_URL"` // empty disables the stock cache
	StockCacheTTL time.Duration `mapstructure:"STOCK_CACHE_TTL"`

	// Replenishment
	DefaultSupplierID           string `mapstructure:"DEFAULT_SUPPLIER_ID"`
	ReplenishmentUserID         string `mapstructure:"REPLENISHMENT_USER_ID"`
	ReplenishmentUnitPrice      string `mapstructure:"REPLENISHMENT_UNIT_PRICE"` // empty means catalogue price
	ReplenishmentLeadDays       int    `mapstructure:"REPLENISHMENT_LEAD_DAYS"`
	DefaultReceivingWarehouseID string `mapstructure:"DEFAULT_RECEIVING_WAREHOUSE_ID"`
}

const devJWTSecret = "development-only-secret"

var keys = []string{
	"APP_ENV", "LOG_LEVEL", "SERVER_PORT", "ALLOWED_ORIGINS", "JWT_SECRET",
	"DATABASE_URL", "REDIS_URL", "STOCK_CACHE_TTL",
	"DEFAULT_SUPPLIER_ID", "REPLENISHMENT_USER_ID", "REPLENISHMENT_UNIT_PRICE",
	"REPLENISHMENT_LEAD_DAYS", "DEFAULT_RECEIVING_WAREHOUSE_ID",
}

// Load reads configuration from the environment. Call godotenv.Load first to pick up a .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("STOCK_CACHE_TTL", "30s")
	v.SetDefault("REPLENISHMENT_LEAD_DAYS", 7)

	// Unmarshal only sees keys viper knows about; bind the ones without defaults.
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port <= 0 {
		return fmt.Errorf("SERVER_PORT must be positive, got %d", c.Port)
	}
	if !c.IsDevelopment() && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", c.Env)
	}
	if c.ReplenishmentLeadDays <= 0 {
		return fmt.Errorf("REPLENISHMENT_LEAD_DAYS must be positive, got %d", c.ReplenishmentLeadDays)
	}
	for name, raw := range map[string]string{
		"DEFAULT_SUPPLIER_ID":            c.DefaultSupplierID,
		"REPLENISHMENT_USER_ID":          c.ReplenishmentUserID,
		"DEFAULT_RECEIVING_WAREHOUSE_ID": c.DefaultReceivingWarehouseID,
	} {
		if _, err := optionalUUID(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if _, err := c.FixedUnitPrice(); err != nil {
		return err
	}
	return nil
}

// IsDevelopment selects human-readable console logging.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// SigningSecret returns JWT_SECRET, falling back to a fixed secret in development.
func (c *Config) SigningSecret() string {
	if c.JWTSecret == "" && c.IsDevelopment() {
		return devJWTSecret
	}
	return c.JWTSecret
}

func (c *Config) LeadTime() time.Duration {
	return time.Duration(c.ReplenishmentLeadDays) * 24 * time.Hour
}

// SupplierID returns uuid.Nil when unset.
func (c *Config) SupplierID() uuid.UUID {
	id, _ := optionalUUID(c.DefaultSupplierID)
	return id
}

func (c *Config) RequesterID() uuid.UUID {
	id, _ := optionalUUID(c.ReplenishmentUserID)
	return id
}

func (c *Config) ReceivingWarehouseID() uuid.UUID {
	id, _ := optionalUUID(c.DefaultReceivingWarehouseID)
	return id
}

// FixedUnitPrice returns nil when replenishment should use catalogue prices.
func (c *Config) FixedUnitPrice() (*decimal.Decimal, error) {
	if strings.TrimSpace(c.ReplenishmentUnitPrice) == "" {
		return nil, nil
	}
	price, err := decimal.NewFromString(strings.TrimSpace(c.ReplenishmentUnitPrice))
	if err != nil {
		return nil, fmt.Errorf("REPLENISHMENT_UNIT_PRICE: %w", err)
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("REPLENISHMENT_UNIT_PRICE cannot be negative, got %s", price)
	}
	return &price, nil
}

func optionalUUID(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(raw)
}
