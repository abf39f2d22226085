package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusCreated  ProductStatus = "CREATED"
	ProductStatusReserved ProductStatus = "RESERVED"
	ProductStatusHidden   ProductStatus = "HIDDEN"
)

// Product is catalogue data. The engine reads it and never mutates it.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Price     decimal.Decimal `json:"price"`
	Status    ProductStatus   `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

// Warehouse is an inventory location.
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Supplier struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time
