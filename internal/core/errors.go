package core

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinels matched with errors.Is. ErrNoInventory is a configuration problem
// (the product has no locations at all), not a stockout.
var (
	ErrNotFound                  = errors.New("not found")
	ErrNoInventory               = errors.New("product has no inventory records")
	ErrInsufficientConfiguration = errors.New("insufficient inventory configuration")
	ErrAlreadyReceived           = errors.New("purchase order already received")
	ErrInvalidTransition         = errors.New("invalid purchase order status transition")
	ErrInvalidQuantity           = errors.New("invalid quantity")
	ErrSourcingUnavailable       = errors.New("no supplier or requesting user available for replenishment")
	ErrNoReceivingLocation       = errors.New("no warehouse available to receive stock")
)

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError builds a *NotFoundError for a uuid-keyed entity.
func NewNotFoundError(entity string, id uuid.UUID) error {
	return &NotFoundError{Entity: entity, ID: id.String()}
}

// ReplenishmentFailure is the non-fatal outcome of a failed automatic purchase order.
// The sales-order line and its stock deduction stay committed.
type ReplenishmentFailure struct {
	ProductID uuid.UUID
	Shortfall int
	Err       error
}

func (e *ReplenishmentFailure) Error() string {
	return fmt.Sprintf("replenishment of %d units for product %s failed: %v", e.Shortfall, e.ProductID, e.Err)
}

func (e *ReplenishmentFailure) Unwrap() error {
	return e.Err
}

// insufficientConfiguration wraps both sentinels so callers can match either.
func insufficientConfiguration(productID uuid.UUID) error {
	return fmt.Errorf("product %s: %w: %w", productID, ErrInsufficientConfiguration, ErrNoInventory)
}
