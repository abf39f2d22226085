package app

import (
	"fmt"

	"order-management/internal/config"
)

// OptionsFromConfig maps the replenishment and receiving settings onto Options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	price, err := cfg.FixedUnitPrice()
	if err != nil {
		return Options{}, fmt.Errorf("replenishment price: %w", err)
	}
	return Options{
		SupplierID:         cfg.SupplierID(),
		RequesterID:        cfg.RequesterID(),
		FixedUnitPrice:     price,
		LeadTime:           cfg.LeadTime(),
		ReceivingWarehouse: cfg.ReceivingWarehouseID(),
	}, nil
}
