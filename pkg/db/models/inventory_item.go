package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks available/reserved counts per product.
// AvailableQty never drops below zero; ReservedQty mirrors confirmed orders.
type InventoryItem struct {
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	AvailableQty int       `gorm:"column:available_qty;not null;default:0;check:chk_inventory_available_nonneg,available_qty >= 0"`
	ReservedQty  int       `gorm:"column:reserved_qty;not null;default:0;check:chk_inventory_reserved_nonneg,reserved_qty >= 0"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
