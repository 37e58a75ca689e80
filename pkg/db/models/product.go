package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. Stock lives on InventoryItem.
type Product struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	SKU        string         `gorm:"column:sku;not null;uniqueIndex:idx_products_sku"`
	Name       string         `gorm:"column:name;not null"`
	PriceCents int64          `gorm:"column:price_cents;not null;check:chk_products_price_nonneg,price_cents >= 0"`
	Inventory  *InventoryItem `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
