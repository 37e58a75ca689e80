package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// StockDTO exposes inventory counts for a product.
type StockDTO struct {
	ProductID    uuid.UUID `json:"product_id"`
	AvailableQty int       `json:"available_qty"`
	ReservedQty  int       `json:"reserved_qty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewStockDTO(item *models.InventoryItem) *StockDTO {
	if item == nil {
		return nil
	}
	return &StockDTO{
		ProductID:    item.ProductID,
		AvailableQty: item.AvailableQty,
		ReservedQty:  item.ReservedQty,
		UpdatedAt:    item.UpdatedAt,
	}
}
