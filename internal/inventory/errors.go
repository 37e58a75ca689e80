package inventory

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrStockRowMissing is returned when a product has no inventory row to update.
var ErrStockRowMissing = errors.New("inventory row missing")

// InsufficientStockError reports a conditional decrement that found too little
// stock. Available is the quantity observed right after the failed update.
type InsufficientStockError struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}
