package fulfillment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// InsufficientStockError is the per-product shortage raised by the inventory
// repository.
type InsufficientStockError = inventory.InsufficientStockError

// EmptyCartError means the user has no active cart or the cart has no items.
type EmptyCartError struct {
	UserID uuid.UUID
}

func (e *EmptyCartError) Error() string {
	return fmt.Sprintf("cart for user %s is empty", e.UserID)
}

type OrderNotFoundError struct {
	OrderID uuid.UUID
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %s not found", e.OrderID)
}

// InvalidOrderStateError reports an operation the order's current status does
// not allow.
type InvalidOrderStateError struct {
	OrderID uuid.UUID         `json:"order_id"`
	Status  enums.OrderStatus `json:"status"`
}

func (e *InvalidOrderStateError) Error() string {
	return fmt.Sprintf("order %s is %s", e.OrderID, e.Status)
}

// IsInsufficientStock reports whether err carries at least one shortage.
func IsInsufficientStock(err error) bool {
	var shortage *InsufficientStockError
	return errors.As(err, &shortage)
}

// Shortages returns every shortage carried by err, in the order the items
// were attempted.
func Shortages(err error) []*InsufficientStockError {
	var out []*InsufficientStockError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if shortage, ok := e.(*InsufficientStockError); ok {
			out = append(out, shortage)
			return
		}
		if parts := multierr.Errors(e); len(parts) > 1 {
			for _, part := range parts {
				walk(part)
			}
			return
		}
		walk(errors.Unwrap(e))
	}
	walk(err)
	return out
}
