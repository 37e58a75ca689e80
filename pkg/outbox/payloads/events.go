package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// LineItem is the stock-relevant slice of an order line.
type LineItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
}

// OrderCreatedEvent is emitted once per confirmed order, in the same
// transaction that reserved its stock.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID         `json:"order_id"`
	UserID        uuid.UUID         `json:"user_id"`
	CartID        *uuid.UUID        `json:"cart_id,omitempty"`
	Status        enums.OrderStatus `json:"status"`
	SubtotalCents int64             `json:"subtotal_cents"`
	ItemCount     int               `json:"item_count"`
	Items         []LineItem        `json:"items"`
}

// OrderCanceledEvent is emitted after a confirmed order is cancelled and its
// stock restored.
type OrderCanceledEvent struct {
	OrderID    uuid.UUID         `json:"order_id"`
	UserID     uuid.UUID         `json:"user_id"`
	Status     enums.OrderStatus `json:"status"`
	Items      []LineItem        `json:"items"`
	CanceledAt time.Time         `json:"canceled_at"`
}

// CartAbandonedEvent is emitted by the cron worker for each expired cart.
type CartAbandonedEvent struct {
	CartID      uuid.UUID `json:"cart_id"`
	UserID      uuid.UUID `json:"user_id"`
	AbandonedAt time.Time `json:"abandoned_at"`
}
