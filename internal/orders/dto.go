package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/types"
)

// OrderDTO is the order payload returned to clients.
type OrderDTO struct {
	ID            uuid.UUID          `json:"id"`
	UserID        uuid.UUID          `json:"user_id"`
	Status        enums.OrderStatus  `json:"status"`
	ShippingInfo  types.ShippingInfo `json:"shipping_info"`
	Items         []LineItemDTO      `json:"items"`
	ItemCount     int                `json:"item_count"`
	SubtotalCents int64              `json:"subtotal_cents"`
	Subtotal      string             `json:"subtotal"`
	CanceledAt    *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// LineItemDTO is one purchased product within an order.
type LineItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitPrice      string    `json:"unit_price"`
	LineTotalCents int64     `json:"line_total_cents"`
	LineTotal      string    `json:"line_total"`
}

// OrderList is one page of a user's orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func NewOrderDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:            order.ID,
		UserID:        order.UserID,
		Status:        order.Status,
		ShippingInfo:  order.ShippingInfo,
		Items:         make([]LineItemDTO, 0, len(order.Items)),
		ItemCount:     order.ItemCount,
		SubtotalCents: order.SubtotalCents,
		Subtotal:      types.FormatCents(order.SubtotalCents),
		CanceledAt:    order.CanceledAt,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, item := range order.Items {
		dto.Items = append(dto.Items, LineItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			ProductName:    item.ProductName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      types.FormatCents(item.UnitPriceCents),
			LineTotalCents: item.LineTotalCents,
			LineTotal:      types.FormatCents(item.LineTotalCents),
		})
	}
	return dto
}
