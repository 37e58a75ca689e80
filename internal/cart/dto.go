package cart

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/types"
)

// CartDTO is the cart payload returned to clients.
type CartDTO struct {
	ID            *uuid.UUID       `json:"id,omitempty"`
	UserID        uuid.UUID        `json:"user_id"`
	Status        enums.CartStatus `json:"status"`
	Items         []CartItemDTO    `json:"items"`
	ItemCount     int              `json:"item_count"`
	SubtotalCents int64            `json:"subtotal_cents"`
	Subtotal      string           `json:"subtotal"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty"`
}

// CartItemDTO is one line of a cart.
type CartItemDTO struct {
	ID             uuid.UUID `json:"id"`
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name,omitempty"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	UnitPrice      string    `json:"unit_price"`
	LineTotalCents int64     `json:"line_total_cents"`
	LineTotal      string    `json:"line_total"`
}

// EmptyCartDTO describes a user with no active cart.
func EmptyCartDTO(userID uuid.UUID) *CartDTO {
	return &CartDTO{
		UserID:   userID,
		Status:   enums.CartStatusActive,
		Items:    []CartItemDTO{},
		Subtotal: types.FormatCents(0),
	}
}

func NewCartDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	id := cart.ID
	updated := cart.UpdatedAt
	dto := &CartDTO{
		ID:        &id,
		UserID:    cart.UserID,
		Status:    cart.Status,
		Items:     make([]CartItemDTO, 0, len(cart.Items)),
		UpdatedAt: &updated,
	}
	for _, item := range cart.Items {
		line := item.LineTotalCents()
		itemDTO := CartItemDTO{
			ID:             item.ID,
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			UnitPrice:      types.FormatCents(item.UnitPriceCents),
			LineTotalCents: line,
			LineTotal:      types.FormatCents(line),
		}
		if item.Product != nil {
			itemDTO.ProductName = item.Product.Name
		}
		dto.Items = append(dto.Items, itemDTO)
		dto.ItemCount += item.Quantity
		dto.SubtotalCents += line
	}
	dto.Subtotal = types.FormatCents(dto.SubtotalCents)
	return dto
}
