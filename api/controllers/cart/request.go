package cart

import "github.com/google/uuid"

type addItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// A quantity of zero or less removes the item, so no lower bound here.
type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}
