package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and the fulfillment coordinator.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	EnsureActive(ctx context.Context, userID uuid.UUID) error
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error)
	CreateItem(ctx context.Context, item *models.CartItem) error
	IncrementItem(ctx context.Context, itemID uuid.UUID, qty int) error
	SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error)
	DeleteItems(ctx context.Context, cartID uuid.UUID) error
	Touch(ctx context.Context, cartID uuid.UUID) error
	Clear(ctx context.Context, cartID uuid.UUID) error
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}
