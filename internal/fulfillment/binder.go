package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/internal/inventory"
	"github.com/angelmondragon/orderflow-backend/internal/orders"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// Inventory is the stock surface the coordinator needs. Both calls must be a
// single conditional update.
type Inventory interface {
	TryDecrement(ctx context.Context, productID uuid.UUID, qty int) error
	Increase(ctx context.Context, productID uuid.UUID, qty int) error
}

type Carts interface {
	GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	Clear(ctx context.Context, cartID uuid.UUID) error
}

type Orders interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, from, to enums.OrderStatus) (int64, error)
}

// Collaborators are the repositories bound to one transaction.
type Collaborators struct {
	Inventory Inventory
	Carts     Carts
	Orders    Orders
}

// Binder rebinds the collaborators to tx.
type Binder func(tx *gorm.DB) Collaborators

// RepositoryBinder binds the gorm repositories of the sibling packages.
func RepositoryBinder(inv inventory.Repository, carts cart.CartRepository, ords orders.Repository) Binder {
	return func(tx *gorm.DB) Collaborators {
		return Collaborators{
			Inventory: inv.WithTx(tx),
			Carts:     carts.WithTx(tx),
			Orders:    ords.WithTx(tx),
		}
	}
}
