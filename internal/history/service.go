package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

type orderLookup interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

// Service reads the order history projection on behalf of an order owner.
type Service interface {
	ListByOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderHistoryDTO, error)
}

type service struct {
	repo   Repository
	orders orderLookup
}

func NewService(repo Repository, orders orderLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("history repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, orders: orders}, nil
}

func (s *service) ListByOrder(ctx context.Context, userID, orderID uuid.UUID) (*OrderHistoryDTO, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	rows, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order history")
	}
	return newOrderHistoryDTO(orderID, rows), nil
}
