package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	cartsvc "github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/metrics"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/orderflow-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service turns carts into confirmed orders and reverses them on cancel.
type Service interface {
	CreateOrderFromCart(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*models.Order, error)
	// CancelOrder restores the order's stock and marks it cancelled. A non-nil
	// userID must own the order; uuid.Nil skips the ownership check.
	CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
}

type service struct {
	tx      txRunner
	bind    Binder
	outbox  outboxPublisher
	metrics *metrics.FulfillmentMetrics
	logg    *logger.Logger
}

// NewService builds the fulfillment coordinator.
func NewService(tx txRunner, bind Binder, publisher outboxPublisher, m *metrics.FulfillmentMetrics, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if bind == nil {
		return nil, fmt.Errorf("repository binder required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:      tx,
		bind:    bind,
		outbox:  publisher,
		metrics: m,
		logg:    logg,
	}, nil
}

func (s *service) CreateOrderFromCart(ctx context.Context, userID uuid.UUID, shipping types.ShippingInfo) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	shipping = shipping.Normalize()

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.bind(tx)

		cart, err := repos.Carts.GetActiveCart(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(cart.Items) == 0) {
			return &EmptyCartError{UserID: userID}
		}
		if err != nil {
			return err
		}

		items := append([]models.CartItem(nil), cart.Items...)
		sort.Slice(items, func(i, j int) bool {
			return items[i].ProductID.String() < items[j].ProductID.String()
		})

		var shortages error
		for _, item := range items {
			err := repos.Inventory.TryDecrement(ctx, item.ProductID, item.Quantity)
			var shortage *InsufficientStockError
			switch {
			case err == nil:
			case errors.As(err, &shortage):
				shortages = multierr.Append(shortages, shortage)
			default:
				return err
			}
		}
		if shortages != nil {
			return shortages
		}

		order := buildOrder(userID, cart, items, shipping)
		if err := repos.Orders.Create(ctx, order); err != nil {
			return err
		}
		if err := repos.Carts.Clear(ctx, cart.ID); err != nil {
			if errors.Is(err, cartsvc.ErrCartNotActive) {
				return &EmptyCartError{UserID: userID}
			}
			return err
		}
		if err := s.outbox.Emit(ctx, tx, orderCreatedEvent(order)); err != nil {
			return err
		}
		created = order
		return nil
	})
	if err != nil {
		return nil, s.placementError(ctx, userID, err)
	}

	s.metrics.ObservePlacement(metrics.ResultConfirmed, created.ItemCount)
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(s.logg.WithUserID(ctx, userID.String()), created.ID.String())
		s.logg.Info(s.logg.WithField(logCtx, "item_count", created.ItemCount), "order.created")
	}
	return created, nil
}

func (s *service) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var canceled *models.Order
	var restored int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repos := s.bind(tx)

		order, err := repos.Orders.FindByID(ctx, orderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &OrderNotFoundError{OrderID: orderID}
		}
		if err != nil {
			return err
		}
		if userID != uuid.Nil && order.UserID != userID {
			return &OrderNotFoundError{OrderID: orderID}
		}
		if !order.Status.CanTransitionTo(enums.OrderStatusCancelled) {
			return &InvalidOrderStateError{OrderID: orderID, Status: order.Status}
		}

		// Only confirmed orders hold reserved stock.
		restored = 0
		if order.Status == enums.OrderStatusConfirmed {
			lines := append([]models.OrderLineItem(nil), order.Items...)
			sort.Slice(lines, func(i, j int) bool {
				return lines[i].ProductID.String() < lines[j].ProductID.String()
			})
			for _, line := range lines {
				if err := repos.Inventory.Increase(ctx, line.ProductID, line.Quantity); err != nil {
					return err
				}
				restored += line.Quantity
			}
		}

		affected, err := repos.Orders.UpdateStatus(ctx, orderID, order.Status, enums.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if affected == 0 {
			return &InvalidOrderStateError{OrderID: orderID, Status: enums.OrderStatusCancelled}
		}

		updated, err := repos.Orders.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.outbox.Emit(ctx, tx, orderCanceledEvent(updated)); err != nil {
			return err
		}
		canceled = updated
		return nil
	})
	if err != nil {
		return nil, mapCancelError(err)
	}

	s.metrics.ObserveCancellation(restored)
	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, orderID.String())
		s.logg.Info(s.logg.WithField(logCtx, "restored_qty", restored), "order.canceled")
	}
	return canceled, nil
}

func (s *service) placementError(ctx context.Context, userID uuid.UUID, err error) error {
	var empty *EmptyCartError
	if errors.As(err, &empty) {
		s.metrics.ObservePlacement(metrics.ResultEmptyCart, 0)
		return pkgerrors.Wrap(pkgerrors.CodeEmptyCart, err, "cart is empty")
	}
	if shortages := Shortages(err); len(shortages) > 0 {
		s.metrics.ObservePlacement(metrics.ResultInsufficientStock, 0)
		s.metrics.ObserveShortages(len(shortages))
		if s.logg != nil {
			logCtx := s.logg.WithUserID(ctx, userID.String())
			s.logg.Warn(s.logg.WithField(logCtx, "shortages", len(shortages)), "order.stock_rejected")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock").WithDetails(shortages)
	}
	s.metrics.ObservePlacement(metrics.ResultError, 0)
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
}

func mapCancelError(err error) error {
	var notFound *OrderNotFoundError
	var invalid *InvalidOrderStateError
	switch {
	case errors.As(err, &notFound):
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	case errors.As(err, &invalid):
		return pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "order cannot be cancelled").WithDetails(invalid)
	case pkgerrors.As(err) != nil:
		return err
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
}

func buildOrder(userID uuid.UUID, cart *models.Cart, items []models.CartItem, shipping types.ShippingInfo) *models.Order {
	cartID := cart.ID
	order := &models.Order{
		ID:           uuid.New(),
		UserID:       userID,
		CartID:       &cartID,
		Status:       enums.OrderStatusConfirmed,
		ShippingInfo: shipping,
		Items:        make([]models.OrderLineItem, 0, len(items)),
	}
	for _, item := range items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		line := models.OrderLineItem{
			OrderID:        order.ID,
			ProductID:      item.ProductID,
			ProductName:    name,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			LineTotalCents: item.LineTotalCents(),
		}
		order.SubtotalCents += line.LineTotalCents
		order.ItemCount += line.Quantity
		order.Items = append(order.Items, line)
	}
	return order
}

func lineItemPayloads(lines []models.OrderLineItem) []payloads.LineItem {
	out := make([]payloads.LineItem, 0, len(lines))
	for _, line := range lines {
		out = append(out, payloads.LineItem{
			ProductID:      line.ProductID,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	return out
}

func orderCreatedEvent(order *models.Order) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: "customer"},
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			UserID:        order.UserID,
			CartID:        order.CartID,
			Status:        order.Status,
			SubtotalCents: order.SubtotalCents,
			ItemCount:     order.ItemCount,
			Items:         lineItemPayloads(order.Items),
		},
	}
}

func orderCanceledEvent(order *models.Order) outbox.DomainEvent {
	data := payloads.OrderCanceledEvent{
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Items:   lineItemPayloads(order.Items),
	}
	if order.CanceledAt != nil {
		data.CanceledAt = *order.CanceledAt
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{UserID: order.UserID, Role: "customer"},
		Data:          data,
	}
}
