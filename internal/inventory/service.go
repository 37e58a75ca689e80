package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes stock administration. Order-driven reservations go through
// the fulfillment coordinator, not this service.
type Service interface {
	GetStock(ctx context.Context, productID uuid.UUID) (*StockDTO, error)
	SetStock(ctx context.Context, productID uuid.UUID, available int) (*StockDTO, error)
	Adjust(ctx context.Context, productID uuid.UUID, delta int) (*StockDTO, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the inventory admin service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) GetStock(ctx context.Context, productID uuid.UUID) (*StockDTO, error) {
	item, err := s.repo.Get(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
	}
	return NewStockDTO(item), nil
}

func (s *service) SetStock(ctx context.Context, productID uuid.UUID, available int) (*StockDTO, error) {
	if available < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "available_qty must be >= 0")
	}

	var result *StockDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		exists, err := repo.ProductExists(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check product")
		}
		if !exists {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		item, err := repo.Upsert(ctx, productID, available)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set inventory")
		}
		result = NewStockDTO(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, productID, "inventory.set")
	return result, nil
}

// Adjust applies a signed delta. Negative deltas use the same conditional
// decrement as order placement, so stock cannot go negative.
func (s *service) Adjust(ctx context.Context, productID uuid.UUID, delta int) (*StockDTO, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must be non-zero")
	}

	var result *StockDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.Get(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory")
		}

		var err error
		if delta > 0 {
			err = repo.Restock(ctx, productID, delta)
		} else {
			err = repo.Deduct(ctx, productID, -delta)
		}
		if err := mapStockError(err); err != nil {
			return err
		}

		item, err := repo.Get(ctx, productID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload inventory")
		}
		result = NewStockDTO(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, productID, "inventory.adjusted")
	return result, nil
}

func mapStockError(err error) error {
	if err == nil {
		return nil
	}
	var shortage *InsufficientStockError
	switch {
	case errors.As(err, &shortage):
		return pkgerrors.Wrap(pkgerrors.CodeInsufficientStock, err, "insufficient stock").
			WithDetails([]*InsufficientStockError{shortage})
	case errors.Is(err, ErrStockRowMissing):
		return pkgerrors.New(pkgerrors.CodeNotFound, "inventory not found")
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update inventory")
	}
}

func (s *service) logInfo(ctx context.Context, productID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "product_id", productID.String()), msg)
}
