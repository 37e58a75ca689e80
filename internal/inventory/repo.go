package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// Repository persists stock levels. Every mutation is a single conditional
// UPDATE so concurrent writers can never drive available_qty below zero.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	TryDecrement(ctx context.Context, productID uuid.UUID, qty int) error
	Increase(ctx context.Context, productID uuid.UUID, qty int) error
	Restock(ctx context.Context, productID uuid.UUID, qty int) error
	Deduct(ctx context.Context, productID uuid.UUID, qty int) error
	Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error)
	Upsert(ctx context.Context, productID uuid.UUID, available int) (*models.InventoryItem, error)
	List(ctx context.Context, productIDs []uuid.UUID) ([]models.InventoryItem, error)
	ProductExists(ctx context.Context, productID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// TryDecrement moves qty from available to reserved when enough stock exists.
func (r *repository) TryDecrement(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.decrement(ctx, productID, qty, true)
}

// Deduct removes qty from available without reserving it (stock write-off).
func (r *repository) Deduct(ctx context.Context, productID uuid.UUID, qty int) error {
	return r.decrement(ctx, productID, qty, false)
}

func (r *repository) decrement(ctx context.Context, productID uuid.UUID, qty int, reserve bool) error {
	updates := map[string]any{
		"available_qty": gorm.Expr("available_qty - ?", qty),
	}
	if reserve {
		updates["reserved_qty"] = gorm.Expr("reserved_qty + ?", qty)
	}

	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND available_qty >= ?", productID, qty).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	shortage := &InsufficientStockError{ProductID: productID, Requested: qty}
	item, err := r.Get(ctx, productID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no row means nothing to sell
	case err != nil:
		return err
	default:
		shortage.Available = item.AvailableQty
	}
	return shortage
}

// Increase returns qty of previously reserved stock to available.
func (r *repository) Increase(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"available_qty": gorm.Expr("available_qty + ?", qty),
			"reserved_qty":  gorm.Expr("CASE WHEN reserved_qty >= ? THEN reserved_qty - ? ELSE 0 END", qty, qty),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockRowMissing
	}
	return nil
}

// Restock adds qty of new stock to available.
func (r *repository) Restock(ctx context.Context, productID uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID).
		Update("available_qty", gorm.Expr("available_qty + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockRowMissing
	}
	return nil
}

func (r *repository) Get(ctx context.Context, productID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// Upsert sets available_qty for productID, creating the row when missing.
// reserved_qty is left untouched on existing rows.
func (r *repository) Upsert(ctx context.Context, productID uuid.UUID, available int) (*models.InventoryItem, error) {
	item := &models.InventoryItem{ProductID: productID, AvailableQty: available}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"available_qty", "updated_at"}),
		}).
		Create(item).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, productID)
}

func (r *repository) List(ctx context.Context, productIDs []uuid.UUID) ([]models.InventoryItem, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var items []models.InventoryItem
	err := r.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Order("product_id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
