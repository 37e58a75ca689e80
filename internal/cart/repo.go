package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// ErrCartNotActive is returned by Clear when the cart was already converted
// or abandoned by another transaction.
var ErrCartNotActive = errors.New("cart is not active")

// Repository exposes persistence operations for carts and their items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// GetActiveCart loads the user's active cart with items and their products.
// It returns gorm.ErrRecordNotFound when the user has no active cart. On
// postgres the cart row stays locked until the caller's transaction ends.
func (r *Repository) GetActiveCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	q := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusActive)
	if r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

// EnsureActive inserts an active cart for userID unless one already exists.
// The partial unique index turns a concurrent insert into a no-op.
func (r *Repository) EnsureActive(ctx context.Context, userID uuid.UUID) error {
	cart := &models.Cart{UserID: userID, Status: enums.CartStatusActive}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit("Items").
		Create(cart).Error
}

func (r *Repository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) FindItemByProduct(ctx context.Context, cartID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).Where("cart_id = ? AND product_id = ?", cartID, productID).Take(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) CreateItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Omit("Product").Create(item).Error
}

// IncrementItem merges qty into an existing line without a read-modify-write.
func (r *Repository) IncrementItem(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", gorm.Expr("quantity + ?", qty)).Error
}

func (r *Repository) SetItemQuantity(ctx context.Context, itemID uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", qty).Error
}

func (r *Repository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

func (r *Repository) DeleteItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// Touch bumps updated_at so abandonment is measured from the last mutation.
func (r *Repository) Touch(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now().UTC()).Error
}

// Clear converts an active cart after checkout and drops its items. It
// returns ErrCartNotActive when the cart is no longer active.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusActive).
		Update("status", enums.CartStatusConverted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrCartNotActive
	}
	return r.DeleteItems(ctx, cartID)
}

// MarkAbandonedBefore flips up to limit active carts idle since cutoff to
// abandoned and deletes their items. It returns the carts it flipped.
func (r *Repository) MarkAbandonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Select("id", "user_id", "updated_at").
		Where("status = ? AND updated_at < ?", enums.CartStatusActive, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&carts).Error
	if err != nil || len(carts) == 0 {
		return nil, err
	}

	ids := make([]uuid.UUID, len(carts))
	for i := range carts {
		ids[i] = carts[i].ID
		carts[i].Status = enums.CartStatusAbandoned
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id IN ? AND status = ?", ids, enums.CartStatusActive).
		Update("status", enums.CartStatusAbandoned).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("cart_id IN ?", ids).Delete(&models.CartItem{}).Error; err != nil {
		return nil, err
	}
	return carts, nil
}
