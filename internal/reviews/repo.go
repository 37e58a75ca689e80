package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

// Repository persists product reviews.
type Repository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error)
	ProductSummary(ctx context.Context, productID uuid.UUID) (Summary, error)
}

// Summary aggregates the ratings of one product.
type Summary struct {
	Count   int64
	Average float64
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Omit("Product").Create(review).Error
}

func (r *repository) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error) {
	return r.page(ctx, r.db.WithContext(ctx).Where("product_id = ?", productID), params)
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Review], error) {
	return r.page(ctx, r.db.WithContext(ctx).Where("user_id = ?", userID), params)
}

func (r *repository) ProductSummary(ctx context.Context, productID uuid.UUID) (Summary, error) {
	var row struct {
		Count   int64
		Average float64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return Summary{}, err
	}
	return Summary{Count: row.Count, Average: row.Average}, nil
}

// page applies the newest-first (created_at, id) keyset to qb.
func (r *repository) page(ctx context.Context, qb *gorm.DB, params pagination.Params) (pagination.Page[models.Review], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Review]{}, err
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Review
	err = qb.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Review]{}, err
	}

	return pagination.Trim(rows, params.Limit, func(rv models.Review) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rv.CreatedAt, ID: rv.ID}
	}), nil
}
