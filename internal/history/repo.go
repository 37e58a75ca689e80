package history

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// Repository persists the order history projection.
type Repository interface {
	Insert(ctx context.Context, entry *models.OrderHistory) (bool, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert writes the entry unless a row with the same event_id exists. The
// boolean reports whether a row was written.
func (r *repository) Insert(ctx context.Context, entry *models.OrderHistory) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.OrderHistory, error) {
	var rows []models.OrderHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("occurred_at ASC").
		Order("id ASC").
		Find(&rows).Error
	return rows, err
}
