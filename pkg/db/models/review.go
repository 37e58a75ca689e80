package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a user's rating of a catalog product.
type Review struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;index:idx_reviews_product_created,priority:1"`
	Product      *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	UserID       uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:idx_reviews_user_created,priority:1"`
	Rating       int       `gorm:"column:rating;not null;check:chk_reviews_rating,rating BETWEEN 1 AND 5"`
	Content      string    `gorm:"column:content;type:text;not null"`
	ReviewerName string    `gorm:"column:reviewer_name;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index:idx_reviews_product_created,priority:2;index:idx_reviews_user_created,priority:2"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
