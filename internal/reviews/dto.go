package reviews

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
)

// CreateReviewInput is the caller-supplied part of a new review.
type CreateReviewInput struct {
	ProductID    uuid.UUID
	Rating       int
	Content      string
	ReviewerName string
}

type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	UserID       uuid.UUID `json:"user_id"`
	Rating       int       `json:"rating"`
	Content      string    `json:"content"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReviewList is one page of reviews. Count and AverageRating are only set
// when listing a product's reviews.
type ReviewList struct {
	Reviews       []ReviewDTO `json:"reviews"`
	NextCursor    string      `json:"next_cursor,omitempty"`
	Count         *int64      `json:"count,omitempty"`
	AverageRating string      `json:"average_rating,omitempty"`
}

func NewReviewDTO(r *models.Review) *ReviewDTO {
	return &ReviewDTO{
		ID:           r.ID,
		ProductID:    r.ProductID,
		UserID:       r.UserID,
		Rating:       r.Rating,
		Content:      r.Content,
		ReviewerName: r.ReviewerName,
		CreatedAt:    r.CreatedAt,
	}
}

func newReviewList(rows []models.Review, next string) *ReviewList {
	list := &ReviewList{Reviews: make([]ReviewDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		list.Reviews = append(list.Reviews, *NewReviewDTO(&rows[i]))
	}
	return list
}

func formatAverage(avg float64) string {
	return decimal.NewFromFloat(avg).StringFixed(2)
}
