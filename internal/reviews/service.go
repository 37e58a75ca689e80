package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

const (
	minRating        = 1
	maxRating        = 5
	maxContentLength = 2000
)

type productLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service writes and lists product reviews.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo     Repository
	products productLookup
	logg     *logger.Logger
}

func NewService(repo Repository, products productLookup, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, products: products, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateReviewInput) (*ReviewDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if input.Rating < minRating || input.Rating > maxRating {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	content := strings.TrimSpace(input.Content)
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "content is too long")
	}
	if err := s.requireProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ProductID:    input.ProductID,
		UserID:       userID,
		Rating:       input.Rating,
		Content:      content,
		ReviewerName: strings.TrimSpace(input.ReviewerName),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
	}

	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		s.logg.Info(s.logg.WithField(logCtx, "product_id", input.ProductID.String()), "review.created")
	}
	return NewReviewDTO(review), nil
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if err := validCursor(params); err != nil {
		return nil, err
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	page, err := s.repo.ListByProduct(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	summary, err := s.repo.ProductSummary(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize reviews")
	}

	list := newReviewList(page.Items, page.NextCursor)
	list.Count = &summary.Count
	list.AverageRating = formatAverage(summary.Average)
	return list, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if err := validCursor(params); err != nil {
		return nil, err
	}
	page, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return newReviewList(page.Items, page.NextCursor), nil
}

func (s *service) requireProduct(ctx context.Context, productID uuid.UUID) error {
	_, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return nil
}

func validCursor(params pagination.Params) error {
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return nil
}
