package reviews

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productsvc "github.com/angelmondragon/orderflow-backend/internal/products"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
	"github.com/angelmondragon/orderflow-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, Repository, *models.Product) {
	t.Helper()
	conn := dbtest.Open(t)
	widget := dbtest.SeedProduct(t, conn, "WIDGET", 1000, 5)
	repo := NewRepository(conn)
	svc, err := NewService(repo, productsvc.NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, repo, widget
}

func TestCreateReview(t *testing.T) {
	svc, _, widget := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	review, err := svc.Create(ctx, userID, CreateReviewInput{ProductID: widget.ID, Rating: 4, Content: "  sturdy  ", ReviewerName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, widget.ID, review.ProductID)
	assert.Equal(t, userID, review.UserID)
	assert.Equal(t, "sturdy", review.Content)

	list, err := svc.ListByProduct(ctx, widget.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, list.Reviews, 1)
	require.NotNil(t, list.Count)
	assert.Equal(t, int64(1), *list.Count)
	assert.Equal(t, "4.00", list.AverageRating)
}

func TestCreateReviewValidation(t *testing.T) {
	svc, _, widget := newTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	for _, rating := range []int{0, 6} {
		_, err := svc.Create(ctx, userID, CreateReviewInput{ProductID: widget.ID, Rating: rating})
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation), "rating %d: got %v", rating, err)
	}

	_, err := svc.Create(ctx, uuid.Nil, CreateReviewInput{ProductID: widget.ID, Rating: 3})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, userID, CreateReviewInput{ProductID: uuid.New(), Rating: 3})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)

	_, err = svc.ListByProduct(ctx, uuid.New(), pagination.Params{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	_, err = svc.ListByUser(ctx, userID, pagination.Params{Cursor: "!!"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestListReviewsPagesNewestFirst(t *testing.T) {
	svc, repo, widget := newTestService(t)
	ctx := context.Background()
	author := uuid.New()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i, rating := range []int{5, 3, 1} {
		review := &models.Review{
			ProductID: widget.ID,
			UserID:    author,
			Rating:    rating,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, review))
		ids = append(ids, review.ID)
	}
	require.NoError(t, repo.Create(ctx, &models.Review{ProductID: widget.ID, UserID: uuid.New(), Rating: 3, CreatedAt: base}))

	first, err := svc.ListByUser(ctx, author, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Reviews, 2)
	assert.Equal(t, ids[2], first.Reviews[0].ID)
	assert.Equal(t, ids[1], first.Reviews[1].ID)
	assert.Nil(t, first.Count)
	require.NotEmpty(t, first.NextCursor)

	second, err := svc.ListByUser(ctx, author, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Reviews, 1)
	assert.Equal(t, ids[0], second.Reviews[0].ID)
	assert.Empty(t, second.NextCursor)

	byProduct, err := svc.ListByProduct(ctx, widget.ID, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, byProduct.Reviews, 4)
	assert.Equal(t, int64(4), *byProduct.Count)
	assert.Equal(t, "3.00", byProduct.AverageRating)
}
