package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/orderflow-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := dbtest.Client(t)
	svc, err := NewService(NewRepository(client.DB()), client, nil)
	require.NoError(t, err)
	return svc, client
}

func TestServiceGetStock(t *testing.T) {
	svc, client := newTestService(t)
	product := dbtest.SeedProduct(t, client.DB(), "WIDGET", 250, 5)

	stock, err := svc.GetStock(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.AvailableQty)

	_, err = svc.GetStock(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "got %v", err)
}

func TestServiceSetStock(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, client.DB(), "WIDGET", 250, 5)

	stock, err := svc.SetStock(ctx, product.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, stock.AvailableQty)

	_, err = svc.SetStock(ctx, product.ID, -1)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.SetStock(ctx, uuid.New(), 3)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceAdjust(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	product := dbtest.SeedProduct(t, client.DB(), "WIDGET", 250, 5)

	stock, err := svc.Adjust(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, stock.AvailableQty)

	stock, err = svc.Adjust(ctx, product.ID, -8)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.AvailableQty)

	_, err = svc.Adjust(ctx, product.ID, -1)
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeInsufficientStock), "got %v", err)
	details, ok := pkgerrors.As(err).Details().([]*InsufficientStockError)
	require.True(t, ok)
	assert.Equal(t, 0, details[0].Available)
	assert.Equal(t, 0, dbtest.Available(t, client.DB(), product.ID))

	_, err = svc.Adjust(ctx, product.ID, 0)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = svc.Adjust(ctx, uuid.New(), 2)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestServiceAdjustWithoutInventoryRow(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	product := &models.Product{SKU: "BARE", Name: "Bare", PriceCents: 100}
	require.NoError(t, client.DB().Create(product).Error)

	for _, delta := range []int{4, -4} {
		_, err := svc.Adjust(ctx, product.ID, delta)
		assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound), "delta %d: got %v", delta, err)
	}
}
