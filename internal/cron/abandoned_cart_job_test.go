package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/pkg/db"
	"github.com/angelmondragon/orderflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

type stubMarker struct {
	batches [][]models.Cart
	cutoffs []time.Time
	err     error
}

func (s *stubMarker) MarkAbandonedBefore(_ context.Context, cutoff time.Time, _ int) ([]models.Cart, error) {
	s.cutoffs = append(s.cutoffs, cutoff)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	next := s.batches[0]
	s.batches = s.batches[1:]
	return next, nil
}

type recordingEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func newAbandonedCartJobForTest(t *testing.T, marker AbandonedCartMarker, emitter outboxEmitter, batch int) *abandonedCartJob {
	t.Helper()
	jobIface, err := NewAbandonedCartJob(AbandonedCartJobParams{
		Logger:    testLogger(),
		DB:        passthroughTx{},
		Carts:     func(*gorm.DB) AbandonedCartMarker { return marker },
		Outbox:    emitter,
		BatchSize: batch,
	})
	require.NoError(t, err)
	return jobIface.(*abandonedCartJob)
}

func TestAbandonedCartJobEmitsPerCartAndDrainsBatches(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	first := []models.Cart{{ID: uuid.New(), UserID: uuid.New()}, {ID: uuid.New(), UserID: uuid.New()}}
	second := []models.Cart{{ID: uuid.New(), UserID: uuid.New()}}
	marker := &stubMarker{batches: [][]models.Cart{first, second}}
	emitter := &recordingEmitter{}
	job := newAbandonedCartJobForTest(t, marker, emitter, 2)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))

	require.Len(t, marker.cutoffs, 2, "a short batch ends the loop")
	assert.Equal(t, now.Add(-abandonedCartDays*24*time.Hour), marker.cutoffs[0])
	require.Len(t, emitter.events, 3)
	event := emitter.events[2]
	assert.Equal(t, enums.EventCartAbandoned, event.EventType)
	assert.Equal(t, enums.AggregateCart, event.AggregateType)
	assert.Equal(t, second[0].ID, event.AggregateID)
	payload, ok := event.Data.(payloads.CartAbandonedEvent)
	require.True(t, ok)
	assert.Equal(t, second[0].UserID, payload.UserID)
	assert.Equal(t, now, payload.AbandonedAt)
}

func TestAbandonedCartJobPropagatesErrors(t *testing.T) {
	job := newAbandonedCartJobForTest(t, &stubMarker{err: errors.New("db")}, &recordingEmitter{}, 0)
	assert.Error(t, job.Run(context.Background()))

	marker := &stubMarker{batches: [][]models.Cart{{{ID: uuid.New()}}}}
	job = newAbandonedCartJobForTest(t, marker, &recordingEmitter{err: errors.New("outbox")}, 0)
	assert.Error(t, job.Run(context.Background()))
}

func TestAbandonedCartJobRequiresDependencies(t *testing.T) {
	_, err := NewAbandonedCartJob(AbandonedCartJobParams{Logger: testLogger(), DB: passthroughTx{}, Outbox: &recordingEmitter{}})
	assert.Error(t, err)
	_, err = NewAbandonedCartJob(AbandonedCartJobParams{Logger: testLogger(), DB: passthroughTx{}, Carts: func(*gorm.DB) AbandonedCartMarker { return &stubMarker{} }})
	assert.Error(t, err)
}

func TestAbandonedCartJobAgainstSQLite(t *testing.T) {
	conn := dbtest.Open(t)
	client := db.NewFromConn(conn)
	ctx := context.Background()
	carts := cart.NewRepository(conn)
	widget := dbtest.SeedProduct(t, conn, "WIDGET", 500, 10)

	stale := uuid.New()
	fresh := uuid.New()
	for _, user := range []uuid.UUID{stale, fresh} {
		require.NoError(t, carts.EnsureActive(ctx, user))
		c, err := carts.GetActiveCart(ctx, user)
		require.NoError(t, err)
		require.NoError(t, carts.CreateItem(ctx, &models.CartItem{CartID: c.ID, ProductID: widget.ID, Quantity: 2, UnitPriceCents: 500}))
	}
	staleCart, err := carts.GetActiveCart(ctx, stale)
	require.NoError(t, err)
	require.NoError(t, conn.Model(&models.Cart{}).Where("id = ?", staleCart.ID).
		UpdateColumn("updated_at", time.Now().UTC().Add(-45*24*time.Hour)).Error)

	job, err := NewAbandonedCartJob(AbandonedCartJobParams{
		Logger: testLogger(),
		DB:     client,
		Carts:  BindCartRepository(carts),
		Outbox: outbox.NewService(outbox.NewRepository(conn), testLogger()),
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(ctx))

	var reloaded models.Cart
	require.NoError(t, conn.Preload("Items").First(&reloaded, "id = ?", staleCart.ID).Error)
	assert.Equal(t, enums.CartStatusAbandoned, reloaded.Status)
	assert.Empty(t, reloaded.Items)

	_, err = carts.GetActiveCart(ctx, fresh)
	require.NoError(t, err, "recent carts stay active")

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventCartAbandoned, rows[0].EventType)
	assert.Equal(t, staleCart.ID, rows[0].AggregateID)

	var envelope outbox.PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	var payload payloads.CartAbandonedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, stale, payload.UserID)

	require.NoError(t, job.Run(ctx))
	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "a second run finds nothing new")
}
