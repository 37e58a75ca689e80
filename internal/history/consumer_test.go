package history

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

type stubRunner struct {
	seen  map[uuid.UUID]bool
	calls int
}

func (s *stubRunner) Run(ctx context.Context, _ string, eventID uuid.UUID, handle func(context.Context) error) error {
	s.calls++
	if s.seen == nil {
		s.seen = map[uuid.UUID]bool{}
	}
	if s.seen[eventID] {
		return idempotency.ErrAlreadyProcessed
	}
	s.seen[eventID] = true
	if err := handle(ctx); err != nil {
		delete(s.seen, eventID)
		return err
	}
	return nil
}

type stubReceiver struct{}

func (stubReceiver) Receive(context.Context, func(context.Context, *gcppubsub.Message)) error {
	return nil
}

func newTestConsumer(t *testing.T, repo Repository, runner idempotencyRunner) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "history-test", Output: io.Discard})
	consumer, err := NewConsumer(stubReceiver{}, repo, NewDecoders(), runner, logg)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return consumer
}

func orderMessage(t *testing.T, eventType enums.OutboxEventType, eventID uuid.UUID, data any) *gcppubsub.Message {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.CurrentVersion,
		EventID:    eventID.String(),
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Data:       raw,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:   "msg-1",
		Data: envelope,
		Attributes: map[string]string{
			"event_id":   eventID.String(),
			"event_type": string(eventType),
		},
	}
}

func TestProcessOrderCreatedRecordsHistory(t *testing.T) {
	repo := &stubRepo{}
	consumer := newTestConsumer(t, repo, &stubRunner{})
	orderID, userID, eventID := uuid.New(), uuid.New(), uuid.New()

	msg := orderMessage(t, enums.EventOrderCreated, eventID, payloads.OrderCreatedEvent{
		OrderID: orderID,
		UserID:  userID,
		Status:  enums.OrderStatusConfirmed,
	})
	if res := consumer.process(context.Background(), msg); res.nack {
		t.Fatal("expected ack")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(repo.inserted))
	}
	entry := repo.inserted[0]
	if entry.OrderID != orderID || entry.UserID != userID || entry.EventID != eventID {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.Status != enums.OrderStatusConfirmed || entry.EventType != enums.EventOrderCreated {
		t.Fatalf("unexpected status %s / %s", entry.Status, entry.EventType)
	}
	if !entry.OccurredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected occurred_at %v", entry.OccurredAt)
	}
}

func TestProcessDuplicateDeliveryIsAcked(t *testing.T) {
	repo := &stubRepo{}
	runner := &stubRunner{}
	consumer := newTestConsumer(t, repo, runner)
	msg := orderMessage(t, enums.EventOrderCanceled, uuid.New(), payloads.OrderCanceledEvent{
		OrderID: uuid.New(),
		UserID:  uuid.New(),
		Status:  enums.OrderStatusCancelled,
	})

	consumer.process(context.Background(), msg)
	if res := consumer.process(context.Background(), msg); res.nack {
		t.Fatal("duplicate should be acked")
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("duplicate should not insert again, got %d", len(repo.inserted))
	}
}

func TestProcessInsertFailureNacks(t *testing.T) {
	runner := &stubRunner{}
	consumer := newTestConsumer(t, &stubRepo{err: errors.New("db down")}, runner)
	eventID := uuid.New()
	msg := orderMessage(t, enums.EventOrderCreated, eventID, payloads.OrderCreatedEvent{OrderID: uuid.New(), UserID: uuid.New()})

	if res := consumer.process(context.Background(), msg); !res.nack {
		t.Fatal("expected nack on insert failure")
	}
	if runner.seen[eventID] {
		t.Fatal("failed event should not stay marked")
	}
}

func TestProcessSkipsCartEventsAndGarbage(t *testing.T) {
	repo := &stubRepo{}
	runner := &stubRunner{}
	consumer := newTestConsumer(t, repo, runner)

	cartMsg := orderMessage(t, enums.EventCartAbandoned, uuid.New(), payloads.CartAbandonedEvent{CartID: uuid.New()})
	if res := consumer.process(context.Background(), cartMsg); res.nack {
		t.Fatal("cart events should be acked")
	}

	garbage := &gcppubsub.Message{ID: "bad", Data: []byte("{"), Attributes: map[string]string{"event_type": "order_created"}}
	if res := consumer.process(context.Background(), garbage); res.nack {
		t.Fatal("undecodable messages should be acked")
	}

	missingOrder := orderMessage(t, enums.EventOrderCreated, uuid.New(), map[string]string{"status": "confirmed"})
	if res := consumer.process(context.Background(), missingOrder); res.nack {
		t.Fatal("payload without order id should be acked")
	}

	if runner.calls != 0 || len(repo.inserted) != 0 {
		t.Fatalf("nothing should be projected, calls=%d inserts=%d", runner.calls, len(repo.inserted))
	}
}

func TestParseMessageFallsBackToAttributes(t *testing.T) {
	eventID := uuid.New()
	created := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	msg := &gcppubsub.Message{
		Data: []byte(`{"data":{}}`),
		Attributes: map[string]string{
			"event_type": "order_canceled",
			"event_id":   eventID.String(),
			"created_at": created.Format(time.RFC3339Nano),
		},
	}

	event, err := parseMessage(msg)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if event.eventID != eventID || !event.occurredAt.Equal(created) || event.version != outbox.CurrentVersion {
		t.Fatalf("unexpected event %+v", event)
	}
}
