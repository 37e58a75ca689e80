package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/registry"
)

// ConsumerName scopes the idempotency markers written by the projection.
const ConsumerName = "order-history"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type idempotencyRunner interface {
	Run(ctx context.Context, consumer string, eventID uuid.UUID, handle func(context.Context) error) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// NewDecoders registers the order payloads the projection understands.
func NewDecoders() *registry.DecoderRegistry {
	decoders := registry.NewDecoderRegistry()
	decoders.Register(enums.EventOrderCreated, outbox.CurrentVersion, registry.JSONDecoder(func() interface{} {
		return &payloads.OrderCreatedEvent{}
	}))
	decoders.Register(enums.EventOrderCanceled, outbox.CurrentVersion, registry.JSONDecoder(func() interface{} {
		return &payloads.OrderCanceledEvent{}
	}))
	return decoders
}

// Consumer projects order events from the orders subscription into
// order_history rows.
type Consumer struct {
	subscription receiver
	repo         Repository
	decoders     payloadDecoder
	manager      idempotencyRunner
	logg         *logger.Logger
}

func NewConsumer(subscription receiver, repo Repository, decoders payloadDecoder, manager idempotencyRunner, logg *logger.Logger) (*Consumer, error) {
	if subscription == nil {
		return nil, errors.New("orders subscription is required")
	}
	if repo == nil {
		return nil, errors.New("history repository is required")
	}
	if decoders == nil {
		return nil, errors.New("decoder registry is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Consumer{
		subscription: subscription,
		repo:         repo,
		decoders:     decoders,
		manager:      manager,
		logg:         logg,
	}, nil
}

// Run receives messages until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	nack bool
}

type inboundEvent struct {
	eventID    uuid.UUID
	eventType  enums.OutboxEventType
	version    int
	occurredAt time.Time
	data       json.RawMessage
}

func (c *Consumer) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID}
	logCtx := c.logg.WithFields(ctx, fields)

	event, err := parseMessage(msg)
	if err != nil {
		logCtx = c.logg.WithField(logCtx, "error", err.Error())
		c.logg.Warn(logCtx, "invalid order event")
		return processResult{}
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"event_id":   event.eventID.String(),
		"event_type": event.eventType,
	})

	if event.eventType == enums.EventCartAbandoned {
		c.logg.Info(logCtx, "event ignored")
		return processResult{}
	}

	entry, err := c.buildEntry(event)
	if err != nil {
		logCtx = c.logg.WithField(logCtx, "error", err.Error())
		c.logg.Warn(logCtx, "undecodable order event")
		return processResult{}
	}
	logCtx = c.logg.WithOrderID(logCtx, entry.OrderID.String())

	err = c.manager.Run(logCtx, ConsumerName, event.eventID, func(runCtx context.Context) error {
		_, insertErr := c.repo.Insert(runCtx, entry)
		return insertErr
	})
	switch {
	case errors.Is(err, idempotency.ErrAlreadyProcessed):
		c.logg.Info(logCtx, "event already processed")
		return processResult{}
	case err != nil:
		c.logg.Error(logCtx, "order history projection failed", err)
		return processResult{nack: true}
	}

	c.logg.Info(logCtx, "order history recorded")
	return processResult{}
}

func parseMessage(msg *gcppubsub.Message) (*inboundEvent, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}

	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}

	rawID := strings.TrimSpace(envelope.EventID)
	if rawID == "" {
		rawID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	eventID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("event_id: %w", err)
	}

	occurredAt := envelope.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(msg.Attributes["created_at"])); err == nil {
			occurredAt = parsed
		}
	}

	version := envelope.Version
	if version == 0 {
		version = outbox.CurrentVersion
	}

	return &inboundEvent{
		eventID:    eventID,
		eventType:  eventType,
		version:    version,
		occurredAt: occurredAt.UTC(),
		data:       envelope.Data,
	}, nil
}

func (c *Consumer) buildEntry(event *inboundEvent) (*models.OrderHistory, error) {
	decoded, err := c.decoders.Decode(event.eventType, event.version, event.data)
	if err != nil {
		return nil, err
	}

	entry := &models.OrderHistory{
		EventType:  event.eventType,
		EventID:    event.eventID,
		OccurredAt: event.occurredAt,
	}
	switch payload := decoded.(type) {
	case *payloads.OrderCreatedEvent:
		entry.OrderID = payload.OrderID
		entry.UserID = payload.UserID
		entry.Status = payload.Status
	case *payloads.OrderCanceledEvent:
		entry.OrderID = payload.OrderID
		entry.UserID = payload.UserID
		entry.Status = payload.Status
	default:
		return nil, fmt.Errorf("unexpected payload %T", decoded)
	}
	if entry.OrderID == uuid.Nil {
		return nil, errors.New("order_id missing")
	}
	return entry, nil
}
