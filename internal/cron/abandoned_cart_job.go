package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/internal/cart"
	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/logger"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox"
	"github.com/angelmondragon/orderflow-backend/pkg/outbox/payloads"
)

const (
	abandonedCartDays      = 30
	abandonedCartBatchSize = 200
)

type AbandonedCartJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Carts     CartBinder
	Outbox    outboxEmitter
	Days      int
	BatchSize int
}

// AbandonedCartMarker flips idle carts to abandoned.
type AbandonedCartMarker interface {
	MarkAbandonedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Cart, error)
}

// CartBinder returns a marker bound to the job's transaction.
type CartBinder func(tx *gorm.DB) AbandonedCartMarker

// BindCartRepository adapts a cart repository into a CartBinder.
func BindCartRepository(repo cart.CartRepository) CartBinder {
	return func(tx *gorm.DB) AbandonedCartMarker {
		return repo.WithTx(tx)
	}
}

// NewAbandonedCartJob builds the job that expires carts nobody touched for
// Days and announces each one with a cart_abandoned event.
func NewAbandonedCartJob(params AbandonedCartJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	days := params.Days
	if days <= 0 {
		days = abandonedCartDays
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = abandonedCartBatchSize
	}
	return &abandonedCartJob{
		logg:   params.Logger,
		db:     params.DB,
		bind:   params.Carts,
		outbox: params.Outbox,
		days:   days,
		batch:  batch,
		now:    time.Now,
	}, nil
}

type abandonedCartJob struct {
	logg   *logger.Logger
	db     txRunner
	bind   CartBinder
	outbox outboxEmitter
	days   int
	batch  int
	now    func() time.Time
}

func (j *abandonedCartJob) Name() string { return "abandoned-carts" }

func (j *abandonedCartJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.Add(-time.Duration(j.days) * 24 * time.Hour)
	total := 0
	for {
		n, err := j.runBatch(ctx, cutoff, now)
		total += n
		if err != nil {
			return fmt.Errorf("abandoned carts: %w", err)
		}
		if n < j.batch {
			break
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"days":            j.days,
		"carts_abandoned": total,
	})
	j.logg.Info(logCtx, "abandoned cart cleanup complete")
	return nil
}

// runBatch flips one batch and queues its events in the same transaction.
func (j *abandonedCartJob) runBatch(ctx context.Context, cutoff, now time.Time) (int, error) {
	var flipped int
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		carts, err := j.bind(tx).MarkAbandonedBefore(ctx, cutoff, j.batch)
		if err != nil {
			return err
		}
		var errs error
		for _, c := range carts {
			errs = multierr.Append(errs, j.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCartAbandoned,
				AggregateType: enums.AggregateCart,
				AggregateID:   c.ID,
				Actor:         &outbox.ActorRef{UserID: c.UserID, Role: "system"},
				OccurredAt:    now,
				Data: payloads.CartAbandonedEvent{
					CartID:      c.ID,
					UserID:      c.UserID,
					AbandonedAt: now,
				},
			}))
		}
		if errs != nil {
			return errs
		}
		flipped = len(carts)
		return nil
	})
	return flipped, err
}
