package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// OrderHistory is the read-side projection of order events consumed from
// Pub/Sub. EventID is unique so replays are no-ops.
type OrderHistory struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	OrderID    uuid.UUID             `gorm:"column:order_id;type:uuid;not null;index"`
	UserID     uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	EventType  enums.OutboxEventType `gorm:"column:event_type;type:text;not null"`
	EventID    uuid.UUID             `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_order_history_event"`
	Status     enums.OrderStatus     `gorm:"column:status;type:text;not null"`
	OccurredAt time.Time             `gorm:"column:occurred_at;not null"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
}

func (OrderHistory) TableName() string {
	return "order_history"
}

func (h *OrderHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
