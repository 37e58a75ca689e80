package history

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/orderflow-backend/pkg/db/models"
	"github.com/angelmondragon/orderflow-backend/pkg/enums"
)

// EntryDTO is one status transition in an order's timeline.
type EntryDTO struct {
	EventID    uuid.UUID             `json:"event_id"`
	EventType  enums.OutboxEventType `json:"event_type"`
	Status     enums.OrderStatus     `json:"status"`
	OccurredAt time.Time             `json:"occurred_at"`
}

// OrderHistoryDTO is the response body for an order's history.
type OrderHistoryDTO struct {
	OrderID uuid.UUID  `json:"order_id"`
	Entries []EntryDTO `json:"entries"`
}

func newOrderHistoryDTO(orderID uuid.UUID, rows []models.OrderHistory) *OrderHistoryDTO {
	dto := &OrderHistoryDTO{OrderID: orderID, Entries: make([]EntryDTO, 0, len(rows))}
	for _, row := range rows {
		dto.Entries = append(dto.Entries, EntryDTO{
			EventID:    row.EventID,
			EventType:  row.EventType,
			Status:     row.Status,
			OccurredAt: row.OccurredAt,
		})
	}
	return dto
}
