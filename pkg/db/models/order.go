package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/orderflow-backend/pkg/enums"
	"github.com/angelmondragon/orderflow-backend/pkg/types"
)

// Order is a confirmed purchase built from a cart. Line items keep the product
// name and price at the time of purchase.
type Order struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	UserID        uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index:idx_orders_user_created,priority:1"`
	CartID        *uuid.UUID         `gorm:"column:cart_id;type:uuid"`
	Status        enums.OrderStatus  `gorm:"column:status;type:text;not null;default:'pending'"`
	ShippingInfo  types.ShippingInfo `gorm:"column:shipping_info;type:jsonb;serializer:json;not null"`
	SubtotalCents int64              `gorm:"column:subtotal_cents;not null;default:0"`
	ItemCount     int                `gorm:"column:item_count;not null;default:0"`
	CanceledAt    *time.Time         `gorm:"column:canceled_at"`
	Items         []OrderLineItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime;index:idx_orders_user_created,priority:2"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
