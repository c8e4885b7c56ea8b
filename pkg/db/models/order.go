package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tablemesa/tablemesa-backend/pkg/enums"
)

// Order is the server-authoritative record created from a submitted cart.
// Status is the only mutable field after creation; item prices stay frozen at
// order time.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RestaurantID    uuid.UUID         `gorm:"column:restaurant_id;type:uuid;not null"`
	TableID         uuid.UUID         `gorm:"column:table_id;type:uuid;not null"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null;default:'pending'"`
	SubtotalCents   int               `gorm:"column:subtotal_cents;not null"`
	TaxCents        int               `gorm:"column:tax_cents;not null;default:0"`
	ServiceFeeCents int               `gorm:"column:service_fee_cents;not null;default:0"`
	TotalCents      int               `gorm:"column:total_cents;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
