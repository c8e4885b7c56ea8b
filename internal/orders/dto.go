package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablemesa/tablemesa-backend/pkg/db/models"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
)

// CreateOrderItem is one cart line submitted by a diner. Price is the unit
// price captured when the item entered the cart.
type CreateOrderItem struct {
	MealID   uuid.UUID
	Name     string
	Quantity int
	Price    decimal.Decimal
	Note     *string
}

// CreateOrderInput carries everything needed to create an order atomically.
type CreateOrderInput struct {
	RestaurantID uuid.UUID
	TableID      uuid.UUID
	Items        []CreateOrderItem
}

// Filters describe the staff console listing inputs. Date selects one calendar
// day of created_at values.
type Filters struct {
	Status  *enums.OrderStatus
	TableID *uuid.UUID
	Date    *time.Time
}

// OrderItemDTO is the wire representation of one order line.
type OrderItemDTO struct {
	MealID   uuid.UUID       `json:"meal_id"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Note     *string         `json:"note"`
}

// OrderDTO is the wire representation of an order.
type OrderDTO struct {
	ID           uuid.UUID         `json:"id"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	TableID      uuid.UUID         `json:"table_id"`
	Status       enums.OrderStatus `json:"status"`
	Items        []OrderItemDTO    `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	ServiceFee   decimal.Decimal   `json:"service_fee"`
	Total        decimal.Decimal   `json:"total"`
	CreatedAt    time.Time         `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func centsToDecimal(cents int) decimal.Decimal {
	return decimal.New(int64(cents), -2)
}

// ToDTO maps the stored model into the wire shape.
func ToDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			MealID:   item.MealID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    centsToDecimal(item.UnitPriceCents),
			Note:     item.Note,
		})
	}
	return OrderDTO{
		ID:           order.ID,
		RestaurantID: order.RestaurantID,
		TableID:      order.TableID,
		Status:       order.Status,
		Items:        items,
		Subtotal:     centsToDecimal(order.SubtotalCents),
		Tax:          centsToDecimal(order.TaxCents),
		ServiceFee:   centsToDecimal(order.ServiceFeeCents),
		Total:        centsToDecimal(order.TotalCents),
		CreatedAt:    order.CreatedAt,
	}
}
