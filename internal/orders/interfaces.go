package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablemesa/tablemesa-backend/pkg/db/models"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	"github.com/tablemesa/tablemesa-backend/pkg/pagination"
)

// Repository exposes the order persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters Filters) ([]models.Order, string, error)
	LatestByTable(ctx context.Context, restaurantID, tableID uuid.UUID, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// Service defines the order lifecycle operations the API exposes.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error)
	LatestForTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
}
