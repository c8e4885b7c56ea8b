package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tablemesa/tablemesa-backend/pkg/config"
	"github.com/tablemesa/tablemesa-backend/pkg/db/models"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	pkgerrors "github.com/tablemesa/tablemesa-backend/pkg/errors"
	"github.com/tablemesa/tablemesa-backend/pkg/pagination"
)

const latestByTableLimit = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo    Repository
	tx      txRunner
	pricing config.PricingConfig
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, pricing config.PricingConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx, pricing: pricing}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	if input.RestaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if input.TableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	subtotalCents := 0
	for i, line := range input.Items {
		if line.MealID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "meal id required").WithDetails(map[string]any{"index": i})
		}
		if line.Quantity < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1").WithDetails(map[string]any{"index": i})
		}
		if !line.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive").WithDetails(map[string]any{"index": i})
		}

		unitCents := int(line.Price.Round(2).Shift(2).IntPart())
		lineCents := unitCents * line.Quantity
		subtotalCents += lineCents

		items = append(items, models.OrderItem{
			MealID:         line.MealID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: unitCents,
			TotalCents:     lineCents,
			Note:           normalizeNote(line.Note),
		})
	}

	taxCents := int(decimal.New(int64(subtotalCents), 0).
		Mul(decimal.New(int64(s.pricing.TaxRateBps), -4)).
		Round(0).IntPart())
	feeCents := s.pricing.ServiceFeeCents

	order := &models.Order{
		RestaurantID:    input.RestaurantID,
		TableID:         input.TableID,
		Status:          enums.OrderStatusPending,
		SubtotalCents:   subtotalCents,
		TaxCents:        taxCents,
		ServiceFeeCents: feeCents,
		TotalCents:      subtotalCents + taxCents + feeCents,
		Items:           items,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		created, err := s.repo.WithTx(tx).CreateOrder(ctx, order)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := ToDTO(*order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters Filters) (*OrderList, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", *filters.Status))
	}

	rows, next, err := s.repo.ListOrders(ctx, restaurantID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		list.Orders = append(list.Orders, ToDTO(row))
	}
	return list, nil
}

func (s *service) LatestForTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]OrderDTO, error) {
	if restaurantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant id required")
	}
	if tableID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "table id required")
	}

	rows, err := s.repo.LatestByTable(ctx, restaurantID, tableID, latestByTableLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch table orders")
	}

	dtos := make([]OrderDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ToDTO(row))
	}
	return dtos, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown status %q", target))
	}

	var result OrderDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Re-submitting the current status is a no-op, not a conflict; two staff
		// racing toward the same target both succeed.
		if order.Status == target {
			result = ToDTO(*order)
			return nil
		}

		if !enums.CanTransitionOrder(order.Status, target) {
			allowed, terr := enums.ValidOrderTransitions(order.Status)
			if terr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, terr, "resolve transitions")
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.Status, target)).
				WithDetails(map[string]any{"from": order.Status, "to": target, "allowed": allowed})
		}

		if err := repo.UpdateOrderStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}

		order.Status = target
		result = ToDTO(*order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		// Orders already in the kitchen pipeline are evidence of in-progress
		// fulfillment; only pre-commitment or cancelled orders may go.
		if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusCancelled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted").
				WithDetails(map[string]any{"status": order.Status})
		}

		if err := repo.DeleteOrder(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func normalizeNote(note *string) *string {
	if note == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*note)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
