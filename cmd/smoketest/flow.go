package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablemesa/tablemesa-backend/internal/cart"
	"github.com/tablemesa/tablemesa-backend/internal/console"
	"github.com/tablemesa/tablemesa-backend/internal/diner"
	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/config"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
)

const trackerWaitTimeout = 10 * time.Second

type orderAPI interface {
	CreateOrder(ctx context.Context, req orderclient.CreateOrderRequest) (*orderclient.Order, error)
	GetOrdersByTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]orderclient.Order, error)
	GetAllOrders(ctx context.Context, restaurantID uuid.UUID, filters orderclient.ListFilters) ([]orderclient.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orderclient.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

type FlowParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	Client       orderAPI
	RestaurantID uuid.UUID
	TableID      uuid.UUID
}

// Flow drives one order through the whole lifecycle against a running stack:
// cart, submission, diner tracking, staff pipeline, invoice. Intervals and
// pricing come from the same config the services run with.
type Flow struct {
	cfg          *config.Config
	logg         *logger.Logger
	client       orderAPI
	restaurantID uuid.UUID
	tableID      uuid.UUID
}

func NewFlow(params FlowParams) (*Flow, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Client == nil {
		return nil, errors.New("order client is required")
	}
	if params.RestaurantID == uuid.Nil || params.TableID == uuid.Nil {
		return nil, errors.New("restaurant and table ids are required")
	}
	return &Flow{
		cfg:          params.Config,
		logg:         params.Logger,
		client:       params.Client,
		restaurantID: params.RestaurantID,
		tableID:      params.TableID,
	}, nil
}

// Run returns the rendered invoice of the completed order.
func (f *Flow) Run(ctx context.Context) (string, error) {
	c := cart.New(f.restaurantID, f.tableID, cart.PricingFromConfig(f.cfg.Pricing))
	padThai := cart.Item{ID: uuid.New(), Name: "Pad Thai", Price: decimal.RequireFromString("12.50"), Available: true}
	rice := cart.Item{ID: uuid.New(), Name: "Sticky Rice", Price: decimal.RequireFromString("3.00"), Available: true}
	c.AddItem(padThai)
	c.AddItem(padThai)
	c.AddItem(rice)
	c.SetNote(padThai.ID, "no peanuts")
	expectedTotal := c.GrandTotal()

	tracker := diner.NewTracker(f.client, f.restaurantID, f.tableID, f.logg,
		diner.WithTrackerInterval(f.cfg.Polling.DinerInterval))
	tracker.Open(ctx)
	defer tracker.Close()

	session, err := diner.NewSession(f.client, c, f.logg, tracker.Refresh)
	if err != nil {
		return "", err
	}
	defer session.Close()

	order, err := session.Submit(ctx)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	if !order.Total.Equal(expectedTotal) {
		return "", fmt.Errorf("server total %s does not match cart total %s", order.Total, expectedTotal)
	}
	if !c.IsEmpty() {
		return "", errors.New("cart not cleared after successful submission")
	}

	if err := f.waitForTracked(ctx, tracker, order.ID); err != nil {
		return "", err
	}

	cons, err := console.New(f.client, f.restaurantID, f.logg,
		console.WithRefreshInterval(f.cfg.Polling.ConsoleInterval))
	if err != nil {
		return "", err
	}
	defer cons.Close()
	if err := cons.Load(ctx); err != nil {
		return "", fmt.Errorf("load console: %w", err)
	}

	pipeline := []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusServed,
		enums.OrderStatusCompleted,
	}
	for _, status := range pipeline {
		if err := cons.UpdateStatus(ctx, order.ID, status); err != nil {
			return "", fmt.Errorf("advance to %s: %w", status, err)
		}
	}

	invoice, err := cons.Invoice(order.ID)
	if err != nil {
		return "", fmt.Errorf("render invoice: %w", err)
	}

	f.logg.Info(f.logg.WithOrderID(ctx, order.ID.String()), "order lifecycle completed")
	return invoice, nil
}

func (f *Flow) waitForTracked(ctx context.Context, tracker *diner.Tracker, orderID uuid.UUID) error {
	deadline := time.Now().Add(trackerWaitTimeout)
	for time.Now().Before(deadline) {
		for _, order := range tracker.Orders() {
			if order.ID == orderID {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(50 * time.Millisecond):
		}
	}
	return errors.New("submitted order never appeared in the tracker")
}
