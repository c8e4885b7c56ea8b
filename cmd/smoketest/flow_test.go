package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/config"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
)

// stubOrderService prices submissions the way the real service does with the
// test config below: 10% tax, 1.99 service fee.
type stubOrderService struct {
	mu          sync.Mutex
	orders      []orderclient.Order
	statuses    []enums.OrderStatus
	createCalls int
	lastKey     string
}

func (s *stubOrderService) CreateOrder(_ context.Context, req orderclient.CreateOrderRequest) (*orderclient.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	s.lastKey = req.IdempotencyKey

	subtotal := decimal.Zero
	for _, line := range req.Lines {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	tax := subtotal.Mul(decimal.New(1000, -4))
	fee := decimal.New(199, -2)

	order := orderclient.Order{
		ID:           uuid.New(),
		RestaurantID: req.RestaurantID,
		TableID:      req.TableID,
		Status:       enums.OrderStatusPending,
		Items:        req.Lines,
		Subtotal:     subtotal,
		Tax:          tax,
		ServiceFee:   fee,
		Total:        subtotal.Add(tax).Add(fee),
		CreatedAt:    time.Now(),
	}
	s.orders = append(s.orders, order)
	return &order, nil
}

func (s *stubOrderService) GetOrdersByTable(_ context.Context, _, tableID uuid.UUID) ([]orderclient.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []orderclient.Order
	for _, order := range s.orders {
		if order.TableID == tableID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (s *stubOrderService) GetAllOrders(_ context.Context, _ uuid.UUID, _ orderclient.ListFilters) ([]orderclient.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orderclient.Order{}, s.orders...), nil
}

func (s *stubOrderService) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orderclient.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = append(s.statuses, status)
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Status = status
			updated := s.orders[i]
			return &updated, nil
		}
	}
	return nil, &orderclient.ServerError{HTTPStatus: 404, Code: "NOT_FOUND"}
}

func (s *stubOrderService) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders = append(s.orders[:i], s.orders[i+1:]...)
			break
		}
	}
	return nil
}

func (s *stubOrderService) snapshot() []orderclient.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]orderclient.Order{}, s.orders...)
}

func testConfig() *config.Config {
	return &config.Config{
		Pricing: config.PricingConfig{TaxRateBps: 1000, ServiceFeeCents: 199},
		Polling: config.PollingConfig{
			DinerInterval:   10 * time.Millisecond,
			ConsoleInterval: 10 * time.Millisecond,
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "smoketest", Output: io.Discard})
}

func TestNewFlowValidatesParams(t *testing.T) {
	_, err := NewFlow(FlowParams{})
	require.Error(t, err)

	_, err = NewFlow(FlowParams{
		Config: testConfig(),
		Logger: testLogger(),
		Client: &stubOrderService{},
	})
	require.Error(t, err, "ids are required")

	flow, err := NewFlow(FlowParams{
		Config:       testConfig(),
		Logger:       testLogger(),
		Client:       &stubOrderService{},
		RestaurantID: uuid.New(),
		TableID:      uuid.New(),
	})
	require.NoError(t, err)
	assert.NotNil(t, flow)
}

func TestFlowRunWalksOrderToCompletion(t *testing.T) {
	stub := &stubOrderService{}
	flow, err := NewFlow(FlowParams{
		Config:       testConfig(),
		Logger:       testLogger(),
		Client:       stub,
		RestaurantID: uuid.New(),
		TableID:      uuid.New(),
	})
	require.NoError(t, err)

	invoice, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stub.createCalls)
	assert.NotEmpty(t, stub.lastKey, "submission carries an idempotency key")

	assert.Equal(t, []enums.OrderStatus{
		enums.OrderStatusConfirmed,
		enums.OrderStatusPreparing,
		enums.OrderStatusReady,
		enums.OrderStatusServed,
		enums.OrderStatusCompleted,
	}, stub.statuses, "pipeline walked one step at a time")

	orders := stub.snapshot()
	require.Len(t, orders, 1)
	assert.Equal(t, enums.OrderStatusCompleted, orders[0].Status)

	assert.Contains(t, invoice, orders[0].ID.String())
	assert.Contains(t, invoice, "2x Pad Thai")
	assert.Contains(t, invoice, "32.79", "server total matches the cart's")
}
