package orderclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablemesa/tablemesa-backend/pkg/enums"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	day, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return day
}

func TestCreateOrderSendsIdempotencyKey(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	mealID := uuid.New()

	var gotPath, gotKey string
	var gotBody struct {
		Items []OrderLine `json:"items"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data": {"id": "` + uuid.NewString() + `", "restaurant_id": "` + restaurantID.String() + `", "table_id": "` + tableID.String() + `", "status": "pending", "items": [], "subtotal": "0", "tax": "0", "service_fee": "0", "total": "0", "created_at": "2026-08-30T12:00:00Z"}}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	note := "extra spicy"
	order, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		RestaurantID:   restaurantID,
		TableID:        tableID,
		IdempotencyKey: "submit-1",
		Lines: []OrderLine{
			{MealID: mealID, Name: "Green Curry", Quantity: 1, Price: decimal.RequireFromString("9.75"), Note: &note},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/restaurants/"+restaurantID.String()+"/tables/"+tableID.String()+"/orders", gotPath)
	assert.Equal(t, "submit-1", gotKey)
	require.Len(t, gotBody.Items, 1)
	assert.Equal(t, mealID, gotBody.Items[0].MealID)
	assert.Equal(t, enums.OrderStatusPending, order.Status)
}

func TestCreateOrderSurfacesServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": "VALIDATION_ERROR", "message": "validation failed", "details": {"items": "is required"}}}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	_, err = client.CreateOrder(context.Background(), CreateOrderRequest{RestaurantID: uuid.New(), TableID: uuid.New()})
	require.Error(t, err)

	serverErr, ok := AsServerError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, serverErr.HTTPStatus)
	assert.Equal(t, "VALIDATION_ERROR", serverErr.Code)
	assert.Equal(t, "validation failed", serverErr.Message)
	assert.Equal(t, "is required", serverErr.Details["items"])
}

func TestTransportErrorIsNotServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client, err := New(server.URL)
	require.NoError(t, err)

	_, err = client.GetOrdersByTable(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	_, ok := AsServerError(err)
	assert.False(t, ok)
}

func TestGetAllOrdersEncodesFilters(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	status := enums.OrderStatusReady

	var gotQuery map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"orders": [], "next_cursor": ""}}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	day := mustDate(t, "2026-08-30")
	orders, err := client.GetAllOrders(context.Background(), restaurantID, ListFilters{
		Status:  &status,
		TableID: &tableID,
		Date:    &day,
		Limit:   10,
		Cursor:  "abc",
	})
	require.NoError(t, err)
	assert.Empty(t, orders)

	assert.Equal(t, []string{"ready"}, gotQuery["status"])
	assert.Equal(t, []string{tableID.String()}, gotQuery["table_id"])
	assert.Equal(t, []string{"2026-08-30"}, gotQuery["date"])
	assert.Equal(t, []string{"10"}, gotQuery["limit"])
	assert.Equal(t, []string{"abc"}, gotQuery["cursor"])
}

func TestUpdateOrderStatusReturnsUpdatedOrder(t *testing.T) {
	orderID := uuid.New()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/v1/orders/"+orderID.String()+"/status", r.URL.Path)

		var payload struct {
			Status string `json:"status"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "served", payload.Status)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": {"id": "` + orderID.String() + `", "status": "served", "items": [], "subtotal": "0", "tax": "0", "service_fee": "0", "total": "0", "created_at": "2026-08-30T12:00:00Z"}}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)

	order, err := client.UpdateOrderStatus(context.Background(), orderID, enums.OrderStatusServed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusServed, order.Status)
}

func TestDeleteOrder(t *testing.T) {
	orderID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/orders/"+orderID.String(), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": null}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	require.NoError(t, err)
	require.NoError(t, client.DeleteOrder(context.Background(), orderID))
}
