package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	internalorders "github.com/tablemesa/tablemesa-backend/internal/orders"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	pkgerrors "github.com/tablemesa/tablemesa-backend/pkg/errors"
	"github.com/tablemesa/tablemesa-backend/pkg/pagination"
)

type stubOrdersService struct {
	create       func(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error)
	list         func(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error)
	latest       func(ctx context.Context, restaurantID, tableID uuid.UUID) ([]internalorders.OrderDTO, error)
	updateStatus func(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*internalorders.OrderDTO, error)
	delete       func(ctx context.Context, orderID uuid.UUID) error
}

func (s *stubOrdersService) Create(ctx context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
	if s.create != nil {
		return s.create(ctx, input)
	}
	return nil, nil
}

func (s *stubOrdersService) List(ctx context.Context, restaurantID uuid.UUID, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error) {
	if s.list != nil {
		return s.list(ctx, restaurantID, params, filters)
	}
	return &internalorders.OrderList{}, nil
}

func (s *stubOrdersService) LatestForTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]internalorders.OrderDTO, error) {
	if s.latest != nil {
		return s.latest(ctx, restaurantID, tableID)
	}
	return nil, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*internalorders.OrderDTO, error) {
	if s.updateStatus != nil {
		return s.updateStatus(ctx, orderID, target)
	}
	return nil, nil
}

func (s *stubOrdersService) Delete(ctx context.Context, orderID uuid.UUID) error {
	if s.delete != nil {
		return s.delete(ctx, orderID)
	}
	return nil
}

func testRouter(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/restaurants/{restaurantId}", func(r chi.Router) {
			r.Route("/tables/{tableId}/orders", func(r chi.Router) {
				r.Post("/", Create(svc, nil))
				r.Get("/", TableOrders(svc, nil))
			})
			r.Get("/orders", List(svc, nil))
		})
		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Patch("/status", UpdateStatus(svc, nil))
			r.Delete("/", Delete(svc, nil))
		})
	})
	return r
}

func TestCreateOrderMapsPayload(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	mealID := uuid.New()

	var captured internalorders.CreateOrderInput
	svc := &stubOrdersService{
		create: func(_ context.Context, input internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
			captured = input
			return &internalorders.OrderDTO{ID: uuid.New(), RestaurantID: input.RestaurantID, TableID: input.TableID, Status: enums.OrderStatusPending}, nil
		},
	}

	body := `{"items":[{"meal_id":"` + mealID.String() + `","name":"Pad Thai","quantity":2,"price":"12.50","note":"no peanuts"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurants/"+restaurantID.String()+"/tables/"+tableID.String()+"/orders", strings.NewReader(body))
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", resp.Code, resp.Body.String())
	}
	if captured.RestaurantID != restaurantID || captured.TableID != tableID {
		t.Fatalf("expected path ids forwarded to service")
	}
	if len(captured.Items) != 1 {
		t.Fatalf("expected 1 item got %d", len(captured.Items))
	}
	item := captured.Items[0]
	if item.MealID != mealID || item.Quantity != 2 {
		t.Fatalf("unexpected item %+v", item)
	}
	if !item.Price.Equal(decimal.RequireFromString("12.50")) {
		t.Fatalf("expected price 12.50 got %s", item.Price)
	}
	if item.Note == nil || *item.Note != "no peanuts" {
		t.Fatalf("expected note forwarded")
	}
}

func TestCreateOrderRejectsEmptyItems(t *testing.T) {
	svc := &stubOrdersService{
		create: func(_ context.Context, _ internalorders.CreateOrderInput) (*internalorders.OrderDTO, error) {
			t.Fatalf("service should not be called")
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurants/"+uuid.NewString()+"/tables/"+uuid.NewString()+"/orders", strings.NewReader(`{"items":[]}`))
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreateOrderRejectsBadRestaurantID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/restaurants/not-a-uuid/tables/"+uuid.NewString()+"/orders", strings.NewReader(`{"items":[{"meal_id":"`+uuid.NewString()+`","name":"Soup","quantity":1,"price":"4.00"}]}`))
	resp := httptest.NewRecorder()
	testRouter(&stubOrdersService{}).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestListParsesFilters(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()

	var gotFilters internalorders.Filters
	var gotParams pagination.Params
	svc := &stubOrdersService{
		list: func(_ context.Context, _ uuid.UUID, params pagination.Params, filters internalorders.Filters) (*internalorders.OrderList, error) {
			gotParams = params
			gotFilters = filters
			return &internalorders.OrderList{Orders: []internalorders.OrderDTO{}}, nil
		},
	}

	url := "/api/v1/restaurants/" + restaurantID.String() + "/orders?status=preparing&table_id=" + tableID.String() + "&date=2026-08-30&limit=10&cursor=abc"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if gotFilters.Status == nil || *gotFilters.Status != enums.OrderStatusPreparing {
		t.Fatalf("expected status filter preparing")
	}
	if gotFilters.TableID == nil || *gotFilters.TableID != tableID {
		t.Fatalf("expected table filter forwarded")
	}
	if gotFilters.Date == nil || gotFilters.Date.Format("2006-01-02") != "2026-08-30" {
		t.Fatalf("expected date filter forwarded")
	}
	if gotParams.Limit != 10 || gotParams.Cursor != "abc" {
		t.Fatalf("unexpected pagination %+v", gotParams)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/restaurants/"+uuid.NewString()+"/orders?status=vaporized", nil)
	resp := httptest.NewRecorder()
	testRouter(&stubOrdersService{}).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateStatusForwardsTarget(t *testing.T) {
	orderID := uuid.New()
	var gotTarget enums.OrderStatus
	svc := &stubOrdersService{
		updateStatus: func(_ context.Context, id uuid.UUID, target enums.OrderStatus) (*internalorders.OrderDTO, error) {
			if id != orderID {
				t.Fatalf("expected order id forwarded")
			}
			gotTarget = target
			return &internalorders.OrderDTO{ID: id, Status: target}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/status", strings.NewReader(`{"status":"ready"}`))
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", resp.Code, resp.Body.String())
	}
	if gotTarget != enums.OrderStatusReady {
		t.Fatalf("expected target ready got %s", gotTarget)
	}
}

func TestUpdateStatusSurfacesStateConflict(t *testing.T) {
	svc := &stubOrdersService{
		updateStatus: func(_ context.Context, _ uuid.UUID, _ enums.OrderStatus) (*internalorders.OrderDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already served")
		},
	}

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"pending"}`))
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict code got %s", payload.Error.Code)
	}
	if payload.Error.Message != "order is already served" {
		t.Fatalf("expected typed message passthrough got %q", payload.Error.Message)
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status":"launched"}`))
	resp := httptest.NewRecorder()
	testRouter(&stubOrdersService{}).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDeleteOrder(t *testing.T) {
	orderID := uuid.New()
	var deleted uuid.UUID
	svc := &stubOrdersService{
		delete: func(_ context.Context, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+orderID.String(), nil)
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if deleted != orderID {
		t.Fatalf("expected delete forwarded")
	}
}

func TestTableOrders(t *testing.T) {
	restaurantID := uuid.New()
	tableID := uuid.New()
	svc := &stubOrdersService{
		latest: func(_ context.Context, rID, tID uuid.UUID) ([]internalorders.OrderDTO, error) {
			if rID != restaurantID || tID != tableID {
				t.Fatalf("expected path ids forwarded")
			}
			return []internalorders.OrderDTO{{ID: uuid.New(), Status: enums.OrderStatusServed}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/restaurants/"+restaurantID.String()+"/tables/"+tableID.String()+"/orders", nil)
	resp := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var payload struct {
		Data []internalorders.OrderDTO `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(payload.Data) != 1 || payload.Data[0].Status != enums.OrderStatusServed {
		t.Fatalf("unexpected payload %+v", payload)
	}
}
