package orderclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablemesa/tablemesa-backend/pkg/enums"
)

const responseBodyReadLimit int64 = 1 << 20

var errBaseURLRequired = errors.New("order service base url is required")

// Client is the typed HTTP client for the order service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New builds an order service client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ServerError is a structured rejection returned by the order service. It is
// distinct from transport failures, which surface as plain wrapped errors.
type ServerError struct {
	HTTPStatus int
	Code       string
	Message    string
	Details    map[string]string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order service rejected request (%d %s): %s", e.HTTPStatus, e.Code, e.Message)
	}
	return fmt.Sprintf("order service rejected request (%d %s)", e.HTTPStatus, e.Code)
}

// AsServerError extracts the structured rejection when the error carries one.
func AsServerError(err error) (*ServerError, bool) {
	var typed *ServerError
	if errors.As(err, &typed) {
		return typed, true
	}
	return nil, false
}

// OrderLine is one submitted or fetched order line. Price is the unit price
// frozen at order time.
type OrderLine struct {
	MealID   uuid.UUID       `json:"meal_id"`
	Name     string          `json:"name,omitempty"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Note     *string         `json:"note"`
}

// Order mirrors the server-authoritative order record.
type Order struct {
	ID           uuid.UUID         `json:"id"`
	RestaurantID uuid.UUID         `json:"restaurant_id"`
	TableID      uuid.UUID         `json:"table_id"`
	Status       enums.OrderStatus `json:"status"`
	Items        []OrderLine       `json:"items"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	Tax          decimal.Decimal   `json:"tax"`
	ServiceFee   decimal.Decimal   `json:"service_fee"`
	Total        decimal.Decimal   `json:"total"`
	CreatedAt    time.Time         `json:"created_at"`
}

// CreateOrderRequest carries one atomic order submission. IdempotencyKey is
// sent as the Idempotency-Key header so a retried submission replays instead
// of duplicating the order.
type CreateOrderRequest struct {
	RestaurantID   uuid.UUID
	TableID        uuid.UUID
	Lines          []OrderLine
	IdempotencyKey string
}

// ListFilters narrow a restaurant-wide order listing.
type ListFilters struct {
	Status  *enums.OrderStatus
	TableID *uuid.UUID
	Date    *time.Time
	Limit   int
	Cursor  string
}

// CreateOrder submits the cart lines as a new order.
func (c *Client) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	path := fmt.Sprintf("/api/v1/restaurants/%s/tables/%s/orders", req.RestaurantID, req.TableID)

	payload := struct {
		Items []OrderLine `json:"items"`
	}{Items: req.Lines}

	headers := map[string]string{}
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		headers["Idempotency-Key"] = key
	}

	body, err := c.do(ctx, http.MethodPost, path, nil, payload, headers)
	if err != nil {
		return nil, err
	}
	return singleOrder(body)
}

// GetOrdersByTable fetches the latest orders placed from one table.
func (c *Client) GetOrdersByTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]Order, error) {
	path := fmt.Sprintf("/api/v1/restaurants/%s/tables/%s/orders", restaurantID, tableID)
	body, err := c.do(ctx, http.MethodGet, path, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOrders(body)
}

// GetAllOrders fetches the restaurant-wide order list under the given filters.
func (c *Client) GetAllOrders(ctx context.Context, restaurantID uuid.UUID, filters ListFilters) ([]Order, error) {
	query := url.Values{}
	if filters.Status != nil {
		query.Set("status", filters.Status.String())
	}
	if filters.TableID != nil {
		query.Set("table_id", filters.TableID.String())
	}
	if filters.Date != nil {
		query.Set("date", filters.Date.Format("2006-01-02"))
	}
	if filters.Limit > 0 {
		query.Set("limit", fmt.Sprintf("%d", filters.Limit))
	}
	if filters.Cursor != "" {
		query.Set("cursor", filters.Cursor)
	}

	path := fmt.Sprintf("/api/v1/restaurants/%s/orders", restaurantID)
	body, err := c.do(ctx, http.MethodGet, path, query, nil, nil)
	if err != nil {
		return nil, err
	}
	return NormalizeOrders(body)
}

// UpdateOrderStatus asks the server to move the order to the target status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*Order, error) {
	path := fmt.Sprintf("/api/v1/orders/%s/status", orderID)
	payload := struct {
		Status string `json:"status"`
	}{Status: status.String()}

	body, err := c.do(ctx, http.MethodPatch, path, nil, payload, nil)
	if err != nil {
		return nil, err
	}
	return singleOrder(body)
}

// DeleteOrder removes an order that never entered preparation.
func (c *Client) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	path := fmt.Sprintf("/api/v1/orders/%s", orderID)
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}

func singleOrder(body []byte) (*Order, error) {
	orders, err := NormalizeOrders(body)
	if err != nil {
		return nil, err
	}
	if len(orders) != 1 {
		return nil, fmt.Errorf("expected one order in response, got %d", len(orders))
	}
	return &orders[0], nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, headers map[string]string) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling order service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, decodeServerError(resp.StatusCode, body)
	}
	return body, nil
}

func decodeServerError(status int, body []byte) error {
	serverErr := &ServerError{HTTPStatus: status}

	var envelope struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		serverErr.Code = envelope.Error.Code
		serverErr.Message = envelope.Error.Message
		if len(envelope.Error.Details) > 0 {
			var fields map[string]string
			if err := json.Unmarshal(envelope.Error.Details, &fields); err == nil {
				serverErr.Details = fields
			}
		}
	}
	return serverErr
}
