package console

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	pkgerrors "github.com/tablemesa/tablemesa-backend/pkg/errors"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
	"github.com/tablemesa/tablemesa-backend/pkg/metrics"
)

// DefaultRefreshInterval matches the staff console's background poll cadence.
const DefaultRefreshInterval = 15 * time.Second

type orderAPI interface {
	GetAllOrders(ctx context.Context, restaurantID uuid.UUID, filters orderclient.ListFilters) ([]orderclient.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*orderclient.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
}

// Filters is the console's active filter set. A nil field means "any".
type Filters struct {
	Status  *enums.OrderStatus
	TableID *uuid.UUID
	Date    *time.Time
}

// Console drives the staff order screen for one restaurant: a filtered order
// list, guarded status transitions and confirm-then-delete removal. The
// server stays authoritative; after any rejected mutation the list is
// re-fetched so the displayed state converges on the server's.
type Console struct {
	client       orderAPI
	restaurantID uuid.UUID
	interval     time.Duration
	logg         *logger.Logger
	poller       *metrics.PollerMetrics

	mu            sync.Mutex
	filters       Filters
	orders        []orderclient.Order
	loaded        bool
	issued        uint64
	applied       uint64
	pendingDelete *uuid.UUID
	cancel        context.CancelFunc
	refreshing    bool
}

// Option configures optional console behavior.
type Option func(*Console)

// WithRefreshInterval overrides the background refresh cadence.
func WithRefreshInterval(interval time.Duration) Option {
	return func(c *Console) {
		if interval > 0 {
			c.interval = interval
		}
	}
}

// WithMetrics records fetch outcomes on the given poller metrics.
func WithMetrics(poller *metrics.PollerMetrics) Option {
	return func(c *Console) {
		c.poller = poller
	}
}

// New builds a console scoped to the restaurant. The date filter defaults to
// today so staff open on the current service day.
func New(client orderAPI, restaurantID uuid.UUID, logg *logger.Logger, opts ...Option) (*Console, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order client required")
	}
	today := startOfDay(time.Now())
	c := &Console{
		client:       client,
		restaurantID: restaurantID,
		interval:     DefaultRefreshInterval,
		logg:         logg,
		filters:      Filters{Date: &today},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Load performs the initial fetch exactly once; later calls are no-ops so a
// remount never double-fetches.
func (c *Console) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	c.loaded = true
	c.mu.Unlock()
	return c.fetchNow(ctx)
}

// SetStatusFilter replaces the status filter and re-fetches immediately.
func (c *Console) SetStatusFilter(ctx context.Context, status *enums.OrderStatus) error {
	c.mu.Lock()
	c.filters.Status = status
	c.mu.Unlock()
	return c.fetchNow(ctx)
}

// SetTableFilter replaces the table filter and re-fetches immediately.
func (c *Console) SetTableFilter(ctx context.Context, tableID *uuid.UUID) error {
	c.mu.Lock()
	c.filters.TableID = tableID
	c.mu.Unlock()
	return c.fetchNow(ctx)
}

// SetDateFilter replaces the date filter and re-fetches immediately.
func (c *Console) SetDateFilter(ctx context.Context, date *time.Time) error {
	c.mu.Lock()
	c.filters.Date = date
	c.mu.Unlock()
	return c.fetchNow(ctx)
}

// Filters returns the active filter set.
func (c *Console) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Orders returns a snapshot of the fetched orders, newest first.
func (c *Console) Orders() []orderclient.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]orderclient.Order{}, c.orders...)
}

// StartAutoRefresh begins background re-polling on the configured interval.
// It is independent of filter-change fetches. Stop with Close.
func (c *Console) StartAutoRefresh(ctx context.Context) {
	c.mu.Lock()
	if c.refreshing {
		c.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.refreshing = true
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				if err := c.fetchNow(loopCtx); err != nil && c.logg != nil {
					c.logg.Error(loopCtx, "console refresh failed", err)
				}
			}
		}
	}()
}

// Close stops the background refresh loop.
func (c *Console) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.refreshing = false
}

// AllowedTransitions lists the legal target statuses the UI may offer for the
// order. Terminal orders get an empty list.
func (c *Console) AllowedTransitions(orderID uuid.UUID) ([]enums.OrderStatus, error) {
	order, err := c.findOrder(orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.IsUpdatable() {
		return nil, nil
	}
	return enums.ValidOrderTransitions(order.Status)
}

// UpdateStatus moves the order to the target status. The transition is
// pre-checked locally against the registry, then confirmed by the server; on
// server rejection the list is re-fetched and the server's state wins.
func (c *Console) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) error {
	order, err := c.findOrder(orderID)
	if err != nil {
		return err
	}
	if !order.Status.IsUpdatable() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status can no longer change").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	if !enums.CanTransitionOrder(order.Status, target) {
		allowed, _ := enums.ValidOrderTransitions(order.Status)
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transition not allowed").
			WithDetails(map[string]any{"from": order.Status.String(), "to": target.String(), "allowed": allowed})
	}

	updated, err := c.client.UpdateOrderStatus(ctx, orderID, target)
	if err != nil {
		// server disagreed; re-fetch so its state wins
		if fetchErr := c.fetchNow(ctx); fetchErr != nil && c.logg != nil {
			c.logg.Error(ctx, "console re-fetch after rejected transition failed", fetchErr)
		}
		return err
	}

	c.mu.Lock()
	for i := range c.orders {
		if c.orders[i].ID == updated.ID {
			c.orders[i] = *updated
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// RequestDelete marks the order for deletion, pending confirmation. Only
// orders that never entered the kitchen pipeline qualify.
func (c *Console) RequestDelete(orderID uuid.UUID) error {
	order, err := c.findOrder(orderID)
	if err != nil {
		return err
	}
	if order.Status != enums.OrderStatusPending && order.Status != enums.OrderStatusCancelled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "only pending or cancelled orders can be deleted").
			WithDetails(map[string]any{"status": order.Status.String()})
	}

	c.mu.Lock()
	c.pendingDelete = &orderID
	c.mu.Unlock()
	return nil
}

// CancelDelete clears a pending delete request.
func (c *Console) CancelDelete() {
	c.mu.Lock()
	c.pendingDelete = nil
	c.mu.Unlock()
}

// ConfirmDelete sends the delete for the previously requested order. Without
// a matching RequestDelete it refuses.
func (c *Console) ConfirmDelete(ctx context.Context, orderID uuid.UUID) error {
	c.mu.Lock()
	pending := c.pendingDelete
	c.mu.Unlock()
	if pending == nil || *pending != orderID {
		return pkgerrors.New(pkgerrors.CodeValidation, "deletion has not been confirmed for this order")
	}

	if err := c.client.DeleteOrder(ctx, orderID); err != nil {
		if fetchErr := c.fetchNow(ctx); fetchErr != nil && c.logg != nil {
			c.logg.Error(ctx, "console re-fetch after rejected delete failed", fetchErr)
		}
		return err
	}

	c.mu.Lock()
	c.pendingDelete = nil
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			c.orders = append(c.orders[:i], c.orders[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// fetchNow issues a sequenced fetch; responses that lost the race to a newer
// fetch are dropped.
func (c *Console) fetchNow(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	filters := orderclient.ListFilters{
		Status:  c.filters.Status,
		TableID: c.filters.TableID,
		Date:    c.filters.Date,
	}
	c.mu.Unlock()

	orders, err := c.client.GetAllOrders(ctx, c.restaurantID, filters)
	if err != nil {
		c.poller.IncFetch("staff_console", "error")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		c.poller.IncFetch("staff_console", "stale")
		return nil
	}
	c.applied = seq

	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	c.orders = orders
	c.poller.IncFetch("staff_console", "applied")
	return nil
}

// startOfDay returns midnight of t's calendar day in t's own location.
// Truncating to 24h would floor to the UTC day instead, which is a different
// day east or west of UTC during part of the local day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (c *Console) findOrder(orderID uuid.UUID) (*orderclient.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.orders {
		if c.orders[i].ID == orderID {
			order := c.orders[i]
			return &order, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not in the current list")
}
