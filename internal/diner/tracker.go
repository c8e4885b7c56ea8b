package diner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
	"github.com/tablemesa/tablemesa-backend/pkg/logger"
	"github.com/tablemesa/tablemesa-backend/pkg/metrics"
)

// DefaultTrackerInterval matches the diner tracking view's poll cadence.
const DefaultTrackerInterval = 10 * time.Second

// TrackerState models the tracking view lifecycle.
type TrackerState string

const (
	TrackerClosed  TrackerState = "closed"
	TrackerLoading TrackerState = "loading"
	TrackerIdle    TrackerState = "idle"
)

type tableOrdersFetcher interface {
	GetOrdersByTable(ctx context.Context, restaurantID, tableID uuid.UUID) ([]orderclient.Order, error)
}

// Tracker polls the latest orders for one table while the tracking view is
// open. Every fetch result fully replaces the held list; responses arriving
// out of issue order are dropped so stale data never overwrites fresher state.
type Tracker struct {
	client       tableOrdersFetcher
	restaurantID uuid.UUID
	tableID      uuid.UUID
	interval     time.Duration
	logg         *logger.Logger
	poller       *metrics.PollerMetrics

	mu      sync.Mutex
	state   TrackerState
	orders  []orderclient.Order
	issued  uint64
	applied uint64
	cancel  context.CancelFunc
	wake    chan struct{}
}

// TrackerOption configures optional tracker behavior.
type TrackerOption func(*Tracker)

// WithTrackerInterval overrides the poll interval.
func WithTrackerInterval(interval time.Duration) TrackerOption {
	return func(t *Tracker) {
		if interval > 0 {
			t.interval = interval
		}
	}
}

// WithTrackerMetrics records fetch outcomes on the given poller metrics.
func WithTrackerMetrics(poller *metrics.PollerMetrics) TrackerOption {
	return func(t *Tracker) {
		t.poller = poller
	}
}

// NewTracker builds a closed tracker for the given table.
func NewTracker(client tableOrdersFetcher, restaurantID, tableID uuid.UUID, logg *logger.Logger, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		client:       client,
		restaurantID: restaurantID,
		tableID:      tableID,
		interval:     DefaultTrackerInterval,
		logg:         logg,
		state:        TrackerClosed,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

// Open starts the polling loop: one immediate fetch, then one per interval.
// Opening an already open tracker is a no-op.
func (t *Tracker) Open(ctx context.Context) {
	t.mu.Lock()
	if t.state != TrackerClosed {
		t.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.wake = make(chan struct{}, 1)
	t.state = TrackerLoading
	wake := t.wake
	t.mu.Unlock()

	go t.loop(loopCtx, wake)
}

// Close stops the loop immediately. No fetch is applied after Close returns.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == TrackerClosed {
		return
	}
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.wake = nil
	t.state = TrackerClosed
}

// Refresh requests an immediate out-of-cycle fetch (e.g. right after a
// submission). No-op while closed.
func (t *Tracker) Refresh() {
	t.mu.Lock()
	wake := t.wake
	t.mu.Unlock()
	if wake == nil {
		return
	}
	select {
	case wake <- struct{}{}:
	default:
	}
}

// State reports the current lifecycle state.
func (t *Tracker) State() TrackerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Orders returns a snapshot of the tracked orders, highest pipeline progress
// first with cancelled orders last.
func (t *Tracker) Orders() []orderclient.Order {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]orderclient.Order{}, t.orders...)
}

func (t *Tracker) loop(ctx context.Context, wake chan struct{}) {
	t.triggerFetch(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.triggerFetch(ctx)
		case <-wake:
			t.triggerFetch(ctx)
		}
	}
}

// triggerFetch assigns the next sequence number and fetches concurrently, so a
// slow response cannot hold up the next poll cycle.
func (t *Tracker) triggerFetch(ctx context.Context) {
	t.mu.Lock()
	if t.state == TrackerClosed {
		t.mu.Unlock()
		return
	}
	t.issued++
	seq := t.issued
	t.mu.Unlock()

	go t.fetch(ctx, seq)
}

func (t *Tracker) fetch(ctx context.Context, seq uint64) {
	orders, err := t.client.GetOrdersByTable(ctx, t.restaurantID, t.tableID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TrackerClosed || ctx.Err() != nil {
		return
	}

	if err != nil {
		t.poller.IncFetch("diner_tracker", "error")
		if t.logg != nil {
			t.logg.Error(ctx, "tracker fetch failed", err)
		}
		t.state = TrackerIdle
		return
	}

	if seq <= t.applied {
		t.poller.IncFetch("diner_tracker", "stale")
		return
	}
	t.applied = seq

	sortByPipelineProgress(orders)
	t.orders = orders
	t.state = TrackerIdle
	t.poller.IncFetch("diner_tracker", "applied")
}

// sortByPipelineProgress orders by descending pipeline rank. Cancelled carries
// the lowest rank, so it lands at the bottom despite being terminal.
func sortByPipelineProgress(orders []orderclient.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return pipelineRank(orders[i].Status) > pipelineRank(orders[j].Status)
	})
}

func pipelineRank(status enums.OrderStatus) int {
	rank, err := enums.OrderPipelineRank(status)
	if err != nil {
		return -1
	}
	return rank
}
