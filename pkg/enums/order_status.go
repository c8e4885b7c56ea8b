package enums

import "fmt"

// OrderStatus tracks the kitchen lifecycle of a table order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderPipeline is the canonical forward path through the kitchen. The
// transition table and the pipeline rank are both derived from this slice, so
// the two views cannot drift apart.
var orderPipeline = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
	OrderStatusCompleted,
}

var validOrderStatuses = append(append([]OrderStatus{}, orderPipeline...), OrderStatusCancelled)

// orderTransitions maps each status to its legal targets. Every pipeline step
// advances to the next one; cancellation is reachable from any status before
// served. Terminal statuses have no entries.
var orderTransitions = buildOrderTransitions()

func buildOrderTransitions() map[OrderStatus][]OrderStatus {
	table := make(map[OrderStatus][]OrderStatus, len(validOrderStatuses))
	for i, status := range orderPipeline {
		if i == len(orderPipeline)-1 {
			table[status] = nil
			continue
		}
		next := orderPipeline[i+1]
		targets := []OrderStatus{next}
		if next != OrderStatusCompleted {
			targets = append(targets, OrderStatusCancelled)
		}
		table[status] = targets
	}
	table[OrderStatusCancelled] = nil
	return table
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist for the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// IsUpdatable reports whether staff may still move the order.
func (s OrderStatus) IsUpdatable() bool {
	return s.IsValid() && !s.IsTerminal()
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatuses returns every known status, pipeline order first then cancelled.
func OrderStatuses() []OrderStatus {
	return append([]OrderStatus{}, validOrderStatuses...)
}

// ValidOrderTransitions returns the legal targets from the given status.
// Unknown statuses error out rather than defaulting, since a value outside the
// table means the backend contract changed.
func ValidOrderTransitions(from OrderStatus) ([]OrderStatus, error) {
	targets, ok := orderTransitions[from]
	if !ok {
		return nil, fmt.Errorf("unknown order status %q", from)
	}
	return append([]OrderStatus{}, targets...), nil
}

// CanTransitionOrder reports whether from -> to is a legal move.
func CanTransitionOrder(from, to OrderStatus) bool {
	targets, err := ValidOrderTransitions(from)
	if err != nil {
		return false
	}
	for _, candidate := range targets {
		if candidate == to {
			return true
		}
	}
	return false
}

// OrderPipelineRank orders statuses by pipeline progress for display sorting.
// Cancelled ranks lowest so it never buries active orders; the rank says
// nothing about transition legality.
func OrderPipelineRank(s OrderStatus) (int, error) {
	if s == OrderStatusCancelled {
		return 0, nil
	}
	for i, candidate := range orderPipeline {
		if candidate == s {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown order status %q", s)
}

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPending:   "Pending",
	OrderStatusConfirmed: "Confirmed",
	OrderStatusPreparing: "Preparing",
	OrderStatusReady:     "Ready",
	OrderStatusServed:    "Served",
	OrderStatusCompleted: "Completed",
	OrderStatusCancelled: "Cancelled",
}

var orderStatusColors = map[OrderStatus]string{
	OrderStatusPending:   "orange",
	OrderStatusConfirmed: "blue",
	OrderStatusPreparing: "purple",
	OrderStatusReady:     "green",
	OrderStatusServed:    "teal",
	OrderStatusCompleted: "grey",
	OrderStatusCancelled: "red",
}

// OrderStatusLabel returns the human-readable label for the status.
func OrderStatusLabel(s OrderStatus) (string, error) {
	label, ok := orderStatusLabels[s]
	if !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return label, nil
}

// OrderStatusColor returns the display color key for the status.
func OrderStatusColor(s OrderStatus) (string, error) {
	color, ok := orderStatusColors[s]
	if !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return color, nil
}
