package orderclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NormalizeOrders unwraps every response envelope the order service (and its
// ancestors) have been observed to emit into a flat []Order:
//
//	[ {...}, ... ]
//	{ "data": [ ... ] }
//	{ "data": { "data": [ ... ] } }
//	{ "data": { "orders": [ ... ] } }
//	{ "order": { ... } }
//	{ ...single order... }
//
// Empty or null payloads normalize to an empty slice. Anything else, including
// an unknown status value inside an order, is an error.
func NormalizeOrders(raw []byte) ([]Order, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Order{}, nil
	}

	orders, err := unwrapOrders(trimmed)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if !orders[i].Status.IsValid() {
			return nil, fmt.Errorf("order %s has unknown status %q", orders[i].ID, orders[i].Status)
		}
	}
	return orders, nil
}

func unwrapOrders(raw []byte) ([]Order, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Order{}, nil
	}

	if raw[0] == '[' {
		var orders []Order
		if err := json.Unmarshal(raw, &orders); err != nil {
			return nil, fmt.Errorf("decoding order array: %w", err)
		}
		return orders, nil
	}

	if raw[0] != '{' {
		return nil, fmt.Errorf("unrecognized order payload shape")
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("decoding order envelope: %w", err)
	}

	for _, key := range []string{"data", "orders", "order"} {
		if inner, ok := object[key]; ok {
			return unwrapOrders(inner)
		}
	}

	// keyless object: a single order
	if _, ok := object["id"]; ok {
		var order Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return nil, fmt.Errorf("decoding single order: %w", err)
		}
		return []Order{order}, nil
	}

	if len(object) == 0 {
		return []Order{}, nil
	}
	return nil, fmt.Errorf("unrecognized order payload shape")
}
