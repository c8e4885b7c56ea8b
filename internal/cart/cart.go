package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablemesa/tablemesa-backend/pkg/config"
)

// Item is the menu item snapshot handed to AddItem. Price is the menu price at
// add time; the cart never re-fetches it, so concurrent menu edits do not
// affect an in-flight cart.
type Item struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Available bool
}

// Line is one distinct item in the cart with its captured price.
type Line struct {
	ItemID    uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Note      string
}

// Subtotal returns unit price times quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Pricing carries the tax and fee knobs applied on top of the subtotal.
type Pricing struct {
	TaxRate    decimal.Decimal
	ServiceFee decimal.Decimal
}

// PricingFromConfig converts the integer env representation (basis points,
// cents) into exact decimals.
func PricingFromConfig(cfg config.PricingConfig) Pricing {
	return Pricing{
		TaxRate:    decimal.New(int64(cfg.TaxRateBps), -4),
		ServiceFee: decimal.New(int64(cfg.ServiceFeeCents), -2),
	}
}

// DefaultPricing matches the standard restaurant setup: 10% tax plus a flat
// 1.99 service fee.
func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:    decimal.New(10, -2),
		ServiceFee: decimal.New(199, -2),
	}
}

// Cart holds the selected items for one (restaurant, table) browsing session.
// It is owned by exactly one session and is not safe for concurrent writers;
// callers inject the value where it is needed instead of sharing a global.
type Cart struct {
	restaurantID uuid.UUID
	tableID      uuid.UUID
	pricing      Pricing
	lines        []Line
}

// New builds an empty cart scoped to the given restaurant table.
func New(restaurantID, tableID uuid.UUID, pricing Pricing) *Cart {
	return &Cart{
		restaurantID: restaurantID,
		tableID:      tableID,
		pricing:      pricing,
	}
}

func (c *Cart) RestaurantID() uuid.UUID { return c.restaurantID }
func (c *Cart) TableID() uuid.UUID      { return c.tableID }

// AddItem appends the item with quantity 1, or bumps the quantity when the
// item is already in the cart. Unavailable items are ignored.
func (c *Cart) AddItem(item Item) {
	if !item.Available {
		return
	}
	if idx := c.indexOf(item.ID); idx >= 0 {
		c.lines[idx].Quantity++
		return
	}
	c.lines = append(c.lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
	})
}

// AdjustQuantity adds delta to the line's quantity, removing the line when the
// result drops to zero or below. Unknown item ids are ignored.
func (c *Cart) AdjustQuantity(itemID uuid.UUID, delta int) {
	idx := c.indexOf(itemID)
	if idx < 0 {
		return
	}
	c.lines[idx].Quantity += delta
	if c.lines[idx].Quantity <= 0 {
		c.removeAt(idx)
	}
}

// RemoveItem drops the line regardless of quantity. Removing an absent item is
// a no-op.
func (c *Cart) RemoveItem(itemID uuid.UUID) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.removeAt(idx)
	}
}

// SetNote replaces the line's note verbatim. Whitespace-only notes are kept
// as entered and normalized to nothing at submission time.
func (c *Cart) SetNote(itemID uuid.UUID, note string) {
	if idx := c.indexOf(itemID); idx >= 0 {
		c.lines[idx].Note = note
	}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	return append([]Line{}, c.lines...)
}

// IsEmpty reports whether the cart holds no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemCount sums the quantities across all lines (badge display).
func (c *Cart) ItemCount() int {
	count := 0
	for _, line := range c.lines {
		count += line.Quantity
	}
	return count
}

// Subtotal sums unit price times quantity across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Tax applies the configured rate to the subtotal. No rounding happens here;
// callers round once at the display or serialization boundary.
func (c *Cart) Tax() decimal.Decimal {
	return c.Subtotal().Mul(c.pricing.TaxRate)
}

// ServiceFee is flat and independent of cart size.
func (c *Cart) ServiceFee() decimal.Decimal {
	return c.pricing.ServiceFee
}

// GrandTotal is subtotal plus tax plus service fee, exactly.
func (c *Cart) GrandTotal() decimal.Decimal {
	return c.Subtotal().Add(c.Tax()).Add(c.ServiceFee())
}

// Clear empties the cart after a successful submission.
func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) indexOf(itemID uuid.UUID) int {
	for i, line := range c.lines {
		if line.ItemID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
}

// NormalizeNote trims the note and reports whether anything is left to submit.
// Blank notes are sent as null so storage can tell "no note" from "empty note".
func NormalizeNote(note string) (string, bool) {
	trimmed := strings.TrimSpace(note)
	return trimmed, trimmed != ""
}
