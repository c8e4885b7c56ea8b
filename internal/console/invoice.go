package console

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tablemesa/tablemesa-backend/internal/orderclient"
	"github.com/tablemesa/tablemesa-backend/pkg/enums"
)

func quantityDecimal(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}

// Invoice renders the order as printable text. It is a pure read of already
// fetched data; nothing is re-fetched or mutated.
func (c *Console) Invoice(orderID uuid.UUID) (string, error) {
	order, err := c.findOrder(orderID)
	if err != nil {
		return "", err
	}
	return RenderInvoice(*order)
}

// RenderInvoice builds the invoice text for one order.
func RenderInvoice(order orderclient.Order) (string, error) {
	label, err := enums.OrderStatusLabel(order.Status)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ORDER %s\n", order.ID)
	fmt.Fprintf(&b, "Table: %s\n", order.TableID)
	fmt.Fprintf(&b, "Status: %s\n", label)
	fmt.Fprintf(&b, "Placed: %s\n", order.CreatedAt.Format("2006-01-02 15:04"))
	b.WriteString(strings.Repeat("-", 40) + "\n")

	for _, line := range order.Items {
		fmt.Fprintf(&b, "%dx %-24s %9s\n", line.Quantity, line.Name, line.Price.Mul(quantityDecimal(line.Quantity)).StringFixed(2))
		if line.Note != nil && *line.Note != "" {
			fmt.Fprintf(&b, "   note: %s\n", *line.Note)
		}
	}

	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "%-27s %12s\n", "Subtotal", order.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "%-27s %12s\n", "Tax", order.Tax.StringFixed(2))
	fmt.Fprintf(&b, "%-27s %12s\n", "Service fee", order.ServiceFee.StringFixed(2))
	fmt.Fprintf(&b, "%-27s %12s\n", "Total", order.Total.StringFixed(2))
	return b.String(), nil
}
