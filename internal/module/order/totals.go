package order

import "fmt"

// Pricing constants for order totals.
const (
	TaxRate               = 0.08
	FreeShippingThreshold = 2000.0
	FlatShippingCost      = 199.0
)

// Totals holds the computed monetary amounts for an order.
type Totals struct {
	Subtotal     float64
	Tax          float64
	ShippingCost float64
	Total        float64
}

// CalculateTotals computes subtotal, tax, shipping and total for the given
// line items. It validates quantities and prices before computing anything.
func CalculateTotals(items []Item) (Totals, error) {
	if len(items) == 0 {
		return Totals{}, fmt.Errorf("%w: order must contain at least one item", ErrValidation)
	}

	var subtotal float64
	for i, item := range items {
		if item.Quantity < 1 {
			return Totals{}, fmt.Errorf("%w: item %d has quantity %d, must be at least 1", ErrValidation, i, item.Quantity)
		}
		if item.UnitPrice < 0 {
			return Totals{}, fmt.Errorf("%w: item %d has negative unit price", ErrValidation, i)
		}
		subtotal += item.UnitPrice * float64(item.Quantity)
	}

	tax := subtotal * TaxRate

	shipping := FlatShippingCost
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	return Totals{
		Subtotal:     subtotal,
		Tax:          tax,
		ShippingCost: shipping,
		Total:        subtotal + tax + shipping,
	}, nil
}
