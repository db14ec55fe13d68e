package pricing

// Line describes a snapshotted cart or order line used for total calculation.
// UnitPrice is the resolved (possibly discounted) snapshot; RegularPrice is
// the strike price at snapshot time and equals UnitPrice when no discount
// applied.
type Line struct {
	Qty          int
	UnitPrice    Money
	RegularPrice Money
}

// Summary aggregates computed order components.
type Summary struct {
	Subtotal Money
	Savings  Money
	Tax      Money
	Shipping Money
	Total    Money
}

// Totals calculates order totals from snapshotted lines. Lines are never
// re-resolved here; the subtotal is a pure function of the stored snapshots
// so an already-placed order can be recomputed byte-for-byte.
func Totals(lines []Line, taxBps int, shipping Money) Summary {
	var subtotal, savings Money
	for _, l := range lines {
		if l.Qty <= 0 {
			continue
		}
		subtotal += Money(l.Qty) * l.UnitPrice
		if l.RegularPrice > l.UnitPrice {
			savings += Money(l.Qty) * (l.RegularPrice - l.UnitPrice)
		}
	}
	if taxBps < 0 {
		taxBps = 0
	}
	if shipping < 0 {
		shipping = 0
	}
	tax := (subtotal * Money(taxBps)) / BpsDenominator
	return Summary{
		Subtotal: subtotal,
		Savings:  savings,
		Tax:      tax,
		Shipping: shipping,
		Total:    subtotal + tax + shipping,
	}
}
