// Package pricing implements the Prime discount engine: quote derivation
// from a product's discount configuration, viewer-aware price resolution,
// and order summary arithmetic. All monetary values are minor units.
package pricing

import "errors"

// Money represents a monetary value stored in minor units.
type Money = int64

// Kind identifies how a discount value is interpreted.
type Kind string

const (
	// KindPercentage interprets Config.Value as basis points of the regular price.
	KindPercentage Kind = "percentage"
	// KindFixed interprets Config.Value as an absolute amount in minor units.
	KindFixed Kind = "fixed"
)

// BpsDenominator is the basis-point scale for percentage discounts.
const BpsDenominator = 10000

var (
	// ErrPercentOutOfRange is returned when a percentage discount is outside [0, 10000] bps.
	ErrPercentOutOfRange = errors.New("pricing: percentage discount out of range")
	// ErrNegativeFixedDiscount is returned when a fixed discount is negative.
	ErrNegativeFixedDiscount = errors.New("pricing: fixed discount must not be negative")
	// ErrUnknownDiscountKind is returned for an unrecognised discount kind.
	ErrUnknownDiscountKind = errors.New("pricing: unknown discount kind")
)

// Config captures a product's Prime discount configuration. It has no
// identity of its own; it lives and dies with the product row.
type Config struct {
	Eligible bool
	Kind     Kind
	// Value is basis points for percentage discounts and minor units for
	// fixed discounts.
	Value int64
}

// Quote holds the derived pricing fields recomputed on every write to a
// price-affecting product field. Both values are outputs, never inputs.
type Quote struct {
	DiscountedPrice Money
	Savings         Money
}

// Validate checks the configuration against the per-kind value constraints.
// Write paths must reject the whole update when this fails; read paths use
// Compute, which treats an invalid config as not eligible.
func (c Config) Validate() error {
	switch c.Kind {
	case KindPercentage:
		if c.Value < 0 || c.Value > BpsDenominator {
			return ErrPercentOutOfRange
		}
	case KindFixed:
		if c.Value < 0 {
			return ErrNegativeFixedDiscount
		}
	default:
		return ErrUnknownDiscountKind
	}
	return nil
}

// Compute derives the discounted price and savings for a regular price.
//
// Deterministic and side-effect free. Percentage division rounds half away
// from zero at the minor unit; fixed discounts clamp at zero. An ineligible,
// zero-valued, or invalid configuration prices as the regular price with no
// savings, so a price-display path never fails on a malformed config.
func Compute(regular Money, cfg Config) Quote {
	if regular < 0 {
		regular = 0
	}
	if !cfg.Eligible || cfg.Value <= 0 || cfg.Validate() != nil {
		return Quote{DiscountedPrice: regular, Savings: 0}
	}
	var discounted Money
	switch cfg.Kind {
	case KindPercentage:
		remainder := int64(BpsDenominator) - cfg.Value
		discounted = (regular*remainder + BpsDenominator/2) / BpsDenominator
	case KindFixed:
		discounted = regular - cfg.Value
		if discounted < 0 {
			discounted = 0
		}
	}
	return Quote{DiscountedPrice: discounted, Savings: regular - discounted}
}
