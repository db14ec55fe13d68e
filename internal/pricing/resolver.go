package pricing

import (
	"time"

	"github.com/primecart/backend-store/internal/membership"
)

// Resolved is the answer to "what does this viewer pay for one unit of this
// product right now". StrikePrice is the regular price shown crossed out and
// is only set when the discount applied.
type Resolved struct {
	UnitPrice   Money  `json:"unitPrice"`
	Discounted  bool   `json:"isDiscounted"`
	StrikePrice *Money `json:"strikePrice,omitempty"`
}

// Resolve is the single authoritative pricing entry point. Product listings,
// product detail, cart add-item, and checkout settlement all price through
// here so eligibility and membership logic exist in exactly one place.
//
// Deterministic and idempotent for a fixed (regular, cfg, viewer, now) tuple;
// it reads nothing and writes nothing beyond its inputs. Callers that need a
// point-in-time snapshot (cart lines, order lines) store the result; Resolve
// itself never caches.
func Resolve(regular Money, cfg Config, viewer *membership.Record, now time.Time) Resolved {
	if regular < 0 {
		regular = 0
	}
	if !cfg.Eligible || !viewer.ActiveAt(now) {
		return Resolved{UnitPrice: regular}
	}
	quote := Compute(regular, cfg)
	if quote.Savings <= 0 {
		return Resolved{UnitPrice: regular}
	}
	strike := regular
	return Resolved{UnitPrice: quote.DiscountedPrice, Discounted: true, StrikePrice: &strike}
}
