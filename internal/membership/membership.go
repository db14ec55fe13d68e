// Package membership models Prime membership records and answers the single
// question pricing cares about: does Prime pricing apply to this viewer right
// now. Persistence and HTTP live in Service and Handler; the gate itself is
// pure.
package membership

import "time"

// Status enumerates subscription lifecycle states.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Subscription is the viewer's Prime subscription as stored on the user row.
type Subscription struct {
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    Status    `json:"status"`
	Plan      string    `json:"plan"`
	Price     int64     `json:"price"`
}

// Record is the membership snapshot handed to the price resolver. A nil
// Record means an anonymous or unknown viewer.
type Record struct {
	PrimeMember  bool          `json:"isPrimeMember"`
	Subscription *Subscription `json:"subscription,omitempty"`
}

// ActiveAt reports whether Prime pricing applies at the given instant.
//
// Fail closed: a nil record, a cleared flag, a missing subscription, a
// non-active status, or a lapsed end date all deny the discount. The date is
// checked here on every read regardless of the background sweep, so pricing
// never depends on stored status freshness.
func (r *Record) ActiveAt(now time.Time) bool {
	if r == nil || !r.PrimeMember || r.Subscription == nil {
		return false
	}
	if r.Subscription.Status != StatusActive {
		return false
	}
	return now.Before(r.Subscription.EndDate)
}

// Plan describes a purchasable Prime subscription tier.
type Plan struct {
	Code     string        `json:"code"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"-"`
	Days     int           `json:"durationDays"`
	Price    int64         `json:"price"`
}

// Plans lists the available tiers in display order. Prices are minor units.
var Plans = []Plan{
	{Code: "monthly", Name: "Monthly Plan", Duration: 30 * 24 * time.Hour, Days: 30, Price: 19900},
	{Code: "quarterly", Name: "Quarterly Plan", Duration: 90 * 24 * time.Hour, Days: 90, Price: 49900},
	{Code: "annual", Name: "Annual Plan", Duration: 365 * 24 * time.Hour, Days: 365, Price: 149900},
}

// PlanByCode looks up a plan by its code.
func PlanByCode(code string) (Plan, bool) {
	for _, p := range Plans {
		if p.Code == code {
			return p, true
		}
	}
	return Plan{}, false
}
