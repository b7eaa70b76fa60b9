// Package filter implements the offer matching policy applied before
// notifications are sent.
package filter

import "flat_bot/internal/model"

// Policy decides which new offers are worth notifying about.
type Policy struct {
	// MaxPrice excludes offers at or above this amount. Zero disables
	// the cap.
	MaxPrice int
}

// Allow checks whether an offer passes the policy. The price cap is a
// strict less-than: with MaxPrice 500, a 499 offer passes and a 500
// offer does not.
func (p Policy) Allow(o model.Offer) bool {
	if p.MaxPrice == 0 {
		return true
	}
	return o.Price < p.MaxPrice
}

// Apply returns the offers that pass the policy, preserving order.
func (p Policy) Apply(offers []model.Offer) []model.Offer {
	var kept []model.Offer
	for _, o := range offers {
		if p.Allow(o) {
			kept = append(kept, o)
		}
	}
	return kept
}
