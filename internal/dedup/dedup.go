// Package dedup collapses structurally equivalent offers discovered across
// pagination and drill-down passes.
package dedup

import (
	"fmt"

	"github.com/partscout/partscout/internal/domain"
)

// signature identifies a real-world offer. Listing links are deliberately
// absent: the same seller/price pair reached via different pagination
// passes is the same offer.
func signature(offer domain.NormalizedOffer) string {
	return fmt.Sprintf("%s\x1f%d\x1f%s", offer.SellerKey, offer.Amount, offer.Currency)
}

// Offers drops duplicate normalized offers, keeping the first-seen
// representative and preserving first-seen order. It must run on
// normalized offers only; raw offers with unnormalized seller names or
// digit variants would not compare equal. Idempotent.
func Offers(offers []domain.NormalizedOffer) []domain.NormalizedOffer {
	if len(offers) <= 1 {
		return offers
	}

	seen := make(map[string]struct{}, len(offers))
	kept := offers[:0:0]
	for _, offer := range offers {
		sig := signature(offer)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		kept = append(kept, offer)
	}
	return kept
}
