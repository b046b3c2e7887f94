package domain

import "sort"

// CurrencyUnknown marks an offer whose currency could not be detected.
const CurrencyUnknown = "unknown"

// RawOffer is one seller listing as returned by the drill-down stage,
// before any normalization. PriceText may contain Persian or Arabic digits
// and embedded currency words.
type RawOffer struct {
	SellerName    string `json:"seller_name"`
	PriceText     string `json:"price_text"`
	Link          string `json:"link,omitempty"`
	ConditionText string `json:"condition_text,omitempty"`
	WarrantyText  string `json:"warranty_text,omitempty"`
}

// NormalizedOffer is a raw offer with canonical typed fields. Amount is
// always >= 0 and Currency is a recognized 3-letter code or "unknown".
type NormalizedOffer struct {
	SellerName string `json:"seller_name,omitempty"`
	SellerKey  string `json:"seller_key"`
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	Link       string `json:"link,omitempty"`
	Condition  string `json:"condition,omitempty"`
}

// SkippedCandidate records a candidate whose drill-down permanently failed.
// Skips are metadata on the offer set, never fatal to the part.
type SkippedCandidate struct {
	ProductRef string `json:"product_ref"`
	Reason     string `json:"reason"`
}

// PriceStats holds derived statistics over an offer set. Applicable is
// false when the set is empty, in which case the numeric fields carry no
// meaning.
type PriceStats struct {
	Applicable      bool    `json:"applicable"`
	Min             int64   `json:"min,omitempty"`
	Max             int64   `json:"max,omitempty"`
	Median          float64 `json:"median,omitempty"`
	Mean            float64 `json:"mean,omitempty"`
	DistinctSellers int     `json:"distinct_sellers"`
}

// OfferSet is the deduplicated, normalized result for one part request.
// Once handed to the scheduler it is read-only.
type OfferSet struct {
	PartID            string             `json:"part_id"`
	Offers            []NormalizedOffer  `json:"offers"`
	Stats             PriceStats         `json:"stats"`
	SkippedCandidates []SkippedCandidate `json:"skipped_candidates,omitempty"`
}

// ComputeStats derives price statistics over the given offers. An empty
// input yields Applicable=false rather than zero-valued statistics.
func ComputeStats(offers []NormalizedOffer) PriceStats {
	if len(offers) == 0 {
		return PriceStats{}
	}

	amounts := make([]int64, 0, len(offers))
	sellers := make(map[string]struct{}, len(offers))
	var sum int64
	for _, o := range offers {
		amounts = append(amounts, o.Amount)
		sellers[o.SellerKey] = struct{}{}
		sum += o.Amount
	}

	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	n := len(amounts)
	var median float64
	if n%2 == 1 {
		median = float64(amounts[n/2])
	} else {
		median = float64(amounts[n/2-1]+amounts[n/2]) / 2
	}

	return PriceStats{
		Applicable:      true,
		Min:             amounts[0],
		Max:             amounts[n-1],
		Median:          median,
		Mean:            float64(sum) / float64(n),
		DistinctSellers: len(sellers),
	}
}
