package pipeline

import (
	"strings"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/textutil"
)

// unknownSeller is the canonical key for offers whose seller name folds
// to nothing.
const unknownSeller = "unknown_seller"

var conditionTokens = []struct {
	label  string
	tokens []string
}{
	{"new", []string{"نو", "new", "اورجینال", "original"}},
	{"used", []string{"کارکرده", "دست دوم", "استوک", "used", "stock"}},
	{"refurbished", []string{"بازسازی", "تعمیری", "refurbished"}},
}

// normalizeOffers folds raw scraped offers into canonical form. Offers
// without an extractable price are dropped; rial amounts are folded to
// toman so the same price dedupes across currencies.
func normalizeOffers(raws []domain.RawOffer) []domain.NormalizedOffer {
	normalized := make([]domain.NormalizedOffer, 0, len(raws))
	for _, raw := range raws {
		offer, ok := normalizeOffer(raw)
		if !ok {
			continue
		}
		normalized = append(normalized, offer)
	}
	return normalized
}

func normalizeOffer(raw domain.RawOffer) (domain.NormalizedOffer, bool) {
	amount, ok := textutil.ExtractAmount(raw.PriceText)
	if !ok {
		return domain.NormalizedOffer{}, false
	}

	currency := textutil.DetectCurrency(raw.PriceText)
	switch currency {
	case textutil.CurrencyRial:
		amount = textutil.RialToToman(amount)
		currency = textutil.CurrencyToman
	case "":
		// Torob lists bare amounts in toman.
		currency = textutil.CurrencyToman
	}

	sellerKey := textutil.SellerKey(raw.SellerName)
	if sellerKey == "" {
		sellerKey = unknownSeller
	}

	return domain.NormalizedOffer{
		SellerName: strings.TrimSpace(raw.SellerName),
		SellerKey:  sellerKey,
		Amount:     amount,
		Currency:   currency,
		Link:       raw.Link,
		Condition:  classifyCondition(raw.ConditionText),
	}, true
}

// classifyCondition maps free-form condition text to a small label set.
// Unrecognized text yields an empty label.
func classifyCondition(text string) string {
	folded := textutil.NormalizeText(text)
	if folded == "" {
		return ""
	}
	for _, group := range conditionTokens {
		for _, token := range group.tokens {
			if strings.Contains(folded, token) {
				return group.label
			}
		}
	}
	return ""
}
