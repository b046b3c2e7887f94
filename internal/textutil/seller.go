package textutil

import "strings"

// sellerNoiseWords are storefront words that carry no identity: the same
// seller appears both with and without them across listing pages.
var sellerNoiseWords = map[string]struct{}{
	"فروشگاه": {},
	"شرکت":    {},
	"گروه":    {},
	"مجموعه":  {},
	"store":   {},
	"shop":    {},
	"group":   {},
	"co":      {},
	"inc":     {},
	"ltd":     {},
}

// sellerPunctuation is replaced with spaces before tokenization so
// "Auto-Parts Co." and "auto parts co" produce the same key.
var sellerPunctuation = strings.NewReplacer(
	".", " ", ",", " ", "،", " ", "-", " ", "_", " ",
	"(", " ", ")", " ", "«", " ", "»", " ", "\"", " ", "'", " ",
)

// SellerKey canonicalizes a seller display name into a stable key so that
// superficially different strings for the same seller unify. Returns the
// empty string for names with no identifying content.
func SellerKey(name string) string {
	if name == "" {
		return ""
	}

	normalized := NormalizeText(sellerPunctuation.Replace(name))

	words := strings.Fields(normalized)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if _, noise := sellerNoiseWords[w]; noise {
			continue
		}
		kept = append(kept, w)
	}

	// A name made entirely of noise words still has to dedupe against
	// itself, so fall back to the normalized form.
	if len(kept) == 0 {
		return normalized
	}
	return strings.Join(kept, " ")
}
