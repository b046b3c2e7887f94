// Package relevance scores and filters raw search candidates against a
// part request. Scoring policy is pluggable; the default scorer combines
// token overlap with fixed bonuses for recognized part attributes.
package relevance

import (
	"strings"

	"github.com/partscout/partscout/internal/textutil"
)

// Negative categories. A candidate whose title or category hint matches an
// excluded category is zeroed out regardless of token overlap: a search for
// a headlamp routinely surfaces tail lights, fog lamps and mirrors.
const (
	CategoryRearLights    = "rear_lights"
	CategoryFogLights     = "fog_lights"
	CategoryDRLLights     = "drl_lights"
	CategoryIndicators    = "indicators"
	CategorySideMirrors   = "side_mirrors"
	CategoryInteriorParts = "interior_parts"
)

// DefaultExcludedCategories is the full negative rule set.
var DefaultExcludedCategories = []string{
	CategoryRearLights,
	CategoryFogLights,
	CategoryDRLLights,
	CategoryIndicators,
	CategorySideMirrors,
	CategoryInteriorParts,
}

// negativePatterns holds per-category marketplace title terms, Persian and
// English. Terms are compared after textutil.NormalizeText on both sides.
var negativePatterns = map[string][]string{
	CategoryRearLights: {
		"چراغ عقب", "چراغ پشت", "چراغ ترمز",
		"tail light", "taillight", "rear light", "brake light", "stop light",
	},
	CategoryFogLights: {
		"مه‌شکن", "مه شکن", "چراغ مه",
		"fog light", "foglamp", "fog lamp",
	},
	CategoryDRLLights: {
		"چراغ روز", "چراغ روشنایی",
		"daylight", "drl", "day running", "led strip",
	},
	CategoryIndicators: {
		"راهنما", "چراغ چشمک زن", "چراغ هشدار",
		"indicator", "turn signal", "blinker",
	},
	CategorySideMirrors: {
		"آینه", "آیینه",
		"mirror", "side mirror", "wing mirror",
	},
	CategoryInteriorParts: {
		"داخل", "کابین", "صندلی", "داشبورد", "کنسول",
		"interior", "cabin", "seat", "dashboard", "console",
	},
}

// vocabulary is an ordered list of attribute keys and their marketplace
// terms. Order matters: more specific entries come first so "پرو مکس" is
// classified PRO_MAX, not PRO.
type vocabulary []struct {
	key   string
	terms []string
}

var (
	partTypeTerms = vocabulary{
		{"BUMPER", []string{"سپر", "بامپر", "bumper"}},
		{"HEADLAMP", []string{"چراغ جلو", "چراغ اصلی", "headlight", "headlamp"}},
		{"FENDER", []string{"گلگیر", "فندر", "fender", "wing"}},
		{"HOOD", []string{"کاپوت", "hood", "bonnet"}},
		{"GRILLE", []string{"جلوپنجره", "جلو پنجره", "گریل", "grille"}},
	}

	carModelTerms = vocabulary{
		{"TIGGO8", []string{"تیگو 8", "tiggo 8", "tiggo8", "tigo 8"}},
		{"TIGGO7", []string{"تیگو 7", "tiggo 7", "tiggo7", "tigo 7"}},
		{"TIGGO5", []string{"تیگو 5", "tiggo 5", "tiggo5", "tigo 5"}},
		{"ARRIZO6", []string{"آریزو 6", "arrizo 6", "arrizo6"}},
		{"ARRIZO5", []string{"آریزو 5", "arrizo 5", "arrizo5"}},
	}

	sideTerms = vocabulary{
		{"LEFT", []string{"چپ", "left", "lh"}},
		{"RIGHT", []string{"راست", "right", "rh"}},
		{"FRONT", []string{"جلو", "front"}},
	}

	trimTerms = vocabulary{
		{"PRO_MAX", []string{"پرو مکس", "پروماکس", "pro max", "promax"}},
		{"PRO", []string{"پرو", "pro"}},
		{"CLASSIC", []string{"کلاسیک", "classic"}},
		{"EPLUS", []string{"ای پلاس", "e+", "eplus", "e plus"}},
	}

	techTerms = vocabulary{
		{"LED", []string{"ال ای دی", "led"}},
		{"HALOGEN", []string{"هالوژن", "halogen"}},
		{"MATRIX", []string{"matrix", "مکس"}},
		{"XENON", []string{"زنون", "کسنون", "xenon"}},
	}
)

// unknownAttr marks an attribute that could not be extracted.
const unknownAttr = "UNKNOWN"

// matchTerm reports whether the normalized text contains the term. Short
// terms (lh, rh, e+) only match whole tokens so they do not fire inside
// unrelated words.
func matchTerm(normalizedText, term string) bool {
	normalizedTerm := textutil.NormalizeText(term)
	if len([]rune(normalizedTerm)) > 2 {
		return strings.Contains(normalizedText, normalizedTerm)
	}
	for _, token := range strings.Fields(normalizedText) {
		if token == normalizedTerm {
			return true
		}
	}
	return false
}

// extractFeature returns the first vocabulary key whose terms match.
func extractFeature(normalizedText string, vocab vocabulary) string {
	for _, entry := range vocab {
		for _, term := range entry.terms {
			if matchTerm(normalizedText, term) {
				return entry.key
			}
		}
	}
	return unknownAttr
}

// Attributes holds the part classification extracted from a title.
type Attributes struct {
	CarModel string
	PartType string
	Side     string
	Trim     string
	Tech     string
}

// ExtractAttributes classifies a candidate title.
func ExtractAttributes(title string) Attributes {
	normalized := textutil.NormalizeText(title)
	return Attributes{
		CarModel: extractFeature(normalized, carModelTerms),
		PartType: extractFeature(normalized, partTypeTerms),
		Side:     extractFeature(normalized, sideTerms),
		Trim:     extractFeature(normalized, trimTerms),
		Tech:     extractFeature(normalized, techTerms),
	}
}

// PartKey renders the attributes as a canonical part key.
func (a Attributes) PartKey() string {
	return strings.Join([]string{"BODY", a.PartType, a.Side, a.Tech, a.Trim}, ":")
}

// matchedNegativeCategory returns the first excluded category the text
// matches, or the empty string.
func matchedNegativeCategory(normalizedText string, excluded []string) string {
	for _, category := range excluded {
		for _, term := range negativePatterns[category] {
			if matchTerm(normalizedText, term) {
				return category
			}
		}
	}
	return ""
}
