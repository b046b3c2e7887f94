package relevance

import (
	"strings"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/textutil"
)

// Scorer computes a relevance score for a candidate title against a
// request query. Scores are clamped to [0, 1]; zero means irrelevant.
// Scoring is policy, not structure: swap the implementation to change
// ranking behavior without touching the filter.
type Scorer interface {
	Score(part domain.PartRequest, title string) float64
}

// Default scorer weights.
const (
	weightPartType = 0.3
	weightCarModel = 0.2
	weightSide     = 0.1
	weightTrim     = 0.1
	weightTech     = 0.1
	weightOverlap  = 0.2
)

// AttributeScorer is the default scoring policy: fixed bonuses for each
// recognized part attribute plus a token-overlap component between the
// request's name and keywords and the candidate title.
type AttributeScorer struct{}

// NewAttributeScorer creates the default scorer.
func NewAttributeScorer() *AttributeScorer {
	return &AttributeScorer{}
}

// Score implements Scorer.
func (s *AttributeScorer) Score(part domain.PartRequest, title string) float64 {
	attrs := ExtractAttributes(title)

	var score float64
	if attrs.PartType != unknownAttr {
		score += weightPartType
	}
	if attrs.CarModel != unknownAttr {
		score += weightCarModel
	}
	if attrs.Side != unknownAttr {
		score += weightSide
	}
	if attrs.Trim != unknownAttr {
		score += weightTrim
	}
	if attrs.Tech != unknownAttr {
		score += weightTech
	}

	score += weightOverlap * tokenOverlap(queryText(part), title)

	if score > 1 {
		score = 1
	}
	return score
}

// queryText joins the request fields compared against titles.
func queryText(part domain.PartRequest) string {
	return strings.TrimSpace(part.Name + " " + part.Keywords)
}

// tokenOverlap returns the fraction of query tokens present in the title,
// after normalization of both sides.
func tokenOverlap(query, title string) float64 {
	queryTokens := strings.Fields(textutil.NormalizeText(query))
	if len(queryTokens) == 0 {
		return 0
	}

	titleTokens := make(map[string]struct{})
	for _, token := range strings.Fields(textutil.NormalizeText(title)) {
		titleTokens[token] = struct{}{}
	}

	seen := make(map[string]struct{}, len(queryTokens))
	matched := 0
	for _, token := range queryTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := titleTokens[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}
