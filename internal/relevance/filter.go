package relevance

import (
	"sort"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/textutil"
)

// Options configures a Filter.
type Options struct {
	// MinScore is the minimum relevance score a candidate must reach.
	MinScore float64
	// CandidateCap bounds how many ranked candidates survive; it is the
	// drill-down budget. Zero or negative means unbounded.
	CandidateCap int
	// ExcludedCategories is the negative rule set. Nil applies
	// DefaultExcludedCategories; an empty non-nil slice disables
	// negative filtering.
	ExcludedCategories []string
}

// Filter ranks search candidates for a part request and drops the
// irrelevant ones.
type Filter struct {
	scorer   Scorer
	minScore float64
	cap      int
	excluded []string
}

// NewFilter creates a filter with the given scorer. A nil scorer gets the
// default AttributeScorer.
func NewFilter(scorer Scorer, opts Options) *Filter {
	if scorer == nil {
		scorer = NewAttributeScorer()
	}
	excluded := opts.ExcludedCategories
	if excluded == nil {
		excluded = DefaultExcludedCategories
	}
	return &Filter{
		scorer:   scorer,
		minScore: opts.MinScore,
		cap:      opts.CandidateCap,
		excluded: excluded,
	}
}

// Apply scores and ranks candidates. The result is ordered by descending
// score with ties preserving original search order, never contains a
// candidate below MinScore, and never exceeds CandidateCap. An empty
// result is valid and means no relevant matches.
func (f *Filter) Apply(part domain.PartRequest, candidates []domain.SearchCandidate) []domain.RankedCandidate {
	ranked := make([]domain.RankedCandidate, 0, len(candidates))

	for _, candidate := range candidates {
		if f.isNegative(candidate) {
			continue
		}

		score := f.scorer.Score(part, candidate.Title)
		if score < f.minScore {
			continue
		}

		ranked = append(ranked, domain.RankedCandidate{
			SearchCandidate: candidate,
			Score:           score,
			PartKey:         ExtractAttributes(candidate.Title).PartKey(),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if f.cap > 0 && len(ranked) > f.cap {
		ranked = ranked[:f.cap]
	}

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// isNegative reports whether the candidate matches an excluded category,
// checking the coarse category hint first and then the title.
func (f *Filter) isNegative(candidate domain.SearchCandidate) bool {
	if candidate.CategoryHint != "" {
		hint := textutil.NormalizeText(candidate.CategoryHint)
		if matchedNegativeCategory(hint, f.excluded) != "" {
			return true
		}
	}
	title := textutil.NormalizeText(candidate.Title)
	return matchedNegativeCategory(title, f.excluded) != ""
}
