package relevance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partscout/partscout/internal/domain"
	"github.com/partscout/partscout/internal/relevance"
)

// scriptedScorer returns a fixed score per title.
type scriptedScorer struct {
	scores map[string]float64
}

func (s *scriptedScorer) Score(_ domain.PartRequest, title string) float64 {
	return s.scores[title]
}

func candidates(titles ...string) []domain.SearchCandidate {
	out := make([]domain.SearchCandidate, 0, len(titles))
	for _, title := range titles {
		out = append(out, domain.SearchCandidate{Title: title, ProductRef: title})
	}
	return out
}

func TestFilterDropsBelowMinScore(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{scores: map[string]float64{
		"high": 0.8,
		"mid":  0.4,
		"low":  0.1,
	}}
	f := relevance.NewFilter(scorer, relevance.Options{MinScore: 0.3})

	part := domain.PartRequest{Name: "چراغ جلو تیگو 8"}
	ranked := f.Apply(part, candidates("low", "mid", "high"))

	require.Len(t, ranked, 2)
	assert.Equal(t, "high", ranked[0].Title)
	assert.Equal(t, "mid", ranked[1].Title)
}

func TestFilterCapBoundsDrillDown(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{scores: map[string]float64{
		"a": 0.9, "b": 0.8, "c": 0.7, "d": 0.6, "e": 0.5,
	}}
	f := relevance.NewFilter(scorer, relevance.Options{CandidateCap: 3})

	ranked := f.Apply(domain.PartRequest{Name: "part"}, candidates("e", "d", "c", "b", "a"))

	require.Len(t, ranked, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{ranked[0].Title, ranked[1].Title, ranked[2].Title})
	for i, rc := range ranked {
		assert.Equal(t, i+1, rc.Rank)
	}
}

func TestFilterTiesKeepSearchOrder(t *testing.T) {
	t.Parallel()

	scorer := &scriptedScorer{scores: map[string]float64{
		"first": 0.5, "second": 0.5, "third": 0.5,
	}}
	f := relevance.NewFilter(scorer, relevance.Options{})

	ranked := f.Apply(domain.PartRequest{Name: "part"}, candidates("first", "second", "third"))

	require.Len(t, ranked, 3)
	assert.Equal(t, "first", ranked[0].Title)
	assert.Equal(t, "second", ranked[1].Title)
	assert.Equal(t, "third", ranked[2].Title)
}

func TestFilterSkipsNegativeCategories(t *testing.T) {
	t.Parallel()

	f := relevance.NewFilter(nil, relevance.Options{})
	part := domain.PartRequest{Name: "چراغ جلو تیگو 8", Keywords: "چراغ جلو تیگو 8"}

	input := []domain.SearchCandidate{
		{Title: "چراغ جلو تیگو 8 پرو", ProductRef: "keep"},
		{Title: "چراغ عقب تیگو 8", ProductRef: "tail"},
		{Title: "مه شکن تیگو 8", ProductRef: "fog"},
		{Title: "آینه بغل تیگو 8", ProductRef: "mirror"},
	}

	ranked := f.Apply(part, input)

	require.Len(t, ranked, 1)
	assert.Equal(t, "keep", ranked[0].ProductRef)
}

func TestFilterNegativeCategoryHintWins(t *testing.T) {
	t.Parallel()

	f := relevance.NewFilter(nil, relevance.Options{})
	input := []domain.SearchCandidate{
		{Title: "چراغ جلو تیگو 8", CategoryHint: "چراغ عقب", ProductRef: "hinted"},
	}

	ranked := f.Apply(domain.PartRequest{Name: "چراغ جلو تیگو 8"}, input)
	assert.Empty(t, ranked)
}

func TestFilterEmptyInput(t *testing.T) {
	t.Parallel()

	f := relevance.NewFilter(nil, relevance.Options{})
	ranked := f.Apply(domain.PartRequest{Name: "part"}, nil)
	assert.Empty(t, ranked)
}
