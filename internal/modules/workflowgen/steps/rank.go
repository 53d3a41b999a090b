package steps

import (
	"sort"
	"strings"
)

// Overlap weights per matching category.
const (
	WeightIndustry = 3.0
	WeightDomain   = 2.0
	WeightChannel  = 1.5
	WeightTrigger  = 1.0
)

const (
	DefaultTopK = 3
	// CandidatePoolFactor is how many raw hits per final slot are fetched
	// before reranking.
	CandidatePoolFactor = 3
)

// ScoreMetadata is the weighted overlap between query tags and an example's
// stored tags. A nil example scores 0.
func ScoreMetadata(query InferredMetadata, example *InferredMetadata) float64 {
	if example == nil {
		return 0
	}
	score := WeightIndustry*float64(overlap(query.Industries, example.Industries)) +
		WeightDomain*float64(overlap(query.Domains, example.Domains)) +
		WeightChannel*float64(overlap(query.Channels, example.Channels))
	if query.Trigger != "" && strings.EqualFold(query.Trigger, example.Trigger) {
		score += WeightTrigger
	}
	return score
}

func overlap(query, example []string) int {
	if len(query) == 0 || len(example) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(example))
	for _, v := range example {
		set[v] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(query))
	for _, v := range query {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, ok := set[v]; ok {
			n++
		}
	}
	return n
}

// Rank reorders candidates by metadata overlap with query, keeping retrieval
// order among equal scores, and truncates to topK.
func Rank(query string, candidates []RetrievedExample, topK int) []RetrievedExample {
	if topK <= 0 || len(candidates) == 0 {
		return []RetrievedExample{}
	}
	q := Classify(query)

	type scored struct {
		ex    RetrievedExample
		score float64
	}
	items := make([]scored, len(candidates))
	for i, c := range candidates {
		items[i] = scored{ex: c, score: ScoreMetadata(q, c.Metadata)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	if topK > len(items) {
		topK = len(items)
	}
	out := make([]RetrievedExample, topK)
	for i := 0; i < topK; i++ {
		out[i] = items[i].ex
	}
	return out
}
