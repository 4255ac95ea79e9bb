package ranking

import (
	"sort"
	"strings"

	"docqa/internal/knowledge"
	"docqa/internal/query"
)

// MaxResults is the number of passages kept after the final re-sort.
const MaxResults = 5

// Ranker merges, boosts and orders permission-filtered candidates.
type Ranker struct {
	boosts []Boost
}

// NewRanker creates a ranker with the given boost chain. A nil chain means DefaultBoosts.
func NewRanker(boosts []Boost) *Ranker {
	if boosts == nil {
		boosts = DefaultBoosts
	}
	return &Ranker{boosts: boosts}
}

// Rank runs the default ranker.
func Rank(candidates []knowledge.Passage, q query.Info) []knowledge.RankedPassage {
	return NewRanker(nil).Rank(candidates, q)
}

// Rank merges candidates by identifier, applies every boost and sorts by final score.
// The monetary boosts are driven by q.Monetary.
func (r *Ranker) Rank(candidates []knowledge.Passage, q query.Info) []knowledge.RankedPassage {
	merged := Merge(candidates)
	for i := range merged {
		merged[i].FinalScore = r.score(merged[i], q)
	}
	Sort(merged)
	return merged
}

func (r *Ranker) score(p knowledge.RankedPassage, q query.Info) float64 {
	base := p.Score
	if base <= 0 {
		return base
	}
	text := strings.ToLower(p.Text)
	multiplier := 1.0
	for _, b := range r.boosts {
		multiplier *= b.Apply(text, q, p)
	}
	return base * multiplier
}

// Merge collapses candidates sharing an identifier, in order of first appearance.
// The merged score is the maximum contributing score and provenance tags are joined with "+".
func Merge(candidates []knowledge.Passage) []knowledge.RankedPassage {
	out := make([]knowledge.RankedPassage, 0, len(candidates))
	index := make(map[string]int, len(candidates))
	for _, c := range candidates {
		i, ok := index[c.ID]
		if !ok {
			index[c.ID] = len(out)
			out = append(out, knowledge.RankedPassage{Passage: c, FinalScore: c.Score, SearchType: c.Source})
			continue
		}
		m := &out[i]
		if c.Score > m.Score {
			m.Score = c.Score
			m.FinalScore = c.Score
		}
		m.SearchType = joinSource(m.SearchType, c.Source)
	}
	return out
}

func joinSource(current, next string) string {
	if next == "" {
		return current
	}
	if current == "" {
		return next
	}
	for _, s := range strings.Split(current, "+") {
		if s == next {
			return current
		}
	}
	return current + "+" + next
}

// Sort orders ranked passages by final score, descending. Ties keep their relative order.
func Sort(ranked []knowledge.RankedPassage) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
}

// Truncate returns at most n passages.
func Truncate(ranked []knowledge.RankedPassage, n int) []knowledge.RankedPassage {
	if n < 0 || len(ranked) <= n {
		return ranked
	}
	return ranked[:n]
}
