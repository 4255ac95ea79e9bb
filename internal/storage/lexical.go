package storage

import (
	"docqa/internal/query"
)

const (
	lexicalLengthScale = 10.0
	maxLexicalScore    = 1.0
	minLexicalScore    = 0.05
	headingMatchBonus  = 0.1
)

// lexicalScore rates a full-text hit against the search terms. The value stays in
// [minLexicalScore, maxLexicalScore] so that every index match keeps a positive score.
func lexicalScore(terms []string, text, headingPath string) float64 {
	if len(terms) == 0 {
		return minLexicalScore
	}

	textTokens := query.Tokenize(text)
	if len(textTokens) == 0 {
		return minLexicalScore
	}

	freq := make(map[string]int, len(textTokens))
	for _, tok := range textTokens {
		freq[tok]++
	}

	var rawMatches int
	for _, term := range terms {
		for _, tok := range query.Tokenize(term) {
			rawMatches += freq[tok]
		}
	}

	score := (float64(rawMatches) / (1 + float64(len(textTokens)))) * lexicalLengthScale

	if headingPath != "" {
		heading := make(map[string]struct{})
		for _, tok := range query.Tokenize(headingPath) {
			heading[tok] = struct{}{}
		}
		for _, term := range terms {
			if _, ok := heading[term]; ok {
				score += headingMatchBonus
			}
		}
	}

	return min(max(score, minLexicalScore), maxLexicalScore)
}
