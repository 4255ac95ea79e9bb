package session

import "strings"

// aggregateWords mark a follow-up asking for a sum over earlier answers.
var aggregateWords = []string{"total", "overall"}

// Expansion rewrites an aggregate follow-up into a domain search string when the
// conversation has been about one of its topics.
type Expansion struct {
	// Triggers are question words that activate the rule.
	Triggers []string
	// Topics are keyword prefixes that must appear among the session's topic keywords.
	Topics []string
	// Expansion replaces the question text.
	Expansion string
}

// DefaultExpansions is the built-in expansion table, evaluated in order.
var DefaultExpansions = []Expansion{
	{
		Triggers:  aggregateWords,
		Topics:    []string{"charit", "donat", "philanthrop", "giving", "foundation", "contribut"},
		Expansion: "charitable donations total decade contributions",
	},
	{
		Triggers:  aggregateWords,
		Topics:    []string{"sponsor", "golf", "tournament"},
		Expansion: "sponsorship total years tournament",
	},
	{
		Triggers:  aggregateWords,
		Topics:    []string{"repurchase", "buyback", "dividend", "share"},
		Expansion: "share repurchase dividend total",
	},
}

func (e Expansion) triggered(words []string) bool {
	return containsAny(words, e.Triggers)
}

func (e Expansion) topical(keywords []string) bool {
	for _, kw := range keywords {
		for _, t := range e.Topics {
			if strings.HasPrefix(kw, t) {
				return true
			}
		}
	}
	return false
}

func containsAny(words, targets []string) bool {
	for _, w := range words {
		for _, t := range targets {
			if w == t {
				return true
			}
		}
	}
	return false
}
