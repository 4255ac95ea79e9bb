package ranking

import (
	"regexp"
	"strings"

	"docqa/internal/knowledge"
	"docqa/internal/query"
)

const (
	charityBoost    = 1.5
	longevityBoost  = 1.3
	exactMatchBoost = 1.2
	dateBoost       = 1.3
	personBoost     = 1.2
	compositeBoost  = 1.4
)

var (
	// amountPatterns detect currency amounts and large quantities in passage text.
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`[$€£]\s?\d[\d,]*(?:\.\d+)?`),
		regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\s?(?:million|billion|thousand)\b`),
		regexp.MustCompile(`\b\d[\d,]*(?:\.\d+)?\s?(?:dollars|usd)\b`),
	}
	charityPattern   = regexp.MustCompile(`\b(?:charit(?:y|able)|donat(?:e|ed|ion|ions)|philanthrop\w*|grants?|contribut(?:ed|ion|ions))\b`)
	longevityPattern = regexp.MustCompile(`\b(?:decades?|over the (?:past|last) \d+ years|since (?:19|20)\d{2}|\d+ years|years of)\b`)
	totalPattern     = regexp.MustCompile(`\btotal\b`)
	trailingPunct    = " ?!.,;:"
)

// Boost returns a multiplier for one candidate. A multiplier of 1 leaves the score unchanged.
type Boost struct {
	Name  string
	Apply func(text string, q query.Info, r knowledge.RankedPassage) float64
}

// DefaultBoosts is the fixed boost chain. Its order only matters for debugging output.
var DefaultBoosts = []Boost{
	{Name: "amount", Apply: amountMultiplier},
	{Name: "charity", Apply: charityMultiplier},
	{Name: "longevity", Apply: longevityMultiplier},
	{Name: "exact_question", Apply: exactQuestionMultiplier},
	{Name: "date", Apply: dateMultiplier},
	{Name: "person", Apply: personMultiplier},
	{Name: "composite", Apply: compositeMultiplier},
}

// CountAmounts returns the number of currency or amount matches in text.
func CountAmounts(text string) int {
	n := 0
	for _, p := range amountPatterns {
		n += len(p.FindAllStringIndex(text, -1))
	}
	return n
}

func amountMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	if !q.Monetary {
		return 1
	}
	n := CountAmounts(text)
	if n == 0 {
		return 1
	}
	return 2.0 + float64(n)
}

func charityMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	if !q.Monetary || CountAmounts(text) == 0 || !charityPattern.MatchString(text) {
		return 1
	}
	return charityBoost
}

func longevityMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	if !q.Monetary || !totalPattern.MatchString(q.Normalized) || !longevityPattern.MatchString(text) {
		return 1
	}
	return longevityBoost
}

func exactQuestionMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	needle := strings.TrimRight(q.Normalized, trailingPunct)
	if needle == "" || !strings.Contains(text, needle) {
		return 1
	}
	return exactMatchBoost
}

func dateMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	return perEntity(text, q.Entities.Dates, dateBoost)
}

func personMultiplier(text string, q query.Info, _ knowledge.RankedPassage) float64 {
	return perEntity(text, q.Entities.People, personBoost)
}

func compositeMultiplier(_ string, _ query.Info, r knowledge.RankedPassage) float64 {
	if len(r.Sources()) > 1 {
		return compositeBoost
	}
	return 1
}

func perEntity(text string, entities []string, factor float64) float64 {
	m := 1.0
	for _, e := range entities {
		if e != "" && strings.Contains(text, e) {
			m *= factor
		}
	}
	return m
}
