package query

import "regexp"

// Category names an entity group or a classification produced by the rule table.
type Category string

const (
	CategoryDate     Category = "date"
	CategoryPerson   Category = "person"
	CategoryCompany  Category = "company"
	CategoryEvent    Category = "event"
	CategoryYear     Category = "year"
	CategoryMonetary Category = "monetary"
)

// Rule maps a pattern to the category it detects.
type Rule struct {
	Category Category
	Pattern  *regexp.Regexp
	// CaseSensitive rules run against the raw question instead of its lowercase form.
	CaseSensitive bool
}

// RuleTable is an ordered list of detection rules.
type RuleTable []Rule

// Match returns every distinct match for category c in order of first appearance.
func (t RuleTable) Match(c Category, raw, normalized string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, rule := range t {
		if rule.Category != c {
			continue
		}
		input := normalized
		if rule.CaseSensitive {
			input = raw
		}
		for _, m := range rule.Pattern.FindAllString(input, -1) {
			key := normalizeEntity(m)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, key)
		}
	}
	return out
}

// Matches reports whether any rule of category c matches.
func (t RuleTable) Matches(c Category, raw, normalized string) bool {
	for _, rule := range t {
		if rule.Category != c {
			continue
		}
		input := normalized
		if rule.CaseSensitive {
			input = raw
		}
		if rule.Pattern.MatchString(input) {
			return true
		}
	}
	return false
}

const monthNames = `(?:january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|sept|oct|nov|dec)`

// DefaultRules is the built-in rule table used by Preprocess.
var DefaultRules = RuleTable{
	// dates
	{Category: CategoryDate, Pattern: regexp.MustCompile(`\b` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b`)},
	{Category: CategoryDate, Pattern: regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`)},
	{Category: CategoryDate, Pattern: regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)},
	{Category: CategoryDate, Pattern: regexp.MustCompile(`\b` + monthNames + `\s+\d{4}\b`)},

	// people: honorifics, then title-case name pairs on the raw text
	{Category: CategoryPerson, Pattern: regexp.MustCompile(`\b(?:mr|mrs|ms|dr|prof)\.?\s+[a-z][a-z'-]+(?:\s+[a-z][a-z'-]+)?`)},
	{Category: CategoryPerson, Pattern: regexp.MustCompile(`\b[A-Z][a-z]+\s+(?:[A-Z]\.\s+)?[A-Z][a-z]{2,}\b`), CaseSensitive: true},

	// companies
	{Category: CategoryCompany, Pattern: regexp.MustCompile(`\b[A-Z][\w&]*(?:\s+[A-Z][\w&]*)*\s+(?:Inc|Corp|Corporation|Company|Companies|Foundation|Group|LLC|Ltd|Holdings)\b\.?`), CaseSensitive: true},
	{Category: CategoryCompany, Pattern: regexp.MustCompile(`\b(?:travelers|the travelers companies|travelers foundation)\b`)},

	// events
	{Category: CategoryEvent, Pattern: regexp.MustCompile(`\b(?:meeting|conference|tournament|championship|merger|acquisition|launch|announcement|summit|earnings call|annual report|sponsorship|repurchase)s?\b`)},

	// years
	{Category: CategoryYear, Pattern: regexp.MustCompile(`\b(?:19|20)\d{2}\b`)},

	// monetary classification
	{Category: CategoryMonetary, Pattern: regexp.MustCompile(`[$€£]`)},
	{Category: CategoryMonetary, Pattern: regexp.MustCompile(`\bhow\s+(?:much|many)\b`)},
	{Category: CategoryMonetary, Pattern: regexp.MustCompile(`\btotal\b`)},
	{Category: CategoryMonetary, Pattern: regexp.MustCompile(`\bdonat(?:e|ed|es|ing|ion|ions)\b`)},
	{Category: CategoryMonetary, Pattern: regexp.MustCompile(`\b(?:amount|cost|costs|spend|spent|funding|budget|revenue|dollars?|million|billion|contribut(?:e|ed|ion|ions))\b`)},
}

// questionWords guards the title-case person rule against sentence-initial pairs.
var questionWords = map[string]struct{}{
	"what": {}, "who": {}, "when": {}, "where": {}, "why": {}, "how": {}, "which": {},
	"did": {}, "does": {}, "do": {}, "is": {}, "are": {}, "was": {}, "were": {}, "can": {},
	"tell": {}, "show": {}, "list": {}, "and": {}, "the": {},
}
