package query

import (
	"strings"
	"unicode"
)

// OrSeparator joins keyword terms in the derived full-text expression.
const OrSeparator = " | "

// monetaryTerms widen the keyword path for monetary questions.
var monetaryTerms = []string{"donation", "donated", "million", "dollars", "contribution", "charitable", "total", "amount"}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "all": {},
	"any": {}, "can": {}, "had": {}, "her": {}, "was": {}, "one": {}, "our": {}, "out": {},
	"has": {}, "have": {}, "his": {}, "how": {}, "its": {}, "may": {}, "new": {}, "now": {},
	"see": {}, "two": {}, "who": {}, "did": {}, "does": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "why": {}, "with": {}, "this": {}, "that": {}, "these": {}, "those": {},
	"from": {}, "they": {}, "them": {}, "their": {}, "there": {}, "been": {}, "were": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "about": {}, "into": {}, "than": {},
	"then": {}, "some": {}, "much": {}, "many": {}, "tell": {}, "please": {}, "also": {},
	"your": {}, "only": {}, "other": {}, "over": {}, "such": {}, "very": {}, "just": {},
}

// Entities groups the fixed-pattern extractions from a question.
type Entities struct {
	Dates     []string
	People    []string
	Companies []string
	Events    []string
	Years     []string
}

// Info is the preprocessed form of a question.
type Info struct {
	Original string
	// Normalized is the trimmed lowercase question.
	Normalized string
	Entities   Entities
	// Keywords are the surviving terms after punctuation and stop-word removal.
	Keywords []string
	// KeywordExpression is Keywords joined by OrSeparator, or the original question
	// when no keyword survives.
	KeywordExpression string
	Monetary          bool
}

// Preprocessor classifies questions and extracts entities with a rule table.
type Preprocessor struct {
	rules RuleTable
}

// NewPreprocessor creates a preprocessor. A nil table means DefaultRules.
func NewPreprocessor(rules RuleTable) *Preprocessor {
	if rules == nil {
		rules = DefaultRules
	}
	return &Preprocessor{rules: rules}
}

// Preprocess runs the default preprocessor.
func Preprocess(question string) Info {
	return NewPreprocessor(nil).Preprocess(question)
}

// Preprocess derives Info from a raw question. It has no side effects.
func (p *Preprocessor) Preprocess(question string) Info {
	raw := strings.TrimSpace(question)
	normalized := strings.ToLower(raw)

	companies := p.rules.Match(CategoryCompany, raw, normalized)
	info := Info{
		Original:   question,
		Normalized: normalized,
		Entities: Entities{
			Dates:     p.rules.Match(CategoryDate, raw, normalized),
			People:    filterPeople(p.rules.Match(CategoryPerson, raw, normalized), companies),
			Companies: companies,
			Events:    p.rules.Match(CategoryEvent, raw, normalized),
			Years:     p.rules.Match(CategoryYear, raw, normalized),
		},
		Monetary: p.rules.Matches(CategoryMonetary, raw, normalized),
	}

	info.Keywords = ExtractKeywords(normalized)
	if len(info.Keywords) > 0 {
		info.KeywordExpression = strings.Join(info.Keywords, OrSeparator)
	} else {
		info.KeywordExpression = question
	}
	return info
}

// SearchExpression returns the keyword expression for the full-text path,
// widened with monetary domain terms when the question is monetary.
func (i Info) SearchExpression() string {
	if !i.Monetary || len(i.Keywords) == 0 {
		return i.KeywordExpression
	}
	terms := append([]string(nil), i.Keywords...)
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		seen[t] = struct{}{}
	}
	for _, t := range monetaryTerms {
		if _, ok := seen[t]; ok {
			continue
		}
		terms = append(terms, t)
	}
	return strings.Join(terms, OrSeparator)
}

// ExtractKeywords strips punctuation, drops stop words and tokens of two runes or fewer,
// and de-duplicates the rest preserving order.
func ExtractKeywords(text string) []string {
	tokens := Tokenize(text)
	var out []string
	seen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// Tokenize lowercases text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// SplitExpression splits a keyword expression built with OrSeparator back into terms.
// An expression without separators is tokenized instead.
func SplitExpression(expr string) []string {
	if !strings.Contains(expr, "|") {
		return ExtractKeywords(expr)
	}
	var out []string
	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeEntity(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.Trim(s, " .,"))), " ")
}

func filterPeople(people, companies []string) []string {
	if len(people) == 0 {
		return nil
	}
	out := people[:0:0]
	for _, p := range people {
		first := strings.Fields(p)[0]
		if _, ok := questionWords[first]; ok {
			continue
		}
		isCompany := false
		for _, c := range companies {
			if strings.Contains(c, p) {
				isCompany = true
				break
			}
		}
		if !isCompany {
			out = append(out, p)
		}
	}
	return out
}
