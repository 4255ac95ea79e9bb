package knowledge

import "strings"

// AccessLevel is the visibility tier declared on a passage at ingestion time.
type AccessLevel string

const (
	AccessPublic       AccessLevel = "public"
	AccessDepartmental AccessLevel = "departmental"
	AccessInternal     AccessLevel = "internal"
	AccessConfidential AccessLevel = "confidential"
)

// ParseAccessLevel normalizes a stored access level string.
// Unknown values are returned as-is so that the access filter can fail closed on them.
func ParseAccessLevel(s string) AccessLevel {
	return AccessLevel(strings.ToLower(strings.TrimSpace(s)))
}

// Known reports whether the level is one of the four recognized tiers.
func (l AccessLevel) Known() bool {
	switch l {
	case AccessPublic, AccessDepartmental, AccessInternal, AccessConfidential:
		return true
	}
	return false
}

// Provenance tags recorded on candidates and ranked passages.
const (
	SourceVector          = "vector"
	SourceKeyword         = "keyword"
	SourcePreviousContext = "previous_context"
)

// Passage is a retrievable unit of ingested document text.
// A passage returned by a store carries the score of exactly one retrieval path.
type Passage struct {
	ID          string
	Text        string
	HeadingPath string
	AccessLevel AccessLevel
	Departments []string
	Score       float64
	// Source is the retrieval path that produced this copy of the passage.
	Source string
}

// HasDepartment reports whether the passage is tagged with dept (case-insensitive).
func (p Passage) HasDepartment(dept string) bool {
	dept = strings.TrimSpace(dept)
	if dept == "" {
		return false
	}
	for _, d := range p.Departments {
		if strings.EqualFold(strings.TrimSpace(d), dept) {
			return true
		}
	}
	return false
}

// NormalizeDepartments lowercases, trims and de-duplicates department tags, preserving order.
func NormalizeDepartments(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// RankedPassage is a passage with its derived ranking score and provenance.
type RankedPassage struct {
	Passage
	// FinalScore starts at the merged retrieval score and only moves up through boosts,
	// except for carried-over context which is discounted.
	FinalScore float64
	// SearchType is the provenance tag, joined with "+" when several paths matched.
	SearchType string
}

// Sources splits the composite search type into its individual paths.
func (r RankedPassage) Sources() []string {
	if r.SearchType == "" {
		return nil
	}
	return strings.Split(r.SearchType, "+")
}
