package access

import (
	"docqa/internal/knowledge"
)

// Reason explains an access decision. It is recorded for observability only.
type Reason string

const (
	ReasonAdmin             Reason = "admin"
	ReasonPublic            Reason = "public"
	ReasonAnonymous         Reason = "anonymous_non_public"
	ReasonDepartmentMatch   Reason = "department_match"
	ReasonDepartmentMissing Reason = "department_mismatch"
	ReasonManagement        Reason = "management_internal"
	ReasonFinance           Reason = "finance_internal"
	ReasonInternalDenied    Reason = "internal_denied"
	ReasonClearance         Reason = "confidential_clearance"
	ReasonNoClearance       Reason = "confidential_denied"
	ReasonUnknownLevel      Reason = "unrecognized_access_level"
)

const (
	tagManagement = "management"
	tagFinance    = "finance"

	// confidentialAccessLevel is the minimum numeric access level that unlocks confidential passages.
	confidentialAccessLevel = 3
)

// Decision is the outcome of evaluating one passage for one user.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Decide applies the visibility policy to a single passage. It never mutates p.
func Decide(p knowledge.Passage, u *User) Decision {
	level := p.AccessLevel

	if u == nil {
		if level == knowledge.AccessPublic {
			return Decision{Allowed: true, Reason: ReasonPublic}
		}
		if !level.Known() {
			return Decision{Reason: ReasonUnknownLevel}
		}
		return Decision{Reason: ReasonAnonymous}
	}

	if u.IsAdmin() {
		return Decision{Allowed: true, Reason: ReasonAdmin}
	}

	switch level {
	case knowledge.AccessPublic:
		return Decision{Allowed: true, Reason: ReasonPublic}

	case knowledge.AccessDepartmental:
		if u.Department != "" && p.HasDepartment(u.Department) {
			return Decision{Allowed: true, Reason: ReasonDepartmentMatch}
		}
		return Decision{Reason: ReasonDepartmentMissing}

	case knowledge.AccessInternal:
		if p.HasDepartment(tagManagement) && u.IsManagerOrHigher() {
			return Decision{Allowed: true, Reason: ReasonManagement}
		}
		if p.HasDepartment(tagFinance) && u.InDepartment(tagFinance) {
			return Decision{Allowed: true, Reason: ReasonFinance}
		}
		return Decision{Reason: ReasonInternalDenied}

	case knowledge.AccessConfidential:
		if u.AccessLevel >= confidentialAccessLevel {
			return Decision{Allowed: true, Reason: ReasonClearance}
		}
		return Decision{Reason: ReasonNoClearance}
	}

	return Decision{Reason: ReasonUnknownLevel}
}

// Denial records a passage that was filtered out and why.
type Denial struct {
	PassageID   string
	AccessLevel knowledge.AccessLevel
	Reason      Reason
}

// Result is the outcome of filtering a candidate set.
type Result struct {
	// Allowed preserves the input order.
	Allowed []knowledge.Passage
	Denied  []Denial
	// Anomalies lists passages denied because their access level is not recognized.
	Anomalies []Denial
}

// DeniedCount returns the number of passages removed by the filter.
func (r Result) DeniedCount() int {
	return len(r.Denied)
}

// Filter partitions candidates into allowed and denied sets for user u.
// It is pure: the same input always yields the same result and inputs are not modified.
func Filter(candidates []knowledge.Passage, u *User) Result {
	res := Result{Allowed: make([]knowledge.Passage, 0, len(candidates))}
	for _, c := range candidates {
		d := Decide(c, u)
		if d.Allowed {
			res.Allowed = append(res.Allowed, c)
			continue
		}
		denial := Denial{PassageID: c.ID, AccessLevel: c.AccessLevel, Reason: d.Reason}
		res.Denied = append(res.Denied, denial)
		if d.Reason == ReasonUnknownLevel {
			res.Anomalies = append(res.Anomalies, denial)
		}
	}
	return res
}

// FilterRanked applies the same policy to already ranked passages, preserving order.
func FilterRanked(ranked []knowledge.RankedPassage, u *User) ([]knowledge.RankedPassage, []Denial) {
	out := make([]knowledge.RankedPassage, 0, len(ranked))
	var denied []Denial
	for _, r := range ranked {
		d := Decide(r.Passage, u)
		if d.Allowed {
			out = append(out, r)
			continue
		}
		denied = append(denied, Denial{PassageID: r.ID, AccessLevel: r.AccessLevel, Reason: d.Reason})
	}
	return out, denied
}

// UniqueDenials concatenates denial lists keeping the first denial of each passage.
// A passage found by several retrieval paths is denied once per path by Filter.
func UniqueDenials(lists ...[]Denial) []Denial {
	seen := make(map[string]struct{})
	var out []Denial
	for _, list := range lists {
		for _, d := range list {
			if _, ok := seen[d.PassageID]; ok {
				continue
			}
			seen[d.PassageID] = struct{}{}
			out = append(out, d)
		}
	}
	return out
}
