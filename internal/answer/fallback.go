package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"docqa/internal/access"
	"docqa/internal/knowledge"
)

const (
	// ModelExtractiveFallback marks answers built locally after a generation failure.
	ModelExtractiveFallback = "extractive-fallback"

	// ModelPermissionNotice marks answers explaining that every candidate was withheld.
	ModelPermissionNotice = "permission-notice"

	extractiveSentences = 2
	extractiveMaxLength = 500
	extractivePrefix    = "Based on the available documents: "
)

// Extractive builds a degraded answer from the top-ranked passage text.
// steps carries over the processing steps of the failed generation.
func Extractive(passages []knowledge.RankedPassage, steps []string) Generation {
	out := Generation{
		Model:           ModelExtractiveFallback,
		Degraded:        true,
		ProcessingSteps: append(append([]string(nil), steps...), "Using extractive fallback answer"),
	}
	if len(passages) == 0 {
		out.Answer = NoContextAnswer
		return out
	}
	out.Answer = extractivePrefix + leadingSentences(passages[0].Text, extractiveSentences, extractiveMaxLength)
	return out
}

// leadingSentences returns up to n sentences of text, cut at maxLen runes.
func leadingSentences(text string, n, maxLen int) string {
	text = strings.Join(strings.Fields(text), " ")
	end := len(text)
	count := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(text) && text[i+1] != ' ' {
			continue
		}
		count++
		if count == n {
			end = i + 1
			break
		}
	}
	out := text[:end]
	if utf8.RuneCountInString(out) > maxLen {
		out = string([]rune(out)[:maxLen]) + previewEllipse
	}
	return out
}

var levelHints = map[knowledge.AccessLevel]string{
	knowledge.AccessInternal:     "This information requires management-level access or internal permissions.",
	knowledge.AccessConfidential: "This information requires executive-level access.",
}

// PermissionMessage explains that relevant passages exist but were withheld.
// levels are the access levels of the denied passages.
func PermissionMessage(u *access.User, denied int, levels []knowledge.AccessLevel) string {
	if u == nil {
		return "Some information may require authentication. Please log in to access additional content."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d relevant documents, but your current access level (%s) doesn't permit viewing them.", denied, u.Role)

	if hint := strictestHint(u, levels); hint != "" {
		b.WriteString(" ")
		b.WriteString(hint)
	}
	if !u.IsAdmin() {
		b.WriteString(" To access this information, please contact your department manager or request elevated permissions.")
	}
	return b.String()
}

func strictestHint(u *access.User, levels []knowledge.AccessLevel) string {
	var hasDept, hasInternal bool
	for _, l := range levels {
		switch l {
		case knowledge.AccessConfidential:
			return levelHints[l]
		case knowledge.AccessInternal:
			hasInternal = true
		case knowledge.AccessDepartmental:
			hasDept = true
		}
	}
	if hasInternal {
		return levelHints[knowledge.AccessInternal]
	}
	if hasDept {
		dept := u.Department
		if dept == "" {
			dept = "the owning"
		}
		return fmt.Sprintf("This information requires %s department access or higher permissions.", dept)
	}
	return ""
}
