package answer

import (
	"sort"
	"strings"
)

// contextWindow is the number of history messages considered for analysis and prompting.
const contextWindow = 6

var followUpPatterns = []string{
	"and in total", "in total", "total?", "overall?", "combined?",
	"and what about", "what about", "also", "additionally",
	"tell me more", "more details", "elaborate",
}

var followUpPrefixes = []string{"and ", "also ", "what about ", "how about "}

var summaryWords = []string{"total", "overall", "combined", "sum", "altogether"}

// topicCategories maps a conversation topic to the words that signal it.
var topicCategories = []struct {
	name  string
	words []string
}{
	{"charitable_giving", []string{"charity", "charitable", "donation", "donated"}},
	{"insurance", []string{"insurance", "policy", "coverage", "claim"}},
	{"company_info", []string{"travelers", "company", "corporation"}},
	{"golf_sponsorship", []string{"golf", "tournament", "championship"}},
	{"corporate_actions", []string{"repurchase", "acquisition", "merger"}},
	{"financial_data", []string{"money", "amount", "cost", "expense"}},
}

// Message is one entry of the conversation history handed to the generator.
type Message struct {
	Role    string
	Content string
}

// Analysis describes how a question relates to the conversation so far.
type Analysis struct {
	IsFollowUp     bool
	SummaryRequest bool
	// PreviousTopics are the topic categories of the recent history, sorted.
	PreviousTopics []string
	ContextNeeded  bool
}

// QuestionType names the prompt variant selected by the analysis.
func (a Analysis) QuestionType() string {
	switch {
	case a.IsFollowUp && a.SummaryRequest:
		return "follow_up_summary"
	case a.IsFollowUp:
		return "follow_up"
	default:
		return "new"
	}
}

// Analyze inspects the question against the recent history. Without history
// every question is new.
func Analyze(question string, history []Message) Analysis {
	var a Analysis
	if len(history) == 0 {
		return a
	}

	lower := strings.ToLower(strings.TrimSpace(question))
	a.IsFollowUp = containsAny(lower, followUpPatterns) ||
		len(strings.Fields(question)) <= 5 ||
		hasAnyPrefix(lower, followUpPrefixes)
	a.SummaryRequest = containsAny(lower, summaryWords)

	topics := make(map[string]struct{})
	for _, m := range recent(history, contextWindow) {
		content := strings.ToLower(m.Content)
		for _, c := range topicCategories {
			if containsAny(content, c.words) {
				topics[c.name] = struct{}{}
			}
		}
	}
	for t := range topics {
		a.PreviousTopics = append(a.PreviousTopics, t)
	}
	sort.Strings(a.PreviousTopics)

	a.ContextNeeded = a.IsFollowUp && len(a.PreviousTopics) > 0
	return a
}

func recent(history []Message, n int) []Message {
	if len(history) > n {
		return history[len(history)-n:]
	}
	return history
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
