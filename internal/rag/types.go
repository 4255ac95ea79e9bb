package rag

import (
	"docqa/internal/access"
)

// AskRequest represents one question from a caller.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string
	// SessionID addresses an existing conversation. Empty starts a new one.
	SessionID string
	// User is the authenticated caller, nil for anonymous requests.
	User *access.User
	// ClientIP is recorded on audit events.
	ClientIP string
}

// SessionRequest addresses a session on behalf of a caller.
type SessionRequest struct {
	SessionID string
	User      *access.User
	ClientIP  string
}

// PassageResult is a passage returned to the caller.
type PassageResult struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	HeadingPath string  `json:"headingPath,omitempty"`
	Score       float64 `json:"score"`
	// SearchType is the provenance: vector, keyword, vector+keyword or previous_context.
	SearchType string `json:"searchType"`
}

// AskResponse represents the answer and the provenance of the passages behind it.
type AskResponse struct {
	Answer    string          `json:"answer"`
	SessionID string          `json:"sessionId"`
	Passages  []PassageResult `json:"passages"`
	// ExpandedQuery is the widened search text of a follow-up question, empty otherwise.
	ExpandedQuery string `json:"expandedQuery,omitempty"`
	// SearchQuery is the keyword expression sent to the full-text path.
	SearchQuery string `json:"searchQuery"`
	// DeniedCount is the number of candidates withheld by the access filter.
	DeniedCount     int      `json:"deniedCount"`
	Model           string   `json:"model"`
	TokensUsed      int      `json:"tokensUsed"`
	NeedsFollowUp   bool     `json:"needsFollowUp"`
	Degraded        bool     `json:"degraded"`
	ProcessingSteps []string `json:"processingSteps"`
}
