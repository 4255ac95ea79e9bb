package session

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"docqa/internal/access"
	"docqa/internal/knowledge"
	"docqa/internal/query"
	"docqa/internal/ranking"
)

const (
	// MaxHistory is the number of messages kept per session.
	MaxHistory = 20
	// MaxPassages is the capacity of the per-session passage cache.
	MaxPassages = 50
	// MaxKeywords is the capacity of the topic keyword set.
	MaxKeywords = 20

	followUpMaxLen       = 20
	minContextWordLen    = 4
	maxPriorPassages     = 2
	priorContextDiscount = 0.8
	expandRecentKeywords = 3
	expandTotalKeywords  = 10
)

// Message roles in the conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var keywordStopList = map[string]struct{}{
	"what": {}, "when": {}, "where": {}, "which": {}, "does": {}, "about": {}, "with": {},
	"that": {}, "this": {}, "have": {}, "from": {}, "they": {}, "them": {}, "their": {},
	"there": {}, "were": {}, "been": {}, "much": {}, "many": {}, "tell": {}, "more": {},
	"also": {}, "please": {}, "would": {}, "could": {}, "should": {}, "into": {}, "some": {},
}

// Turn is one message in the conversation history.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the conversation state of one session identifier.
// Requests against the same session are serialized with Lock/Unlock.
type Session struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time

	serial sync.Mutex

	mu        sync.RWMutex
	updatedAt time.Time
	history   []Turn
	passages  *BoundedCache[string, knowledge.RankedPassage]
	keywords  *BoundedCache[string, struct{}]
}

func newSession(id, ownerID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		OwnerID:   ownerID,
		CreatedAt: now,
		updatedAt: now,
		passages:  NewBoundedCache[string, knowledge.RankedPassage](MaxPassages),
		keywords:  NewBoundedCache[string, struct{}](MaxKeywords),
	}
}

// Lock serializes a whole read-modify-write cycle against this session.
func (s *Session) Lock() { s.serial.Lock() }

// Unlock releases the lock taken by Lock.
func (s *Session) Unlock() { s.serial.Unlock() }

// HasHistory reports whether any turn was recorded.
func (s *Session) HasHistory() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history) > 0
}

// History returns a copy of the stored messages, oldest first.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Turn(nil), s.history...)
}

// RecentHistory returns the last n messages, oldest first.
func (s *Session) RecentHistory(n int) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	return append([]Turn(nil), s.history[start:]...)
}

// TopicKeywords returns the topic keywords, most recent first.
func (s *Session) TopicKeywords() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keywords.Keys()
}

// CachedPassages returns the cached passages, most recent first.
func (s *Session) CachedPassages() []knowledge.RankedPassage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.passages.Values()
}

// IsFollowUp reports whether question looks like it depends on earlier turns:
// it is short and the session already has history.
func (s *Session) IsFollowUp(question string) bool {
	normalized := strings.ToLower(strings.TrimSpace(question))
	return utf8.RuneCountInString(normalized) < followUpMaxLen && s.HasHistory()
}

// ExpandQuery widens a follow-up question with the session's topic keywords.
// It returns the question unchanged and false when no expansion applies.
func (s *Session) ExpandQuery(question string) (string, bool) {
	if !s.IsFollowUp(question) {
		return question, false
	}
	recent := s.TopicKeywords()
	if len(recent) == 0 {
		return question, false
	}

	words := query.Tokenize(question)
	for _, rule := range DefaultExpansions {
		if rule.triggered(words) && rule.topical(recent) {
			return rule.Expansion + " " + strings.Join(head(recent, expandTotalKeywords), " "), true
		}
	}
	if containsAny(words, aggregateWords) {
		return strings.TrimSpace(question) + " " + strings.Join(head(recent, expandTotalKeywords), " "), true
	}
	return strings.TrimSpace(question) + " " + strings.Join(head(recent, expandRecentKeywords), " "), true
}

// PriorContext selects up to two cached passages that share a significant word with the
// question, are not already in current, and that u may see. Selected passages are tagged
// previous_context and discounted. It also returns the cached candidates the filter denied.
func (s *Session) PriorContext(current []knowledge.RankedPassage, question string, u *access.User) ([]knowledge.RankedPassage, []access.Denial) {
	if !s.IsFollowUp(question) {
		return nil, nil
	}
	cached := s.CachedPassages()
	if len(cached) == 0 {
		return nil, nil
	}

	var words []string
	for _, w := range query.Tokenize(question) {
		if utf8.RuneCountInString(w) >= minContextWordLen {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil, nil
	}

	inCurrent := make(map[string]struct{}, len(current))
	for _, c := range current {
		inCurrent[c.ID] = struct{}{}
	}

	var candidates []knowledge.RankedPassage
	for _, c := range cached {
		if _, ok := inCurrent[c.ID]; ok {
			continue
		}
		text := strings.ToLower(c.Text)
		for _, w := range words {
			if strings.Contains(text, w) {
				candidates = append(candidates, c)
				break
			}
		}
	}

	allowed, denied := access.FilterRanked(candidates, u)
	allowed = ranking.Truncate(allowed, maxPriorPassages)

	out := make([]knowledge.RankedPassage, 0, len(allowed))
	for _, p := range allowed {
		p.SearchType = knowledge.SourcePreviousContext
		p.FinalScore = p.FinalScore * priorContextDiscount
		out = append(out, p)
	}
	return out, denied
}

// Record appends the question and answer, caches the returned passages and
// adds the question's topic keywords. Caps are enforced by evicting the oldest entries.
func (s *Session) Record(question, answer string, passages []knowledge.RankedPassage) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		Turn{Role: RoleUser, Content: question, Timestamp: now},
		Turn{Role: RoleAssistant, Content: answer, Timestamp: now},
	)
	if over := len(s.history) - MaxHistory; over > 0 {
		s.history = append([]Turn(nil), s.history[over:]...)
	}

	// Insert lowest ranked first so the best passage ends up most recent.
	for i := len(passages) - 1; i >= 0; i-- {
		s.passages.Put(passages[i].ID, passages[i])
	}
	for _, kw := range TopicKeywords(question) {
		s.keywords.Put(kw, struct{}{})
	}
	s.updatedAt = now
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"ownerId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	History       []Turn    `json:"history"`
	TopicKeywords []string  `json:"topicKeywords"`
	PassageIDs    []string  `json:"passageIds"`

	// AuditCounts holds recorded audit events per action, when an audit store is attached.
	AuditCounts map[string]int `json:"auditCounts,omitempty"`
}

// Snapshot copies the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		ID:            s.ID,
		OwnerID:       s.OwnerID,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.updatedAt,
		History:       append([]Turn{}, s.history...),
		TopicKeywords: s.keywords.Keys(),
		PassageIDs:    s.passages.Keys(),
	}
}

// TopicKeywords extracts the significant words of a question in order of appearance.
func TopicKeywords(question string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, w := range query.Tokenize(question) {
		if utf8.RuneCountInString(w) < minContextWordLen {
			continue
		}
		if _, stop := keywordStopList[w]; stop {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
