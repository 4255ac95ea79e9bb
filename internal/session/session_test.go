package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"docqa/internal/access"
	"docqa/internal/knowledge"
)

func ranked(id, text string, score float64, level knowledge.AccessLevel) knowledge.RankedPassage {
	return knowledge.RankedPassage{
		Passage:    knowledge.Passage{ID: id, Text: text, AccessLevel: level, Score: score, Source: knowledge.SourceVector},
		FinalScore: score,
		SearchType: knowledge.SourceVector,
	}
}

func TestSession_HistoryCap(t *testing.T) {
	s := newSession("s1", "", time.Now())
	for i := 0; i < 25; i++ {
		s.Record(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i), nil)
	}

	history := s.History()
	if len(history) != MaxHistory {
		t.Fatalf("history length = %d, want %d", len(history), MaxHistory)
	}
	last := history[len(history)-1]
	if last.Role != RoleAssistant || last.Content != "answer 24" {
		t.Errorf("last turn = %+v, want answer 24", last)
	}
	if history[0].Content != "question 15" {
		t.Errorf("oldest kept turn = %q, want question 15", history[0].Content)
	}
}

func TestSession_PassageAndKeywordCaps(t *testing.T) {
	s := newSession("s1", "", time.Now())
	for i := 0; i < 30; i++ {
		passages := []knowledge.RankedPassage{
			ranked(fmt.Sprintf("p%d-a", i), "text", 0.5, knowledge.AccessPublic),
			ranked(fmt.Sprintf("p%d-b", i), "text", 0.4, knowledge.AccessPublic),
		}
		s.Record(fmt.Sprintf("keyword%02d", i), "ok", passages)
	}

	snap := s.Snapshot()
	if len(snap.PassageIDs) != MaxPassages {
		t.Errorf("cached passages = %d, want %d", len(snap.PassageIDs), MaxPassages)
	}
	if len(snap.TopicKeywords) != MaxKeywords {
		t.Errorf("topic keywords = %d, want %d", len(snap.TopicKeywords), MaxKeywords)
	}
	if snap.TopicKeywords[0] != "keyword29" {
		t.Errorf("most recent keyword = %q", snap.TopicKeywords[0])
	}
	if snap.PassageIDs[0] != "p29-a" {
		t.Errorf("most recent passage = %q, want p29-a", snap.PassageIDs[0])
	}
}

func TestTopicKeywords(t *testing.T) {
	got := TopicKeywords("What about the charity donation totals for 2021, please?")
	want := []string{"charity", "donation", "totals", "2021"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("TopicKeywords() = %v, want %v", got, want)
	}
}

func TestSession_IsFollowUp(t *testing.T) {
	s := newSession("s1", "", time.Now())
	if s.IsFollowUp("And in total?") {
		t.Error("a session without history has no follow-ups")
	}
	s.Record("How much did we donate to charity?", "A lot.", nil)

	if !s.IsFollowUp("And in total?") {
		t.Error("short question with history should be a follow-up")
	}
	if s.IsFollowUp("What is the company's remote work policy for underwriters?") {
		t.Error("long question should not be a follow-up")
	}
}

func TestSession_ExpandQuery(t *testing.T) {
	s := newSession("s1", "", time.Now())
	s.Record("Tell me about the charity donation program", "It exists.", nil)

	expanded, ok := s.ExpandQuery("And in total?")
	if !ok {
		t.Fatal("expected the follow-up to be expanded")
	}
	if !strings.HasPrefix(expanded, "charitable donations total decade") {
		t.Errorf("expanded = %q, want charity-total expansion", expanded)
	}
	if strings.TrimSpace(expanded) == "And in total?" {
		t.Error("expansion must not be the literal question")
	}

	plain, ok := s.ExpandQuery("Who led it?")
	if !ok {
		t.Fatal("expected the follow-up to be expanded")
	}
	if plain != "Who led it? program donation charity" {
		t.Errorf("expanded = %q", plain)
	}

	long := "Describe the underwriting guidelines for commercial auto"
	if got, ok := s.ExpandQuery(long); ok || got != long {
		t.Errorf("non-follow-up should not expand, got %q", got)
	}
}

func TestSession_ExpandQuery_TotalWithoutTopic(t *testing.T) {
	s := newSession("s1", "", time.Now())
	s.Record("Which regions grew premiums", "Several.", nil)

	expanded, ok := s.ExpandQuery("Overall?")
	if !ok || expanded != "Overall? premiums grew regions" {
		t.Errorf("expanded = %q, %v", expanded, ok)
	}
}

func TestSession_PriorContext(t *testing.T) {
	s := newSession("s1", "", time.Now())
	s.Record("Tell me about charity giving", "ok", []knowledge.RankedPassage{
		ranked("conf", "Confidential charity ledger", 0.9, knowledge.AccessConfidential),
		ranked("pub1", "Public charity report", 0.8, knowledge.AccessPublic),
		ranked("pub2", "Another charity summary", 0.7, knowledge.AccessPublic),
		ranked("pub3", "Charity footnote", 0.6, knowledge.AccessPublic),
		ranked("other", "Unrelated claims text", 0.5, knowledge.AccessPublic),
		ranked("dup", "charity in current results", 0.5, knowledge.AccessPublic),
	})

	current := []knowledge.RankedPassage{ranked("dup", "charity in current results", 0.5, knowledge.AccessPublic)}
	prior, denied := s.PriorContext(current, "charity total?", nil)

	if len(prior) != 2 {
		t.Fatalf("prior context = %d passages, want 2", len(prior))
	}
	for _, p := range prior {
		if p.AccessLevel != knowledge.AccessPublic {
			t.Errorf("anonymous caller received %s passage %s", p.AccessLevel, p.ID)
		}
		if p.SearchType != knowledge.SourcePreviousContext {
			t.Errorf("SearchType = %q", p.SearchType)
		}
		if p.ID == "dup" || p.ID == "other" {
			t.Errorf("unexpected prior passage %s", p.ID)
		}
	}
	if prior[0].ID != "pub1" || math.Abs(prior[0].FinalScore-0.64) > 1e-9 {
		t.Errorf("prior[0] = %s %v", prior[0].ID, prior[0].FinalScore)
	}
	if len(denied) != 1 || denied[0].PassageID != "conf" {
		t.Errorf("denied = %v, want conf", denied)
	}
}

func TestSession_PriorContext_NotFollowUp(t *testing.T) {
	s := newSession("s1", "", time.Now())
	if prior, _ := s.PriorContext(nil, "charity?", nil); prior != nil {
		t.Errorf("no history should yield no prior context, got %v", prior)
	}
}

func TestManager_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	m := NewManager(0)
	owner := &access.User{ID: "alice", Role: access.RoleEmployee}

	s, created, err := m.GetOrCreate(ctx, "", owner)
	if err != nil || !created {
		t.Fatalf("GetOrCreate() = %v, %v", created, err)
	}
	if s.ID == "" || s.OwnerID != "alice" {
		t.Errorf("session = %+v", s.Snapshot())
	}

	again, created, err := m.GetOrCreate(ctx, s.ID, owner)
	if err != nil || created || again != s {
		t.Errorf("second GetOrCreate() should return the same session")
	}

	_, _, err = m.GetOrCreate(ctx, s.ID, &access.User{ID: "bob"})
	if !errors.Is(err, ErrOwnershipConflict) {
		t.Errorf("other user error = %v, want ErrOwnershipConflict", err)
	}
	_, _, err = m.GetOrCreate(ctx, s.ID, nil)
	if !errors.Is(err, ErrOwnershipConflict) {
		t.Errorf("anonymous error = %v, want ErrOwnershipConflict", err)
	}

	anon, _, err := m.GetOrCreate(ctx, "shared", nil)
	if err != nil || anon.OwnerID != "" {
		t.Fatalf("anonymous session = %v, %v", anon, err)
	}
	if _, _, err := m.GetOrCreate(ctx, "shared", owner); err != nil {
		t.Errorf("unowned session should be reachable, got %v", err)
	}
}

func TestManager_ClearYieldsFreshSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(0)

	s, _, _ := m.GetOrCreate(ctx, "s1", nil)
	s.Record("How much did we donate?", "A lot.", nil)

	removed, err := m.Clear(ctx, "s1", nil)
	if err != nil || !removed {
		t.Fatalf("Clear() = %v, %v", removed, err)
	}
	if _, err := m.Get(ctx, "s1", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after clear = %v, want ErrNotFound", err)
	}

	fresh, created, err := m.GetOrCreate(ctx, "s1", nil)
	if err != nil || !created {
		t.Fatalf("GetOrCreate() after clear = %v, %v", created, err)
	}
	if fresh == s || fresh.HasHistory() {
		t.Error("expected a fresh, empty session")
	}

	if removed, err := m.Clear(ctx, "missing", nil); err != nil || removed {
		t.Errorf("Clear(missing) = %v, %v", removed, err)
	}
}

func TestManager_ClearChecksOwner(t *testing.T) {
	ctx := context.Background()
	m := NewManager(0)
	_, _, _ = m.GetOrCreate(ctx, "s1", &access.User{ID: "alice"})

	if _, err := m.Clear(ctx, "s1", &access.User{ID: "mallory"}); !errors.Is(err, ErrOwnershipConflict) {
		t.Errorf("Clear() error = %v, want ErrOwnershipConflict", err)
	}
	if m.Len() != 1 {
		t.Error("session should survive a rejected clear")
	}
	m.Flush()
	if m.Len() != 0 {
		t.Error("Flush() should remove every session")
	}
}

func TestManager_IdleExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewManager(50 * time.Millisecond)
	_, _, _ = m.GetOrCreate(ctx, "s1", nil)

	time.Sleep(120 * time.Millisecond)

	if _, err := m.Get(ctx, "s1", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after idle ttl = %v, want ErrNotFound", err)
	}
}

func TestManager_ConcurrentSameSession(t *testing.T) {
	ctx := context.Background()
	m := NewManager(0)

	const workers = 8
	var wg sync.WaitGroup
	sessions := make([]*Session, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, _, err := m.GetOrCreate(ctx, "shared", nil)
			if err != nil {
				t.Error(err)
				return
			}
			s.Lock()
			defer s.Unlock()
			s.Record(fmt.Sprintf("q%d", i), "a", nil)
			sessions[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range sessions[1:] {
		if s != sessions[0] {
			t.Fatal("concurrent callers received different sessions")
		}
	}
	if got := len(sessions[0].History()); got != 2*workers {
		t.Errorf("history length = %d, want %d", got, 2*workers)
	}
}
