package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks docqa/internal/rag Engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docqa/internal/access"
	"docqa/internal/answer"
	"docqa/internal/audit"
	"docqa/internal/contextutil"
	"docqa/internal/knowledge"
	"docqa/internal/query"
	"docqa/internal/ranking"
	"docqa/internal/retrieval"
	"docqa/internal/session"
)

const (
	// MaxPassages is the number of passages returned per question.
	MaxPassages = 5
	// historyMessages is the trimmed history handed to the generator.
	historyMessages = 6
)

// Engine answers questions over the knowledge base for a caller.
type Engine interface {
	// Ask retrieves, filters and ranks passages for the question and generates an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// GetSession returns a snapshot of the caller's session.
	GetSession(ctx context.Context, req SessionRequest) (session.Snapshot, error)
	// ClearSession removes the caller's session entirely.
	ClearSession(ctx context.Context, req SessionRequest) error
}

// Retriever fetches candidate passages. *retrieval.Retriever implements it.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (retrieval.Result, error)
}

// Auditor records audit events without blocking. *audit.Dispatcher implements it.
type Auditor interface {
	Emit(ctx context.Context, e audit.Event)
}

// AuditCounter reads back recorded audit events. *storage.AuditRepo implements it.
type AuditCounter interface {
	CountBySession(ctx context.Context, sessionID string) (map[string]int, error)
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	preprocessor      *query.Preprocessor
	ranker            *ranking.Ranker
	retriever         Retriever
	sessions          *session.Manager
	generator         *answer.Generator
	auditor           Auditor
	auditCounts       AuditCounter
	generationTimeout time.Duration
}

// NewEngine creates a new engine. auditCounts may be nil, in which case session snapshots
// carry no audit counts. A non-positive generationTimeout leaves generation bounded only
// by the request context.
func NewEngine(
	preprocessor *query.Preprocessor,
	retriever Retriever,
	sessions *session.Manager,
	generator *answer.Generator,
	auditor Auditor,
	auditCounts AuditCounter,
	generationTimeout time.Duration,
) Engine {
	if preprocessor == nil {
		preprocessor = query.NewPreprocessor(nil)
	}
	return &ragEngine{
		preprocessor:      preprocessor,
		ranker:            ranking.NewRanker(nil),
		retriever:         retriever,
		sessions:          sessions,
		generator:         generator,
		auditor:           auditor,
		auditCounts:       auditCounts,
		generationTimeout: generationTimeout,
	}
}

// Ask answers a question.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in ask request")
		return AskResponse{}, &ValidationError{Field: "question", Message: "cannot be empty"}
	}

	info := e.preprocessor.Preprocess(question)

	sess, created, err := e.sessions.GetOrCreate(ctx, req.SessionID, req.User)
	if err != nil {
		return AskResponse{}, fmt.Errorf("failed to load session: %w", err)
	}
	sess.Lock()
	defer sess.Unlock()

	logger.InfoContext(ctx, "question received",
		"session_id", sess.ID,
		"new_session", created,
		"user_id", userID(req.User),
		"monetary", info.Monetary,
		"question_length", len(question),
	)

	searchText, expanded := sess.ExpandQuery(question)
	searchInfo := info
	if expanded {
		// The widened text drives both retrieval paths; ranking still scores against
		// the question as asked.
		searchInfo = e.preprocessor.Preprocess(searchText)
		searchInfo.Monetary = searchInfo.Monetary || info.Monetary
		logger.InfoContext(ctx, "follow-up question expanded", "session_id", sess.ID, "expanded_query", searchText)
	}
	searchQuery := searchInfo.SearchExpression()

	result, err := e.retriever.Retrieve(ctx, retrieval.Request{
		Text:              searchText,
		KeywordExpression: searchQuery,
		Monetary:          searchInfo.Monetary,
		Levels:            searchLevels(req.User),
	})
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "session_id", sess.ID, "error", err)
		return AskResponse{}, fmt.Errorf("failed to retrieve passages: %w", err)
	}

	filtered := access.Filter(result.Candidates, req.User)
	for _, a := range access.UniqueDenials(filtered.Anomalies) {
		logger.WarnContext(ctx, "passage with unrecognized access level",
			"passage_id", a.PassageID,
			"access_level", string(a.AccessLevel),
		)
	}

	rankInfo := info
	rankInfo.Monetary = searchInfo.Monetary
	ranked := e.ranker.Rank(filtered.Allowed, rankInfo)

	prior, priorDenied := sess.PriorContext(ranked, question, req.User)
	combined := append(ranked, prior...)
	ranking.Sort(combined)
	final := ranking.Truncate(combined, MaxPassages)

	denials := access.UniqueDenials(filtered.Denied, priorDenied)
	if len(denials) > 0 {
		logger.InfoContext(ctx, "passages withheld by access filter",
			"session_id", sess.ID,
			"user_id", userID(req.User),
			"denied", len(denials),
			"candidates", len(result.Candidates),
		)
	}

	gen := e.generate(ctx, req, sess, question, final, denials)

	sess.Record(question, gen.Answer, fresh(final))

	e.emitQuery(ctx, req, sess.ID, question, final, len(denials), gen)
	if len(denials) > 0 {
		e.emitDenials(ctx, req, sess.ID, denials)
	}

	logger.InfoContext(ctx, "question answered",
		"session_id", sess.ID,
		"passages", len(final),
		"denied", len(denials),
		"prior_context", len(prior),
		"model", gen.Model,
		"degraded", gen.Degraded,
	)

	return AskResponse{
		Answer:          gen.Answer,
		SessionID:       sess.ID,
		Passages:        toResults(final),
		ExpandedQuery:   expandedQuery(searchText, expanded),
		SearchQuery:     searchQuery,
		DeniedCount:     len(denials),
		Model:           gen.Model,
		TokensUsed:      gen.TokensUsed,
		NeedsFollowUp:   gen.NeedsFollowUp,
		Degraded:        gen.Degraded,
		ProcessingSteps: gen.ProcessingSteps,
	}, nil
}

// generate produces the answer. Generation failures fall back to an extractive answer;
// a fully withheld candidate set yields a permission notice without calling the model.
func (e *ragEngine) generate(
	ctx context.Context,
	req AskRequest,
	sess *session.Session,
	question string,
	passages []knowledge.RankedPassage,
	denials []access.Denial,
) answer.Generation {
	logger := contextutil.LoggerFromContext(ctx)

	if len(passages) == 0 && len(denials) > 0 {
		levels := make([]knowledge.AccessLevel, len(denials))
		for i, d := range denials {
			levels[i] = d.AccessLevel
		}
		return answer.Generation{
			Answer:          answer.PermissionMessage(req.User, len(denials), levels),
			Model:           answer.ModelPermissionNotice,
			ProcessingSteps: []string{fmt.Sprintf("All %d retrieved passages withheld by access control", len(denials))},
		}
	}

	genCtx := ctx
	if e.generationTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, e.generationTimeout)
		defer cancel()
	}

	gen, err := e.generator.Generate(genCtx, answer.Request{
		Question:  question,
		Passages:  passages,
		SessionID: sess.ID,
		History:   toMessages(sess.RecentHistory(historyMessages)),
	})
	if err != nil {
		logger.WarnContext(ctx, "generation failed, using extractive fallback", "session_id", sess.ID, "error", err)
		return answer.Extractive(passages, gen.ProcessingSteps)
	}
	return gen
}

// GetSession returns a snapshot of the session. Audit counts reflect events already
// written by the dispatcher; a failed count is logged and left out of the snapshot.
func (e *ragEngine) GetSession(ctx context.Context, req SessionRequest) (session.Snapshot, error) {
	sess, err := e.sessions.Get(ctx, req.SessionID, req.User)
	if err != nil {
		return session.Snapshot{}, fmt.Errorf("failed to get session %s: %w", req.SessionID, err)
	}
	snap := sess.Snapshot()
	if e.auditCounts != nil {
		counts, err := e.auditCounts.CountBySession(ctx, snap.ID)
		if err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to count audit events", "session_id", snap.ID, "error", err)
		} else {
			snap.AuditCounts = counts
		}
	}
	return snap, nil
}

// ClearSession removes the session. Clearing an unknown session is a no-op.
func (e *ragEngine) ClearSession(ctx context.Context, req SessionRequest) error {
	removed, err := e.sessions.Clear(ctx, req.SessionID, req.User)
	if err != nil {
		return fmt.Errorf("failed to clear session %s: %w", req.SessionID, err)
	}
	if removed {
		e.auditor.Emit(ctx, audit.NewEvent(audit.ActionSessionCleared, userID(req.User), req.SessionID, req.SessionID, req.ClientIP, nil))
	}
	return nil
}

func (e *ragEngine) emitQuery(ctx context.Context, req AskRequest, sessionID, question string, passages []knowledge.RankedPassage, denied int, gen answer.Generation) {
	ids := make([]string, len(passages))
	searchTypes := make([]string, len(passages))
	for i, p := range passages {
		ids[i] = p.ID
		searchTypes[i] = p.SearchType
	}
	e.auditor.Emit(ctx, audit.NewEvent(audit.ActionDocumentQuery, userID(req.User), sessionID, strings.Join(ids, ","), req.ClientIP, map[string]any{
		"question":      question,
		"passage_count": len(passages),
		"search_types":  searchTypes,
		"denied_count":  denied,
		"model":         gen.Model,
		"degraded":      gen.Degraded,
	}))
}

func (e *ragEngine) emitDenials(ctx context.Context, req AskRequest, sessionID string, denials []access.Denial) {
	ids := make([]string, len(denials))
	reasons := make(map[string]int)
	for i, d := range denials {
		ids[i] = d.PassageID
		reasons[string(d.Reason)]++
	}
	e.auditor.Emit(ctx, audit.NewEvent(audit.ActionPermissionDenied, userID(req.User), sessionID, strings.Join(ids, ","), req.ClientIP, map[string]any{
		"denied_count": len(denials),
		"reasons":      reasons,
	}))
}

// fresh drops passages carried over from earlier turns; they are already cached.
func fresh(passages []knowledge.RankedPassage) []knowledge.RankedPassage {
	out := make([]knowledge.RankedPassage, 0, len(passages))
	for _, p := range passages {
		if p.SearchType != knowledge.SourcePreviousContext {
			out = append(out, p)
		}
	}
	return out
}

func toResults(passages []knowledge.RankedPassage) []PassageResult {
	out := make([]PassageResult, len(passages))
	for i, p := range passages {
		out[i] = PassageResult{
			ID:          p.ID,
			Text:        p.Text,
			HeadingPath: p.HeadingPath,
			Score:       p.FinalScore,
			SearchType:  p.SearchType,
		}
	}
	return out
}

func toMessages(turns []session.Turn) []answer.Message {
	out := make([]answer.Message, len(turns))
	for i, t := range turns {
		out[i] = answer.Message{Role: t.Role, Content: t.Content}
	}
	return out
}

func expandedQuery(text string, expanded bool) string {
	if !expanded {
		return ""
	}
	return text
}

// searchLevels narrows anonymous vector searches to public passages ahead of the
// access filter.
func searchLevels(u *access.User) []knowledge.AccessLevel {
	if u == nil {
		return []knowledge.AccessLevel{knowledge.AccessPublic}
	}
	return nil
}

func userID(u *access.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
