package answer

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/knowledge"
	"docqa/internal/llm"
)

const (
	// NoContextAnswer is returned without calling the model when no passage survived.
	NoContextAnswer = "I don't have enough relevant information in the knowledge base to answer your question. Please try rephrasing or ask about a different topic."

	// ModelNone marks answers produced without a model call.
	ModelNone = "none"

	defaultMaxTokens  = 400
	shortAnswerWords  = 20
	answerTemperature = 0
)

// Chatter sends a chat completion. *llm.Client implements it.
type Chatter interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (llm.Completion, error)
}

// Request is the input of one generation.
type Request struct {
	Question  string
	Passages  []knowledge.RankedPassage
	SessionID string
	History   []Message
}

// Generation is a generated answer and its metadata.
type Generation struct {
	Answer          string
	Model           string
	TokensUsed      int
	NeedsFollowUp   bool
	Degraded        bool
	ProcessingSteps []string
}

// Generator produces answers from ranked passages through a chat model.
type Generator struct {
	chat      Chatter
	maxTokens int
}

// NewGenerator creates a generator. A non-positive maxTokens uses the default budget.
func NewGenerator(chat Chatter, maxTokens int) *Generator {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Generator{chat: chat, maxTokens: maxTokens}
}

// Generate answers req. Model errors are returned together with the processing steps
// collected so far so that callers can fall back without losing them.
func (g *Generator) Generate(ctx context.Context, req Request) (Generation, error) {
	logger := contextutil.LoggerFromContext(ctx)
	a := Analyze(req.Question, req.History)

	out := Generation{
		ProcessingSteps: []string{
			fmt.Sprintf("Analyzing question: '%s'", req.Question),
			fmt.Sprintf("Conversation history: %d messages", len(req.History)),
			fmt.Sprintf("Retrieved passages: %d", len(req.Passages)),
			fmt.Sprintf("Question type: %s", a.QuestionType()),
			fmt.Sprintf("Is follow-up: %t", a.IsFollowUp),
			fmt.Sprintf("Previous topics: %v", a.PreviousTopics),
			fmt.Sprintf("Summary request: %t", a.SummaryRequest),
		},
	}

	if len(req.Passages) == 0 {
		out.Answer = NoContextAnswer
		out.Model = ModelNone
		out.ProcessingSteps = append(out.ProcessingSteps, "No passages available - returning no context response")
		return out, nil
	}

	messages := BuildPrompt(req.Question, req.Passages, req.History, a)
	out.ProcessingSteps = append(out.ProcessingSteps, fmt.Sprintf("Generated %d contextual messages for LLM", len(messages)))

	completion, err := g.chat.ChatWithMessages(ctx, messages, llm.ChatParams{
		MaxTokens:   g.maxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		logger.ErrorContext(ctx, "answer generation failed", "error", err, "session_id", req.SessionID)
		out.ProcessingSteps = append(out.ProcessingSteps, fmt.Sprintf("Error generating response: %v", err))
		return out, fmt.Errorf("failed to generate answer: %w", err)
	}

	out.Answer = strings.TrimSpace(completion.Content)
	out.Model = completion.Model
	out.TokensUsed = completion.TotalTokens
	out.NeedsFollowUp = needsFollowUp(out.Answer)
	out.ProcessingSteps = append(out.ProcessingSteps, fmt.Sprintf("Generated response successfully (%d tokens)", out.TokensUsed))

	logger.DebugContext(ctx, "answer generated",
		"model", out.Model,
		"tokens", out.TokensUsed,
		"question_type", a.QuestionType(),
	)
	return out, nil
}

func needsFollowUp(answer string) bool {
	lower := strings.ToLower(answer)
	return strings.Contains(lower, "more information") ||
		strings.Contains(lower, "additional details") ||
		len(strings.Fields(answer)) < shortAnswerWords
}
