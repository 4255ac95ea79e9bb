package answer

import (
	"fmt"
	"strings"

	"docqa/internal/knowledge"
	"docqa/internal/llm"
)

const (
	maxSources     = 5
	previewLength  = 300
	previewEllipse = "..."
)

const systemFollowUpSummary = `You are an AI assistant with access to conversation history and retrieved documents.

The user is asking for summary/total information as a follow-up to the previous conversation. Your task is to:

1. Review the previous conversation to understand what topic they're asking about
2. Look through ALL retrieved information for comprehensive data related to that topic
3. Provide a complete answer that synthesizes information across multiple sources
4. If asking for totals/sums, look for numerical data and add them up if appropriate
5. Be thorough but concise

IMPORTANT: Use both the conversation history AND retrieved information to provide a complete answer.`

const systemFollowUp = `You are an AI assistant with access to conversation history and retrieved documents.

This is a follow-up question building on the previous conversation. Your task is to:

1. Consider the context from the previous conversation
2. Use the retrieved information to extend or clarify the previous discussion
3. Provide additional relevant details that build on what was already discussed
4. Maintain continuity with the previous conversation

Be direct and informative while building on the established context.`

const systemNewQuestion = `You are an AI assistant answering questions based on retrieved documents.

Provide a direct, comprehensive answer to the user's question using the retrieved information.

Guidelines:
- Answer the question completely and accurately
- Use specific details from the retrieved sources
- Be concise but thorough
- If multiple sources contain relevant information, synthesize them appropriately`

// BuildPrompt assembles the system and user messages for one question.
// Conversation history is only included for follow-ups.
func BuildPrompt(question string, passages []knowledge.RankedPassage, history []Message, a Analysis) []llm.Message {
	var ctx strings.Builder

	if len(history) > 0 && a.IsFollowUp {
		ctx.WriteString("PREVIOUS CONVERSATION:\n")
		for _, m := range recent(history, contextWindow) {
			label := "ASSISTANT"
			if m.Role == "user" {
				label = "USER"
			}
			fmt.Fprintf(&ctx, "%s: %s\n", label, m.Content)
		}
		ctx.WriteString("\n")
	}

	ctx.WriteString("RETRIEVED INFORMATION:\n")
	for i, p := range passages {
		if i == maxSources {
			break
		}
		fmt.Fprintf(&ctx, "[Source %d - ID: %s]\n%s\n\n", i+1, p.ID, preview(p.Text))
	}

	system := systemNewQuestion
	if a.IsFollowUp {
		system = systemFollowUp
		if a.SummaryRequest {
			system = systemFollowUpSummary
		}
	}

	return []llm.Message{
		{Role: "system", Content: system + "\n\nCONTEXT:\n" + ctx.String()},
		{Role: "user", Content: "Current question: " + question},
	}
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + previewEllipse
}
