package llm

// Message represents a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatParams holds parameters for chat completion requests.
type ChatParams struct {
	// Model specifies the model to use. If empty, the client's default model is used.
	Model string

	// MaxTokens specifies the maximum number of tokens to generate.
	// If 0, no limit is applied.
	MaxTokens int

	// Temperature is always sent; zero asks for deterministic output.
	Temperature float32
}

// Completion is the generated reply plus the metadata reported with it.
type Completion struct {
	Content string
	// Model is the model the server reports, or the requested model when it reports none.
	Model       string
	TotalTokens int
}
