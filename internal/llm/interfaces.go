package llm

import "context"

// Message is one chat turn sent to a chat-capable model.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// TextGenerator is the interface for single-turn LLM completion.
// Classification, normalization and categorization prompts all use this
// completion style rather than multi-turn chat.
type TextGenerator interface {
	// Complete sends a single prompt and returns the raw response text.
	Complete(ctx context.Context, prompt string) (string, error)

	// CompleteJSON is Complete with the provider's JSON output mode enabled,
	// for prompts whose response must be a JSON object.
	CompleteJSON(ctx context.Context, prompt string) (string, error)

	GetModel() string
}

// ChatGenerator is the interface for multi-turn chat completion. General
// conversation replies carry a system prompt (chef persona plus preferences)
// and a window of recent history.
type ChatGenerator interface {
	Chat(ctx context.Context, messages []Message, maxTokens int) (string, error)
	GetModel() string
}

// VisionDescriber is the interface for image understanding. The image is
// passed as raw bytes (JPEG/PNG) and described according to the prompt.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, image []byte, prompt string) (string, error)
	GetModel() string
}
