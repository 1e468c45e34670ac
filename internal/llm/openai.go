package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey      string
	Model       string        // default: gpt-4o
	VisionModel string        // default: same as Model
	BaseURL     string        // default: https://api.openai.com
	Timeout     time.Duration // default: 60s
}

// OpenAIClient implements TextGenerator, ChatGenerator and VisionDescriber
// using the OpenAI chat completions API.
type OpenAIClient struct {
	cfg     OpenAIConfig
	client  *http.Client
	breaker *providerBreaker
}

// NewOpenAIClient creates a new OpenAI client with the given configuration.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = cfg.Model
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &OpenAIClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: newProviderBreaker("sous-openai"),
	}
}

// openAIChatRequest is the request body for POST /v1/chat/completions.
// Content is interface{} because vision messages carry a content-part array
// instead of a plain string.
type openAIChatRequest struct {
	Model          string              `json:"model"`
	Messages       []openAIChatMessage `json:"messages"`
	Temperature    float64             `json:"temperature"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	ResponseFormat *openAIRespFormat   `json:"response_format,omitempty"`
}

type openAIChatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type openAIRespFormat struct {
	Type string `json:"type"` // "json_object"
}

// openAIContentPart is one element of a vision message's content array.
type openAIContentPart struct {
	Type     string          `json:"type"` // "text" or "image_url"
	Text     string          `json:"text,omitempty"`
	ImageURL *openAIImageURL `json:"image_url,omitempty"`
}

type openAIImageURL struct {
	URL string `json:"url"`
}

// openAIChatResponse is the response body from POST /v1/chat/completions.
type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends a single-turn completion to OpenAI and returns the response text.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.execute(ctx, openAIChatRequest{
		Model:    c.cfg.Model,
		Messages: []openAIChatMessage{{Role: "user", Content: prompt}},
	})
}

// CompleteJSON sends a single-turn completion with JSON response mode forced.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.execute(ctx, openAIChatRequest{
		Model:          c.cfg.Model,
		Messages:       []openAIChatMessage{{Role: "user", Content: prompt}},
		ResponseFormat: &openAIRespFormat{Type: "json_object"},
	})
}

// Chat sends a multi-turn conversation and returns the assistant reply.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	converted := make([]openAIChatMessage, len(messages))
	for i, m := range messages {
		converted[i] = openAIChatMessage{Role: m.Role, Content: m.Content}
	}
	return c.execute(ctx, openAIChatRequest{
		Model:       c.cfg.Model,
		Messages:    converted,
		Temperature: 0.7,
		MaxTokens:   maxTokens,
	})
}

// DescribeImage sends the image as a base64 data URL alongside the prompt
// and returns the model's description.
func (c *OpenAIClient) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	encoded := base64.StdEncoding.EncodeToString(image)
	parts := []openAIContentPart{
		{Type: "text", Text: prompt},
		{Type: "image_url", ImageURL: &openAIImageURL{
			URL: "data:image/jpeg;base64," + encoded,
		}},
	}
	return c.execute(ctx, openAIChatRequest{
		Model:     c.cfg.VisionModel,
		Messages:  []openAIChatMessage{{Role: "user", Content: parts}},
		MaxTokens: 300,
	})
}

// execute runs one chat-completions request through the circuit breaker.
func (c *OpenAIClient) execute(ctx context.Context, reqBody openAIChatRequest) (string, error) {
	out, err := c.breaker.call(ctx, func() (string, error) {
		return c.send(ctx, reqBody)
	})
	if errors.Is(err, ErrCircuitOpen) {
		return "", fmt.Errorf("openai circuit breaker open: %w", err)
	}
	return out, err
}

func (c *OpenAIClient) send(ctx context.Context, reqBody openAIChatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData openAIChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respData.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	return respData.Choices[0].Message.Content, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.cfg.Model
}

// Compile-time assertions.
var (
	_ TextGenerator   = (*OpenAIClient)(nil)
	_ ChatGenerator   = (*OpenAIClient)(nil)
	_ VisionDescriber = (*OpenAIClient)(nil)
)
