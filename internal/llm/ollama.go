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

// OllamaClient handles communication with the Ollama API for local LLM
// inference. All HTTP calls are wrapped with circuit breaker protection.
type OllamaClient struct {
	baseURL string
	client  *http.Client
	breaker *providerBreaker
	model   string
	timeout time.Duration
}

// OllamaConfig holds Ollama client configuration.
type OllamaConfig struct {
	// BaseURL is the base URL for the Ollama API (default: http://localhost:11434)
	BaseURL string

	// Model is the model name to use (default: qwen2.5:7b)
	Model string

	// Timeout is the request timeout duration (default: 60s)
	Timeout time.Duration
}

// NewOllamaClient creates a new Ollama client with the given configuration.
func NewOllamaClient(config OllamaConfig) *OllamaClient {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Model == "" {
		config.Model = "qwen2.5:7b"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &OllamaClient{
		baseURL: config.BaseURL,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		breaker: newProviderBreaker("sous-ollama"),
		model:   config.Model,
		timeout: config.Timeout,
	}
}

// generateRequest is the request body for the /api/generate endpoint.
// Images carries base64-encoded image data for multimodal models.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Format string   `json:"format,omitempty"` // "json" forces JSON output
	Images []string `json:"images,omitempty"`
}

// generateResponse is the response from the /api/generate endpoint.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// chatRequest is the request body for the /api/chat endpoint.
type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// chatResponse is the response from the /api/chat endpoint.
type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Complete sends a completion request to Ollama and returns the response text.
func (c *OllamaClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	})
}

// CompleteJSON sends a completion request with Ollama's JSON format mode.
func (c *OllamaClient) CompleteJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: "json",
	})
}

// Chat sends a multi-turn conversation to the /api/chat endpoint.
// Ollama has no per-request token cap, so maxTokens is advisory only.
func (c *OllamaClient) Chat(ctx context.Context, messages []Message, maxTokens int) (string, error) {
	out, err := c.breaker.call(ctx, func() (string, error) {
		return c.chat(ctx, chatRequest{
			Model:    c.model,
			Messages: messages,
			Stream:   false,
		})
	})
	if errors.Is(err, ErrCircuitOpen) {
		return "", fmt.Errorf("ollama circuit breaker open: %w", err)
	}
	return out, err
}

// DescribeImage sends the image to a multimodal model via /api/generate.
func (c *OllamaClient) DescribeImage(ctx context.Context, image []byte, prompt string) (string, error) {
	return c.generate(ctx, generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
}

func (c *OllamaClient) generate(ctx context.Context, reqBody generateRequest) (string, error) {
	out, err := c.breaker.call(ctx, func() (string, error) {
		return c.doGenerate(ctx, reqBody)
	})
	if errors.Is(err, ErrCircuitOpen) {
		return "", fmt.Errorf("ollama circuit breaker open: %w", err)
	}
	return out, err
}

func (c *OllamaClient) doGenerate(ctx context.Context, reqBody generateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return respData.Response, nil
}

func (c *OllamaClient) chat(ctx context.Context, reqBody chatRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return respData.Message.Content, nil
}

// GetModel returns the configured model name.
func (c *OllamaClient) GetModel() string {
	return c.model
}

// Compile-time assertions.
var (
	_ TextGenerator   = (*OllamaClient)(nil)
	_ ChatGenerator   = (*OllamaClient)(nil)
	_ VisionDescriber = (*OllamaClient)(nil)
)
