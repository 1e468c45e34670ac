package llm

import (
	"fmt"

	"github.com/scrypster/sous/internal/config"
)

// NewTextGenerator creates the appropriate TextGenerator based on LLM config.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return client.(TextGenerator), nil
}

// NewChatGenerator creates the appropriate ChatGenerator based on LLM config.
func NewChatGenerator(cfg config.LLMConfig) (ChatGenerator, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	return client.(ChatGenerator), nil
}

// NewVisionDescriber creates the appropriate VisionDescriber based on LLM
// config. For Ollama the configured vision model must be multimodal.
func NewVisionDescriber(cfg config.LLMConfig) (VisionDescriber, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.OpenAIModel,
			VisionModel: cfg.OpenAIVisionModel,
		}), nil
	case "ollama", "":
		model := cfg.OllamaVisionModel
		if model == "" {
			model = "llava"
		}
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.OllamaURL, Model: model}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

func newClient(cfg config.LLMConfig) (interface{}, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{BaseURL: cfg.OllamaURL, Model: cfg.OllamaModel}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
