// Package config provides configuration management for Sous.
// It loads settings from environment variables with the SOUS_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"errors"
	"os"
	"strconv"
)

// Config holds all configuration settings for the Sous application.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	LLM      LLMConfig
	Twilio   TwilioConfig
	Security SecurityConfig
	Reply    ReplyConfig
	Backup   BackupConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    // Server port (default: 8000)
	Host string // Server host (default: 0.0.0.0)
}

// StorageConfig contains database and storage configuration.
type StorageConfig struct {
	StorageEngine string // Storage engine type: sqlite, postgres (default: sqlite)
	DataPath      string // Path to data directory for SQLite (default: ./data)
	PostgresDSN   string // Postgres connection string when StorageEngine is postgres
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider          string // LLM provider: ollama, openai (default: ollama)
	OllamaURL         string // Ollama API URL (default: http://localhost:11434)
	OllamaModel       string // Ollama model name (default: qwen2.5:7b)
	OllamaVisionModel string // Ollama multimodal model for image turns (default: llava)
	OpenAIAPIKey      string // OpenAI API key
	OpenAIModel       string // OpenAI model name (default: gpt-4o)
	OpenAIVisionModel string // OpenAI model for image turns (default: same as OpenAIModel)
}

// TwilioConfig contains WhatsApp transport credentials.
type TwilioConfig struct {
	AccountSID     string // Twilio account SID
	AuthToken      string // Twilio auth token, also used for webhook signature validation
	WhatsAppNumber string // The bot's WhatsApp number, without the whatsapp: prefix
	BaseURL        string // Twilio API base URL (default: https://api.twilio.com)
	PublicURL      string // Public URL of this server, used to reconstruct the signed webhook URL
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	SecurityMode string // Security mode: development, production (default: development)
	APIToken     string // Bearer token for the admin API in production mode
}

// ReplyConfig bounds outbound message size.
type ReplyConfig struct {
	// MaxChars is the hard ceiling for every reply. WhatsApp messages
	// longer than 1600 characters are rejected by Twilio, so the default
	// leaves headroom below that.
	MaxChars int // default: 1500

	// HistoryWindow is how many trailing conversation entries are sent as
	// chat context on general conversation turns.
	HistoryWindow int // default: 5
}

// BackupConfig controls periodic snapshots of the SQLite database. It has no
// effect with the postgres storage engine.
type BackupConfig struct {
	Enabled       bool   // Enable the backup service (default: false)
	Dir           string // Snapshot directory (default: <data path>/backups)
	IntervalHours int    // Hours between snapshots (default: 6)
	Keep          int    // Number of snapshots to retain (default: 14)
}

// ErrMissingTwilioCredentials is returned by Validate when the Twilio SID or
// auth token is unset; the webhook cannot authenticate requests without them.
var ErrMissingTwilioCredentials = errors.New("config: twilio account sid and auth token are required")

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Port: getEnvInt("SOUS_PORT", 8000),
			Host: getEnv("SOUS_HOST", "0.0.0.0"),
		},
		Storage: StorageConfig{
			StorageEngine: getEnv("SOUS_STORAGE_ENGINE", "sqlite"),
			DataPath:      getEnv("SOUS_DATA_PATH", "./data"),
			PostgresDSN:   getEnv("SOUS_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:          getEnv("SOUS_LLM_PROVIDER", "ollama"),
			OllamaURL:         getEnv("SOUS_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("SOUS_OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaVisionModel: getEnv("SOUS_OLLAMA_VISION_MODEL", "llava"),
			OpenAIAPIKey:      getEnv("SOUS_OPENAI_API_KEY", ""),
			OpenAIModel:       getEnv("SOUS_OPENAI_MODEL", "gpt-4o"),
			OpenAIVisionModel: getEnv("SOUS_OPENAI_VISION_MODEL", ""),
		},
		Twilio: TwilioConfig{
			AccountSID:     getEnv("SOUS_TWILIO_ACCOUNT_SID", ""),
			AuthToken:      getEnv("SOUS_TWILIO_AUTH_TOKEN", ""),
			WhatsAppNumber: getEnv("SOUS_WHATSAPP_NUMBER", ""),
			BaseURL:        getEnv("SOUS_TWILIO_BASE_URL", "https://api.twilio.com"),
			PublicURL:      getEnv("SOUS_PUBLIC_URL", ""),
		},
		Security: SecurityConfig{
			SecurityMode: getEnv("SOUS_SECURITY_MODE", "development"),
			APIToken:     getEnv("SOUS_API_TOKEN", ""),
		},
		Reply: ReplyConfig{
			MaxChars:      getEnvInt("SOUS_REPLY_MAX_CHARS", 1500),
			HistoryWindow: getEnvInt("SOUS_HISTORY_WINDOW", 5),
		},
		Backup: BackupConfig{
			Enabled:       getEnvBool("SOUS_BACKUP_ENABLED", false),
			Dir:           getEnv("SOUS_BACKUP_DIR", ""),
			IntervalHours: getEnvInt("SOUS_BACKUP_INTERVAL_HOURS", 6),
			Keep:          getEnvInt("SOUS_BACKUP_KEEP", 14),
		},
	}, nil
}

// Validate checks that settings required to serve webhook traffic are set.
// Development mode skips the Twilio credential check so the pipeline can be
// exercised locally with signature validation disabled.
func (c *Config) Validate() error {
	if c.Security.SecurityMode == "development" {
		return nil
	}
	if c.Twilio.AccountSID == "" || c.Twilio.AuthToken == "" {
		return ErrMissingTwilioCredentials
	}
	return nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. Accepts the forms strconv.ParseBool accepts.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed, the default is used.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
