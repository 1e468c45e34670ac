package config_test

import (
	"testing"

	"github.com/scrypster/sous/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "sqlite", cfg.Storage.StorageEngine)
	assert.Equal(t, "./data", cfg.Storage.DataPath)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "qwen2.5:7b", cfg.LLM.OllamaModel)
	assert.Equal(t, "llava", cfg.LLM.OllamaVisionModel)
	assert.Equal(t, "https://api.twilio.com", cfg.Twilio.BaseURL)
	assert.Equal(t, "development", cfg.Security.SecurityMode)
	assert.Equal(t, 1500, cfg.Reply.MaxChars)
	assert.Equal(t, 5, cfg.Reply.HistoryWindow)
	assert.False(t, cfg.Backup.Enabled)
	assert.Equal(t, 6, cfg.Backup.IntervalHours)
	assert.Equal(t, 14, cfg.Backup.Keep)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SOUS_PORT", "9090")
	t.Setenv("SOUS_STORAGE_ENGINE", "postgres")
	t.Setenv("SOUS_POSTGRES_DSN", "postgres://localhost/sous")
	t.Setenv("SOUS_LLM_PROVIDER", "openai")
	t.Setenv("SOUS_OPENAI_API_KEY", "sk-test")
	t.Setenv("SOUS_BACKUP_ENABLED", "true")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.StorageEngine)
	assert.Equal(t, "postgres://localhost/sous", cfg.Storage.PostgresDSN)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAIAPIKey)
	assert.True(t, cfg.Backup.Enabled)
}

func TestLoadConfig_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("SOUS_PORT", "not-a-number")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestValidate_DevelopmentSkipsTwilioCheck(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{SecurityMode: "development"},
	}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ProductionRequiresTwilioCredentials(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{SecurityMode: "production"},
	}
	err := cfg.Validate()
	assert.ErrorIs(t, err, config.ErrMissingTwilioCredentials)

	cfg.Twilio.AccountSID = "AC123"
	cfg.Twilio.AuthToken = "token"
	assert.NoError(t, cfg.Validate())
}
