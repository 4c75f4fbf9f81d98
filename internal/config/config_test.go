package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config search paths and provider keys away from the
// developer's environment.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "OPENROUTER_API_KEY",
		"QUIZZLY_LLM_OPENAI_API_KEY", "QUIZZLY_LLM_ANTHROPIC_API_KEY",
		"QUIZZLY_LLM_GEMINI_API_KEY", "QUIZZLY_LLM_OPENROUTER_API_KEY",
		"QUIZZLY_LLM_PROVIDER", "DATABASE_URL", "REDIS_ADDR", "QUIZZLY_DB",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, 25*time.Second, cfg.Quiz.Timeout)
	assert.Equal(t, 2048, cfg.Quiz.MaxTokens)
	assert.InDelta(t, 0.4, cfg.Quiz.Temperature, 1e-9)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Redis.TTL)
	assert.Equal(t, 30, cfg.RateLimit.MaxRequests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.OpenAI.Model)

	llmCfg := cfg.LLMSettings()
	assert.Equal(t, "openai", llmCfg.Provider)
	assert.False(t, llmCfg.HasKey())
}

func TestLoad_File(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
  cors_origins: ["https://quiz.example.com"]
llm:
  provider: anthropic
  anthropic:
    api_key: sk-ant-test
quiz:
  timeout: 5s
  structured_output: true
rate_limit:
  max_requests: 3
  window: 10s
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://quiz.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.Quiz.Timeout)
	assert.True(t, cfg.Quiz.StructuredOutput)
	assert.Equal(t, 3, cfg.RateLimit.MaxRequests)

	llmCfg := cfg.LLMSettings()
	assert.Equal(t, "anthropic", llmCfg.Provider)
	assert.Equal(t, "sk-ant-test", llmCfg.Anthropic.APIKey)
	assert.True(t, llmCfg.HasKey())

	quizCfg := cfg.QuizSettings()
	assert.Equal(t, 5*time.Second, quizCfg.Timeout)
	assert.True(t, quizCfg.StructuredOutput)
}

func TestLoad_SearchesWorkingDirectory(t *testing.T) {
	isolate(t)
	require.NoError(t, os.WriteFile("quizzly.yaml", []byte("server:\n  addr: \":7070\"\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("QUIZZLY_SERVER_ADDR", ":6060")
	t.Setenv("QUIZZLY_QUIZ_TIMEOUT", "12s")
	t.Setenv("QUIZZLY_RATE_LIMIT_MAX_REQUESTS", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":6060", cfg.Server.Addr)
	assert.Equal(t, 12*time.Second, cfg.Quiz.Timeout)
	assert.Equal(t, 7, cfg.RateLimit.MaxRequests)
}

func TestLLMSettings_DiscoversFirstKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("OPENROUTER_API_KEY", "or-key")

	cfg, err := Load("")
	require.NoError(t, err)

	llmCfg := cfg.LLMSettings()
	assert.Equal(t, "gemini", llmCfg.Provider)
	assert.Equal(t, "gem-key", llmCfg.Gemini.APIKey)
}

func TestLLMSettings_PrefixedKeyWins(t *testing.T) {
	isolate(t)
	t.Setenv("OPENAI_API_KEY", "bare")
	t.Setenv("QUIZZLY_LLM_OPENAI_API_KEY", "prefixed")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.LLMSettings().OpenAI.APIKey)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"QUIZZLY_STORE_DRIVER": "mysql"}},
		{"postgres without dsn", map[string]string{"QUIZZLY_STORE_DRIVER": "postgres"}},
		{"zero timeout", map[string]string{"QUIZZLY_QUIZ_TIMEOUT": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
