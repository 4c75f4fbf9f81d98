// Package config loads quizzly settings from an optional YAML file and
// QUIZZLY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/quizgen"
)

// EnvPrefix prefixes every environment override, e.g. QUIZZLY_SERVER_ADDR.
const EnvPrefix = "QUIZZLY"

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Quiz      QuizConfig      `mapstructure:"quiz"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string        `mapstructure:"addr"`
	Mode        string        `mapstructure:"mode"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout must exceed two model calls.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
}

type LLMConfig struct {
	// Provider is empty to pick the first provider with a key.
	Provider   string         `mapstructure:"provider"`
	OpenAI     ProviderConfig `mapstructure:"openai"`
	Anthropic  ProviderConfig `mapstructure:"anthropic"`
	Gemini     ProviderConfig `mapstructure:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter"`
	Retry      RetryConfig    `mapstructure:"retry"`
}

type QuizConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	StructuredOutput bool          `mapstructure:"structured_output"`
}

type StoreConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type RedisConfig struct {
	// Addr is empty to disable the record cache.
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Mode string `mapstructure:"mode"`
	File string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 70*time.Second)

	llmDefaults := llm.DefaultConfig()
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.openai.model", llmDefaults.OpenAI.Model)
	v.SetDefault("llm.anthropic.model", llmDefaults.Anthropic.Model)
	v.SetDefault("llm.gemini.model", llmDefaults.Gemini.Model)
	v.SetDefault("llm.openrouter.model", llmDefaults.OpenRouter.Model)
	v.SetDefault("llm.retry.max_attempts", llmDefaults.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", llmDefaults.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", llmDefaults.Retry.MaxWait)

	quizDefaults := quizgen.DefaultConfig()
	v.SetDefault("quiz.timeout", quizDefaults.Timeout)
	v.SetDefault("quiz.max_tokens", quizDefaults.MaxTokens)
	v.SetDefault("quiz.temperature", quizDefaults.Temperature)
	v.SetDefault("quiz.structured_output", quizDefaults.StructuredOutput)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.postgres_dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("rate_limit.max_requests", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("log.mode", "prod")
	v.SetDefault("log.file", "")
}

func bindEnv(v *viper.Viper) {
	// Provider keys also answer to the names every SDK documents.
	_ = v.BindEnv("llm.openai.api_key", EnvPrefix+"_LLM_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.anthropic.api_key", EnvPrefix+"_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	_ = v.BindEnv("llm.gemini.api_key", EnvPrefix+"_LLM_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("llm.openrouter.api_key", EnvPrefix+"_LLM_OPENROUTER_API_KEY", "OPENROUTER_API_KEY")

	_ = v.BindEnv("store.postgres_dsn", EnvPrefix+"_STORE_POSTGRES_DSN", "DATABASE_URL")
	_ = v.BindEnv("store.path", EnvPrefix+"_STORE_PATH", EnvPrefix+"_DB")
	_ = v.BindEnv("redis.addr", EnvPrefix+"_REDIS_ADDR", "REDIS_ADDR")
}

// Load reads settings. path names a config file; when empty, quizzly.yaml
// is searched in the working directory and $XDG_CONFIG_HOME/quizzly, and
// a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("quizzly")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir := configDir(); dir != "" {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "quizzly")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "quizzly")
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case "sqlite":
	case "postgres":
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Quiz.Timeout <= 0 {
		return fmt.Errorf("quiz.timeout must be positive, got %s", c.Quiz.Timeout)
	}
	if c.RateLimit.MaxRequests < 0 {
		return fmt.Errorf("rate_limit.max_requests must not be negative")
	}
	return nil
}

// LLMSettings converts the llm section into an llm.Config. With no
// explicit provider the first of openai, anthropic, gemini and openrouter
// that has a key is chosen; with none, openai is kept and HasKey reports
// false.
func (c *Config) LLMSettings() llm.Config {
	cfg := llm.DefaultConfig()

	cfg.OpenAI = llm.OpenAIConfig{APIKey: c.LLM.OpenAI.APIKey, Model: c.LLM.OpenAI.Model, BaseURL: c.LLM.OpenAI.BaseURL}
	cfg.Anthropic = llm.AnthropicConfig{APIKey: c.LLM.Anthropic.APIKey, Model: c.LLM.Anthropic.Model, BaseURL: c.LLM.Anthropic.BaseURL}
	cfg.Gemini = llm.GeminiConfig{APIKey: c.LLM.Gemini.APIKey, Model: c.LLM.Gemini.Model}
	cfg.OpenRouter = llm.OpenRouterConfig{APIKey: c.LLM.OpenRouter.APIKey, Model: c.LLM.OpenRouter.Model, BaseURL: c.LLM.OpenRouter.BaseURL}

	if c.LLM.Retry.MaxAttempts > 0 {
		cfg.Retry.MaxAttempts = c.LLM.Retry.MaxAttempts
	}
	if c.LLM.Retry.InitialWait > 0 {
		cfg.Retry.InitialWait = c.LLM.Retry.InitialWait
	}
	if c.LLM.Retry.MaxWait > 0 {
		cfg.Retry.MaxWait = c.LLM.Retry.MaxWait
	}

	if p := strings.ToLower(strings.TrimSpace(c.LLM.Provider)); p != "" {
		cfg.Provider = p
		return cfg
	}
	for _, p := range []string{"openai", "anthropic", "gemini", "openrouter"} {
		cfg.Provider = p
		if cfg.HasKey() {
			return cfg
		}
	}
	cfg.Provider = "openai"
	return cfg
}

// QuizSettings converts the quiz section into a quizgen.Config.
func (c *Config) QuizSettings() quizgen.Config {
	return quizgen.Config{
		Timeout:          c.Quiz.Timeout,
		MaxTokens:        c.Quiz.MaxTokens,
		Temperature:      c.Quiz.Temperature,
		StructuredOutput: c.Quiz.StructuredOutput,
	}
}

// LoggerSettings converts the log section into a logger.Config.
func (c *Config) LoggerSettings() logger.Config {
	return logger.Config{Mode: c.Log.Mode, File: c.Log.File}
}
