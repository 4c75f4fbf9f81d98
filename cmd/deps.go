package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/cache"
	"github.com/abhisek/quizzly/internal/config"
	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/logger"
	"github.com/abhisek/quizzly/internal/metrics"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
	"github.com/abhisek/quizzly/internal/store/postgres"
)

var errNoModelKey = errors.New("no model API key configured: set OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY or OPENROUTER_API_KEY")

// loadConfig reads the config file named by --config and applies --db.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.Store.Path = p
	}
	return cfg, nil
}

// newLogger builds the configured logger. Commands other than serve and
// mcp stay quiet unless --verbose is set.
func newLogger(cmd *cobra.Command, cfg *config.Config, always bool) (*logger.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !always && !verbose {
		return logger.Nop(), nil
	}
	lc := cfg.LoggerSettings()
	if verbose {
		lc.Mode = "dev"
	}
	return logger.New(lc)
}

// resolveDBPath returns the SQLite path from --db / config (highest
// priority), then QUIZZLY_DB, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.Store.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// backend bundles the opened storage. The SQLite store always exists
// because model call events are kept there.
type backend struct {
	sqlite  *store.Store
	records store.RecordRepo
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend opens SQLite, switches records to Postgres when configured
// and puts the Redis cache in front when an address is set.
func openBackend(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*backend, error) {
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	b := &backend{sqlite: st, records: st.RecordRepo()}
	b.closers = append(b.closers, func() { st.Close() })

	if cfg.Store.Driver == "postgres" {
		pool, err := postgres.Connect(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.records = postgres.NewRecordRepo(pool)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { client.Close() })
		b.records = cache.New(client, b.records, cfg.Redis.TTL,
			cache.WithLogger(log.With("component", "cache")),
			cache.WithObserver(m))
	}
	return b, nil
}

// newGenerator builds the model provider and pipeline. It returns
// errNoModelKey when no provider has credentials.
func newGenerator(ctx context.Context, cfg *config.Config, events store.EventRepo, log *logger.Logger, rec quizgen.Recorder) (quizgen.Generator, string, error) {
	llmCfg := cfg.LLMSettings()
	if !llmCfg.HasKey() {
		return nil, "", errNoModelKey
	}
	provider, err := llm.NewProvider(ctx, llmCfg, events, log)
	if err != nil {
		return nil, "", fmt.Errorf("LLM provider: %w", err)
	}

	opts := []quizgen.Option{quizgen.WithLogger(log)}
	if rec != nil {
		opts = append(opts, quizgen.WithRecorder(rec))
	}
	return quizgen.New(provider, cfg.QuizSettings(), opts...), llmCfg.Provider, nil
}
