package cmd

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/metrics"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		log, err := newLogger(cmd, cfg, true)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := metrics.New(reg)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}

		b, err := openBackend(ctx, cfg, log, m)
		if err != nil {
			return err
		}
		defer b.Close()

		var gen quizgen.Generator
		g, provider, err := newGenerator(ctx, cfg, b.sqlite.EventRepo(), log, m)
		switch {
		case errors.Is(err, errNoModelKey):
			log.Warn("quiz generation disabled", "reason", err)
		case err != nil:
			return err
		default:
			gen = g
			log.Info("quiz generation enabled", "provider", provider)
		}

		if cfg.Server.Mode != "" {
			gin.SetMode(cfg.Server.Mode)
		}
		router := server.NewRouter(server.Options{
			Generator:   gen,
			Records:     b.records,
			Metrics:     m,
			Log:         log,
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimit:   cfg.RateLimit.MaxRequests,
			RateWindow:  cfg.RateLimit.Window,
		})

		srv := server.New(cfg.Server.Addr, router, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, log)
		return srv.Run(ctx, 10*time.Second)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
