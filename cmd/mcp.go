package cmd

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/mcptools"
	"github.com/abhisek/quizzly/internal/quizgen"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the quiz tools over MCP on stdio",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		// stdout carries the protocol; logs go to stderr and log.file.
		log, err := newLogger(cmd, cfg, cfg.Log.File != "")
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx := cmd.Context()
		b, err := openBackend(ctx, cfg, log, nil)
		if err != nil {
			return err
		}
		defer b.Close()

		var gen quizgen.Generator
		g, _, err := newGenerator(ctx, cfg, b.sqlite.EventRepo(), log, nil)
		switch {
		case errors.Is(err, errNoModelKey):
			log.Warn("generate_quiz disabled", "reason", err)
		case err != nil:
			return err
		default:
			gen = g
		}

		s := mcptools.NewServer(version, mcptools.Deps{Generator: gen, Records: b.records})
		return server.ServeStdio(s)
	},
}
