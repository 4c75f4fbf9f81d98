package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/quiz"
	"github.com/abhisek/quizzly/internal/quizgen"
	"github.com/abhisek/quizzly/internal/store"
	"github.com/abhisek/quizzly/internal/ui/theme"
)

// generated is the machine-readable form of a generate run.
type generated struct {
	Quiz     *quiz.Quiz             `json:"quiz" yaml:"quiz"`
	Warnings []quiz.ValidationError `json:"warnings" yaml:"warnings"`
	Attempts int                    `json:"attempts" yaml:"attempts"`
	Model    string                 `json:"model" yaml:"model"`
	RecordID string                 `json:"recordId,omitempty" yaml:"recordId,omitempty"`
}

var generateCmd = &cobra.Command{
	Use:   "generate [quiz name...]",
	Short: "Generate a personality quiz",
	Example: `  quizzly generate Which Houseplant Are You
  quizzly generate -o json "Your Coffee Order" > quiz.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		noSave, _ := cmd.Flags().GetBool("no-save")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cmd, cfg, false)
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

		gen, _, err := newGenerator(ctx, cfg, b.sqlite.EventRepo(), log, nil)
		if err != nil {
			return err
		}

		name := strings.Join(args, " ")
		res, err := gen.Generate(ctx, name)
		if err != nil {
			var unrepairable *quizgen.ErrUnrepairableResponse
			if errors.As(err, &unrepairable) {
				fmt.Fprintln(cmd.ErrOrStderr(), theme.Failure.Render("The model returned an unusable quiz:"))
				fmt.Fprintln(cmd.ErrOrStderr(), unrepairable.Details())
			}
			return err
		}

		out := generated{
			Quiz:     res.Quiz,
			Warnings: res.Warnings,
			Attempts: res.Attempts,
			Model:    res.Model,
		}
		if out.Warnings == nil {
			out.Warnings = []quiz.ValidationError{}
		}

		if !noSave {
			recName := strings.TrimSpace(name)
			if recName == "" {
				recName = res.Quiz.Title
			}
			rec, err := b.records.Create(ctx, store.NewRecord{
				Name:         recName,
				Quiz:         res.Quiz,
				RawModelText: res.RawText,
			})
			if err != nil {
				return fmt.Errorf("save quiz: %w", err)
			}
			out.RecordID = rec.ID
		}

		return writeAs(cmd.OutOrStdout(), format, out, func(w io.Writer) {
			printQuiz(w, out.Quiz)
			if len(out.Warnings) > 0 {
				fmt.Fprintln(w)
				printViolations(w, out.Warnings)
			}
			fmt.Fprintln(w)
			if out.RecordID != "" {
				fmt.Fprintln(w, theme.Hint.Render("Saved as "+out.RecordID+". Play it with: quizzly play "+out.RecordID))
			}
		})
	},
}

func init() {
	generateCmd.Flags().StringP("output", "o", "text", "Output format: text, json or yaml")
	generateCmd.Flags().Bool("no-save", false, "Do not store the generated quiz")
}
