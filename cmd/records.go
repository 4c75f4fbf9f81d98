package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/ui/theme"
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Browse stored quizzes",
}

var recordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent quizzes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := newLogger(cmd, cfg, false)
		if err != nil {
			return err
		}
		b, err := openBackend(cmd.Context(), cfg, log, nil)
		if err != nil {
			return err
		}
		defer b.Close()

		recs, err := b.records.List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list quizzes: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(recs) == 0 {
			fmt.Fprintln(w, "No quizzes stored yet.")
			return nil
		}

		fmt.Fprintf(w, "%-36s  %-19s  %-28s  %s\n", "ID", "Created", "Name", "First question")
		fmt.Fprintln(w, rule(110))
		for _, r := range recs {
			fmt.Fprintf(w, "%-36s  %-19s  %-28s  %s\n",
				theme.ChoiceKey.Render(r.ID),
				r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				truncate(r.Name, 28),
				theme.Hint.Render(truncate(r.FirstQuestionText, 40)))
		}
		return nil
	},
}

func init() {
	recordsListCmd.Flags().IntP("limit", "n", 20, "Number of quizzes to show")
	recordsCmd.AddCommand(recordsListCmd)
}
