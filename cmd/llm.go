package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/quizzly/internal/llm"
	"github.com/abhisek/quizzly/internal/store"
	"github.com/abhisek/quizzly/internal/ui/theme"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

// openEventStore opens the SQLite store that holds model call events.
func openEventStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit, Purpose: purpose})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No model calls recorded.")
			return nil
		}
		printEventTable(w, events)
		return nil
	},
}

func printEventTable(w io.Writer, events []store.LLMRequestEventRecord) {
	fmt.Fprintf(w, "%-5s  %-19s  %-12s  %-28s  %-6s  %-6s  %-7s  %s\n",
		"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
	fmt.Fprintln(w, rule(100))

	for _, e := range events {
		ok := theme.Winner.Render("✓")
		if !e.Success {
			ok = theme.Failure.Render("✗")
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-12s  %-28s  %-6d  %-6d  %-7d  %s\n",
			e.ID,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Purpose,
			truncate(e.Model, 28),
			e.InputTokens,
			e.OutputTokens,
			e.LatencyMs,
			ok,
		)
	}
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and reply of one model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("event %d not found", id)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ID:        %d\n", e.ID)
		fmt.Fprintf(w, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(w, "Model:     %s\n", e.Model)
		fmt.Fprintf(w, "Purpose:   %s\n", e.Purpose)
		fmt.Fprintf(w, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(w, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(w, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:     %s\n", theme.Failure.Render(e.ErrorMessage))
		}

		printSection(w, "REQUEST", e.RequestBody)
		printSection(w, "RESPONSE", e.ResponseBody)
		return nil
	},
}

func printSection(w io.Writer, title, body string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule(60))
	fmt.Fprintln(w, theme.Subtitle.Render(title))
	fmt.Fprintln(w, rule(60))
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(w, body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openEventStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}
		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "No model usage recorded yet.")
			return nil
		}
		printPurposeUsage(w, stats)

		byModel, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(byModel) > 0 {
			fmt.Fprintln(w)
			printModelCost(w, byModel)
		}
		return nil
	},
}

func printPurposeUsage(w io.Writer, stats []store.LLMUsageStats) {
	fmt.Fprintln(w, theme.Subtitle.Render("Usage by purpose"))
	fmt.Fprintln(w, rule(72))
	fmt.Fprintf(w, "%-16s  %6s  %10s  %10s  %10s  %8s\n",
		"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
	fmt.Fprintln(w, rule(72))

	var calls, in, out int
	for _, st := range stats {
		fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d  %8d\n",
			st.Purpose, st.Calls, st.InputTokens, st.OutputTokens, st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
		calls += st.Calls
		in += st.InputTokens
		out += st.OutputTokens
	}
	fmt.Fprintln(w, rule(72))
	fmt.Fprintf(w, "%-16s  %6d  %10d  %10d  %10d\n", "TOTAL", calls, in, out, in+out)
}

func printModelCost(w io.Writer, usage []store.LLMModelUsage) {
	fmt.Fprintln(w, theme.Subtitle.Render("Estimated cost (USD)"))
	fmt.Fprintln(w, rule(72))
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n", "Model", "Calls", "Input", "Output", "Cost")
	fmt.Fprintln(w, rule(72))

	var total float64
	var unknown []string
	for _, mu := range usage {
		cost := llm.LookupCost(mu.Model)
		if cost == nil {
			unknown = append(unknown, mu.Model)
			fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
				truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
			continue
		}
		c := cost.Cost(mu.InputTokens, mu.OutputTokens)
		total += c
		fmt.Fprintf(w, "%-32s  %6d  %10d  %10d  %10s\n",
			truncate(mu.Model, 32), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
	}

	fmt.Fprintln(w, rule(72))
	label := "TOTAL"
	if len(unknown) > 0 {
		label = "TOTAL (partial)"
	}
	fmt.Fprintf(w, "%-32s  %6s  %10s  %10s  %10s\n", label, "", "", "", formatCost(total))
	if len(unknown) > 0 {
		fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
	}
}

func rule(n int) string {
	return theme.Hint.Render(strings.Repeat("─", n))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose (quiz-gen or quiz-repair)")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
